package preflight

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"docverify/internal/api"
	"docverify/internal/config"
)

func writeImage(t *testing.T, name string, encode func(io.Writer, image.Image) error) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", name, err)
	}
	return path
}

func defaultLimits() Limits {
	cfg := config.Default()
	return LimitsFromConfig(&cfg)
}

func TestCheckUploadAcceptsSupportedFormats(t *testing.T) {
	tests := []struct {
		name   string
		encode func(io.Writer, image.Image) error
		want   string
	}{
		{"card.png", png.Encode, "image/png"},
		{"card.jpg", func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }, "image/jpeg"},
		{"card.bmp", bmp.Encode, "image/bmp"},
		{"card.tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, "image/tiff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeImage(t, tt.name, tt.encode)
			upload, err := CheckUpload(path, defaultLimits())
			if err != nil {
				t.Fatalf("CheckUpload: %v", err)
			}
			if upload.MediaType != tt.want {
				t.Fatalf("media type = %q, want %q", upload.MediaType, tt.want)
			}
			if upload.Width != 8 || upload.Height != 4 {
				t.Fatalf("unexpected dimensions %dx%d", upload.Width, upload.Height)
			}
			if upload.Name != tt.name {
				t.Fatalf("unexpected name %q", upload.Name)
			}
		})
	}
}

func TestCheckUploadRejections(t *testing.T) {
	dir := t.TempDir()
	textAsPNG := filepath.Join(dir, "notes.png")
	if err := os.WriteFile(textAsPNG, []byte("plain text"), 0o644); err != nil {
		t.Fatal(err)
	}
	empty := filepath.Join(dir, "empty.jpg")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	gif := filepath.Join(dir, "card.gif")
	if err := os.WriteFile(gif, []byte("GIF89a"), 0o644); err != nil {
		t.Fatal(err)
	}
	pngPath := writeImage(t, "card.png", png.Encode)

	tests := []struct {
		name   string
		path   string
		limits Limits
		reason Reason
	}{
		{"missing", filepath.Join(dir, "missing.png"), defaultLimits(), ReasonUnreadable},
		{"directory", dir + "/", defaultLimits(), ReasonUnreadable},
		{"empty", empty, defaultLimits(), ReasonEmpty},
		{"too large", pngPath, Limits{MaxBytes: 10, AllowedTypes: []string{"image/png"}}, ReasonTooLarge},
		{"extension", gif, defaultLimits(), ReasonUnsupportedType},
		{"content", textAsPNG, defaultLimits(), ReasonUnsupportedType},
		{"type not allowed", pngPath, Limits{MaxBytes: 1 << 20, AllowedTypes: []string{"image/jpeg"}}, ReasonUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CheckUpload(tt.path, tt.limits)
			var violation *Violation
			if !errors.As(err, &violation) {
				t.Fatalf("expected *Violation, got %v", err)
			}
			if violation.Reason != tt.reason {
				t.Fatalf("reason = %s, want %s (%v)", violation.Reason, tt.reason, err)
			}
		})
	}
}

func TestCheckUploadSizeMessageIsHumanReadable(t *testing.T) {
	pngPath := writeImage(t, "card.png", png.Encode)
	_, err := CheckUpload(pngPath, Limits{MaxBytes: 10, AllowedTypes: []string{"image/png"}})
	if err == nil || !strings.Contains(err.Error(), "maximum is 10 B") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCheckDirectoryAccess(t *testing.T) {
	if result := CheckDirectoryAccess("test", t.TempDir()); !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
	if result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope")); result.Passed || result.Detail == "" {
		t.Fatalf("expected failure for missing dir: %+v", result)
	}
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if result := CheckDirectoryAccess("test", f); result.Passed {
		t.Fatal("expected failure for file path")
	}
}

type fakeChecker struct {
	resp api.HealthResponse
	err  error
}

func (f fakeChecker) Health(context.Context) (api.HealthResponse, error) { return f.resp, f.err }

func TestCheckService(t *testing.T) {
	tests := []struct {
		name    string
		checker fakeChecker
		passed  bool
		detail  string
	}{
		{"healthy", fakeChecker{resp: api.HealthResponse{Status: "healthy", ModelsLoaded: true, DiskSpaceAvailable: true, Version: "1.0.0"}}, true, "version 1.0.0"},
		{"no models", fakeChecker{resp: api.HealthResponse{Status: "healthy", DiskSpaceAvailable: true}}, false, "models not loaded"},
		{"timeout", fakeChecker{err: context.DeadlineExceeded}, false, "timed out"},
		{"error", fakeChecker{err: errors.New("connection refused")}, false, "connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckService(context.Background(), tt.checker)
			if result.Passed != tt.passed || !strings.Contains(result.Detail, tt.detail) {
				t.Fatalf("unexpected result %+v", result)
			}
		})
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.DownloadDir = t.TempDir()
	healthy := fakeChecker{resp: api.HealthResponse{Status: "healthy", ModelsLoaded: true, DiskSpaceAvailable: true}}

	results := RunAll(context.Background(), &cfg, healthy)
	if len(results) != 3 || !AllPassed(results) {
		t.Fatalf("expected three passing checks, got %+v", results)
	}
	if got := RunAll(context.Background(), &cfg, nil); len(got) != 2 {
		t.Fatalf("expected service check skipped, got %+v", got)
	}
	if RunAll(context.Background(), nil, healthy) != nil {
		t.Fatal("expected nil results for nil config")
	}
}
