package preflight

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"docverify/internal/config"
)

// Reason classifies why a file was rejected before upload.
type Reason string

const (
	ReasonEmpty           Reason = "empty"
	ReasonTooLarge        Reason = "too_large"
	ReasonUnsupportedType Reason = "unsupported_type"
	ReasonUnreadable      Reason = "unreadable"
)

// Violation describes a file that must not be submitted.
type Violation struct {
	Path   string
	Reason Reason
	Detail string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s: %s", filepath.Base(v.Path), v.Detail)
}

// Limits are the client-side upload constraints.
type Limits struct {
	MaxBytes     int64
	AllowedTypes []string
}

// LimitsFromConfig derives upload limits from configuration.
func LimitsFromConfig(cfg *config.Config) Limits {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	return Limits{MaxBytes: cfg.MaxUploadBytes(), AllowedTypes: cfg.Upload.AllowedTypes}
}

// Upload describes a file that passed CheckUpload.
type Upload struct {
	Path      string
	Name      string
	Size      int64
	MediaType string
	Width     int
	Height    int
}

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
}

// CheckUpload validates size, extension and decoded image format of path.
// Rejections are returned as *Violation.
func CheckUpload(path string, limits Limits) (Upload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, &Violation{Path: path, Reason: ReasonUnreadable, Detail: fmt.Sprintf("cannot read file: %v", unwrapPathError(err))}
	}
	if info.IsDir() {
		return Upload{}, &Violation{Path: path, Reason: ReasonUnreadable, Detail: "is a directory"}
	}
	if info.Size() == 0 {
		return Upload{}, &Violation{Path: path, Reason: ReasonEmpty, Detail: "file is empty"}
	}
	if limits.MaxBytes > 0 && info.Size() > limits.MaxBytes {
		return Upload{}, &Violation{
			Path:   path,
			Reason: ReasonTooLarge,
			Detail: fmt.Sprintf("file is %s; maximum is %s", humanize.IBytes(uint64(info.Size())), humanize.IBytes(uint64(limits.MaxBytes))),
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	extType, ok := extensionTypes[ext]
	if !ok || !slices.Contains(limits.AllowedTypes, extType) {
		return Upload{}, &Violation{
			Path:   path,
			Reason: ReasonUnsupportedType,
			Detail: fmt.Sprintf("extension %q not accepted (allowed: %s)", ext, strings.Join(limits.AllowedTypes, ", ")),
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return Upload{}, &Violation{Path: path, Reason: ReasonUnreadable, Detail: fmt.Sprintf("cannot open file: %v", unwrapPathError(err))}
	}
	defer file.Close()

	imgCfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return Upload{}, &Violation{
			Path:   path,
			Reason: ReasonUnsupportedType,
			Detail: fmt.Sprintf("content is not a supported image (%v)", err),
		}
	}
	mediaType := "image/" + format
	if !slices.Contains(limits.AllowedTypes, mediaType) {
		return Upload{}, &Violation{
			Path:   path,
			Reason: ReasonUnsupportedType,
			Detail: fmt.Sprintf("content type %s not accepted (allowed: %s)", mediaType, strings.Join(limits.AllowedTypes, ", ")),
		}
	}

	return Upload{
		Path:      path,
		Name:      filepath.Base(path),
		Size:      info.Size(),
		MediaType: mediaType,
		Width:     imgCfg.Width,
		Height:    imgCfg.Height,
	}, nil
}

func unwrapPathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
