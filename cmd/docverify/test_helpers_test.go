package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docverify/internal/config"
	"docverify/internal/testsupport"
)

type cliTestEnv struct {
	svc        *testsupport.FakeService
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("DOCVERIFY_API_URL", "")
	t.Setenv("DOCVERIFY_TOKEN", "")
	t.Setenv("DOCVERIFY_NTFY_TOPIC", "")

	svc := testsupport.NewFakeService(t)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(svc.URL()))

	configPath := filepath.Join(homeDir, ".config", "docverify", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		svc:        svc,
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[service]\nbase_url = %q\n\n[polling]\ninterval_ms = %d\n\n[paths]\nstate_dir = %q\ndownload_dir = %q\n",
		cfg.Service.BaseURL,
		cfg.Polling.IntervalMillis,
		cfg.Paths.StateDir,
		cfg.Paths.DownloadDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
