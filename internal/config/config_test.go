package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"renderfarm/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("RENDERFARM_HOST", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantConfigDir := filepath.Join(tempHome, ".config", "renderfarm")
	if cfg.Paths.ConfigDir != wantConfigDir {
		t.Fatalf("unexpected config dir: got %q want %q", cfg.Paths.ConfigDir, wantConfigDir)
	}
	if cfg.CredentialPath() != filepath.Join(wantConfigDir, "credentials.toml") {
		t.Fatalf("unexpected credential path: %q", cfg.CredentialPath())
	}
	if cfg.DevModePath() != filepath.Join(wantConfigDir, "dev.toml") {
		t.Fatalf("dev.toml must sit beside the credential file, got %q", cfg.DevModePath())
	}
	if cfg.Service.Host != "https://xmlrpc.renderfarm.fi" {
		t.Fatalf("unexpected host: %q", cfg.Service.Host)
	}
	if cfg.Submission.MemoryLimit != 256 || cfg.Submission.Samples != 50 || cfg.Submission.SubSamples != 1 || cfg.Submission.Parts != 1 {
		t.Fatalf("unexpected submission defaults: %+v", cfg.Submission)
	}
	if cfg.TransientAlertWindow().Seconds() != 4 {
		t.Fatalf("expected 4s alert window, got %s", cfg.TransientAlertWindow())
	}
}

func TestLoadCustomConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "renderfarm.toml")
	body := `
[paths]
config_dir = "` + filepath.ToSlash(filepath.Join(dir, "cfg")) + `"

[service]
host = "http://farm.test/"
upload_path = "upload"

[submission]
renderer = "CYCLES"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RENDERFARM_HOST", "")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if cfg.Submission.Renderer != "cycles" {
		t.Fatalf("expected renderer normalized to cycles, got %q", cfg.Submission.Renderer)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging normalized, got %+v", cfg.Logging)
	}
	endpoints := cfg.ServiceEndpoints(config.DevMode{})
	if endpoints.Upload != "http://farm.test/upload" {
		t.Fatalf("unexpected upload endpoint %q", endpoints.Upload)
	}
	if endpoints.Secure != "http://farm.test/auth" || endpoints.General != "http://farm.test/session" {
		t.Fatalf("unexpected endpoints %+v", endpoints)
	}
}

func TestHostEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RENDERFARM_HOST", "http://env.farm.test")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Service.Host != "http://env.farm.test" {
		t.Fatalf("expected env host, got %q", cfg.Service.Host)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"empty host", func(c *config.Config) { c.Service.Host = "" }, "service.host"},
		{"bad scheme", func(c *config.Config) { c.Service.Host = "ftp://farm" }, "http or https"},
		{"renderer", func(c *config.Config) { c.Submission.Renderer = "eevee" }, "submission.renderer"},
		{"license", func(c *config.Config) { c.Submission.OutputLicense = "gpl" }, "output_license"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestServiceEndpointsDeveloperMode(t *testing.T) {
	cfg := config.Default()
	endpoints := cfg.ServiceEndpoints(config.DevMode{DeveloperMode: true})
	if !strings.HasPrefix(endpoints.General, "http://xmlrpc.dev.renderfarm.fi") {
		t.Fatalf("expected developer host, got %q", endpoints.General)
	}
}

func TestLoadDevMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.toml")

	if got := config.LoadDevMode(path); got.DeveloperMode || got.Verbose {
		t.Fatalf("missing file must yield both toggles off, got %+v", got)
	}

	if err := os.WriteFile(path, []byte("developer_mode = true\nverbose = true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := config.LoadDevMode(path); !got.DeveloperMode || !got.Verbose {
		t.Fatalf("expected both toggles on, got %+v", got)
	}

	if err := os.WriteFile(path, []byte("developer_mode = \"yes\"\nverbose = [\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := config.LoadDevMode(path); got.DeveloperMode || got.Verbose {
		t.Fatalf("malformed file must yield both toggles off, got %+v", got)
	}

	if err := os.WriteFile(path, []byte("developer_mode = \"yes\"\nverbose = true\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := config.LoadDevMode(path); got.DeveloperMode || !got.Verbose {
		t.Fatalf("non-boolean developer_mode must be off, got %+v", got)
	}
}

func TestCreateSampleLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	t.Setenv("HOME", dir)
	t.Setenv("RENDERFARM_HOST", "")
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config must load cleanly: exists=%v err=%v", exists, err)
	}
}
