package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"renderfarm/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ConfigDir = filepath.Join(base, "config")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.AutosaveDir = filepath.Join(base, "state", "autosave")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Service.Host = "http://127.0.0.1:0"
	cfgVal.Service.DevHost = ""
	cfgVal.Service.RequestTimeout = 5

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create config directories: %v", err)
	}
	return builder.cfg
}

// WithHost points the service at host, typically a FarmServer URL.
func WithHost(host string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Service.Host = host
	}
}

// WithLocalRender overrides the local test render command line.
func WithLocalRender(command string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LocalRender.Command = command
		b.cfg.LocalRender.Args = args
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the local renderer binary is
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"blender"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
