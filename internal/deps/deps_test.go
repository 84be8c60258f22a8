package deps

import (
	"os"
	"path/filepath"
	"testing"

	"renderfarm/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("blank command detail = %q", results[2].Detail)
	}
}

func TestRequirementsUseLocalRenderCommand(t *testing.T) {
	cfg := config.Default()
	cfg.LocalRender.Command = "my-blender"

	reqs := Requirements(&cfg)
	if len(reqs) != 1 || reqs[0].Command != "my-blender" || !reqs[0].Optional {
		t.Fatalf("requirements = %#v", reqs)
	}
	if _, err := Resolve(reqs[0]); err == nil {
		t.Fatal("expected resolve failure for missing binary")
	}
}
