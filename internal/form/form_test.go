package form

import (
	"errors"
	"strings"
	"testing"

	"renderfarm/internal/config"
	"renderfarm/internal/credentials"
	"renderfarm/internal/scene"
	"renderfarm/internal/services"
)

func TestDefaultFromConfig(t *testing.T) {
	f := Default(config.Default().Submission)
	if f.MemoryLimit != 256 || f.Parts != 1 || f.Samples != 50 || f.SubSamples != 1 {
		t.Fatalf("unexpected defaults: %+v", f)
	}
	if f.Renderer != RendererDefault || f.OutputLicense != LicenseCCBYSA || f.FrameFormat != scene.FormatPNG {
		t.Fatalf("unexpected enum defaults: %+v", f)
	}
}

func TestNormalizeSubSamples(t *testing.T) {
	tests := []struct {
		samples, sub, want int
	}{
		{50, 0, 1},
		{50, -4, 1},
		{1000, 50, 10},
		{1000, 5, 5},
		{250, 3, 2},
		{0, 0, 1},
		{100, 1, 1},
	}
	for _, tt := range tests {
		f := Form{Samples: tt.samples, SubSamples: tt.sub}
		f.NormalizeSubSamples()
		if f.SubSamples != tt.want {
			t.Fatalf("samples=%d sub=%d -> %d, want %d", tt.samples, tt.sub, f.SubSamples, tt.want)
		}
	}
}

func TestValidateListsMissingFields(t *testing.T) {
	err := Form{Title: "  "}.Validate(credentials.Record{User: "a@b.c"})
	if !errors.Is(err, services.ErrInfoMissing) {
		t.Fatalf("expected info-missing, got %v", err)
	}
	for _, field := range []string{"title", "short description", "long description", "credentials"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected %q in %q", field, err)
		}
	}

	ok := Form{Title: "t", ShortDescription: "s", LongDescription: "l"}
	if err := ok.Validate(credentials.Record{User: "a@b.c", Hash: "h"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCopySceneSettings(t *testing.T) {
	f := Default(config.Default().Submission)
	f.CopySceneSettings(scene.Render{
		Engine: scene.EngineCycles, ResolutionX: 1280, ResolutionY: 720,
		FrameStart: 10, FrameEnd: 20, FPS: 30, FileFormat: scene.FormatEXR, Samples: 400,
	})
	if f.ResolutionX != 1280 || f.ResolutionY != 720 || f.FrameStart != 10 || f.FrameEnd != 20 || f.FPS != 30 {
		t.Fatalf("geometry not copied: %+v", f)
	}
	if f.Samples != 400 || f.FrameFormat != scene.FormatEXR || f.Renderer != RendererPhysical {
		t.Fatalf("render settings not copied: %+v", f)
	}

	f.CopySceneSettings(scene.Render{Engine: scene.EngineRemote})
	if f.Renderer != RendererPhysical {
		t.Fatal("remote engine must not change the chosen renderer")
	}
}

func TestParseEnums(t *testing.T) {
	if r, err := ParseRenderer("physical"); err != nil || r != RendererPhysical {
		t.Fatalf("ParseRenderer = %v %v", r, err)
	}
	if _, err := ParseRenderer("eevee"); err == nil {
		t.Fatal("expected error")
	}
	if l, err := ParseLicense("CC-BY-NC"); err != nil || l != LicenseCCBYNC {
		t.Fatalf("ParseLicense = %v %v", l, err)
	}
	if LicenseCopyright.String() != "copyright" || int(LicenseCopyright) != 7 {
		t.Fatalf("license numbering changed: %d", LicenseCopyright)
	}
	if RendererPhysical.Engine() != scene.EngineCycles || RendererDefault.Engine() != scene.EngineInternal {
		t.Fatal("renderer engine mapping broken")
	}
}
