package scene_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"renderfarm/internal/scene"
)

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenDefaultsNameFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.blend")
	writeJSON(t, path, scene.Document{Render: scene.Render{FileFormat: scene.FormatHDR}})

	host, err := scene.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if host.Document().Name != "shot" {
		t.Fatalf("name = %q", host.Document().Name)
	}
	if host.Path() != path {
		t.Fatalf("path = %q", host.Path())
	}
}

func TestPackImagesResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "tex"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tex", "wood.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "shot.blend")
	writeJSON(t, path, scene.Document{Images: []scene.Image{
		{Name: "wood", Filepath: "//tex/wood.png"},
		{Name: "generated"},
	}})

	host, err := scene.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := host.PackImages(); err != nil {
		t.Fatalf("PackImages: %v", err)
	}
	if !bytes.Equal(host.Document().Images[0].Packed, []byte("png-bytes")) {
		t.Fatalf("image not packed: %+v", host.Document().Images[0])
	}
}

func TestPackImagesReportsMissingFiles(t *testing.T) {
	host := scene.NewUnsaved(&scene.Document{Images: []scene.Image{
		{Name: "gone", Filepath: "/does/not/exist.png"},
	}})
	err := host.PackImages()
	if err == nil || !strings.Contains(err.Error(), "gone") {
		t.Fatalf("expected error naming the image, got %v", err)
	}
}

func TestMakeLocalCopiesLinkedDatablocks(t *testing.T) {
	dir := t.TempDir()
	writeJSON(t, filepath.Join(dir, "lib", "props.blend"), scene.Document{
		Objects:   []scene.Object{{Name: "Chair", Modifiers: []scene.Modifier{{Name: "Cloth", Type: "CLOTH"}}}},
		Materials: []scene.Material{{Name: "Skin", Subsurface: true}},
	})
	path := filepath.Join(dir, "shot.blend")
	writeJSON(t, path, scene.Document{
		Objects:   []scene.Object{{Name: "Chair", Library: "props"}, {Name: "Floor"}},
		Materials: []scene.Material{{Name: "Skin", Library: "props"}},
		Libraries: []scene.Library{{Name: "props", Filepath: "//lib/props.blend"}},
	})

	host, err := scene.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := host.MakeLocal(); err != nil {
		t.Fatalf("MakeLocal: %v", err)
	}
	doc := host.Document()
	if doc.HasLinkedData() {
		t.Fatal("libraries must be dropped")
	}
	if doc.Objects[0].Library != "" || len(doc.Objects[0].Modifiers) != 1 {
		t.Fatalf("object not made local: %+v", doc.Objects[0])
	}
	if !doc.Materials[0].Subsurface {
		t.Fatalf("material not made local: %+v", doc.Materials[0])
	}
}

func TestMakeLocalFailsOnMissingLibrary(t *testing.T) {
	host := scene.NewUnsaved(&scene.Document{
		Objects:   []scene.Object{{Name: "Chair", Library: "props"}},
		Libraries: []scene.Library{{Name: "props", Filepath: "/nowhere/props.blend"}},
	})
	if err := host.MakeLocal(); err == nil {
		t.Fatal("expected error")
	}
	if !host.Document().HasLinkedData() {
		t.Fatal("libraries must stay referenced after a failed flatten")
	}
}

func TestSaveCopyLeavesOriginalAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.blend")
	writeJSON(t, path, scene.Document{Name: "shot"})
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	host, err := scene.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	host.Document().Render.Engine = scene.EngineCycles
	if err := host.SaveCopy(path); err == nil {
		t.Fatal("saving over the open scene must be refused")
	}
	derived := filepath.Join(dir, "copy.blend")
	if err := host.SaveCopy(derived); err != nil {
		t.Fatalf("SaveCopy: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("original scene file changed")
	}
	copyHost, err := scene.Open(derived)
	if err != nil {
		t.Fatal(err)
	}
	if copyHost.Document().Render.Engine != scene.EngineCycles {
		t.Fatalf("derived engine = %q", copyHost.Document().Render.Engine)
	}
}

func TestFrameFormatWire(t *testing.T) {
	tests := map[scene.FrameFormat]string{
		scene.FormatPNG:        "PNG_FORMAT",
		scene.FormatEXR:        "EXR_FORMAT",
		scene.FormatMultilayer: "EXR_MULTILAYER_FORMAT",
	}
	for f, want := range tests {
		if got, ok := f.Wire(); !ok || got != want {
			t.Fatalf("%s wire = %q %v", f, got, ok)
		}
	}
	if _, ok := scene.FormatHDR.Wire(); ok {
		t.Fatal("HDR has no farm identifier")
	}
	if f, err := scene.ParseFrameFormat("exr"); err != nil || f != scene.FormatEXR {
		t.Fatalf("ParseFrameFormat(exr) = %v %v", f, err)
	}
}
