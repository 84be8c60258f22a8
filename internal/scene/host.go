package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"renderfarm/internal/fileutil"
)

// Host is the scene host the preparation pipeline talks to.
type Host interface {
	// Path is the file the scene was opened from, empty for unsaved scenes.
	Path() string
	Document() *Document
	PackImages() error
	MakeLocal() error
	SaveCopy(path string) error
}

// FileHost keeps a scene document loaded from a JSON file.
type FileHost struct {
	path string
	doc  *Document
}

// Open loads the scene stored at path.
func Open(path string) (*FileHost, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve scene path: %w", err)
	}
	doc, err := readDocument(abs)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(doc.Name) == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
	}
	return &FileHost{path: abs, doc: doc}, nil
}

// NewUnsaved wraps an in-memory document that has never been saved.
func NewUnsaved(doc *Document) *FileHost {
	if doc == nil {
		doc = &Document{}
	}
	return &FileHost{doc: doc}
}

func (h *FileHost) Path() string { return h.path }

func (h *FileHost) Document() *Document { return h.doc }

// PackImages embeds every external image into the document. All images are
// attempted; the joined error lists the ones that could not be read.
func (h *FileHost) PackImages() error {
	var errs []error
	for i := range h.doc.Images {
		img := &h.doc.Images[i]
		if len(img.Packed) > 0 || strings.TrimSpace(img.Filepath) == "" {
			continue
		}
		data, err := os.ReadFile(h.resolve(img.Filepath))
		if err != nil {
			errs = append(errs, fmt.Errorf("image %s: %w", img.Name, err))
			continue
		}
		img.Packed = data
	}
	return errors.Join(errs...)
}

// MakeLocal replaces linked datablocks with local copies read from their
// library files and drops the library references.
func (h *FileHost) MakeLocal() error {
	if len(h.doc.Libraries) == 0 {
		return nil
	}
	libs := make(map[string]*Document, len(h.doc.Libraries))
	for _, lib := range h.doc.Libraries {
		doc, err := readDocument(h.resolve(lib.Filepath))
		if err != nil {
			return fmt.Errorf("library %s: %w", lib.Name, err)
		}
		libs[lib.Name] = doc
	}

	for i := range h.doc.Objects {
		obj := &h.doc.Objects[i]
		if obj.Library == "" {
			continue
		}
		src, err := findObject(libs, obj.Library, obj.Name)
		if err != nil {
			return err
		}
		*obj = src
		obj.Library = ""
	}
	for i := range h.doc.Materials {
		mat := &h.doc.Materials[i]
		if mat.Library == "" {
			continue
		}
		src, err := findMaterial(libs, mat.Library, mat.Name)
		if err != nil {
			return err
		}
		*mat = src
		mat.Library = ""
	}
	h.doc.Libraries = nil
	return nil
}

func findObject(libs map[string]*Document, lib, name string) (Object, error) {
	doc, ok := libs[lib]
	if !ok {
		return Object{}, fmt.Errorf("object %s links unknown library %s", name, lib)
	}
	for _, obj := range doc.Objects {
		if obj.Name == name {
			return obj, nil
		}
	}
	return Object{}, fmt.Errorf("object %s not found in library %s", name, lib)
}

func findMaterial(libs map[string]*Document, lib, name string) (Material, error) {
	doc, ok := libs[lib]
	if !ok {
		return Material{}, fmt.Errorf("material %s links unknown library %s", name, lib)
	}
	for _, mat := range doc.Materials {
		if mat.Name == name {
			return mat, nil
		}
	}
	return Material{}, fmt.Errorf("material %s not found in library %s", name, lib)
}

// SaveCopy writes the document to path. The host keeps pointing at the file
// it was opened from.
func (h *FileHost) SaveCopy(path string) error {
	if h.path != "" {
		if same, _ := samePath(h.path, path); same {
			return fmt.Errorf("refusing to overwrite the open scene %s", h.path)
		}
	}
	data, err := json.MarshalIndent(h.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save scene copy: %w", err)
	}
	return nil
}

func (h *FileHost) resolve(p string) string {
	if rest, ok := strings.CutPrefix(p, "//"); ok {
		base := "."
		if h.path != "" {
			base = filepath.Dir(h.path)
		}
		return filepath.Join(base, filepath.FromSlash(rest))
	}
	return filepath.FromSlash(p)
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}

func readDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scene %s: %w", path, err)
	}
	return &doc, nil
}
