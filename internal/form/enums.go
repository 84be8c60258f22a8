package form

import (
	"fmt"
	"strings"

	"renderfarm/internal/scene"
)

// Renderer is the farm-side renderer.
type Renderer string

const (
	RendererDefault  Renderer = "blender"
	RendererPhysical Renderer = "cycles"
)

// ParseRenderer accepts the wire names plus "default" and "physical".
func ParseRenderer(value string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "blender", "default", "internal":
		return RendererDefault, nil
	case "cycles", "physical", "physically-based":
		return RendererPhysical, nil
	}
	return "", fmt.Errorf("unknown renderer %q", value)
}

// Engine is the host engine identifier the renderer maps to.
func (r Renderer) Engine() string {
	if r == RendererPhysical {
		return scene.EngineCycles
	}
	return scene.EngineInternal
}

// RendererForEngine maps a host engine into the portable enumeration.
func RendererForEngine(engine string) Renderer {
	if engine == scene.EngineCycles {
		return RendererPhysical
	}
	return RendererDefault
}

// License is a content license as numbered by the farm.
type License int

const (
	LicenseCCBY License = iota + 1
	LicenseCCBYSA
	LicenseCCBYND
	LicenseCCBYNC
	LicenseCCBYNCSA
	LicenseCCBYNCND
	LicenseCopyright
)

var licenseNames = map[License]string{
	LicenseCCBY:      "cc-by",
	LicenseCCBYSA:    "cc-by-sa",
	LicenseCCBYND:    "cc-by-nd",
	LicenseCCBYNC:    "cc-by-nc",
	LicenseCCBYNCSA:  "cc-by-nc-sa",
	LicenseCCBYNCND:  "cc-by-nc-nd",
	LicenseCopyright: "copyright",
}

func (l License) String() string {
	if name, ok := licenseNames[l]; ok {
		return name
	}
	return fmt.Sprintf("license(%d)", int(l))
}

// ParseLicense accepts the names used in config and on the command line.
func ParseLicense(value string) (License, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for l, name := range licenseNames {
		if name == value {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown license %q", value)
}
