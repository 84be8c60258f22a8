package scene

import "fmt"

// Render engine identifiers.
const (
	EngineInternal = "BLENDER_RENDER"
	EngineCycles   = "CYCLES"
	EngineRemote   = "RENDERFARM_REMOTE"
)

// FrameFormat is the host's output image format.
type FrameFormat string

const (
	FormatPNG        FrameFormat = "PNG"
	FormatEXR        FrameFormat = "OPEN_EXR"
	FormatMultilayer FrameFormat = "MULTILAYER"
	FormatHDR        FrameFormat = "HDR"
)

// Wire returns the farm identifier for formats the farm accepts.
func (f FrameFormat) Wire() (string, bool) {
	switch f {
	case FormatPNG:
		return "PNG_FORMAT", true
	case FormatEXR:
		return "EXR_FORMAT", true
	case FormatMultilayer:
		return "EXR_MULTILAYER_FORMAT", true
	default:
		return "", false
	}
}

// ParseFrameFormat accepts host identifiers case-insensitively plus the
// short aliases exr and multilayer.
func ParseFrameFormat(value string) (FrameFormat, error) {
	switch normalizeIdent(value) {
	case "PNG":
		return FormatPNG, nil
	case "OPEN_EXR", "EXR":
		return FormatEXR, nil
	case "MULTILAYER", "EXR_MULTILAYER", "OPEN_EXR_MULTILAYER":
		return FormatMultilayer, nil
	case "HDR", "RADIANCE_HDR":
		return FormatHDR, nil
	}
	return "", fmt.Errorf("unknown frame format %q", value)
}

// Particle system types and child modes.
const (
	ParticleEmitter = "EMITTER"
	ParticleHair    = "HAIR"

	ChildNone         = "NONE"
	ChildSimple       = "SIMPLE"
	ChildInterpolated = "INTERPOLATED"
)

// Render is the scene's render record.
type Render struct {
	Engine      string      `json:"engine"`
	ResolutionX int         `json:"resolution_x"`
	ResolutionY int         `json:"resolution_y"`
	FrameStart  int         `json:"frame_start"`
	FrameEnd    int         `json:"frame_end"`
	FPS         int         `json:"fps"`
	FileFormat  FrameFormat `json:"file_format"`
	Samples     int         `json:"samples"`
}

// Material is a shading datablock.
type Material struct {
	Name       string `json:"name"`
	Subsurface bool   `json:"subsurface,omitempty"`
	Library    string `json:"library,omitempty"`
}

// Modifier is an object modifier; only the type matters here.
type Modifier struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ParticleSystem is a particle system attached to an object.
type ParticleSystem struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	ChildType string `json:"child_type,omitempty"`
}

// Object is a scene object.
type Object struct {
	Name            string           `json:"name"`
	Modifiers       []Modifier       `json:"modifiers,omitempty"`
	ParticleSystems []ParticleSystem `json:"particle_systems,omitempty"`
	Library         string           `json:"library,omitempty"`
}

// Image is an image datablock. Filepath may start with "//" to mean
// relative to the scene file.
type Image struct {
	Name     string `json:"name"`
	Filepath string `json:"filepath,omitempty"`
	Packed   []byte `json:"packed,omitempty"`
}

// Library is an external scene file datablocks are linked from.
type Library struct {
	Name     string `json:"name"`
	Filepath string `json:"filepath"`
}

// Document is an open scene.
type Document struct {
	Name      string     `json:"name"`
	Render    Render     `json:"render"`
	Materials []Material `json:"materials,omitempty"`
	Objects   []Object   `json:"objects,omitempty"`
	Images    []Image    `json:"images,omitempty"`
	Libraries []Library  `json:"libraries,omitempty"`
}

// HasLinkedData reports whether any library is referenced.
func (d *Document) HasLinkedData() bool {
	return len(d.Libraries) > 0
}
