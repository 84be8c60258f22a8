package textutil

import "testing"

func TestSanitizeToken(t *testing.T) {
	tests := map[string]string{
		"":          "unknown",
		"My Shot":   "my_shot",
		"__x__":     "x",
		"Scene.001": "scene_001",
		"dragon-v2": "dragon-v2",
		"!!!":       "unknown",
	}
	for in, want := range tests {
		if got := SanitizeToken(in); got != want {
			t.Fatalf("SanitizeToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"pending":          "Pending",
		"physically-based": "Physically Based",
		"cc_by_sa":         "Cc By Sa",
		"  ":               "",
	}
	for in, want := range tests {
		if got := Title(in); got != want {
			t.Fatalf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}
