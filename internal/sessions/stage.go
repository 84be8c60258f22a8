package sessions

import (
	"fmt"
	"strings"
)

// Stage is a session lifecycle stage.
type Stage int

const (
	StagePending Stage = iota
	StageRendering
	StageCompleted
	StageCancelled
)

// Stages lists every stage in display order.
var Stages = []Stage{StagePending, StageRendering, StageCompleted, StageCancelled}

var (
	stageNames = [...]string{"pending", "rendering", "completed", "cancelled"}
	stageWire  = [...]string{"accept", "render", "completed", "cancelled"}
)

func (s Stage) valid() bool {
	return s >= StagePending && s <= StageCancelled
}

func (s Stage) String() string {
	if !s.valid() {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Wire is the identifier the farm uses for the stage.
func (s Stage) Wire() string {
	if !s.valid() {
		return ""
	}
	return stageWire[s]
}

// ParseStage accepts either the local name or the wire identifier.
func ParseStage(value string) (Stage, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, s := range Stages {
		if value == stageNames[s] || value == stageWire[s] {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown session stage %q", value)
}

// View filters the display sequence to one stage or shows all of them. The
// zero value shows all.
type View int

// ViewAll shows the full concatenation.
const ViewAll View = 0

// StageView returns the view restricted to s.
func StageView(s Stage) View {
	if !s.valid() {
		return ViewAll
	}
	return View(s) + 1
}

// Stage returns the filtered stage, or false for ViewAll.
func (v View) Stage() (Stage, bool) {
	if v == ViewAll {
		return 0, false
	}
	s := Stage(v - 1)
	if !s.valid() {
		return 0, false
	}
	return s, true
}

func (v View) String() string {
	if s, ok := v.Stage(); ok {
		return s.String()
	}
	return "all"
}

// ParseView accepts "all" or any stage name.
func ParseView(value string) (View, error) {
	if strings.EqualFold(strings.TrimSpace(value), "all") || strings.TrimSpace(value) == "" {
		return ViewAll, nil
	}
	s, err := ParseStage(value)
	if err != nil {
		return ViewAll, err
	}
	return StageView(s), nil
}
