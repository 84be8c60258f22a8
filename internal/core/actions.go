package core

import (
	"fmt"
	"strings"

	"renderfarm/internal/scene"
)

// Action is an operator action.
type Action int

const (
	ActionLogin Action = iota
	ActionLogout
	ActionRefresh
	ActionSelectCompleted
	ActionSelectRendering
	ActionSelectPending
	ActionSelectCancelled
	ActionCancelSelected
	ActionCheckStatus
	ActionLocalTestRender
	ActionSubmit
	ActionResetForm
	ActionUseDefaultRenderer
	ActionUsePhysicalRenderer
	ActionCopySceneSettings
	ActionSwitchToRemote
	ActionSwitchToLocal
)

var actionNames = [...]string{
	ActionLogin:               "login",
	ActionLogout:              "logout",
	ActionRefresh:             "refresh-sessions",
	ActionSelectCompleted:     "select-completed",
	ActionSelectRendering:     "select-rendering",
	ActionSelectPending:       "select-pending",
	ActionSelectCancelled:     "select-cancelled",
	ActionCancelSelected:      "cancel-selected-session",
	ActionCheckStatus:         "check-status",
	ActionLocalTestRender:     "run-local-test-render",
	ActionSubmit:              "submit",
	ActionResetForm:           "reset-form",
	ActionUseDefaultRenderer:  "use-default-renderer",
	ActionUsePhysicalRenderer: "use-physically-based-renderer",
	ActionCopySceneSettings:   "copy-scene-settings-to-form",
	ActionSwitchToRemote:      "switch-to-remote",
	ActionSwitchToLocal:       "switch-to-local",
}

// Actions lists every action.
func Actions() []Action {
	out := make([]Action, len(actionNames))
	for i := range actionNames {
		out[i] = Action(i)
	}
	return out
}

func (a Action) String() string {
	if a < 0 || int(a) >= len(actionNames) {
		return fmt.Sprintf("action(%d)", int(a))
	}
	return actionNames[a]
}

// ParseAction accepts the hyphenated action names.
func ParseAction(value string) (Action, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for i, name := range actionNames {
		if name == value {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", value)
}

// Params is the parameter record of an action.
type Params interface {
	params()
}

// NoParams is the record of actions that take nothing.
type NoParams struct{}

// LoginParams carries the login form. A blank password logs in with the
// stored credentials.
type LoginParams struct {
	User     string
	Password string
}

// SceneParams selects the working scene. A blank Path keeps the current
// selection; a non-nil Unsaved document is used as a never-saved scene.
type SceneParams struct {
	Path    string
	Unsaved *scene.Document
}

func (NoParams) params()    {}
func (LoginParams) params() {}
func (SceneParams) params() {}

// Request is one action with its parameters. A nil Params is NoParams.
type Request struct {
	Action Action
	Params Params
}

func (a Action) takesScene() bool {
	switch a {
	case ActionLocalTestRender, ActionSubmit, ActionCopySceneSettings, ActionSwitchToRemote, ActionSwitchToLocal:
		return true
	}
	return false
}

// checkParams verifies that the parameter record fits the action.
func (r Request) checkParams() (Params, error) {
	p := r.Params
	if p == nil {
		p = NoParams{}
	}
	switch p.(type) {
	case LoginParams:
		if r.Action == ActionLogin {
			return p, nil
		}
	case SceneParams:
		if r.Action.takesScene() {
			return p, nil
		}
	case NoParams:
		if r.Action == ActionLogin {
			return LoginParams{}, nil
		}
		if r.Action.takesScene() {
			return SceneParams{}, nil
		}
		return p, nil
	}
	return nil, fmt.Errorf("action %s does not take %T", r.Action, p)
}
