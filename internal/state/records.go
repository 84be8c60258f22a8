package state

import (
	"context"
	"time"

	"renderfarm/internal/form"
	"renderfarm/internal/prepare"
	"renderfarm/internal/sessions"
)

const (
	recordStatus    = "service_status"
	recordLogin     = "login"
	recordCatalogue = "catalogue"
	recordReport    = "preparation_report"
	recordForm      = "form"
	recordWorkspace = "workspace"
)

// ServiceStatus is the last answer of the service status call.
type ServiceStatus struct {
	Accepting bool      `json:"accepting"`
	Motd      string    `json:"motd"`
	CheckedAt time.Time `json:"checked_at"`
	// Error is the last status check failure, cleared by a successful check.
	Error string `json:"error,omitempty"`
}

// Login is the authenticated session obtained from the farm.
type Login struct {
	User       string    `json:"user"`
	UserID     int64     `json:"user_id"`
	Key        string    `json:"key"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Workspace is the working scene and its engine selection.
type Workspace struct {
	ScenePath string `json:"scene_path,omitempty"`
	// Engine is the working engine selection; empty means the scene's own.
	Engine string `json:"engine,omitempty"`
	// LocalEngine is the engine restored by switching to local rendering.
	LocalEngine string `json:"local_engine,omitempty"`
}

// SaveStatus stores the service status.
func (s *Store) SaveStatus(ctx context.Context, status ServiceStatus) error {
	return s.put(ctx, recordStatus, status)
}

// LoadStatus returns the stored service status, zero when none.
func (s *Store) LoadStatus(ctx context.Context) (ServiceStatus, error) {
	var status ServiceStatus
	_, err := s.get(ctx, recordStatus, &status)
	return status, err
}

// SaveLogin stores the login session.
func (s *Store) SaveLogin(ctx context.Context, login Login) error {
	return s.put(ctx, recordLogin, login)
}

// LoadLogin returns the login session and whether one is stored.
func (s *Store) LoadLogin(ctx context.Context) (Login, bool, error) {
	var login Login
	ok, err := s.get(ctx, recordLogin, &login)
	return login, ok, err
}

// ClearLogin forgets the login session.
func (s *Store) ClearLogin(ctx context.Context) error {
	return s.drop(ctx, recordLogin)
}

// SaveCatalogue stores a catalogue snapshot.
func (s *Store) SaveCatalogue(ctx context.Context, snap sessions.Snapshot) error {
	return s.put(ctx, recordCatalogue, snap)
}

// LoadCatalogue returns the stored catalogue snapshot.
func (s *Store) LoadCatalogue(ctx context.Context) (sessions.Snapshot, bool, error) {
	var snap sessions.Snapshot
	ok, err := s.get(ctx, recordCatalogue, &snap)
	return snap, ok, err
}

// SaveReport stores the last preparation report.
func (s *Store) SaveReport(ctx context.Context, report prepare.Report) error {
	return s.put(ctx, recordReport, report)
}

// LoadReport returns the last preparation report.
func (s *Store) LoadReport(ctx context.Context) (prepare.Report, error) {
	var report prepare.Report
	_, err := s.get(ctx, recordReport, &report)
	return report, err
}

// SaveForm stores the submission form.
func (s *Store) SaveForm(ctx context.Context, f form.Form) error {
	return s.put(ctx, recordForm, f)
}

// LoadForm returns the stored submission form and whether one exists.
func (s *Store) LoadForm(ctx context.Context) (form.Form, bool, error) {
	var f form.Form
	ok, err := s.get(ctx, recordForm, &f)
	return f, ok, err
}

// SaveWorkspace stores the working scene selection.
func (s *Store) SaveWorkspace(ctx context.Context, ws Workspace) error {
	return s.put(ctx, recordWorkspace, ws)
}

// LoadWorkspace returns the working scene selection.
func (s *Store) LoadWorkspace(ctx context.Context) (Workspace, error) {
	var ws Workspace
	_, err := s.get(ctx, recordWorkspace, &ws)
	return ws, err
}
