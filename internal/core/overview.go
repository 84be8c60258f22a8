package core

import (
	"context"
	"time"

	"renderfarm/internal/config"
	"renderfarm/internal/form"
	"renderfarm/internal/prepare"
	"renderfarm/internal/sessions"
	"renderfarm/internal/state"
)

// Overview is everything a front end renders after an action.
type Overview struct {
	User     string
	LoggedIn bool
	Login    state.Login
	Status   state.ServiceStatus
	Alerts   []state.Alert
	Report   prepare.Report
	Warnings []string

	Sessions    []sessions.Entry
	View        sessions.View
	Selected    int
	HasSelected bool
	RefreshedAt time.Time

	Form      form.Form
	Workspace state.Workspace
	Dev       config.DevMode
}

// NeedsLogin reports whether the front end should show the login form.
func (o Overview) NeedsLogin() bool {
	return o.User == "" || !o.LoggedIn
}

// Overview returns the current state with the alerts active now.
func (c *Core) Overview(ctx context.Context) (Overview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	alerts, err := c.store.ActiveAlerts(ctx, c.now())
	if err != nil {
		return Overview{}, err
	}
	_, hasSelected := c.catalogue.Selected()
	return Overview{
		User:        c.record.User,
		LoggedIn:    c.loggedIn,
		Login:       c.login,
		Status:      c.status,
		Alerts:      alerts,
		Report:      c.report,
		Warnings:    c.report.Warnings(),
		Sessions:    c.catalogue.Display(),
		View:        c.catalogue.View(),
		Selected:    c.catalogue.SelectedIndex(),
		HasSelected: hasSelected,
		RefreshedAt: c.catalogue.RefreshedAt(),
		Form:        c.form,
		Workspace:   c.workspace,
		Dev:         c.dev,
	}, nil
}
