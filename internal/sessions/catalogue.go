package sessions

import (
	"context"
	"fmt"
	"time"

	"renderfarm/internal/services"
)

const (
	pageLimit = 100
	maxPages  = 50
)

// Fetcher is the slice of the RPC client the catalogue needs.
type Fetcher interface {
	GetSessions(ctx context.Context, userID int64, stage string, offset, limit int, detail bool) ([]map[string]any, error)
}

// Entry is one row of the display sequence.
type Entry struct {
	Index int
	Label string
	Descriptor
}

// Catalogue is the stage-partitioned session catalogue.
type Catalogue struct {
	stages      [4][]Descriptor
	all         []Descriptor
	view        View
	selected    int
	refreshedAt time.Time
}

// NewCatalogue returns an empty catalogue showing all stages.
func NewCatalogue() *Catalogue {
	return &Catalogue{view: ViewAll}
}

// Refresh queries every stage and replaces the catalogue contents in one
// step. On failure the catalogue is left empty.
func (c *Catalogue) Refresh(ctx context.Context, fetcher Fetcher, userID int64, now time.Time) error {
	c.stages = [4][]Descriptor{}
	c.all = nil

	var next [4][]Descriptor
	for _, stage := range Stages {
		descriptors, err := fetchStage(ctx, fetcher, userID, stage)
		if err != nil {
			return services.Wrap(services.ErrQuery, "sessions", "refresh", stage.String(), err)
		}
		next[stage] = descriptors
	}

	// A session that moved while we were paging shows up twice; the later
	// stage in lifecycle order is the newer observation.
	owner := make(map[int64]Stage)
	for _, stage := range Stages {
		for _, d := range next[stage] {
			owner[d.ID] = stage
		}
	}
	for _, stage := range Stages {
		kept := next[stage][:0]
		for _, d := range next[stage] {
			if owner[d.ID] == stage {
				kept = append(kept, d)
				delete(owner, d.ID)
			}
		}
		next[stage] = kept
	}

	c.stages = next
	c.rebuild()
	c.refreshedAt = now
	return nil
}

func fetchStage(ctx context.Context, fetcher Fetcher, userID int64, stage Stage) ([]Descriptor, error) {
	var out []Descriptor
	for page := 0; page < maxPages; page++ {
		records, err := fetcher.GetSessions(ctx, userID, stage.Wire(), page*pageLimit, pageLimit, true)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			d, err := FromRecord(rec, stage)
			if err != nil {
				return nil, fmt.Errorf("%s record: %w", stage, err)
			}
			out = append(out, d)
		}
		if len(records) < pageLimit {
			break
		}
	}
	return out, nil
}

func (c *Catalogue) rebuild() {
	total := 0
	for _, seq := range c.stages {
		total += len(seq)
	}
	all := make([]Descriptor, 0, total)
	for _, stage := range Stages {
		all = append(all, c.stages[stage]...)
	}
	c.all = all
	c.clampSelection()
}

// Stage returns a copy of one stage sequence.
func (c *Catalogue) Stage(s Stage) []Descriptor {
	if !s.valid() {
		return nil
	}
	return append([]Descriptor(nil), c.stages[s]...)
}

// All returns a copy of the concatenation.
func (c *Catalogue) All() []Descriptor {
	return append([]Descriptor(nil), c.all...)
}

// Len is the concatenation length.
func (c *Catalogue) Len() int {
	return len(c.all)
}

// Display returns the labelled rows for the current view.
func (c *Catalogue) Display() []Entry {
	rows := c.visible()
	out := make([]Entry, len(rows))
	for i, d := range rows {
		out[i] = Entry{Index: i, Label: d.Label(), Descriptor: d}
	}
	return out
}

func (c *Catalogue) visible() []Descriptor {
	if s, ok := c.view.Stage(); ok {
		return c.stages[s]
	}
	return c.all
}

// SetView switches the display filter and resets the selection to the top.
func (c *Catalogue) SetView(v View) {
	if _, ok := v.Stage(); !ok {
		v = ViewAll
	}
	c.view = v
	c.selected = 0
}

// View returns the active display filter.
func (c *Catalogue) View() View {
	return c.view
}

// Select sets the selected index, clamped to the display sequence.
func (c *Catalogue) Select(index int) int {
	c.selected = index
	c.clampSelection()
	return c.selected
}

func (c *Catalogue) clampSelection() {
	n := len(c.visible())
	switch {
	case n == 0 || c.selected < 0:
		c.selected = 0
	case c.selected >= n:
		c.selected = n - 1
	}
}

// SelectedIndex returns the current selection index.
func (c *Catalogue) SelectedIndex() int {
	return c.selected
}

// Selected returns the selected descriptor when the display is non-empty.
func (c *Catalogue) Selected() (Descriptor, bool) {
	rows := c.visible()
	if len(rows) == 0 {
		return Descriptor{}, false
	}
	return rows[c.selected], true
}

// RefreshedAt reports when the last successful refresh finished.
func (c *Catalogue) RefreshedAt() time.Time {
	return c.refreshedAt
}

// Invalidate empties every sequence.
func (c *Catalogue) Invalidate() {
	c.stages = [4][]Descriptor{}
	c.all = nil
	c.view = ViewAll
	c.selected = 0
	c.refreshedAt = time.Time{}
}

// Snapshot is the persisted form of a catalogue.
type Snapshot struct {
	Sessions    []Descriptor `json:"sessions"`
	View        View         `json:"view"`
	Selected    int          `json:"selected"`
	RefreshedAt time.Time    `json:"refreshed_at"`
}

// Snapshot captures the catalogue for persistence.
func (c *Catalogue) Snapshot() Snapshot {
	return Snapshot{
		Sessions:    c.All(),
		View:        c.view,
		Selected:    c.selected,
		RefreshedAt: c.refreshedAt,
	}
}

// Restore replaces the catalogue with a snapshot. Descriptors are regrouped
// by their stage so the partition invariant holds for hand-edited input too.
func (c *Catalogue) Restore(s Snapshot) {
	var next [4][]Descriptor
	seen := make(map[int64]struct{}, len(s.Sessions))
	for _, d := range s.Sessions {
		if !d.Stage.valid() {
			continue
		}
		if _, dup := seen[d.ID]; dup {
			continue
		}
		seen[d.ID] = struct{}{}
		next[d.Stage] = append(next[d.Stage], d)
	}
	c.stages = next
	c.view = s.View
	if _, ok := c.view.Stage(); !ok {
		c.view = ViewAll
	}
	c.selected = s.Selected
	c.refreshedAt = s.RefreshedAt
	c.rebuild()
}
