package state_test

import (
	"context"
	"testing"
	"time"

	"renderfarm/internal/config"
	"renderfarm/internal/form"
	"renderfarm/internal/prepare"
	"renderfarm/internal/services"
	"renderfarm/internal/sessions"
	"renderfarm/internal/state"
	"renderfarm/internal/testsupport"
)

func openStore(t *testing.T) (*state.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store, err := state.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, cfg
}

func TestRecordsRoundTrip(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	if _, ok, err := store.LoadLogin(ctx); err != nil || ok {
		t.Fatalf("empty store login = %v, %v", ok, err)
	}

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveStatus(ctx, state.ServiceStatus{Accepting: true, Motd: "ok", CheckedAt: checked}); err != nil {
		t.Fatal(err)
	}
	status, err := store.LoadStatus(ctx)
	if err != nil || !status.Accepting || status.Motd != "ok" || !status.CheckedAt.Equal(checked) {
		t.Fatalf("status = %+v, %v", status, err)
	}

	f := form.Default(config.Default().Submission)
	f.Title = "My Shot"
	f.Renderer = form.RendererPhysical
	if err := store.SaveForm(ctx, f); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.LoadForm(ctx)
	if err != nil || !ok || got.Title != "My Shot" || got.Renderer != form.RendererPhysical || got.OutputLicense != f.OutputLicense {
		t.Fatalf("form = %+v, %v, %v", got, ok, err)
	}

	report := prepare.Report{Flags: prepare.FlagFrameFormatCoerced | prepare.FlagAssetPackFailed}
	if err := store.SaveReport(ctx, report); err != nil {
		t.Fatal(err)
	}
	if loaded, err := store.LoadReport(ctx); err != nil || loaded != report {
		t.Fatalf("report = %v, %v", loaded, err)
	}

	if err := store.SaveLogin(ctx, state.Login{User: "alice@example.com", UserID: 42, Key: "K1"}); err != nil {
		t.Fatal(err)
	}
	if err := store.ClearLogin(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.LoadLogin(ctx); ok {
		t.Fatal("login should be cleared")
	}
}

func TestCatalogueSnapshotSurvivesReopen(t *testing.T) {
	store, cfg := openStore(t)
	ctx := context.Background()

	snap := sessions.Snapshot{
		Sessions: []sessions.Descriptor{
			{ID: 1, Title: "a", Stage: sessions.StagePending},
			{ID: 2, Title: "b", Stage: sessions.StageRendering, FrameStart: 1, FrameEnd: 101, FramesRendered: 50},
		},
		View:     sessions.StageView(sessions.StageRendering),
		Selected: 0,
	}
	if err := store.SaveCatalogue(ctx, snap); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := state.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	loaded, ok, err := reopened.LoadCatalogue(ctx)
	if err != nil || !ok {
		t.Fatalf("LoadCatalogue = %v, %v", ok, err)
	}
	if len(loaded.Sessions) != 2 || loaded.Sessions[1].Percent() != 50 || loaded.View != snap.View {
		t.Fatalf("snapshot = %+v", loaded)
	}
}

func TestAlertsExpire(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if _, err := store.AddAlert(ctx, state.Alert{Kind: services.KindCancel, Message: "cancel failed", CreatedAt: now, ExpiresAt: now.Add(4 * time.Second)}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.AddAlert(ctx, state.Alert{Kind: services.KindQuery, Message: "query failed", CreatedAt: now}); err != nil {
		t.Fatal(err)
	}

	active, err := store.ActiveAlerts(ctx, now.Add(3999*time.Millisecond))
	if err != nil || len(active) != 2 {
		t.Fatalf("active before expiry = %v, %v", active, err)
	}
	if !active[0].Transient() || active[1].Transient() {
		t.Fatalf("transient flags wrong: %+v", active)
	}

	active, err = store.ActiveAlerts(ctx, now.Add(4*time.Second))
	if err != nil || len(active) != 1 || active[0].Kind != services.KindQuery {
		t.Fatalf("active at expiry = %+v, %v", active, err)
	}

	pruned, err := store.PruneAlerts(ctx, now.Add(5*time.Second))
	if err != nil || pruned != 1 {
		t.Fatalf("pruned = %d, %v", pruned, err)
	}
	if err := store.ClearAlerts(ctx, services.KindQuery); err != nil {
		t.Fatal(err)
	}
	if active, _ := store.ActiveAlerts(ctx, now); len(active) != 0 {
		t.Fatalf("alerts left: %+v", active)
	}
}
