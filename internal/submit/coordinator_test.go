package submit_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"renderfarm/internal/config"
	"renderfarm/internal/credentials"
	"renderfarm/internal/form"
	"renderfarm/internal/logging"
	"renderfarm/internal/prepare"
	"renderfarm/internal/rpc"
	"renderfarm/internal/scene"
	"renderfarm/internal/services"
	"renderfarm/internal/sessions"
	"renderfarm/internal/submit"
	"renderfarm/internal/testsupport"
	"renderfarm/internal/upload"
)

var aliceCreds = credentials.Record{User: "alice@example.com", Hash: "d41d8cd98f00b204e9800998ecf8427e"}

type harness struct {
	farm      *testsupport.FarmServer
	coord     *submit.Coordinator
	catalogue *sessions.Catalogue
	host      *scene.FileHost
	form      form.Form
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	farm := testsupport.NewFarmServer(t)
	farm.AddUser(aliceCreds.User, aliceCreds.Hash, 42)

	path := filepath.Join(dir, "shot.blend")
	testsupport.WriteScene(t, path, scene.Document{
		Name:   "shot",
		Render: scene.Render{Engine: scene.EngineRemote, FileFormat: scene.FormatPNG},
	})
	host, err := scene.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	client := rpc.NewClient(farm.Endpoints(), rpc.WithSleeper(func(time.Duration) {}))
	catalogue := sessions.NewCatalogue()
	coord := submit.New(client,
		upload.New(farm.Endpoints().Upload, client.HTTPClient()),
		prepare.New(filepath.Join(dir, "autosave"), logging.NewNop()),
		catalogue)

	f := form.Default(config.Default().Submission)
	f.Title, f.ShortDescription, f.LongDescription = "My Shot", "short", "long"
	return &harness{farm: farm, coord: coord, catalogue: catalogue, host: host, form: f}
}

func TestSubmitRunsStepsInOrder(t *testing.T) {
	h := newHarness(t)

	out, err := h.coord.Submit(context.Background(), h.host, &h.form, aliceCreds)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if !out.Submitted || out.FileID == 0 || out.SessionID == 0 {
		t.Fatalf("outcome = %+v", out)
	}

	want := []string{"auth.getSessionKey", "session.createSession", "upload"}
	for _, step := range submit.Plan(h.form, out.FileID) {
		want = append(want, step.Param.Method())
	}
	want = append(want, "session.submit",
		"session.getSessions", "session.getSessions", "session.getSessions", "session.getSessions")
	if got := h.farm.Methods(); !slices.Equal(got, want) {
		t.Fatalf("calls =\n%v\nwant\n%v", got, want)
	}

	farmSessions := h.farm.Sessions()
	if len(farmSessions) != 1 || !farmSessions[0].Submitted {
		t.Fatalf("farm sessions = %+v", farmSessions)
	}
	params := farmSessions[0].Params
	if params["Replication"] != int64(3) {
		t.Fatalf("replication = %v", params["Replication"])
	}
	if _, ok := params["Stitcher"]; ok {
		t.Fatal("default renderer must not set a stitcher")
	}
	if params["PrimaryInputFile"] != out.FileID {
		t.Fatalf("primary input file = %v, want %d", params["PrimaryInputFile"], out.FileID)
	}

	if h.host.Document().Render.Engine != scene.EngineRemote {
		t.Fatalf("engine = %q, want remote", h.host.Document().Render.Engine)
	}
	pending := h.catalogue.Stage(sessions.StagePending)
	if len(pending) != 1 || pending[0].ID != out.SessionID {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestFailedSubmissionReusesSession(t *testing.T) {
	h := newHarness(t)
	h.farm.BreakMethod(rpc.ParamFrameRate.Method(), 1)

	first, err := h.coord.Submit(context.Background(), h.host, &h.form, aliceCreds)
	if services.KindOf(err) != services.KindTransport {
		t.Fatalf("kind = %q, err = %v", services.KindOf(err), err)
	}
	if h.host.Document().Render.Engine != scene.EngineRemote {
		t.Fatal("engine must be restored after a failed submission")
	}
	pending := h.farm.Sessions()
	if len(pending) != 1 || pending[0].Submitted {
		t.Fatalf("expected one unsubmitted session, got %+v", pending)
	}

	second, err := h.coord.Submit(context.Background(), h.host, &h.form, aliceCreds)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session %d was not reused (got %d)", first.SessionID, second.SessionID)
	}
	all := h.farm.Sessions()
	if len(all) != 1 || !all[0].Submitted {
		t.Fatalf("sessions after retry = %+v", all)
	}
	if n := len(h.farm.Uploads()); n != 2 {
		t.Fatalf("uploads = %d, want 2", n)
	}
}

func TestSubmitRequiresCompleteForm(t *testing.T) {
	h := newHarness(t)
	h.form.Title = " "
	h.host.Document().Render.Engine = scene.EngineCycles

	out, err := h.coord.Submit(context.Background(), h.host, &h.form, aliceCreds)
	if services.KindOf(err) != services.KindInfoMissing {
		t.Fatalf("kind = %q", services.KindOf(err))
	}
	if out.Prepared {
		t.Fatal("preparation must not run for an incomplete form")
	}
	if got := h.host.Document().Render.Engine; got != scene.EngineRemote {
		t.Fatalf("engine after validation failure = %q, want remote", got)
	}
	_, err = h.coord.Submit(context.Background(), h.host, &h.form, credentials.Record{})
	if services.KindOf(err) != services.KindInfoMissing {
		t.Fatalf("kind without credentials = %q", services.KindOf(err))
	}
	if calls := h.farm.Calls(); len(calls) != 0 {
		t.Fatalf("validation failures must not reach the server: %v", calls)
	}
}

func TestSubmitLoginFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.coord.Submit(context.Background(), h.host, &h.form, credentials.Record{User: "ghost@example.com", Hash: "x"})
	if services.KindOf(err) != services.KindAuthentication {
		t.Fatalf("kind = %q", services.KindOf(err))
	}
	if h.host.Document().Render.Engine != scene.EngineRemote {
		t.Fatal("engine must be restored")
	}
}

func TestSubmitUnsavedSceneUsesAutosave(t *testing.T) {
	h := newHarness(t)
	unsaved := scene.NewUnsaved(&scene.Document{Name: "sketch"})

	out, err := h.coord.Submit(context.Background(), unsaved, &h.form, aliceCreds)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if out.DerivedPath != prepare.DerivedPath("", filepath.Dir(out.DerivedPath), "sketch") {
		t.Fatalf("derived path = %q", out.DerivedPath)
	}
	if len(h.farm.Uploads()) != 1 {
		t.Fatal("expected the autosaved file to be uploaded")
	}
}
