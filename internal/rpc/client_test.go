package rpc_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"renderfarm/internal/config"
	"renderfarm/internal/logging"
	"renderfarm/internal/rpc"
	"renderfarm/internal/services"
	"renderfarm/internal/testsupport"
)

const (
	alice     = "alice@example.com"
	aliceHash = "d41d8cd98f00b204e9800998ecf8427e"
)

func newFarm(t *testing.T) (*testsupport.FarmServer, *rpc.Client) {
	t.Helper()
	farm := testsupport.NewFarmServer(t)
	farm.AddUser(alice, aliceHash, 42)
	client := rpc.NewClient(farm.Endpoints(), rpc.WithSleeper(func(time.Duration) {}))
	return farm, client
}

func TestLoginAndStatus(t *testing.T) {
	_, client := newFarm(t)
	ctx := context.Background()

	creds, err := client.Login(ctx, alice, aliceHash)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if creds.Key != "K1" || creds.UserID != 42 {
		t.Fatalf("credentials = %+v, want K1/42", creds)
	}

	status, err := client.Motd(ctx)
	if err != nil {
		t.Fatalf("Motd: %v", err)
	}
	if !status.Accepting || status.Motd != "ok" {
		t.Fatalf("status = %+v", status)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	_, client := newFarm(t)

	_, err := client.Login(context.Background(), "ghost@example.com", aliceHash)
	if services.KindOf(err) != services.KindAuthentication {
		t.Fatalf("kind = %q, err = %v", services.KindOf(err), err)
	}
	if !strings.Contains(err.Error(), "ghost@example.com doesn't exist") {
		t.Fatalf("message = %q", err.Error())
	}
	var fault rpc.Fault
	if !errors.As(err, &fault) || fault.String != testsupport.FaultUnknownUser {
		t.Fatalf("fault not preserved in %v", err)
	}
}

func TestLoginWithoutCredentialsSkipsServer(t *testing.T) {
	farm, client := newFarm(t)

	for _, tc := range []struct{ user, hash string }{{"", aliceHash}, {alice, ""}, {" ", " "}} {
		_, err := client.Login(context.Background(), tc.user, tc.hash)
		if !errors.Is(err, services.ErrAuthentication) {
			t.Fatalf("Login(%q, %q) err = %v", tc.user, tc.hash, err)
		}
	}
	if calls := farm.Calls(); len(calls) != 0 {
		t.Fatalf("expected no round trips, got %v", calls)
	}
}

func TestLoginTransportFailureIsNotAuthentication(t *testing.T) {
	farm, client := newFarm(t)
	farm.BreakMethod("auth.getSessionKey", 1)

	_, err := client.Login(context.Background(), alice, aliceHash)
	if services.KindOf(err) != services.KindTransport {
		t.Fatalf("kind = %q, err = %v", services.KindOf(err), err)
	}
}

func TestKeyedCallsRotateKeys(t *testing.T) {
	farm, client := newFarm(t)
	ctx := context.Background()

	creds, err := client.Login(ctx, alice, aliceHash)
	if err != nil {
		t.Fatal(err)
	}
	slot, err := client.CreateSession(ctx, creds.UserID, creds.Key)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if slot.Key == creds.Key {
		t.Fatal("createSession must return a fresh key")
	}
	key, err := client.SetParam(ctx, creds.UserID, slot.Key, slot.ID, rpc.ParamTitle, "My Shot")
	if err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if _, err := client.SetParam(ctx, creds.UserID, slot.Key, slot.ID, rpc.ParamSamples, 50); err == nil {
		t.Fatal("reusing a consumed key must fail")
	}
	if _, err := client.Submit(ctx, creds.UserID, key, slot.ID); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sessions := farm.Sessions()
	if len(sessions) != 1 || !sessions[0].Submitted || sessions[0].Title != "My Shot" {
		t.Fatalf("sessions = %+v", sessions)
	}
}

func TestKeyedFaultsAreClassified(t *testing.T) {
	farm, client := newFarm(t)
	ctx := context.Background()
	creds, err := client.Login(ctx, alice, aliceHash)
	if err != nil {
		t.Fatal(err)
	}
	id := farm.AddSession(testsupport.FarmSession{Owner: 42, Stage: "render", Submitted: true})

	farm.FailMethod("session.cancelSession", rpc.Fault{Code: 9, String: "already finished"})
	_, err = client.CancelSession(ctx, creds.UserID, creds.Key, id)
	if services.KindOf(err) != services.KindCancel {
		t.Fatalf("cancel kind = %q", services.KindOf(err))
	}
	if !strings.Contains(err.Error(), "already finished") {
		t.Fatalf("fault string missing from %q", err.Error())
	}

	farm.BreakMethod("session.createSession", 1)
	_, err = client.CreateSession(ctx, creds.UserID, creds.Key)
	if services.KindOf(err) != services.KindTransport {
		t.Fatalf("createSession kind = %q", services.KindOf(err))
	}
}

func TestCancelWithLogin(t *testing.T) {
	farm, client := newFarm(t)
	id := farm.AddSession(testsupport.FarmSession{Owner: 42, Stage: "render", Submitted: true})

	if _, err := client.CancelWithLogin(context.Background(), alice, aliceHash, id); err != nil {
		t.Fatalf("CancelWithLogin: %v", err)
	}
	if got := farm.Sessions()[0].Stage; got != "cancelled" {
		t.Fatalf("stage = %q", got)
	}
}

func TestGetSessionsPages(t *testing.T) {
	farm, client := newFarm(t)
	for i := range 3 {
		farm.AddSession(testsupport.FarmSession{Owner: 42, Stage: "render", Title: "s", FrameEnd: int64(10 + i), Submitted: true})
	}
	farm.AddSession(testsupport.FarmSession{Owner: 7, Stage: "render", Submitted: true})

	page, err := client.GetSessions(context.Background(), 42, "render", 1, 5, true)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page len = %d, want 2", len(page))
	}
	if end, _ := rpc.AsInt(page[0]["frameEnd"]); end != 11 {
		t.Fatalf("first record = %v", page[0])
	}
}

func TestGetSessionsFailuresAreQueryErrors(t *testing.T) {
	farm, client := newFarm(t)
	farm.FailMethod("session.getSessions", rpc.Fault{Code: 1, String: "database down"})

	_, err := client.GetSessions(context.Background(), 42, "accept", 0, 100, true)
	if services.KindOf(err) != services.KindQuery {
		t.Fatalf("kind = %q", services.KindOf(err))
	}
}

func TestGetSessionsAcceptsWrappedList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0"?>
<methodResponse><params><param><value><struct>
  <member><name>sessions</name><value><array><data>
    <value><struct>
      <member><name>id</name><value><int>5</int></value></member>
      <member><name>title</name><value><string>wrapped</string></value></member>
    </struct></value>
  </data></array></value></member>
</struct></value></param></params></methodResponse>`))
	}))
	defer server.Close()

	client := rpc.NewClient(config.Endpoints{General: server.URL})
	records, err := client.GetSessions(context.Background(), 1, "completed", 0, 100, true)
	if err != nil {
		t.Fatalf("GetSessions: %v", err)
	}
	if len(records) != 1 || records[0]["title"] != "wrapped" {
		t.Fatalf("records = %v", records)
	}
}

func TestMotdRetriesServerErrors(t *testing.T) {
	farm, client := newFarm(t)
	farm.BreakMethod("service.motd", 1)
	farm.SetStatus(false, "maintenance")

	status, err := client.Motd(context.Background())
	if err != nil {
		t.Fatalf("Motd: %v", err)
	}
	if status.Accepting || status.Motd != "maintenance" {
		t.Fatalf("status = %+v", status)
	}
	if n := len(farm.Methods()); n != 2 {
		t.Fatalf("calls = %d, want 2", n)
	}
}

func TestVerboseLoggingOmitsArguments(t *testing.T) {
	farm := testsupport.NewFarmServer(t)
	farm.AddUser(alice, aliceHash, 42)
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}
	client := rpc.NewClient(farm.Endpoints(), rpc.WithLogger(logger), rpc.WithVerbose(true))

	if _, err := client.Login(context.Background(), alice, aliceHash); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "auth.getSessionKey") {
		t.Fatalf("expected wire log, got %s", out)
	}
	if strings.Contains(out, aliceHash) {
		t.Fatal("password hash leaked into logs")
	}
	if !strings.Contains(out, "[redacted]") {
		t.Fatalf("expected redacted hash attribute, got %s", out)
	}
}

func TestParamMethodNames(t *testing.T) {
	if got := rpc.ParamPrimaryInputFile.Method(); got != "session.setPrimaryInputFile" {
		t.Fatalf("method = %q", got)
	}
}
