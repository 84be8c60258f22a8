package upload_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"renderfarm/internal/rpc"
	"renderfarm/internal/services"
	"renderfarm/internal/testsupport"
	"renderfarm/internal/upload"
)

func openSession(t *testing.T) (*testsupport.FarmServer, upload.Request) {
	t.Helper()
	farm := testsupport.NewFarmServer(t)
	farm.AddUser("alice@example.com", "hash", 42)
	client := rpc.NewClient(farm.Endpoints())
	ctx := context.Background()
	creds, err := client.Login(ctx, "alice@example.com", "hash")
	if err != nil {
		t.Fatal(err)
	}
	slot, err := client.CreateSession(ctx, creds.UserID, creds.Key)
	if err != nil {
		t.Fatal(err)
	}
	return farm, upload.Request{UserID: creds.UserID, Key: slot.Key, SessionID: slot.ID}
}

func TestUploadIntegrity(t *testing.T) {
	farm, req := openSession(t)
	req.Path = filepath.Join(t.TempDir(), "shot.blend_renderfarm.blend")
	if err := os.WriteFile(req.Path, []byte{0x41, 0x42, 0x43}, 0o644); err != nil {
		t.Fatal(err)
	}

	u := upload.New(farm.Endpoints().Upload, nil)
	res, err := u.Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MD5 != "902fbdd2b1df0c4f70b4a5d23525e932" || res.Size != 3 {
		t.Fatalf("result = %+v", res)
	}

	uploads := farm.Uploads()
	if len(uploads) != 1 {
		t.Fatalf("uploads = %d", len(uploads))
	}
	got := uploads[0]
	if got.MD5 != "902fbdd2b1df0c4f70b4a5d23525e932" {
		t.Fatalf("md5sum field = %q", got.MD5)
	}
	if string(got.Payload) != "ABC" {
		t.Fatalf("payload = %q", got.Payload)
	}
	if got.PartType != "application/octet-stream" {
		t.Fatalf("part type = %q", got.PartType)
	}
	if got.ContentLength != got.BodyLength {
		t.Fatalf("content length %d != body length %d", got.ContentLength, got.BodyLength)
	}
	if !regexp.MustCompile(`^[A-Za-z]{30}$`).MatchString(got.Boundary) {
		t.Fatalf("boundary = %q", got.Boundary)
	}
	if res.FileID != got.FileID || got.SessionID != req.SessionID {
		t.Fatalf("file id %d vs %d, session %d", res.FileID, got.FileID, got.SessionID)
	}
	if res.Key == req.Key || res.Key != farm.CurrentKey(42) {
		t.Fatalf("expected rotated key, got %q", res.Key)
	}
}

func TestUploadLargeFileSpansBlocks(t *testing.T) {
	farm, req := openSession(t)
	req.Path = filepath.Join(t.TempDir(), "big.blend")
	testsupport.WriteFile(t, req.Path, 3*65536+17)

	res, err := upload.New(farm.Endpoints().Upload, nil).Send(context.Background(), req)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.Size != 3*65536+17 || int64(len(farm.Uploads()[0].Payload)) != res.Size {
		t.Fatalf("size = %d", res.Size)
	}
}

func TestUploadFailuresAreTransport(t *testing.T) {
	farm, req := openSession(t)
	u := upload.New(farm.Endpoints().Upload, nil)

	req.Path = filepath.Join(t.TempDir(), "missing.blend")
	if _, err := u.Send(context.Background(), req); services.KindOf(err) != services.KindTransport {
		t.Fatalf("missing file kind = %q", services.KindOf(err))
	}

	req.Path = filepath.Join(t.TempDir(), "ok.blend")
	testsupport.WriteFile(t, req.Path, 10)
	farm.BreakMethod("upload", 1)
	if _, err := u.Send(context.Background(), req); services.KindOf(err) != services.KindTransport {
		t.Fatalf("http failure kind = %q", services.KindOf(err))
	}

	req.Key = "stale"
	_, err := u.Send(context.Background(), req)
	if services.KindOf(err) != services.KindTransport {
		t.Fatalf("fault kind = %q", services.KindOf(err))
	}
	var fault rpc.Fault
	if !errors.As(err, &fault) || fault.String != testsupport.FaultBadKey {
		t.Fatalf("fault not preserved in %v", err)
	}
	if n := len(farm.Uploads()); n != 0 {
		t.Fatalf("no upload should be recorded, got %d", n)
	}
}

func TestRandomBoundary(t *testing.T) {
	a, b := upload.RandomBoundary(), upload.RandomBoundary()
	if len(a) != 30 || a == b {
		t.Fatalf("boundaries %q %q", a, b)
	}
}
