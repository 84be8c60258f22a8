package services_test

import (
	"context"
	"testing"

	"renderfarm/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, 42)
	ctx = services.WithStage(ctx, "upload")
	ctx = services.WithAction(ctx, "submit")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "upload" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if action, ok := services.ActionFromContext(ctx); !ok || action != "submit" {
		t.Fatalf("unexpected action: %v %v", action, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithAction(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.ActionFromContext(ctx); ok {
		t.Fatal("expected no action value")
	}
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session id")
	}
}
