package services

import (
	"context"
	"testing"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	if _, ok := RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id on empty context")
	}
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithStage(ctx, "subtitles")
	if id, ok := RequestIDFromContext(ctx); !ok || id != "req-1" {
		t.Fatalf("unexpected request id: %q %v", id, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "subtitles" {
		t.Fatalf("unexpected stage: %q %v", stage, ok)
	}
	if WithRequestID(ctx, "") != ctx {
		t.Fatal("expected empty id to leave context unchanged")
	}
}
