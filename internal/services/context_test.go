package services_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tidybox/internal/services"
)

func TestScopeAccumulates(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-42")
	ctx = services.WithStage(ctx, "discovery")
	ctx = services.WithCategory(ctx, "strategic")
	ctx = services.WithSubject(ctx, "deck.pdf")

	want := services.Scope{RunID: "run-42", Stage: "discovery", Category: "strategic", Subject: "deck.pdf"}
	if diff := cmp.Diff(want, services.ScopeFromContext(ctx)); diff != "" {
		t.Fatalf("scope mismatch (-want +got):\n%s", diff)
	}
}

func TestScopeInnerValueDoesNotLeak(t *testing.T) {
	outer := services.WithStage(context.Background(), "execute")
	inner := services.WithStage(outer, "undo")
	if got := services.ScopeFromContext(outer).Stage; got != "execute" {
		t.Fatalf("outer stage = %q", got)
	}
	if got := services.ScopeFromContext(inner).Stage; got != "undo" {
		t.Fatalf("inner stage = %q", got)
	}
}

func TestBlankValuesKeepContext(t *testing.T) {
	ctx := context.Background()
	if services.WithStage(ctx, "") != ctx || services.WithSubject(ctx, "") != ctx {
		t.Fatal("expected blank values to return the same context")
	}
	if scope := services.ScopeFromContext(ctx); scope != (services.Scope{}) {
		t.Fatalf("expected zero scope, got %+v", scope)
	}
}
