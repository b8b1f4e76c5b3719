package gateway

import (
	"context"
	"errors"
	"testing"
)

type stubGateway struct{ id string }

func (s stubGateway) PlatformID() string { return s.id }

func (s stubGateway) Deliver(context.Context, string, string) error { return nil }

func TestRegistryLookup(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if err := r.Register(stubGateway{id: "telegram"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	g, err := r.Lookup("telegram")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if g.PlatformID() != "telegram" {
		t.Fatalf("PlatformID = %q", g.PlatformID())
	}

	if _, err := r.Lookup("vk"); !errors.Is(err, ErrUnknownPlatform) {
		t.Fatalf("Lookup(vk) error = %v, want ErrUnknownPlatform", err)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	if err := r.Register(stubGateway{id: "telegram"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(stubGateway{id: "telegram"}); err == nil {
		t.Fatal("expected error for duplicate platform id")
	}
	if err := r.Register(stubGateway{id: ""}); err == nil {
		t.Fatal("expected error for empty platform id")
	}
}
