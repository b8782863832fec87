package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryProviderRoundTrip(t *testing.T) {
	provider := NewMemoryProvider()
	ctx := context.Background()

	if _, err := provider.Get(ctx, "absent"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}

	if err := provider.Set(ctx, "key", []byte("value"), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := provider.Get(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("unexpected value: %q", got)
	}

	if err := provider.Del(ctx, "key"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := provider.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected cache miss after delete, got %v", err)
	}
}

func TestMemoryProviderTTL(t *testing.T) {
	provider := NewMemoryProvider()
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	provider.nowFn = func() time.Time { return now }

	ctx := context.Background()
	if err := provider.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := provider.Get(ctx, "key"); err != nil {
		t.Fatalf("expected hit before expiry, got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := provider.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss after expiry, got %v", err)
	}
}

func TestMemoryProviderCopiesValues(t *testing.T) {
	provider := NewMemoryProvider()
	ctx := context.Background()

	original := []byte("value")
	if err := provider.Set(ctx, "key", original, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	original[0] = 'X'

	got, err := provider.Get(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("stored value was aliased: %q", got)
	}

	got[0] = 'Y'
	again, err := provider.Get(ctx, "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(again) != "value" {
		t.Fatalf("returned value was aliased: %q", again)
	}
}

func TestNoopProvider(t *testing.T) {
	var provider Provider = NoopProvider{}
	ctx := context.Background()

	if err := provider.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := provider.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss from noop provider, got %v", err)
	}
}
