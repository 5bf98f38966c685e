package credstore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, "test"), mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	rec := Record{
		AccessToken:     "T1",
		RefreshToken:    "R1",
		RememberedLogin: "alice@example.com",
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got != rec {
		t.Fatalf("expected %+v, got %+v", rec, got)
	}
}

func TestRedisStoreLoadEmpty(t *testing.T) {
	store, _ := newTestRedisStore(t)

	if _, err := store.Load(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestRedisStoreClearKeepsRememberedLogin(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, Record{AccessToken: "T1", RefreshToken: "R1", RememberedLogin: "alice@example.com"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	got, err := store.Load(ctx)
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
	if got.RememberedLogin != "alice@example.com" {
		t.Fatalf("expected remembered login to survive, got %q", got.RememberedLogin)
	}
}

func TestRedisStorePartialRecordCorrupt(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	// Only one half of the pair: a torn write from a previous run.
	mr.HSet("test:credentials", FieldAccessToken, "T1")
	mr.HSet("test:credentials", FieldRememberedLogin, "alice@example.com")

	got, err := store.Load(ctx)
	if !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("expected ErrCorruptRecord, got %v", err)
	}
	if got.RememberedLogin != "alice@example.com" {
		t.Fatalf("expected remembered login to survive, got %q", got.RememberedLogin)
	}

	// The torn pair was cleared; a second load finds nothing.
	if _, err := store.Load(ctx); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials after clear, got %v", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	if err := store.Save(context.Background(), Record{AccessToken: "T1", RefreshToken: "R1"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
