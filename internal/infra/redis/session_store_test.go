package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	_ = store.GetOrCreate("form-1")
	if !mr.Exists(SessionKey("form-1")) {
		t.Fatalf("expected redis key to be set")
	}
	if editing, err := store.Editing(context.Background(), "form-1"); err != nil || !editing {
		t.Fatalf("expected form to be marked as edited, got %v (%v)", editing, err)
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists(SessionKey("form-1")) {
		t.Fatalf("expected liveness key to expire")
	}

	store.DeleteIfEmpty("form-1")
	if _, ok := store.Get("form-1"); ok {
		t.Fatalf("expected session removed")
	}
}
