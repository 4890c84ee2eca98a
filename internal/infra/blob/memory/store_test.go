package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"hotlabcore/internal/blob"
)

func TestPutGetRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	info, err := store.Put(ctx, "episodes/2026-03-01/a.json", strings.NewReader(`{"ok":true}`), "application/json")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != int64(len(`{"ok":true}`)) {
		t.Fatalf("size = %d", info.Size)
	}

	got, rc, err := store.Get(ctx, "episodes/2026-03-01/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Fatalf("payload = %s", data)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("content type = %s", got.ContentType)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "snapshots/latest.json", strings.NewReader("v1"), ""); err != nil {
		t.Fatalf("put v1: %v", err)
	}
	if _, err := store.Put(ctx, "snapshots/latest.json", strings.NewReader("v2"), ""); err != nil {
		t.Fatalf("put v2: %v", err)
	}
	_, rc, err := store.Get(ctx, "snapshots/latest.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, _ := io.ReadAll(rc)
	if string(data) != "v2" {
		t.Fatalf("payload after overwrite = %s", data)
	}
}

func TestGetMissing(t *testing.T) {
	store := New()
	_, _, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListByPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, key := range []string{"episodes/a.json", "episodes/b.json", "snapshots/s.json"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), ""); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "episodes/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("listed = %d, want 2", len(infos))
	}
	if infos[0].Key != "episodes/a.json" || infos[1].Key != "episodes/b.json" {
		t.Fatalf("order = %s, %s", infos[0].Key, infos[1].Key)
	}
}

func TestDelete(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Put(ctx, "episodes/a.json", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	removed, err := store.Delete(ctx, "episodes/a.json")
	if err != nil || !removed {
		t.Fatalf("delete = %v, %v", removed, err)
	}
	removed, err = store.Delete(ctx, "episodes/a.json")
	if err != nil || removed {
		t.Fatalf("second delete = %v, %v", removed, err)
	}
}
