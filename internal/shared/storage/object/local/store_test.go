package local

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"docqa-backend/internal/shared/storage/object"
)

func TestSaveOpenDelete(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	key, size, mimeType, err := store.Save(ctx, "user-1", "notes.txt", strings.NewReader("one two three"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != 13 {
		t.Fatalf("expected size 13, got %d", size)
	}
	if !strings.HasPrefix(mimeType, "text/plain") {
		t.Fatalf("expected text/plain, got %q", mimeType)
	}
	if !strings.HasSuffix(key, "_notes.txt") {
		t.Fatalf("expected key to keep sanitized name, got %q", key)
	}

	rc, err := store.Open(ctx, key)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || string(data) != "one two three" {
		t.Fatalf("unexpected content %q (%v)", string(data), err)
	}

	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, key); !errors.Is(err, object.ErrNotExist) {
		t.Fatalf("expected ErrNotExist on second delete, got %v", err)
	}
	if _, err := store.Open(ctx, key); !errors.Is(err, object.ErrNotExist) {
		t.Fatalf("expected ErrNotExist on open, got %v", err)
	}
}

func TestRejectsTraversal(t *testing.T) {
	store := New(t.TempDir())
	ctx := context.Background()

	if _, _, _, err := store.Save(ctx, "user-1", "../evil.txt", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal file name to be rejected")
	}
	if _, err := store.Open(ctx, "../outside"); err == nil {
		t.Fatal("expected traversal key to be rejected")
	}
	if err := store.Delete(ctx, "/etc/passwd"); err == nil {
		t.Fatal("expected absolute key to be rejected")
	}
}
