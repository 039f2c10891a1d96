package documents

import (
	"context"
	"testing"
	"time"
)

type countingRepo struct {
	*MemoryRepo
	gets int
}

func (r *countingRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	r.gets++
	return r.MemoryRepo.GetByID(ctx, userID, documentID)
}

func TestCachedRepoServesRepeatReadsAndInvalidatesOnDelete(t *testing.T) {
	inner := &countingRepo{MemoryRepo: NewMemoryRepo()}
	repo, err := NewCachedRepo(inner, 4)
	if err != nil {
		t.Fatalf("NewCachedRepo: %v", err)
	}
	ctx := context.Background()
	doc := Document{ID: "doc-1", UserID: "user-1", Text: "x", CreatedAt: time.Now()}
	if err := inner.Create(ctx, doc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := repo.GetByID(ctx, "user-1", "doc-1"); err != nil {
			t.Fatalf("GetByID: %v", err)
		}
	}
	if inner.gets != 1 {
		t.Fatalf("expected 1 backend read, got %d", inner.gets)
	}

	if _, err := repo.GetByID(ctx, "user-2", "doc-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for other user, got %v", err)
	}

	if _, err := repo.Delete(ctx, "user-1", "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "user-1", "doc-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

// racingRepo simulates a read landing between cache eviction and the backend delete.
type racingRepo struct {
	*MemoryRepo
	beforeDelete func()
}

func (r *racingRepo) Delete(ctx context.Context, userID, documentID string) (Document, error) {
	if r.beforeDelete != nil {
		r.beforeDelete()
	}
	return r.MemoryRepo.Delete(ctx, userID, documentID)
}

func TestCachedRepoDeleteDropsConcurrentlyCachedDocument(t *testing.T) {
	inner := &racingRepo{MemoryRepo: NewMemoryRepo()}
	repo, err := NewCachedRepo(inner, 4)
	if err != nil {
		t.Fatalf("NewCachedRepo: %v", err)
	}
	ctx := context.Background()
	if err := repo.Create(ctx, Document{ID: "doc-1", UserID: "user-1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	inner.beforeDelete = func() {
		if _, err := repo.GetByID(ctx, "user-1", "doc-1"); err != nil {
			t.Errorf("read during delete: %v", err)
		}
	}

	if _, err := repo.Delete(ctx, "user-1", "doc-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "user-1", "doc-1"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
