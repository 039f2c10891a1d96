package documents

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedRepo keeps recently read documents in an LRU. Documents never change
// after creation, so only deletion needs to invalidate.
type CachedRepo struct {
	Repo
	cache *lru.Cache[string, Document]
}

// NewCachedRepo wraps next with an LRU of the given size.
func NewCachedRepo(next Repo, size int) (*CachedRepo, error) {
	if size <= 0 {
		size = 256
	}
	cache, err := lru.New[string, Document](size)
	if err != nil {
		return nil, err
	}
	return &CachedRepo{Repo: next, cache: cache}, nil
}

func cacheKey(userID, documentID string) string {
	return userID + "|" + documentID
}

func (r *CachedRepo) Create(ctx context.Context, doc Document) error {
	if err := r.Repo.Create(ctx, doc); err != nil {
		return err
	}
	r.cache.Add(cacheKey(doc.UserID, doc.ID), doc)
	return nil
}

func (r *CachedRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	key := cacheKey(userID, documentID)
	if doc, ok := r.cache.Get(key); ok {
		return doc, nil
	}
	doc, err := r.Repo.GetByID(ctx, userID, documentID)
	if err != nil {
		return Document{}, err
	}
	r.cache.Add(key, doc)
	return doc, nil
}

func (r *CachedRepo) Delete(ctx context.Context, userID, documentID string) (Document, error) {
	key := cacheKey(userID, documentID)
	r.cache.Remove(key)
	doc, err := r.Repo.Delete(ctx, userID, documentID)
	// A read racing the delete may have re-cached the document.
	r.cache.Remove(key)
	return doc, err
}

var _ Repo = (*CachedRepo)(nil)
