package documents

import "context"

// Repo defines persistence operations for documents. Every lookup is scoped
// to the owning user; a document owned by someone else is reported as ErrNotFound.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	// ListByUser returns the user's documents newest first.
	ListByUser(ctx context.Context, userID string) ([]Document, error)
	// Delete removes the document and returns what was removed.
	Delete(ctx context.Context, userID, documentID string) (Document, error)
}
