package conversations

import (
	"context"
	"time"
)

// Repo persists conversations keyed by document and user.
type Repo interface {
	// Get returns ErrNotFound when no conversation exists.
	Get(ctx context.Context, documentID, userID string) (Conversation, error)
	// Append adds turns and trims to MaxTurns as one atomic step, creating
	// the conversation when needed.
	Append(ctx context.Context, documentID, userID string, turns []Turn, at time.Time) (Conversation, error)
	// Delete removes the conversation. A missing conversation is not an error.
	Delete(ctx context.Context, documentID, userID string) error
}
