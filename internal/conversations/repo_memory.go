package conversations

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.Mutex
	data map[string]Conversation
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]Conversation)}
}

func memoryKey(documentID, userID string) string {
	return userID + "|" + documentID
}

func (r *MemoryRepo) Get(ctx context.Context, documentID, userID string) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.data[memoryKey(documentID, userID)]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (r *MemoryRepo) Append(ctx context.Context, documentID, userID string, turns []Turn, at time.Time) (Conversation, error) {
	if err := ctx.Err(); err != nil {
		return Conversation{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memoryKey(documentID, userID)
	conv, ok := r.data[key]
	if !ok {
		conv = Conversation{DocumentID: documentID, UserID: userID, CreatedAt: at}
	}
	merged := make([]Turn, 0, len(conv.Turns)+len(turns))
	merged = append(merged, conv.Turns...)
	merged = append(merged, turns...)
	conv.Turns = trimTurns(merged)
	conv.UpdatedAt = at
	r.data[key] = conv
	return cloneConversation(conv), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, documentID, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, memoryKey(documentID, userID))
	return nil
}

func cloneConversation(conv Conversation) Conversation {
	turns := make([]Turn, len(conv.Turns))
	copy(turns, conv.Turns)
	conv.Turns = turns
	return conv
}

var _ Repo = (*MemoryRepo)(nil)
