package conversations

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service owns conversation history for (document, user) pairs.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// GetOrCreate returns the stored conversation, or an empty one when none exists yet.
func (s *Service) GetOrCreate(ctx context.Context, documentID, userID string) (Conversation, error) {
	conv, err := s.Repo.Get(ctx, documentID, userID)
	if errors.Is(err, ErrNotFound) {
		now := s.now()
		return Conversation{
			DocumentID: documentID,
			UserID:     userID,
			Turns:      []Turn{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}, nil
	}
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// History returns the turns oldest first; empty when no conversation exists.
func (s *Service) History(ctx context.Context, documentID, userID string) ([]Turn, error) {
	conv, err := s.GetOrCreate(ctx, documentID, userID)
	if err != nil {
		return nil, err
	}
	return conv.Turns, nil
}

// AppendTurn records a question and its answer together. The user turn
// carries no tokens; the assistant turn carries tokensUsed.
func (s *Service) AppendTurn(ctx context.Context, documentID, userID, userText, assistantText string, tokensUsed int) (Conversation, error) {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(userID) == "" {
		return Conversation{}, ErrInvalidInput
	}
	if tokensUsed < 0 {
		tokensUsed = 0
	}
	at := s.now()
	turns := []Turn{
		{Role: RoleUser, Content: userText, TokensUsed: 0, CreatedAt: at},
		{Role: RoleAssistant, Content: assistantText, TokensUsed: tokensUsed, CreatedAt: at},
	}
	return s.Repo.Append(ctx, documentID, userID, turns, at)
}

// Clear removes the conversation. Clearing a missing conversation succeeds.
func (s *Service) Clear(ctx context.Context, documentID, userID string) error {
	return s.Repo.Delete(ctx, documentID, userID)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
