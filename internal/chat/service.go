package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa-backend/internal/conversations"
	"docqa-backend/internal/documents"
	"docqa-backend/internal/llm"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/telemetry"
)

const (
	answerTemperature = 0.3
	answerMaxTokens   = 1024
	answerTopP        = 1
)

// DocumentReader loads a document owned by userID.
type DocumentReader interface {
	Get(ctx context.Context, userID, documentID string) (documents.Document, error)
}

// ConversationStore is the conversation behavior the flow depends on.
type ConversationStore interface {
	GetOrCreate(ctx context.Context, documentID, userID string) (conversations.Conversation, error)
	AppendTurn(ctx context.Context, documentID, userID, userText, assistantText string, tokensUsed int) (conversations.Conversation, error)
	History(ctx context.Context, documentID, userID string) ([]conversations.Turn, error)
	Clear(ctx context.Context, documentID, userID string) error
}

// Answer is the result of a successful question.
type Answer struct {
	Text       string
	TokensUsed int
}

// Service answers questions about a document using its conversation history.
type Service struct {
	Documents     DocumentReader
	Conversations ConversationStore
	Gateway       llm.Gateway
}

// AnswerQuestion runs one question through the inference gateway. Nothing is
// recorded unless the gateway succeeds.
func (s *Service) AnswerQuestion(ctx context.Context, documentID, question, userID string) (Answer, error) {
	if strings.TrimSpace(documentID) == "" || strings.TrimSpace(question) == "" {
		return Answer{}, fmt.Errorf("%w: Document ID and question are required", ErrValidation)
	}
	metrics.IncQuestion()

	answer, err := s.answer(ctx, documentID, question, userID)
	if err != nil {
		metrics.IncQuestionFailed()
		telemetry.Warn("chat.answer_failed", map[string]any{
			"document_id": documentID,
			"user_id":     userID,
			"error":       err,
		})
		return Answer{}, err
	}
	return answer, nil
}

func (s *Service) answer(ctx context.Context, documentID, question, userID string) (Answer, error) {
	doc, err := s.Documents.Get(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return Answer{}, ErrDocumentNotFound
		}
		return Answer{}, err
	}

	conv, err := s.Conversations.GetOrCreate(ctx, documentID, userID)
	if err != nil {
		return Answer{}, fmt.Errorf("load conversation: %w", err)
	}

	completion, err := s.Gateway.Complete(ctx, llm.CompletionRequest{
		Messages:    BuildPrompt(doc.Text, conv.Turns, question),
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
		TopP:        answerTopP,
	})
	if err != nil {
		return Answer{}, err
	}

	if _, err := s.Conversations.AppendTurn(ctx, documentID, userID, question, completion.Text, completion.TotalTokens); err != nil {
		return Answer{}, fmt.Errorf("record turn: %w", err)
	}
	return Answer{Text: completion.Text, TokensUsed: completion.TotalTokens}, nil
}

// History returns the conversation turns for the caller; empty when none exist.
func (s *Service) History(ctx context.Context, documentID, userID string) ([]conversations.Turn, error) {
	return s.Conversations.History(ctx, documentID, userID)
}

// Clear discards the caller's conversation about documentID.
func (s *Service) Clear(ctx context.Context, documentID, userID string) error {
	return s.Conversations.Clear(ctx, documentID, userID)
}
