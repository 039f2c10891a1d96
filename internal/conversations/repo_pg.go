package conversations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres. Turns are stored as a JSONB array.
type PGRepo struct {
	DB *sql.DB
}

// Get loads a conversation.
func (r *PGRepo) Get(ctx context.Context, documentID, userID string) (Conversation, error) {
	const query = `
SELECT turns, created_at, updated_at
FROM conversations
WHERE document_id = $1 AND user_id = $2`
	var raw []byte
	conv := Conversation{DocumentID: documentID, UserID: userID}
	err := r.DB.QueryRowContext(ctx, query, documentID, userID).Scan(&raw, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Conversation{}, ErrNotFound
		}
		return Conversation{}, err
	}
	turns, err := decodeTurns(raw)
	if err != nil {
		return Conversation{}, err
	}
	conv.Turns = turns
	return conv, nil
}

// Append locks the conversation row, appends and trims the turns, and writes
// them back in one transaction.
func (r *PGRepo) Append(ctx context.Context, documentID, userID string, turns []Turn, at time.Time) (conv Conversation, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Conversation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const ensure = `
INSERT INTO conversations (document_id, user_id, turns, created_at, updated_at)
VALUES ($1, $2, '[]'::jsonb, $3, $3)
ON CONFLICT (document_id, user_id) DO NOTHING`
	if _, err = tx.ExecContext(ctx, ensure, documentID, userID, at); err != nil {
		return Conversation{}, fmt.Errorf("ensure conversation: %w", err)
	}

	const lock = `
SELECT turns, created_at
FROM conversations
WHERE document_id = $1 AND user_id = $2
FOR UPDATE`
	var raw []byte
	conv = Conversation{DocumentID: documentID, UserID: userID, UpdatedAt: at}
	if err = tx.QueryRowContext(ctx, lock, documentID, userID).Scan(&raw, &conv.CreatedAt); err != nil {
		return Conversation{}, fmt.Errorf("lock conversation: %w", err)
	}
	existing, err := decodeTurns(raw)
	if err != nil {
		return Conversation{}, err
	}
	conv.Turns = trimTurns(append(existing, turns...))

	encoded, err := json.Marshal(conv.Turns)
	if err != nil {
		return Conversation{}, err
	}
	const update = `
UPDATE conversations
SET turns = $1, updated_at = $2
WHERE document_id = $3 AND user_id = $4`
	if _, err = tx.ExecContext(ctx, update, encoded, at, documentID, userID); err != nil {
		return Conversation{}, fmt.Errorf("update conversation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// Delete removes the conversation row if present.
func (r *PGRepo) Delete(ctx context.Context, documentID, userID string) error {
	const query = `DELETE FROM conversations WHERE document_id = $1 AND user_id = $2`
	_, err := r.DB.ExecContext(ctx, query, documentID, userID)
	return err
}

func decodeTurns(raw []byte) ([]Turn, error) {
	turns := []Turn{}
	if len(raw) == 0 {
		return turns, nil
	}
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("decode turns: %w", err)
	}
	return turns, nil
}

var _ Repo = (*PGRepo)(nil)
