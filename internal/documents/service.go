package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"docqa-backend/internal/extract"
	"docqa-backend/internal/shared/metrics"
	"docqa-backend/internal/shared/storage/object"
	"docqa-backend/internal/shared/telemetry"
)

// ConversationRemover clears the conversation attached to a document.
type ConversationRemover interface {
	Clear(ctx context.Context, documentID, userID string) error
}

// ExtractFunc turns file bytes into text for the given extension.
type ExtractFunc func(ctx context.Context, data []byte, ext string) (string, error)

// Service contains business logic for documents.
type Service struct {
	Store           object.ObjectStore
	StorageProvider string
	Repo            Repo
	Conversations   ConversationRemover
	Extract         ExtractFunc
	Now             func() time.Time
}

// Upload stores the file, extracts its text and records the document. The
// stored file is removed again when extraction or persistence fails.
func (s *Service) Upload(ctx context.Context, userID, fileName string, r io.Reader) (Document, error) {
	fileName = strings.TrimSpace(fileName)
	if userID == "" || fileName == "" {
		return Document{}, ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !extract.IsSupported(ext) {
		return Document{}, fmt.Errorf("%w: %q", extract.ErrUnsupportedFileType, ext)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return Document{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(data))
	if err != nil {
		return Document{}, fmt.Errorf("store upload: %w", err)
	}

	text, err := s.extractFunc()(ctx, data, ext)
	if err != nil {
		s.removeFile(ctx, "", storageKey)
		return Document{}, err
	}

	doc := s.newDocument(userID, fileName, text, storageKey)
	doc.MimeType = mimeType
	doc.SizeBytes = size
	if err := s.Repo.Create(ctx, doc); err != nil {
		s.removeFile(ctx, doc.ID, storageKey)
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	metrics.IncDocumentUploaded()
	telemetry.Info("document.created", map[string]any{
		"document_id": doc.ID,
		"user_id":     userID,
		"word_count":  doc.WordCount,
		"char_count":  doc.CharCount,
		"size_bytes":  doc.SizeBytes,
	})
	return doc, nil
}

// Create records already extracted text as a new document.
func (s *Service) Create(ctx context.Context, userID, fileName, text, filePath string) (Document, error) {
	if userID == "" || strings.TrimSpace(fileName) == "" {
		return Document{}, ErrInvalidInput
	}
	doc := s.newDocument(userID, fileName, text, filePath)
	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

// Get returns the caller's document or ErrNotFound.
func (s *Service) Get(ctx context.Context, userID, documentID string) (Document, error) {
	if userID == "" || strings.TrimSpace(documentID) == "" {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID, documentID)
}

// List returns the caller's documents newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID)
}

// Delete removes the caller's document together with its conversation and
// stored file. It reports false when the document does not exist for userID.
// A failure to remove the stored file is logged and does not fail the call.
func (s *Service) Delete(ctx context.Context, userID, documentID string) (bool, error) {
	if userID == "" || strings.TrimSpace(documentID) == "" {
		return false, nil
	}
	if _, err := s.Repo.GetByID(ctx, userID, documentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if s.Conversations != nil {
		if err := s.Conversations.Clear(ctx, documentID, userID); err != nil {
			return false, fmt.Errorf("clear conversation: %w", err)
		}
	}

	doc, err := s.Repo.Delete(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	s.removeFile(ctx, doc.ID, doc.StorageKey)
	return true, nil
}

func (s *Service) newDocument(userID, fileName, text, storageKey string) Document {
	return Document{
		ID:              uuid.NewString(),
		UserID:          userID,
		FileName:        fileName,
		Text:            text,
		WordCount:       len(strings.Fields(text)),
		CharCount:       utf8.RuneCountInString(text),
		StorageProvider: s.StorageProvider,
		StorageKey:      storageKey,
		CreatedAt:       s.now(),
	}
}

func (s *Service) removeFile(ctx context.Context, documentID, storageKey string) {
	if storageKey == "" || s.Store == nil {
		return
	}
	if err := s.Store.Delete(ctx, storageKey); err != nil {
		telemetry.Warn("document.file_delete_failed", map[string]any{
			"document_id": documentID,
			"storage_key": storageKey,
			"error":       err,
		})
	}
}

func (s *Service) extractFunc() ExtractFunc {
	if s.Extract != nil {
		return s.Extract
	}
	return extract.Extract
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
