package chat

import "errors"

var (
	ErrValidation       = errors.New("validation error")
	ErrDocumentNotFound = errors.New("document not found")
)
