package conversations

import "errors"

var (
	ErrNotFound     = errors.New("conversation not found")
	ErrInvalidInput = errors.New("invalid input")
)
