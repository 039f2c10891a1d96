package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist is returned when a storage key does not resolve to an object.
var ErrNotExist = errors.New("object does not exist")

// ObjectStore defines the contract for saving, retrieving and removing uploaded files.
type ObjectStore interface {
	Save(ctx context.Context, userId string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}
