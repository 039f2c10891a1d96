package documents

import "time"

// Document is an uploaded file after text extraction, owned by one user.
type Document struct {
	ID              string
	UserID          string
	FileName        string
	Text            string
	WordCount       int
	CharCount       int
	MimeType        string
	SizeBytes       int64
	StorageProvider string
	StorageKey      string
	CreatedAt       time.Time
}
