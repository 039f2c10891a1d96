package documents

import "time"

// DocumentSummary is the list representation of a document; it omits the text.
type DocumentSummary struct {
	ID        string    `json:"id"`
	FileName  string    `json:"filename"`
	WordCount int       `json:"wordCount"`
	CharCount int       `json:"charCount"`
	MimeType  string    `json:"mimeType,omitempty"`
	SizeBytes int64     `json:"sizeBytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentDetail is a single document including its extracted text.
type DocumentDetail struct {
	DocumentSummary
	Text string `json:"text"`
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	DocumentID string `json:"documentId"`
	FileName   string `json:"filename"`
	WordCount  int    `json:"wordCount"`
	CharCount  int    `json:"charCount"`
}

func toSummary(doc Document) DocumentSummary {
	return DocumentSummary{
		ID:        doc.ID,
		FileName:  doc.FileName,
		WordCount: doc.WordCount,
		CharCount: doc.CharCount,
		MimeType:  doc.MimeType,
		SizeBytes: doc.SizeBytes,
		CreatedAt: doc.CreatedAt,
	}
}

func toDetail(doc Document) DocumentDetail {
	return DocumentDetail{DocumentSummary: toSummary(doc), Text: doc.Text}
}
