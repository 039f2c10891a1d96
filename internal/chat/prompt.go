package chat

import (
	"docqa-backend/internal/conversations"
	"docqa-backend/internal/llm"
)

const (
	// MaxDocumentChars is the number of characters of document text sent to the model.
	MaxDocumentChars = 15000
	// TruncationMarker is appended when the document text is cut.
	TruncationMarker = "\n\n[Document truncated due to length...]"

	systemPromptPrefix = "You are a helpful assistant that answers questions about documents. " +
		"You have access to the following document content. Answer questions based solely on this document. " +
		"If the answer cannot be found in the document, say \"I cannot find this information in the document.\"" +
		"\n\nDocument Content:\n"
)

// BuildPrompt assembles the system message with the (possibly truncated)
// document, the prior turns unchanged, and the question as the last user message.
func BuildPrompt(documentText string, prior []conversations.Turn, question string) []llm.Message {
	messages := make([]llm.Message, 0, len(prior)+2)
	messages = append(messages, llm.Message{
		Role:    llm.RoleSystem,
		Content: systemPromptPrefix + truncateDocument(documentText),
	})
	for _, turn := range prior {
		messages = append(messages, llm.Message{Role: llm.Role(turn.Role), Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})
	return messages
}

// truncateDocument counts characters as code points so multi-byte text is
// never split inside a rune.
func truncateDocument(text string) string {
	count := 0
	for i := range text {
		if count == MaxDocumentChars {
			return text[:i] + TruncationMarker
		}
		count++
	}
	return text
}
