package chat

import (
	"strings"
	"testing"
	"unicode/utf8"

	"docqa-backend/internal/conversations"
	"docqa-backend/internal/llm"
)

func TestBuildPromptWithoutHistory(t *testing.T) {
	messages := BuildPrompt("The sky is blue.", nil, "What color is the sky?")

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != llm.RoleSystem {
		t.Fatalf("expected system message first, got %s", messages[0].Role)
	}
	if !strings.HasSuffix(messages[0].Content, "Document Content:\nThe sky is blue.") {
		t.Fatalf("system message must end with the document: %q", messages[0].Content)
	}
	if !strings.Contains(messages[0].Content, `say "I cannot find this information in the document."`) {
		t.Fatalf("system message missing fallback instruction")
	}
	if messages[1].Role != llm.RoleUser || messages[1].Content != "What color is the sky?" {
		t.Fatalf("unexpected final message: %+v", messages[1])
	}
}

func TestBuildPromptKeepsPriorTurnsInOrder(t *testing.T) {
	prior := []conversations.Turn{
		{Role: conversations.RoleUser, Content: "q1"},
		{Role: conversations.RoleAssistant, Content: "a1"},
		{Role: conversations.RoleUser, Content: "q2"},
		{Role: conversations.RoleAssistant, Content: "a2"},
	}
	messages := BuildPrompt("doc", prior, "q3")

	want := []llm.Message{
		{Role: llm.RoleUser, Content: "q1"},
		{Role: llm.RoleAssistant, Content: "a1"},
		{Role: llm.RoleUser, Content: "q2"},
		{Role: llm.RoleAssistant, Content: "a2"},
		{Role: llm.RoleUser, Content: "q3"},
	}
	if len(messages) != len(want)+1 {
		t.Fatalf("expected %d messages, got %d", len(want)+1, len(messages))
	}
	for i, m := range want {
		if messages[i+1] != m {
			t.Fatalf("message %d: want %+v, got %+v", i+1, m, messages[i+1])
		}
	}
}

func TestBuildPromptTruncatesLongDocuments(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		truncated bool
	}{
		{name: "short", text: "short text", truncated: false},
		{name: "exact limit", text: strings.Repeat("a", MaxDocumentChars), truncated: false},
		{name: "one over", text: strings.Repeat("a", MaxDocumentChars+1), truncated: true},
		{name: "multibyte over", text: strings.Repeat("é", MaxDocumentChars+10), truncated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			system := BuildPrompt(tt.text, nil, "q")[0].Content
			body := strings.TrimPrefix(system, systemPromptPrefix)
			if got := strings.HasSuffix(body, TruncationMarker); got != tt.truncated {
				t.Fatalf("truncated = %v, want %v", got, tt.truncated)
			}
			if !tt.truncated {
				if body != tt.text {
					t.Fatalf("expected text unchanged")
				}
				return
			}
			kept := strings.TrimSuffix(body, TruncationMarker)
			if n := utf8.RuneCountInString(kept); n != MaxDocumentChars {
				t.Fatalf("expected %d characters kept, got %d", MaxDocumentChars, n)
			}
			if !strings.HasPrefix(tt.text, kept) {
				t.Fatalf("kept text must be a prefix of the document")
			}
		})
	}
}
