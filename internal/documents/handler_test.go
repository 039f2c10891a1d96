package documents_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/shared/config"
)

func newTestApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app, err := bootstrap.Build(config.Config{
		Port:              "0",
		CORSAllowOrigin:   []string{"http://localhost:5173"},
		LocalStoreDir:     t.TempDir(),
		Env:               "dev",
		ObjectStoreType:   "local",
		LLMProvider:       "none",
		DocumentCacheSize: 16,
	})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app
}

func registerUser(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	raw, _ := json.Marshal(map[string]string{"name": "Tester", "email": email, "password": "secret1"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil || out.Token == "" {
		t.Fatalf("register: missing token: %v", err)
	}
	return out.Token
}

func uploadRequest(t *testing.T, field, name string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fileWriter, err := writer.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fileWriter.Write(content); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func do(router http.Handler, req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestDocumentLifecycle(t *testing.T) {
	app := newTestApp(t)
	router := app.Router
	token := registerUser(t, router, "owner@example.com")

	resp := do(router, uploadRequest(t, "document", "notes.txt", []byte("one two three four five")), token)
	if resp.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		Success    bool   `json:"success"`
		DocumentID string `json:"documentId"`
		FileName   string `json:"filename"`
		WordCount  int    `json:"wordCount"`
		CharCount  int    `json:"charCount"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if !created.Success || created.DocumentID == "" || created.FileName != "notes.txt" {
		t.Fatalf("unexpected upload response %+v", created)
	}
	if created.WordCount != 5 || created.CharCount != 23 {
		t.Fatalf("unexpected counts %+v", created)
	}

	listResp := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil), token)
	if listResp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", listResp.Code)
	}
	var list struct {
		Documents []map[string]any `json:"documents"`
	}
	if err := json.Unmarshal(listResp.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Documents) != 1 {
		t.Fatalf("expected one document, got %d", len(list.Documents))
	}
	if _, ok := list.Documents[0]["text"]; ok {
		t.Fatal("list must not include document text")
	}

	getResp := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil), token)
	if getResp.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getResp.Code)
	}
	var got struct {
		Document struct {
			Text string `json:"text"`
		} `json:"document"`
	}
	if err := json.Unmarshal(getResp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode get: %v", err)
	}
	if got.Document.Text != "one two three four five" {
		t.Fatalf("unexpected text %q", got.Document.Text)
	}

	// With no provider configured the question fails and nothing is recorded.
	ask, _ := json.Marshal(map[string]string{"documentId": created.DocumentID, "question": "How many words?"})
	askReq := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(ask))
	askReq.Header.Set("Content-Type", "application/json")
	if askResp := do(router, askReq, token); askResp.Code != http.StatusBadGateway {
		t.Fatalf("chat: expected 502, got %d: %s", askResp.Code, askResp.Body.String())
	}
	historyResp := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/chat/"+created.DocumentID, nil), token)
	if historyResp.Code != http.StatusOK || !bytes.Contains(historyResp.Body.Bytes(), []byte(`"history":[]`)) {
		t.Fatalf("history: expected empty history, got %d %s", historyResp.Code, historyResp.Body.String())
	}

	delResp := do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created.DocumentID, nil), token)
	if delResp.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", delResp.Code)
	}
	if again := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil), token); again.Code != http.StatusNotFound {
		t.Fatalf("get after delete: expected 404, got %d", again.Code)
	}
	askReq = httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(ask))
	askReq.Header.Set("Content-Type", "application/json")
	if askResp := do(router, askReq, token); askResp.Code != http.StatusNotFound {
		t.Fatalf("chat after delete: expected 404, got %d", askResp.Code)
	}
	if again := do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created.DocumentID, nil), token); again.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", again.Code)
	}
}

func TestDocumentsAreOwnerScoped(t *testing.T) {
	app := newTestApp(t)
	router := app.Router
	owner := registerUser(t, router, "owner@example.com")
	other := registerUser(t, router, "other@example.com")

	resp := do(router, uploadRequest(t, "file", "shared.txt", []byte("private words")), owner)
	if resp.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d", resp.Code)
	}
	var created struct {
		DocumentID string `json:"documentId"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode upload: %v", err)
	}

	if r := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil), other); r.Code != http.StatusNotFound {
		t.Fatalf("foreign get: expected 404, got %d", r.Code)
	}
	if r := do(router, httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+created.DocumentID, nil), other); r.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: expected 404, got %d", r.Code)
	}
	if r := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil), owner); r.Code != http.StatusOK {
		t.Fatalf("owner get: expected 200, got %d", r.Code)
	}
}

func TestUploadRejections(t *testing.T) {
	app := newTestApp(t)
	router := app.Router
	token := registerUser(t, router, "owner@example.com")

	if r := do(router, uploadRequest(t, "document", "image.png", []byte("png")), token); r.Code != http.StatusBadRequest {
		t.Fatalf("unsupported type: expected 400, got %d", r.Code)
	}
	if r := do(router, uploadRequest(t, "document", "broken.txt", []byte{0xff, 0xfe, 0xfd}), token); r.Code != http.StatusUnprocessableEntity {
		t.Fatalf("extraction failure: expected 422, got %d", r.Code)
	}
	if r := do(router, uploadRequest(t, "attachment", "notes.txt", []byte("hi")), token); r.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", r.Code)
	}
	if r := do(router, uploadRequest(t, "document", "notes.txt", []byte("hi")), ""); r.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", r.Code)
	}

	list := do(router, httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil), token)
	if !bytes.Contains(list.Body.Bytes(), []byte(`"documents":[]`)) {
		t.Fatalf("failed uploads must not create documents: %s", list.Body.String())
	}
}
