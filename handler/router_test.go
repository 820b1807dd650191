package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/pdfchat-be/database"
	"github.com/tieubaoca/pdfchat-be/repository"
	"github.com/tieubaoca/pdfchat-be/service"
	"github.com/tieubaoca/pdfchat-be/types"
	"github.com/tieubaoca/pdfchat-be/utils"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRetriever struct {
	passages []types.Passage
}

func (s *stubRetriever) Retrieve(ctx context.Context, namespace, query string, topK int) ([]types.Passage, error) {
	return s.passages, nil
}

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.reply, s.err
}

type fixture struct {
	router    *gin.Engine
	documents repository.DocumentRepo
	messages  repository.MessageRepo
	completer *stubCompleter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		documents: repository.NewMemoryDocumentRepo(),
		messages:  repository.NewMemoryMessageRepo(),
		completer: &stubCompleter{reply: "It is about X."},
	}
	users := repository.NewMemoryUserRepo()
	index := database.NewMemoryIndex()
	retriever := &stubRetriever{passages: []types.Passage{
		{Content: "first", Page: 1, Rank: 1},
		{Content: "second", Page: 2, Rank: 2},
	}}

	ctx := context.Background()
	if err := f.documents.Create(ctx, &types.Document{ID: "D1", UserID: "U1", Name: "doc.pdf", Key: "k1", UploadStatus: types.UploadStatusSuccess}); err != nil {
		t.Fatal(err)
	}

	chat := service.NewChatService(f.documents, f.messages, retriever, f.completer, service.DefaultChatConfig)
	docs := service.NewDocumentService(f.documents, f.messages, index, t.TempDir(), 10)
	accounts := service.NewAccountService(users, f.documents, f.messages, index, t.TempDir())
	ws := service.NewWebSocketService(chat, nil, nil)

	f.router = NewRouter(
		RouterConfig{JWTSecret: testSecret},
		NewMessageHandler(chat, ws),
		NewDocumentHandler(docs),
		NewAccountHandler(accounts),
	)
	return f
}

func token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := utils.GenerateUserToken(userID, userID+"@example.com", "", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func (f *fixture) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) messageCount(t *testing.T) int64 {
	t.Helper()
	n, err := f.messages.CountByDocument(context.Background(), "D1")
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestSendMessageSuccess(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/messages", "U1", `{"documentId":"D1","message":"What is this about?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	if w.Body.String() != "It is about X." {
		t.Errorf("body = %q", w.Body.String())
	}

	msgs, err := f.messages.RecentWindow(context.Background(), "D1", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if !msgs[0].IsUserMessage || msgs[0].Text != "What is this about?" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[1].IsUserMessage || msgs[1].Text != "It is about X." {
		t.Errorf("second message = %+v", msgs[1])
	}
}

func TestSendMessageNotOwner(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodPost, "/messages", "U2", `{"documentId":"D1","message":"hi"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if n := f.messageCount(t); n != 0 {
		t.Errorf("%d messages created", n)
	}
	if f.completer.calls != 0 {
		t.Error("completer called for foreign document")
	}
}

func TestSendMessageUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	f.completer.err = &service.ServiceError{Status: http.StatusBadGateway, Message: "quota exhausted"}
	w := f.do(t, http.MethodPost, "/messages", "U1", `{"documentId":"D1","message":"hi"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Body.String() != "quota exhausted" {
		t.Errorf("body = %q", w.Body.String())
	}
	if n := f.messageCount(t); n != 1 {
		t.Errorf("%d messages persisted, want 1", n)
	}
}

func TestSendMessageRejects(t *testing.T) {
	f := newFixture(t)
	if w := f.do(t, http.MethodPost, "/messages", "", `{"documentId":"D1","message":"hi"}`); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/messages", "U1", `{"message":"hi"}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing document id: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/messages", "U1", `{"documentId":"D1","message":"   "}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank message: status = %d", w.Code)
	}
	if n := f.messageCount(t); n != 0 {
		t.Errorf("%d messages created", n)
	}
}

func TestMessageInfo(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/messages", "", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Message API endpoint") {
		t.Errorf("got %d %q", w.Code, w.Body.String())
	}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	var res struct {
		Status bool            `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if !res.Status {
		t.Fatalf("status false: %s", w.Body.String())
	}
	if err := json.Unmarshal(res.Data, v); err != nil {
		t.Fatal(err)
	}
}

func TestFileRoutes(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/files", "U1", "")
	var docs []types.Document
	decodeData(t, w, &docs)
	if len(docs) != 1 || docs[0].ID != "D1" {
		t.Fatalf("list = %+v", docs)
	}

	if w := f.do(t, http.MethodGet, "/files/D1", "U2", ""); w.Code != http.StatusNotFound {
		t.Errorf("foreign get: status = %d", w.Code)
	}

	w = f.do(t, http.MethodGet, "/files/key/k1", "U1", "")
	var byKey types.Document
	decodeData(t, w, &byKey)
	if byKey.ID != "D1" {
		t.Errorf("by key = %+v", byKey)
	}

	w = f.do(t, http.MethodPatch, "/files/D1", "U1", `{"name":"renamed.pdf","icon_index":3}`)
	var updated types.Document
	decodeData(t, w, &updated)
	if updated.Name != "renamed.pdf" || updated.IconIndex != 3 {
		t.Errorf("update = %+v", updated)
	}
	if w := f.do(t, http.MethodPatch, "/files/D1", "U1", `{"color_index":11}`); w.Code != http.StatusBadRequest {
		t.Errorf("bad colour: status = %d", w.Code)
	}

	w = f.do(t, http.MethodPost, "/files/D1/views", "U1", "")
	var viewed types.Document
	decodeData(t, w, &viewed)
	if viewed.ViewCount != 1 {
		t.Errorf("views = %d", viewed.ViewCount)
	}

	w = f.do(t, http.MethodGet, "/files/missing/status", "U1", "")
	var status types.UploadStatusResponse
	decodeData(t, w, &status)
	if status.Status != types.UploadStatusPending {
		t.Errorf("missing status = %s", status.Status)
	}
}

func TestFileMessagesPaging(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		if w := f.do(t, http.MethodPost, "/messages", "U1", `{"documentId":"D1","message":"q"}`); w.Code != http.StatusOK {
			t.Fatalf("send: %d", w.Code)
		}
	}

	w := f.do(t, http.MethodGet, "/files/D1/messages?limit=4", "U1", "")
	var page types.MessagePage
	decodeData(t, w, &page)
	if len(page.Messages) != 4 || page.NextCursor == "" {
		t.Fatalf("page = %d messages, cursor %q", len(page.Messages), page.NextCursor)
	}

	w = f.do(t, http.MethodGet, "/files/D1/messages?limit=4&cursor="+page.NextCursor, "U1", "")
	var rest types.MessagePage
	decodeData(t, w, &rest)
	if len(rest.Messages) != 2 || rest.NextCursor != "" {
		t.Errorf("second page = %d messages, cursor %q", len(rest.Messages), rest.NextCursor)
	}

	if w := f.do(t, http.MethodGet, "/files/D1/messages?limit=abc", "U1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/files/D1/messages?limit=101", "U1", ""); w.Code != http.StatusBadRequest {
		t.Errorf("limit over max: status = %d", w.Code)
	}
}

func TestDeleteFile(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/messages", "U1", `{"documentId":"D1","message":"q"}`)

	w := f.do(t, http.MethodDelete, "/files/D1", "U1", "")
	var res types.DeleteDocumentResponse
	decodeData(t, w, &res)
	if !res.Success || res.DeletedFile.ID != "D1" {
		t.Errorf("delete = %+v", res)
	}
	if n := f.messageCount(t); n != 0 {
		t.Errorf("%d messages left", n)
	}
	if w := f.do(t, http.MethodGet, "/files/D1", "U1", ""); w.Code != http.StatusNotFound {
		t.Errorf("after delete: status = %d", w.Code)
	}
}

func TestAccountRoutes(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/auth/callback", "U1", "")
	var user types.User
	decodeData(t, w, &user)
	if user.ID != "U1" || user.Email != "U1@example.com" {
		t.Errorf("user = %+v", user)
	}

	f.do(t, http.MethodPost, "/messages", "U1", `{"documentId":"D1","message":"q"}`)
	w = f.do(t, http.MethodGet, "/account/export", "U1", "")
	var export types.AccountExport
	decodeData(t, w, &export)
	if export.Statistics.TotalFiles != 1 || export.Statistics.TotalMessages != 2 {
		t.Errorf("statistics = %+v", export.Statistics)
	}

	if w := f.do(t, http.MethodDelete, "/account", "U1", ""); w.Code != http.StatusOK {
		t.Fatalf("delete account: status = %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/files/D1", "U1", ""); w.Code != http.StatusNotFound {
		t.Errorf("document survived account deletion: %d", w.Code)
	}
}

func TestCorsHandler(t *testing.T) {
	h := NewCorsHandler([]string{"https://app.example.com"})
	r := gin.New()
	r.Use(h.CorsMiddleware)
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "https://app.example.com" {
		t.Errorf("preflight: %d %q", w.Code, w.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
	if h.CheckOrigin(req) {
		t.Error("CheckOrigin accepted foreign origin")
	}
	if !NewCorsHandler(nil).CheckOrigin(req) {
		t.Error("empty origin list should allow all")
	}
}
