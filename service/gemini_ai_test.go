package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newGeminiServer(t *testing.T, status int, body string) (*httptest.Server, *geminiRequest) {
	t.Helper()
	var got geminiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "key" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func TestGeminiCompleterSuccess(t *testing.T) {
	srv, got := newGeminiServer(t, http.StatusOK,
		`{"candidates":[{"content":{"parts":[{"text":"It is about X."}],"role":"model"}}]}`)

	c := NewGeminiCompleter(srv.URL, "gemini-test", "key")
	reply, err := c.Complete(context.Background(), "the prompt")
	if err != nil {
		t.Fatal(err)
	}
	if reply != "It is about X." {
		t.Errorf("reply = %q", reply)
	}
	if len(got.Contents) != 1 || len(got.Contents[0].Parts) != 1 || got.Contents[0].Parts[0].Text != "the prompt" {
		t.Errorf("unexpected request body: %+v", got)
	}
}

func TestGeminiCompleterLenientShape(t *testing.T) {
	for name, body := range map[string]string{
		"no candidates":      `{}`,
		"empty candidates":   `{"candidates":[]}`,
		"no content":         `{"candidates":[{"finishReason":"SAFETY"}]}`,
		"no parts":           `{"candidates":[{"content":{}}]}`,
		"non-string text":    `{"candidates":[{"content":{"parts":[{"text":42}]}}]}`,
		"wrong types":        `{"candidates":"nope"}`,
		"function call part": `{"candidates":[{"content":{"parts":[{"functionCall":{}}]}}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := newGeminiServer(t, http.StatusOK, body)
			reply, err := NewGeminiCompleter(srv.URL, "gemini-test", "key").Complete(context.Background(), "p")
			if err != nil || reply != "" {
				t.Errorf("expected empty reply and nil error, got %q, %v", reply, err)
			}
		})
	}
}

func TestGeminiCompleterUpstreamError(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusTooManyRequests, `{"error":{"code":429,"message":"Resource has been exhausted"}}`)
	_, err := NewGeminiCompleter(srv.URL, "gemini-test", "key").Complete(context.Background(), "p")

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if svcErr.Status != http.StatusTooManyRequests || svcErr.Message != "Resource has been exhausted" {
		t.Errorf("unexpected error: %+v", svcErr)
	}
}

func TestGeminiCompleterUpstreamErrorWithoutMessage(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusInternalServerError, `{"error":{}}`)
	_, err := NewGeminiCompleter(srv.URL, "gemini-test", "key").Complete(context.Background(), "p")

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.Message != "AI service error" {
		t.Errorf("expected default message, got %v", err)
	}
}

func TestGeminiCompleterUnparseableBody(t *testing.T) {
	srv, _ := newGeminiServer(t, http.StatusOK, `<html>bad gateway</html>`)
	_, err := NewGeminiCompleter(srv.URL, "gemini-test", "key").Complete(context.Background(), "p")

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.Message != "AI service error" {
		t.Errorf("expected ServiceError, got %v", err)
	}
}

func TestGeminiCompleterMissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewGeminiCompleter(srv.URL, "gemini-test", "").Complete(context.Background(), "p")
	if !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
	if called {
		t.Error("no request may be sent without a credential")
	}
}

func TestGeminiCompleterTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := NewGeminiCompleter(srv.URL, "gemini-test", "key").Complete(ctx, "p")

	var svcErr *ServiceError
	if !errors.As(err, &svcErr) || svcErr.Status != http.StatusGatewayTimeout {
		t.Errorf("expected timeout ServiceError, got %v", err)
	}
}

func TestGeminiEmbedderMissingKey(t *testing.T) {
	e := NewGeminiEmbedder("", "")
	if e.Model() != DefaultEmbeddingModel {
		t.Errorf("model = %q", e.Model())
	}
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("Embed: expected ErrConfiguration, got %v", err)
	}
	if _, err := e.EmbedBatch(context.Background(), []string{"x"}); !errors.Is(err, ErrConfiguration) {
		t.Errorf("EmbedBatch: expected ErrConfiguration, got %v", err)
	}
}
