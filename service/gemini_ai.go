package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultEmbeddingModel = "text-embedding-004"

	maxEmbedBatch     = 100
	maxResponseLength = 10 << 20
)

// GeminiCompleter calls the generateContent REST endpoint directly so the
// response envelope can be read leniently.
type GeminiCompleter struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewGeminiCompleter(endpoint, model, apiKey string) *GeminiCompleter {
	if endpoint == "" {
		endpoint = DefaultGeminiEndpoint
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiCompleter{
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

func (c *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: GOOGLE_API_KEY is not set", ErrConfiguration)
	}

	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %v", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.endpoint, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
	if err != nil {
		return "", transportError(ctx, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		log.Printf("Gemini returned unparseable body (status %d): %s", resp.StatusCode, truncateString(string(raw), 200))
		return "", &ServiceError{Status: resp.StatusCode, Message: defaultServiceErrorMessage}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := upstreamErrorMessage(data)
		log.Printf("Gemini returned status %d: %s", resp.StatusCode, truncateString(msg, 200))
		return "", &ServiceError{Status: resp.StatusCode, Message: msg}
	}
	return candidateText(data), nil
}

// candidateText reads candidates[0].content.parts[0].text and returns ""
// when any step is missing or of the wrong type.
func candidateText(data map[string]interface{}) string {
	candidates, ok := data["candidates"].([]interface{})
	if !ok || len(candidates) == 0 {
		return ""
	}
	first, ok := candidates[0].(map[string]interface{})
	if !ok {
		return ""
	}
	content, ok := first["content"].(map[string]interface{})
	if !ok {
		return ""
	}
	parts, ok := content["parts"].([]interface{})
	if !ok || len(parts) == 0 {
		return ""
	}
	part, ok := parts[0].(map[string]interface{})
	if !ok {
		return ""
	}
	text, _ := part["text"].(string)
	return text
}

func upstreamErrorMessage(data map[string]interface{}) string {
	if e, ok := data["error"].(map[string]interface{}); ok {
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
	}
	return defaultServiceErrorMessage
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &ServiceError{Status: http.StatusGatewayTimeout, Message: "AI service timed out"}
	}
	log.Printf("AI service request failed: %v", err)
	return &ServiceError{Status: http.StatusBadGateway, Message: "AI service unavailable"}
}

// GeminiEmbedder embeds text with the genai client, created on first use.
type GeminiEmbedder struct {
	apiKey string
	model  string
	opts   []option.ClientOption

	once    sync.Once
	client  *genai.Client
	initErr error
}

func NewGeminiEmbedder(apiKey, model string, opts ...option.ClientOption) *GeminiEmbedder {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &GeminiEmbedder{apiKey: apiKey, model: model, opts: opts}
}

func (e *GeminiEmbedder) Model() string {
	return e.model
}

func (e *GeminiEmbedder) embeddingModel() (*genai.EmbeddingModel, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%w: GOOGLE_API_KEY is not set", ErrConfiguration)
	}
	e.once.Do(func() {
		opts := append([]option.ClientOption{option.WithAPIKey(e.apiKey)}, e.opts...)
		e.client, e.initErr = genai.NewClient(context.Background(), opts...)
	})
	if e.initErr != nil {
		return nil, fmt.Errorf("failed to create genai client: %v", e.initErr)
	}
	return e.client.EmbeddingModel(e.model), nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	em, err := e.embeddingModel()
	if err != nil {
		return nil, err
	}
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %v", err)
	}
	if res.Embedding == nil {
		return nil, errors.New("no embedding returned")
	}
	return res.Embedding.Values, nil
}

func (e *GeminiEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	em, err := e.embeddingModel()
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += maxEmbedBatch {
		end := i + maxEmbedBatch
		if end > len(texts) {
			end = len(texts)
		}
		b := em.NewBatch()
		for _, t := range texts[i:end] {
			b.AddContent(genai.Text(t))
		}
		res, err := em.BatchEmbedContents(ctx, b)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d-%d: %v", i, end, err)
		}
		if len(res.Embeddings) != end-i {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-i, len(res.Embeddings))
		}
		for _, emb := range res.Embeddings {
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}

func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
