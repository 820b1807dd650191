package service

import (
	"context"
	"strings"
	"sync"

	"github.com/tieubaoca/pdfchat-be/types"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeRetriever struct {
	passages []types.Passage
	err      error
	calls    int
	lastNS   string
	lastK    int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, namespace, query string, topK int) ([]types.Passage, error) {
	f.calls++
	f.lastNS = namespace
	f.lastK = topK
	return f.passages, f.err
}

// fakeEmbedder maps text onto a 3-dimensional bag of letters a, b and c.
type fakeEmbedder struct {
	model string
	err   error
}

func (f *fakeEmbedder) Model() string { return f.model }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{
		float32(strings.Count(text, "a")),
		float32(strings.Count(text, "b")),
		float32(strings.Count(text, "c")),
	}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

type fakeExtractor struct {
	pages    int
	pageErr  error
	chunks   []types.DocumentChunk
	chunkErr error
}

func (f *fakeExtractor) PageCount(ctx context.Context, path string) (int, error) {
	return f.pages, f.pageErr
}

func (f *fakeExtractor) ProcessPDF(ctx context.Context, path string, c chan<- types.DocumentChunk) error {
	defer close(c)
	for _, chunk := range f.chunks {
		select {
		case c <- chunk:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.chunkErr
}
