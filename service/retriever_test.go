package service

import (
	"context"
	"errors"
	"testing"

	"github.com/tieubaoca/pdfchat-be/database"
	"github.com/tieubaoca/pdfchat-be/types"
)

func TestVectorRetriever(t *testing.T) {
	ctx := context.Background()
	index := database.NewMemoryIndex()
	embedder := &fakeEmbedder{model: "fake-embed"}

	texts := []string{"aaaa", "bbbb", "abab", "cccc"}
	var passages []types.Passage
	for i, text := range texts {
		passages = append(passages, types.Passage{Content: text, ChunkIndex: i, EmbedModel: "fake-embed"})
	}
	vectors, _ := embedder.EmbedBatch(ctx, texts)
	if err := index.Upsert(ctx, "doc-1", passages, vectors); err != nil {
		t.Fatal(err)
	}
	index.Upsert(ctx, "doc-2", []types.Passage{{Content: "aaaa from doc-2"}}, [][]float32{{1, 0, 0}})

	r := NewVectorRetriever(index, embedder)
	got, err := r.Retrieve(ctx, "doc-1", "a", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Content != "aaaa" || got[1].Content != "abab" {
		t.Errorf("unexpected ranking: %+v", got)
	}
	if got[0].Rank != 1 || got[1].Rank != 2 {
		t.Errorf("unexpected ranks: %+v", got)
	}
	for _, p := range got {
		if p.Content == "aaaa from doc-2" {
			t.Error("retrieval crossed namespaces")
		}
	}
}

func TestVectorRetrieverEmptyNamespace(t *testing.T) {
	r := NewVectorRetriever(database.NewMemoryIndex(), &fakeEmbedder{model: "fake-embed"})
	got, err := r.Retrieve(context.Background(), "pending-doc", "anything", 4)
	if err != nil || len(got) != 0 {
		t.Errorf("expected empty result, got %v, %v", got, err)
	}
}

func TestVectorRetrieverKeepsMismatchedModel(t *testing.T) {
	ctx := context.Background()
	index := database.NewMemoryIndex()
	index.Upsert(ctx, "doc", []types.Passage{{Content: "old", EmbedModel: "embedding-001"}}, [][]float32{{1, 0, 0}})

	got, err := NewVectorRetriever(index, &fakeEmbedder{model: "fake-embed"}).Retrieve(ctx, "doc", "a", 4)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected the passage to be returned, got %v, %v", got, err)
	}
	if got[0].EmbedModel != "embedding-001" {
		t.Errorf("embed model = %q", got[0].EmbedModel)
	}
}

func TestVectorRetrieverEmbedError(t *testing.T) {
	r := NewVectorRetriever(database.NewMemoryIndex(), &fakeEmbedder{err: ErrConfiguration})
	if _, err := r.Retrieve(context.Background(), "doc", "q", 4); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected wrapped ErrConfiguration, got %v", err)
	}
}
