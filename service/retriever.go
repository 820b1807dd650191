package service

import (
	"context"
	"fmt"
	"log"

	"github.com/tieubaoca/pdfchat-be/database"
	"github.com/tieubaoca/pdfchat-be/types"
)

// Embedder maps text into the vector space of one embedding model.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type Retriever interface {
	Retrieve(ctx context.Context, namespace, query string, topK int) ([]types.Passage, error)
}

type VectorRetriever struct {
	index    database.PassageIndex
	embedder Embedder
}

func NewVectorRetriever(index database.PassageIndex, embedder Embedder) *VectorRetriever {
	return &VectorRetriever{index: index, embedder: embedder}
}

// Retrieve embeds query and searches only namespace. Passages indexed with a
// different embedding model are still returned; the mismatch is logged.
func (r *VectorRetriever) Retrieve(ctx context.Context, namespace, query string, topK int) ([]types.Passage, error) {
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	passages, err := r.index.Query(ctx, namespace, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	model := r.embedder.Model()
	mismatched := 0
	for _, p := range passages {
		if p.EmbedModel != "" && p.EmbedModel != model {
			mismatched++
		}
	}
	if mismatched > 0 {
		log.Printf("Warning: %d of %d passages in %s were embedded with a model other than %s", mismatched, len(passages), namespace, model)
	}
	return passages, nil
}
