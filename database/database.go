package database

import (
	"context"
	"errors"

	"github.com/tieubaoca/pdfchat-be/types"
)

var ErrVectorCount = errors.New("passages and vectors differ in length")

// PassageIndex is a vector index partitioned by namespace. Every operation is
// confined to the namespace it is given; one namespace holds one document.
type PassageIndex interface {
	// Upsert stores passages[i] with vectors[i]. Passages are keyed by
	// (namespace, chunk index), so re-ingesting a document overwrites it.
	Upsert(ctx context.Context, namespace string, passages []types.Passage, vectors [][]float32) error
	// Query returns at most topK passages, most similar first, with Rank set
	// from 1. An empty namespace yields an empty slice and no error.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]types.Passage, error)
	DeleteNamespace(ctx context.Context, namespace string) error
}
