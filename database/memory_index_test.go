package database

import (
	"context"
	"testing"

	"github.com/tieubaoca/pdfchat-be/types"
)

func seedIndex(t *testing.T) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	ctx := context.Background()
	err := idx.Upsert(ctx, "doc-1", []types.Passage{
		{Content: "alpha", ChunkIndex: 0},
		{Content: "beta", ChunkIndex: 1},
		{Content: "gamma", ChunkIndex: 2},
	}, [][]float32{{1, 0}, {0.8, 0.6}, {0, 1}})
	if err != nil {
		t.Fatal(err)
	}
	err = idx.Upsert(ctx, "doc-2", []types.Passage{{Content: "other document", ChunkIndex: 0}}, [][]float32{{1, 0}})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestMemoryIndexQueryRanksBySimilarity(t *testing.T) {
	idx := seedIndex(t)
	got, err := idx.Query(context.Background(), "doc-1", []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(got))
	}
	if got[0].Content != "alpha" || got[0].Rank != 1 {
		t.Errorf("first = %+v", got[0])
	}
	if got[1].Content != "beta" || got[1].Rank != 2 {
		t.Errorf("second = %+v", got[1])
	}
}

func TestMemoryIndexNamespaceIsolation(t *testing.T) {
	idx := seedIndex(t)
	got, _ := idx.Query(context.Background(), "doc-2", []float32{0, 1}, 10)
	if len(got) != 1 || got[0].Content != "other document" {
		t.Errorf("query crossed namespaces: %+v", got)
	}

	empty, err := idx.Query(context.Background(), "missing", []float32{1, 0}, 4)
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty result, got %v, %v", empty, err)
	}
}

func TestMemoryIndexUpsertOverwritesChunk(t *testing.T) {
	idx := seedIndex(t)
	ctx := context.Background()
	idx.Upsert(ctx, "doc-1", []types.Passage{{Content: "alpha v2", ChunkIndex: 0}}, [][]float32{{1, 0}})

	got, _ := idx.Query(ctx, "doc-1", []float32{1, 0}, 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(got))
	}
	if got[0].Content != "alpha v2" {
		t.Errorf("chunk not overwritten: %+v", got[0])
	}
}

func TestMemoryIndexDeleteNamespace(t *testing.T) {
	idx := seedIndex(t)
	ctx := context.Background()
	idx.DeleteNamespace(ctx, "doc-1")

	if got, _ := idx.Query(ctx, "doc-1", []float32{1, 0}, 4); len(got) != 0 {
		t.Errorf("namespace not deleted: %+v", got)
	}
	if got, _ := idx.Query(ctx, "doc-2", []float32{1, 0}, 4); len(got) != 1 {
		t.Errorf("other namespace affected: %+v", got)
	}
}

func TestMemoryIndexVectorCountMismatch(t *testing.T) {
	idx := NewMemoryIndex()
	err := idx.Upsert(context.Background(), "doc", []types.Passage{{Content: "x"}}, nil)
	if err != ErrVectorCount {
		t.Errorf("expected ErrVectorCount, got %v", err)
	}
}

func TestMemoryIndexSkipsMismatchedDimensions(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	err := idx.Upsert(ctx, "doc-1", []types.Passage{
		{Content: "current model", ChunkIndex: 0},
		{Content: "old model", ChunkIndex: 1},
	}, [][]float32{{1, 0}, {1, 0, 0}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := idx.Query(ctx, "doc-1", []float32{1, 0}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Content != "current model" || got[0].Rank != 1 {
		t.Errorf("got %+v, want only the passage with matching dimensions", got)
	}
}
