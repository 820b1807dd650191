package database

import (
	"context"
	"log"
	"math"
	"sort"
	"sync"

	"github.com/tieubaoca/pdfchat-be/types"
)

type memoryEntry struct {
	passage types.Passage
	vector  []float32
}

// MemoryIndex is a process-local PassageIndex ranking by cosine similarity.
type MemoryIndex struct {
	mu         sync.RWMutex
	namespaces map[string]map[int]memoryEntry
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{namespaces: make(map[string]map[int]memoryEntry)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, namespace string, passages []types.Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return ErrVectorCount
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[int]memoryEntry)
		m.namespaces[namespace] = ns
	}
	for i, p := range passages {
		p.Rank = 0
		v := make([]float32, len(vectors[i]))
		copy(v, vectors[i])
		ns[p.ChunkIndex] = memoryEntry{passage: p, vector: v}
	}
	return nil
}

func (m *MemoryIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]types.Passage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		entry memoryEntry
		score float64
	}
	ns := m.namespaces[namespace]
	results := make([]scored, 0, len(ns))
	skipped := 0
	for _, e := range ns {
		score, ok := cosineSimilarity(vector, e.vector)
		if !ok {
			skipped++
			continue
		}
		results = append(results, scored{entry: e, score: score})
	}
	if skipped > 0 {
		log.Printf("Warning: skipped %d passages in %s with a vector size other than %d; re-ingest with the current embedding model", skipped, namespace, len(vector))
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score == results[j].score {
			return results[i].entry.passage.ChunkIndex < results[j].entry.passage.ChunkIndex
		}
		return results[i].score > results[j].score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	passages := make([]types.Passage, 0, len(results))
	for i, r := range results {
		p := r.entry.passage
		p.Rank = i + 1
		passages = append(passages, p)
	}
	return passages, nil
}

func (m *MemoryIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	m.mu.Lock()
	delete(m.namespaces, namespace)
	m.mu.Unlock()
	return nil
}

// cosineSimilarity reports ok=false when the vectors differ in length, which
// means they came from different embedding models.
func cosineSimilarity(a, b []float32) (float64, bool) {
	if len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, true
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}
