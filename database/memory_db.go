package database

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/tieubaoca/contract-intel-be/types"
)

// MemoryIndex is a brute-force cosine-similarity VectorIndex. It backs the
// "memory" vector_store mode and the pipeline tests; no external service
// needed.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	chunks    []types.Chunk
	vectors   [][]float32
}

func NewMemoryIndex(dimension int) *MemoryIndex {
	return &MemoryIndex{dimension: dimension}
}

func (s *MemoryIndex) Dimension() int { return s.dimension }

func (s *MemoryIndex) UpsertChunks(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return ErrDimensionMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return ErrDimensionMismatch
		}
	}
	s.chunks = append(s.chunks, chunks...)
	s.vectors = append(s.vectors, vectors...)
	return nil
}

func (s *MemoryIndex) TopK(ctx context.Context, vector []float32, k int, documentIDs []string) ([]ChunkHit, error) {
	if len(vector) != s.dimension {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 {
		k = 5
	}

	var filter map[string]struct{}
	if len(documentIDs) > 0 {
		filter = make(map[string]struct{}, len(documentIDs))
		for _, id := range documentIDs {
			filter[id] = struct{}{}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []ChunkHit
	for i, chunk := range s.chunks {
		if filter != nil {
			if _, ok := filter[chunk.DocumentID]; !ok {
				continue
			}
		}
		hits = append(hits, ChunkHit{Chunk: chunk, Score: cosine(s.vectors[i], vector)})
	}

	// Highest similarity first; ties go to the earlier chunk.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Position < hits[j].Chunk.Position
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *MemoryIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunks := s.chunks[:0]
	vectors := s.vectors[:0]
	for i, chunk := range s.chunks {
		if chunk.DocumentID != documentID {
			chunks = append(chunks, chunk)
			vectors = append(vectors, s.vectors[i])
		}
	}
	s.chunks = chunks
	s.vectors = vectors
	return nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
