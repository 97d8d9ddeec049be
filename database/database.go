package database

import (
	"context"
	"errors"

	"github.com/tieubaoca/contract-intel-be/types"
)

// ErrDimensionMismatch is returned when a vector's dimension does not match
// the dimension the index was created with. Mixing dimensions corrupts
// similarity scores, so it is fatal to the operation rather than tolerated.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ChunkHit is a chunk ranked by similarity to a query vector. Score is
// monotonic with cosine similarity; higher is better.
type ChunkHit struct {
	Chunk types.Chunk `json:"chunk"`
	Score float32     `json:"score"`
}

// VectorIndex stores chunk embeddings and answers topK similarity queries.
type VectorIndex interface {
	// UpsertChunks indexes chunks with their embeddings. Chunks and vectors
	// correspond by position.
	UpsertChunks(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error

	// TopK returns the k chunks most similar to the query vector, optionally
	// restricted to the given document ids.
	TopK(ctx context.Context, vector []float32, k int, documentIDs []string) ([]ChunkHit, error)

	// DeleteByDocument removes every chunk belonging to the document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Dimension is the fixed dimensionality of every indexed vector.
	Dimension() int
}
