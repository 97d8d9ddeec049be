package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tieubaoca/contract-intel-be/database"
)

// Embedder maps text to fixed-dimension vectors. EmbedBatch preserves input
// order so result vectors map back to inputs by position.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// FallbackEmbedder prefers the remote embedder when one is configured and
// transparently retries once against the local embedder on any remote
// failure. Callers only ever see a vector of the configured dimension; which
// strategy produced it is logged, not surfaced.
type FallbackEmbedder struct {
	remote  Embedder // nil when no remote service is configured
	local   Embedder
	timeout time.Duration
}

func NewFallbackEmbedder(remote Embedder, local Embedder) (*FallbackEmbedder, error) {
	if local == nil {
		return nil, fmt.Errorf("local embedder is required")
	}
	if remote != nil && remote.Dimension() != local.Dimension() {
		return nil, database.ErrDimensionMismatch
	}
	return &FallbackEmbedder{
		remote:  remote,
		local:   local,
		timeout: 30 * time.Second,
	}, nil
}

func (e *FallbackEmbedder) Dimension() int { return e.local.Dimension() }

func (e *FallbackEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.remote != nil {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		vector, err := e.remote.Embed(callCtx, text)
		cancel()
		if err == nil {
			return e.checkDimension(vector)
		}
		log.Printf("remote embedding failed, falling back to local embedder: %v", err)
	}
	vector, err := e.local.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return e.checkDimension(vector)
}

func (e *FallbackEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.remote != nil {
		callCtx, cancel := context.WithTimeout(ctx, e.timeout)
		vectors, err := e.remote.EmbedBatch(callCtx, texts)
		cancel()
		if err == nil {
			return e.checkDimensions(vectors)
		}
		log.Printf("remote batch embedding failed, falling back to local embedder: %v", err)
	}
	vectors, err := e.local.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	return e.checkDimensions(vectors)
}

// A vector of the wrong dimension would poison the index; reject it instead
// of padding or truncating.
func (e *FallbackEmbedder) checkDimension(vector []float32) ([]float32, error) {
	if len(vector) != e.Dimension() {
		return nil, database.ErrDimensionMismatch
	}
	return vector, nil
}

func (e *FallbackEmbedder) checkDimensions(vectors [][]float32) ([][]float32, error) {
	for _, vector := range vectors {
		if len(vector) != e.Dimension() {
			return nil, database.ErrDimensionMismatch
		}
	}
	return vectors, nil
}
