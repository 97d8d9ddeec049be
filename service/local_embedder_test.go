package service

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalEmbedderDimension(t *testing.T) {
	embedder := NewLocalEmbedder(384)
	vector, err := embedder.Embed(context.Background(), "the term of this agreement is two years")
	require.NoError(t, err)
	assert.Len(t, vector, 384)
	assert.Equal(t, 384, embedder.Dimension())
}

func TestLocalEmbedderDeterministic(t *testing.T) {
	embedder := NewLocalEmbedder(384)
	first, err := embedder.Embed(context.Background(), "governing law of the state of new york")
	require.NoError(t, err)
	second, err := embedder.Embed(context.Background(), "governing law of the state of new york")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLocalEmbedderNormalized(t *testing.T) {
	embedder := NewLocalEmbedder(128)
	vector, err := embedder.Embed(context.Background(), "liability cap payment terms indemnification")
	require.NoError(t, err)

	var norm float64
	for _, v := range vector {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}

func TestLocalEmbedderEmptyText(t *testing.T) {
	embedder := NewLocalEmbedder(128)
	vector, err := embedder.Embed(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, vector, 128)
	for _, v := range vector {
		assert.Zero(t, v)
	}
}

func TestLocalEmbedderBatchPreservesOrder(t *testing.T) {
	embedder := NewLocalEmbedder(128)
	texts := []string{"renewal notice period", "termination for convenience", "confidential information"}

	vectors, err := embedder.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, text := range texts {
		single, err := embedder.Embed(context.Background(), text)
		require.NoError(t, err)
		assert.Equal(t, single, vectors[i])
	}
}

func TestLocalEmbedderSimilarTextsCloser(t *testing.T) {
	embedder := NewLocalEmbedder(384)
	base, _ := embedder.Embed(context.Background(), "the contract term is twelve months")
	near, _ := embedder.Embed(context.Background(), "what is the term of the contract")
	far, _ := embedder.Embed(context.Background(), "zebra quantum volcano syrup")

	assert.Greater(t, cosineSimilarity(base, near), cosineSimilarity(base, far))
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
