package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/contract-intel-be/database"
)

type fakeEmbedder struct {
	dimension int
	err       error
	calls     int
}

func (f *fakeEmbedder) Dimension() int { return f.dimension }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, f.dimension), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = make([]float32, f.dimension)
	}
	return vectors, nil
}

func TestFallbackEmbedderRequiresLocal(t *testing.T) {
	_, err := NewFallbackEmbedder(&fakeEmbedder{dimension: 8}, nil)
	assert.Error(t, err)
}

func TestFallbackEmbedderRejectsDimensionMismatch(t *testing.T) {
	_, err := NewFallbackEmbedder(&fakeEmbedder{dimension: 8}, NewLocalEmbedder(16))
	assert.ErrorIs(t, err, database.ErrDimensionMismatch)
}

func TestFallbackEmbedderPrefersRemote(t *testing.T) {
	remote := &fakeEmbedder{dimension: 16}
	embedder, err := NewFallbackEmbedder(remote, NewLocalEmbedder(16))
	require.NoError(t, err)

	vector, err := embedder.Embed(context.Background(), "payment terms")
	require.NoError(t, err)
	assert.Len(t, vector, 16)
	assert.Equal(t, 1, remote.calls)
}

func TestFallbackEmbedderFallsBackOnRemoteFailure(t *testing.T) {
	remote := &fakeEmbedder{dimension: 16, err: errors.New("service unavailable")}
	embedder, err := NewFallbackEmbedder(remote, NewLocalEmbedder(16))
	require.NoError(t, err)

	vector, err := embedder.Embed(context.Background(), "payment terms")
	require.NoError(t, err)
	assert.Len(t, vector, 16)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Len(t, vectors[0], 16)
}

type liarEmbedder struct {
	fakeEmbedder
	actual int
}

func (f *liarEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, f.actual), nil
}

// A remote that returns the wrong vector length must surface an error, not
// a padded or truncated vector.
func TestFallbackEmbedderRejectsWrongLengthVectors(t *testing.T) {
	remote := &liarEmbedder{fakeEmbedder: fakeEmbedder{dimension: 16}, actual: 8}
	embedder, err := NewFallbackEmbedder(remote, NewLocalEmbedder(16))
	require.NoError(t, err)

	_, err = embedder.Embed(context.Background(), "term")
	assert.ErrorIs(t, err, database.ErrDimensionMismatch)
}

func TestFallbackEmbedderWorksWithoutRemote(t *testing.T) {
	embedder, err := NewFallbackEmbedder(nil, NewLocalEmbedder(16))
	require.NoError(t, err)

	vector, err := embedder.Embed(context.Background(), "governing law")
	require.NoError(t, err)
	assert.Len(t, vector, 16)
}
