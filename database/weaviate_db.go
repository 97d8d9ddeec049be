package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/tieubaoca/contract-intel-be/config"
	"github.com/tieubaoca/contract-intel-be/types"
)

const BATCH_SIZE = 200

var (
	CHUNK_CLASS        = "ContractChunk"
	CHUNK_CLASS_OBJECT = &models.Class{
		Class: CHUNK_CLASS,
		Properties: []*models.Property{
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "content", DataType: []string{"text"}},
			{Name: "page", DataType: []string{"int"}},
			{Name: "charStart", DataType: []string{"int"}},
			{Name: "charEnd", DataType: []string{"int"}},
			{Name: "position", DataType: []string{"int"}},
		},
		// Vectors are supplied by the embedding provider, never computed
		// server-side; similarity must match the provider's cosine space.
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
	}
)

// WeaviateIndex is the production VectorIndex backed by a Weaviate instance.
type WeaviateIndex struct {
	client    *weaviate.Client
	dimension int
}

func NewWeaviateIndex(config config.WeaviateStoreConfig, dimension int) (*WeaviateIndex, error) {
	var scheme string
	if strings.Contains(config.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(config.Host, scheme+"://")
	cfg := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if config.APIKey != "" {
		cfg.AuthConfig = auth.ApiKey{
			Value: config.APIKey,
		}
		cfg.Headers = map[string]string{
			"X-Weaviate-Api-Key":     config.APIKey,
			"X-Weaviate-Cluster-Url": fmt.Sprintf("%s://%s", scheme, host),
		}
	}
	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	schema, err := client.Schema().Getter().Do(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %v", err)
	}

	hasChunkClass := false
	for _, class := range schema.Classes {
		if class.Class == CHUNK_CLASS {
			hasChunkClass = true
			break
		}
	}
	if !hasChunkClass {
		err = client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
		if err != nil {
			return nil, fmt.Errorf("failed to create ContractChunk class: %v", err)
		}
	}
	return &WeaviateIndex{
		client:    client,
		dimension: dimension,
	}, nil
}

func (s *WeaviateIndex) ReInit() error {
	err := s.client.Schema().ClassDeleter().WithClassName(CHUNK_CLASS).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to delete ContractChunk class: %v", err)
	}

	err = s.client.Schema().ClassCreator().WithClass(CHUNK_CLASS_OBJECT).Do(context.Background())
	if err != nil {
		return fmt.Errorf("failed to create ContractChunk class: %v", err)
	}
	return nil
}

func (s *WeaviateIndex) Dimension() int { return s.dimension }

func (s *WeaviateIndex) UpsertChunks(ctx context.Context, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return ErrDimensionMismatch
		}
	}

	total := len(chunks)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}

		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				Class: CHUNK_CLASS,
				Properties: map[string]interface{}{
					"documentId": chunks[j].DocumentID,
					"content":    chunks[j].Text,
					"page":       chunks[j].Page,
					"charStart":  chunks[j].CharStart,
					"charEnd":    chunks[j].CharEnd,
					"position":   chunks[j].Position,
				},
				Vector: vectors[j],
			})
		}

		_, err := batcher.Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
	}

	return nil
}

func (s *WeaviateIndex) TopK(ctx context.Context, vector []float32, k int, documentIDs []string) ([]ChunkHit, error) {
	if len(vector) != s.dimension {
		return nil, ErrDimensionMismatch
	}
	if k <= 0 {
		k = 5
	}

	fields := []graphql.Field{
		{Name: "documentId"},
		{Name: "content"},
		{Name: "page"},
		{Name: "charStart"},
		{Name: "charEnd"},
		{Name: "position"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(CHUNK_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k)
	if len(documentIDs) > 0 {
		getBuilder = getBuilder.WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.ContainsAny).
			WithValueText(documentIDs...))
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, nil
	}

	var hits []ChunkHit
	if data, ok := get[CHUNK_CLASS].([]interface{}); ok {
		for _, item := range data {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			hit := ChunkHit{
				Chunk: types.Chunk{
					DocumentID: obj["documentId"].(string),
					Text:       obj["content"].(string),
					Page:       int(obj["page"].(float64)),
					CharStart:  int(obj["charStart"].(float64)),
					CharEnd:    int(obj["charEnd"].(float64)),
					Position:   int(obj["position"].(float64)),
				},
			}
			if additional, ok := obj["_additional"].(map[string]interface{}); ok {
				if distance, ok := additional["distance"].(float64); ok {
					// cosine distance, similarity = 1 - distance
					hit.Score = float32(1 - distance)
				}
			}
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

func (s *WeaviateIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(CHUNK_CLASS).
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueText(documentID)).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for document %s: %v", documentID, err)
	}
	return nil
}
