package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tieubaoca/contract-intel-be/database"
	"github.com/tieubaoca/contract-intel-be/repository"
	"github.com/tieubaoca/contract-intel-be/types"
)

// IngestService runs the full intake pipeline: decode, persist, chunk,
// embed, index. A document is only queryable once every stage succeeded.
type IngestService struct {
	decoder   Decoder
	docs      repository.DocumentRepo
	index     database.VectorIndex
	embedder  Embedder
	segmenter *SegmenterService
	metrics   repository.MetricsRepo
}

func NewIngestService(
	decoder Decoder,
	docs repository.DocumentRepo,
	index database.VectorIndex,
	embedder Embedder,
	segmenter *SegmenterService,
	metrics repository.MetricsRepo,
) *IngestService {
	return &IngestService{
		decoder:   decoder,
		docs:      docs,
		index:     index,
		embedder:  embedder,
		segmenter: segmenter,
		metrics:   metrics,
	}
}

func (s *IngestService) Ingest(ctx context.Context, pdfBytes []byte, filename string) (*types.Document, int, error) {
	pages, err := s.decoder.Decode(pdfBytes)
	if err != nil {
		return nil, 0, err
	}

	var builder strings.Builder
	for _, page := range pages {
		builder.WriteString(page.Text)
	}

	doc := &types.Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		MimeType:   "application/pdf",
		FileSize:   int64(len(pdfBytes)),
		FullText:   builder.String(),
		PageCount:  len(pages),
		Pages:      pages,
		UploadTime: time.Now().Unix(),
	}

	if err := s.docs.Insert(ctx, doc); err != nil {
		return nil, 0, fmt.Errorf("failed to store document: %w", err)
	}

	chunks := s.segmenter.ChunkDocument(doc)
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to embed chunks: %w", err)
		}
		if err := s.index.UpsertChunks(ctx, chunks, vectors); err != nil {
			return nil, 0, fmt.Errorf("failed to index chunks: %w", err)
		}
	}

	if err := s.metrics.Inc(ctx, repository.MetricDocumentsIngested); err != nil {
		return nil, 0, err
	}
	return doc, len(chunks), nil
}

// DeleteDocument cascades over everything derived from the document: the
// stored record, its extraction, its findings and its indexed chunks.
func (s *IngestService) DeleteDocument(
	ctx context.Context,
	documentID string,
	extractions repository.ExtractionRepo,
	findings repository.FindingRepo,
) error {
	if err := s.docs.Delete(ctx, documentID); err != nil {
		return err
	}
	if err := extractions.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	if err := findings.DeleteByDocument(ctx, documentID); err != nil {
		return err
	}
	return s.index.DeleteByDocument(ctx, documentID)
}
