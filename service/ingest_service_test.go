package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/contract-intel-be/database"
	"github.com/tieubaoca/contract-intel-be/repository"
	"github.com/tieubaoca/contract-intel-be/types"
)

type fakeDecoder struct {
	pages []types.Page
	err   error
}

func (f *fakeDecoder) Decode(pdfBytes []byte) ([]types.Page, error) {
	return f.pages, f.err
}

func decoderForText(pageTexts ...string) *fakeDecoder {
	decoder := &fakeDecoder{}
	offset := 0
	for i, text := range pageTexts {
		decoder.pages = append(decoder.pages, types.Page{
			Number:    i + 1,
			Text:      text,
			CharStart: offset,
			CharEnd:   offset + len(text),
		})
		offset += len(text)
	}
	return decoder
}

func newTestIngest(decoder Decoder) (*IngestService, repository.DocumentRepo, database.VectorIndex, repository.MetricsRepo) {
	docs := repository.NewMemoryDocumentRepo()
	index := database.NewMemoryIndex(384)
	metrics := repository.NewMemoryMetricsRepo()
	ingest := NewIngestService(decoder, docs, index, NewLocalEmbedder(384), NewSegmenterService(DefaultSegmenterConfig), metrics)
	return ingest, docs, index, metrics
}

func TestIngestStoresAndIndexes(t *testing.T) {
	decoder := decoderForText(
		"This Agreement is made between Acme Corporation and Beta Services LLC. ",
		"The term of this Agreement is 2 years.",
	)
	ingest, docs, index, metrics := newTestIngest(decoder)

	doc, chunkCount, err := ingest.Ingest(context.Background(), []byte("%PDF-1.4"), "contract.pdf")
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "contract.pdf", doc.Filename)
	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t, decoder.pages[0].Text+decoder.pages[1].Text, doc.FullText)
	assert.Equal(t, 1, chunkCount)

	stored, err := docs.Get(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.FullText, stored.FullText)

	vector, err := NewLocalEmbedder(384).Embed(context.Background(), "term of the agreement")
	require.NoError(t, err)
	hits, err := index.TopK(context.Background(), vector, 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, doc.ID, hits[0].Chunk.DocumentID)

	counters, err := metrics.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), counters[repository.MetricDocumentsIngested])
}

func TestIngestCorruptPDF(t *testing.T) {
	ingest, _, _, metrics := newTestIngest(&fakeDecoder{err: ErrCorruptPDF})

	_, _, err := ingest.Ingest(context.Background(), []byte("not a pdf"), "broken.pdf")
	assert.ErrorIs(t, err, ErrCorruptPDF)

	counters, err := metrics.All(context.Background())
	require.NoError(t, err)
	assert.Zero(t, counters[repository.MetricDocumentsIngested])
}

func TestIngestEmptyDocument(t *testing.T) {
	ingest, _, _, _ := newTestIngest(&fakeDecoder{err: ErrEmptyDocument})

	_, _, err := ingest.Ingest(context.Background(), []byte("%PDF-1.4"), "scanned.pdf")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestLongDocumentChunkCount(t *testing.T) {
	decoder := decoderForText(strings.Repeat("contract clause text ", 150)) // ~3000 chars
	ingest, _, _, _ := newTestIngest(decoder)

	_, chunkCount, err := ingest.Ingest(context.Background(), []byte("%PDF-1.4"), "long.pdf")
	require.NoError(t, err)
	assert.Greater(t, chunkCount, 1)
}

func TestDeleteDocumentCascades(t *testing.T) {
	decoder := decoderForText(sampleContract)
	ingest, docs, index, _ := newTestIngest(decoder)
	extractions := repository.NewMemoryExtractionRepo()
	findings := repository.NewMemoryFindingRepo()

	doc, _, err := ingest.Ingest(context.Background(), []byte("%PDF-1.4"), "contract.pdf")
	require.NoError(t, err)

	extraction := NewExtractService(nil, 3000).Extract(context.Background(), doc)
	require.NoError(t, extractions.Upsert(context.Background(), extraction))
	auditFindings := NewAuditService(30, 50000).Audit(doc, extraction)
	require.NoError(t, findings.Replace(context.Background(), doc.ID, auditFindings))

	require.NoError(t, ingest.DeleteDocument(context.Background(), doc.ID, extractions, findings))

	_, err = docs.Get(context.Background(), doc.ID)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
	_, err = extractions.Get(context.Background(), doc.ID)
	assert.ErrorIs(t, err, repository.ErrExtractionNotFound)

	remaining, err := findings.ListByDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	vector, err := NewLocalEmbedder(384).Embed(context.Background(), "term")
	require.NoError(t, err)
	hits, err := index.TopK(context.Background(), vector, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
