package repository

import (
	"context"
	"sync"

	"github.com/tieubaoca/contract-intel-be/types"
)

// In-memory implementations of the repositories. They back the tests and let
// the service run without MongoDB when vector_store is "memory".

type memoryDocumentRepo struct {
	mu   sync.RWMutex
	docs map[string]types.Document
}

func NewMemoryDocumentRepo() DocumentRepo {
	return &memoryDocumentRepo{docs: make(map[string]types.Document)}
}

func (r *memoryDocumentRepo) Insert(ctx context.Context, doc *types.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = *doc
	return nil
}

func (r *memoryDocumentRepo) Get(ctx context.Context, id string) (*types.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return &doc, nil
}

func (r *memoryDocumentRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(r.docs, id)
	return nil
}

type memoryExtractionRepo struct {
	mu          sync.RWMutex
	extractions map[string]types.Extraction
}

func NewMemoryExtractionRepo() ExtractionRepo {
	return &memoryExtractionRepo{extractions: make(map[string]types.Extraction)}
}

func (r *memoryExtractionRepo) Upsert(ctx context.Context, extraction *types.Extraction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractions[extraction.DocumentID] = *extraction
	return nil
}

func (r *memoryExtractionRepo) Get(ctx context.Context, documentID string) (*types.Extraction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	extraction, ok := r.extractions[documentID]
	if !ok {
		return nil, ErrExtractionNotFound
	}
	return &extraction, nil
}

func (r *memoryExtractionRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.extractions, documentID)
	return nil
}

type memoryFindingRepo struct {
	mu       sync.RWMutex
	findings map[string][]types.Finding
}

func NewMemoryFindingRepo() FindingRepo {
	return &memoryFindingRepo{findings: make(map[string][]types.Finding)}
}

func (r *memoryFindingRepo) Replace(ctx context.Context, documentID string, findings []types.Finding) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]types.Finding, len(findings))
	copy(stored, findings)
	for i := range stored {
		stored[i].DocumentID = documentID
	}
	r.findings[documentID] = stored
	return nil
}

func (r *memoryFindingRepo) ListByDocument(ctx context.Context, documentID string) ([]types.Finding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	findings := make([]types.Finding, len(r.findings[documentID]))
	copy(findings, r.findings[documentID])
	return findings, nil
}

func (r *memoryFindingRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.findings, documentID)
	return nil
}

type memoryMetricsRepo struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryMetricsRepo() MetricsRepo {
	return &memoryMetricsRepo{counters: make(map[string]int64)}
}

func (r *memoryMetricsRepo) Inc(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name]++
	return nil
}

func (r *memoryMetricsRepo) All(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	metrics := make(map[string]int64, len(r.counters))
	for name, value := range r.counters {
		metrics[name] = value
	}
	return metrics, nil
}
