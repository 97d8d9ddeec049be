package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/contract-intel-be/database"
	"github.com/tieubaoca/contract-intel-be/repository"
	services "github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
)

type testStack struct {
	router      *gin.Engine
	docs        repository.DocumentRepo
	extractions repository.ExtractionRepo
	findings    repository.FindingRepo
	metrics     repository.MetricsRepo
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	docs := repository.NewMemoryDocumentRepo()
	extractions := repository.NewMemoryExtractionRepo()
	findings := repository.NewMemoryFindingRepo()
	metrics := repository.NewMemoryMetricsRepo()
	index := database.NewMemoryIndex(384)
	embedder := services.NewLocalEmbedder(384)
	segmenter := services.NewSegmenterService(services.DefaultSegmenterConfig)

	ingestService := services.NewIngestService(staticDecoder{}, docs, index, embedder, segmenter, metrics)
	extractService := services.NewExtractService(nil, 3000)
	ragService := services.NewRAGService(embedder, index, nil, metrics, 5, 3000)
	auditService := services.NewAuditService(30, 50000)

	router := gin.New()
	apiV1 := router.Group("/api/v1")
	apiV1.POST("/extract", NewExtractHandler(extractService, docs, extractions, metrics).ExtractHandler)
	apiV1.POST("/ask", NewAskHandler(ragService).AskHandler)
	apiV1.POST("/audit", NewAuditHandler(auditService, extractService, docs, extractions, findings, metrics).AuditHandler)
	apiV1.DELETE("/documents/:id", NewDocumentHandler(ingestService, docs, extractions, findings).DeleteDocumentHandler)
	router.GET("/healthz", NewAdminHandler(metrics).HealthHandler)
	router.GET("/metrics", NewAdminHandler(metrics).MetricsHandler)

	return &testStack{
		router:      router,
		docs:        docs,
		extractions: extractions,
		findings:    findings,
		metrics:     metrics,
	}
}

// staticDecoder stands in for the PDF decoder; handler tests never decode
// real PDFs.
type staticDecoder struct{}

func (staticDecoder) Decode(pdfBytes []byte) ([]types.Page, error) {
	text := string(pdfBytes)
	return []types.Page{{Number: 1, Text: text, CharStart: 0, CharEnd: len(text)}}, nil
}

func (s *testStack) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	s.router.ServeHTTP(recorder, req)
	return recorder
}

func (s *testStack) storeDocument(t *testing.T, id, text string) {
	t.Helper()
	doc := &types.Document{
		ID:        id,
		Filename:  id + ".pdf",
		FullText:  text,
		PageCount: 1,
		Pages:     []types.Page{{Number: 1, Text: text, CharStart: 0, CharEnd: len(text)}},
	}
	require.NoError(t, s.docs.Insert(context.Background(), doc))
}

func TestExtractEndpointUnknownDocument(t *testing.T) {
	stack := newTestStack(t)

	recorder := stack.postJSON(t, "/api/v1/extract", types.ExtractRequest{DocumentID: "missing"})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestExtractEndpointMissingDocumentID(t *testing.T) {
	stack := newTestStack(t)

	recorder := stack.postJSON(t, "/api/v1/extract", types.ExtractRequest{})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestExtractEndpointPersistsExtraction(t *testing.T) {
	stack := newTestStack(t)
	stack.storeDocument(t, "doc-1",
		"This Agreement is made between Acme Corporation and Beta Services LLC, effective as of January 15, 2024.")

	recorder := stack.postJSON(t, "/api/v1/extract", types.ExtractRequest{DocumentID: "doc-1"})
	require.Equal(t, http.StatusOK, recorder.Code)

	stored, err := stack.extractions.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", stored.EffectiveDate)
	assert.Equal(t, []string{"Acme Corporation", "Beta Services LLC"}, stored.Parties)

	var response types.DataResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "success", response.Status)
}

func TestAskEndpointEmptyQuestion(t *testing.T) {
	stack := newTestStack(t)

	recorder := stack.postJSON(t, "/api/v1/ask", types.AskRequest{Question: "  "})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAskEndpointEmptyCorpus(t *testing.T) {
	stack := newTestStack(t)

	recorder := stack.postJSON(t, "/api/v1/ask", types.AskRequest{Question: "What is the term?"})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "I cannot answer this question")
}

func TestAuditEndpointComputesExtractionOnDemand(t *testing.T) {
	stack := newTestStack(t)
	stack.storeDocument(t, "doc-1",
		"This Agreement shall automatically renew unless either party gives 10 days notice. The Supplier accepts unlimited liability.")

	recorder := stack.postJSON(t, "/api/v1/audit", types.AuditRequest{DocumentID: "doc-1"})
	require.Equal(t, http.StatusOK, recorder.Code)

	// Audit stored the on-demand extraction and the findings.
	_, err := stack.extractions.Get(context.Background(), "doc-1")
	require.NoError(t, err)
	stored, err := stack.findings.ListByDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.NotEmpty(t, stored)

	var response types.DataResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "success", response.Status)
	assert.True(t, strings.Contains(recorder.Body.String(), "FIND-001"))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	stack := newTestStack(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	recorder := httptest.NewRecorder()
	stack.router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"ok"`)

	stack.postJSON(t, "/api/v1/ask", types.AskRequest{Question: "What is the term?"})

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recorder = httptest.NewRecorder()
	stack.router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	var metrics types.MetricsResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &metrics))
	assert.Equal(t, int64(1), metrics.QueriesAnswered)
}

func TestDeleteDocumentEndpoint(t *testing.T) {
	stack := newTestStack(t)
	stack.storeDocument(t, "doc-1", "Some contract text for deletion.")

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/doc-1", nil)
	recorder := httptest.NewRecorder()
	stack.router.ServeHTTP(recorder, req)
	require.Equal(t, http.StatusOK, recorder.Code)

	_, err := stack.docs.Get(context.Background(), "doc-1")
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/documents/doc-1", nil)
	recorder = httptest.NewRecorder()
	stack.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
