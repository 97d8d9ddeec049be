package types

type DataResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type DocumentMetadata struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Pages      int    `json:"pages"`
}

type IngestResponse struct {
	Documents []DocumentMetadata `json:"documents"`
}

type AskResponse struct {
	Answer  string         `json:"answer"`
	Sources []EvidenceSpan `json:"sources"`
}

type AuditResponse struct {
	Findings []Finding `json:"findings"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

type MetricsResponse struct {
	DocumentsIngested    int64 `json:"documents_ingested"`
	ExtractionsPerformed int64 `json:"extractions_performed"`
	QueriesAnswered      int64 `json:"queries_answered"`
	AuditsRun            int64 `json:"audits_run"`
}
