package types

type ExtractRequest struct {
	DocumentID string `json:"document_id"`
}

type AskRequest struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type AuditRequest struct {
	DocumentID string `json:"document_id"`
}
