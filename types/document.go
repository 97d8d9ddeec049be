package types

// Severity levels for audit findings.
const (
	SeverityHigh   = "HIGH"
	SeverityMedium = "MEDIUM"
	SeverityLow    = "LOW"
)

// Document is the aggregate root for one ingested contract. Pages, chunks,
// the extraction and the findings all belong to exactly one document and are
// removed when it is deleted.
type Document struct {
	ID         string `bson:"_id" json:"id"`
	Filename   string `bson:"filename" json:"filename"`
	MimeType   string `bson:"mime_type" json:"mime_type"`
	FileSize   int64  `bson:"file_size" json:"file_size"`
	FullText   string `bson:"full_text" json:"full_text"`
	PageCount  int    `bson:"page_count" json:"page_count"`
	Pages      []Page `bson:"pages" json:"pages"`
	UploadTime int64  `bson:"upload_time" json:"upload_time"`
}

// Page holds one page's text and its [CharStart, CharEnd) span inside the
// document's full text. Pages are contiguous and non-overlapping.
type Page struct {
	Number    int    `bson:"number" json:"number"` // 1-indexed
	Text      string `bson:"text" json:"text"`
	CharStart int    `bson:"char_start" json:"char_start"`
	CharEnd   int    `bson:"char_end" json:"char_end"`
}

// Chunk is the atomic unit of vector retrieval: a bounded, overlapping slice
// of the document's full text. Position is the chunk's ordinal within its
// document and breaks similarity ties.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Text       string `json:"text"`
	Page       int    `json:"page"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
	Position   int    `json:"position"`
}

// DocumentServiceConfig contains configuration options for text chunking.
type DocumentServiceConfig struct {
	MaxChunkSize int // Maximum size for text chunks
	OverlapSize  int // Size of overlap between chunks
}

// EvidenceSpan points at the exact characters a derived fact came from.
type EvidenceSpan struct {
	DocumentID string `bson:"document_id,omitempty" json:"document_id,omitempty"`
	Page       int    `bson:"page" json:"page"`
	CharStart  int    `bson:"char_start" json:"char_start"`
	CharEnd    int    `bson:"char_end" json:"char_end"`
	Excerpt    string `bson:"excerpt,omitempty" json:"excerpt,omitempty"`
}

type AutoRenewal struct {
	Exists           bool `bson:"exists" json:"exists"`
	NoticePeriodDays *int `bson:"notice_period_days,omitempty" json:"notice_period_days,omitempty"`
}

type Confidentiality struct {
	Exists  bool   `bson:"exists" json:"exists"`
	Summary string `bson:"summary,omitempty" json:"summary,omitempty"`
}

type Indemnity struct {
	Exists  bool   `bson:"exists" json:"exists"`
	Summary string `bson:"summary,omitempty" json:"summary,omitempty"`
}

type LiabilityCap struct {
	Amount   float64 `bson:"amount" json:"amount"`
	Currency string  `bson:"currency,omitempty" json:"currency,omitempty"`
}

type Signatory struct {
	Name  string `bson:"name" json:"name"`
	Title string `bson:"title" json:"title"`
}

// Extraction is the structured-field summary of one document. There is at
// most one per document; re-extraction replaces it wholesale. Evidence maps
// each resolved field name to the spans that justify its value.
type Extraction struct {
	DocumentID      string                    `bson:"_id" json:"document_id"`
	Parties         []string                  `bson:"parties" json:"parties"`
	EffectiveDate   string                    `bson:"effective_date,omitempty" json:"effective_date,omitempty"` // YYYY-MM-DD
	Term            string                    `bson:"term,omitempty" json:"term,omitempty"`
	GoverningLaw    string                    `bson:"governing_law,omitempty" json:"governing_law,omitempty"`
	PaymentTerms    string                    `bson:"payment_terms,omitempty" json:"payment_terms,omitempty"`
	Termination     string                    `bson:"termination,omitempty" json:"termination,omitempty"`
	AutoRenewal     AutoRenewal               `bson:"auto_renewal" json:"auto_renewal"`
	Confidentiality Confidentiality           `bson:"confidentiality" json:"confidentiality"`
	Indemnity       Indemnity                 `bson:"indemnity" json:"indemnity"`
	LiabilityCap    *LiabilityCap             `bson:"liability_cap,omitempty" json:"liability_cap,omitempty"`
	Signatories     []Signatory               `bson:"signatories" json:"signatories"`
	Evidence        map[string][]EvidenceSpan `bson:"evidence" json:"evidence"`
}

// Finding is one audit-rule trigger. IDs are sequential in rule-evaluation
// order (FIND-001, FIND-002, ...) and regenerated on every audit run.
type Finding struct {
	DocumentID string         `bson:"document_id" json:"-"`
	ID         string         `bson:"finding_id" json:"id"`
	Severity   string         `bson:"severity" json:"severity"`
	Type       string         `bson:"type" json:"type"`
	Summary    string         `bson:"summary" json:"summary"`
	Evidence   []EvidenceSpan `bson:"evidence" json:"evidence"`
}
