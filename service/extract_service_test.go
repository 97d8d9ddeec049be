package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleContract = `SERVICE AGREEMENT
This Agreement is made between Acme Corporation and Beta Services LLC, effective as of January 15, 2024.
The term of this Agreement is 2 years.
This Agreement shall be governed by the laws of the State of New York.
Payment terms: Net 30 days from the date of invoice.
Termination: Either party may terminate this Agreement for material breach upon thirty days written notice.
This Agreement shall automatically renew for successive one year periods unless either party gives 15 days notice of non-renewal.
Each party shall keep all Confidential Information received under this Agreement in strict confidence.
Vendor shall indemnify and hold harmless Customer from any and all claims arising out of the services.
The total liability of either party shall be limited to $10,000.
By: John Smith Title: Director
By: Jane Doe Title: President
`

func TestExtractSampleContract(t *testing.T) {
	extractor := NewExtractService(nil, 3000)
	doc := buildDocument(sampleContract)

	extraction := extractor.Extract(context.Background(), doc)
	require.NotNil(t, extraction)
	assert.Equal(t, "doc-1", extraction.DocumentID)

	assert.Equal(t, []string{"Acme Corporation", "Beta Services LLC"}, extraction.Parties)
	assert.Equal(t, "2024-01-15", extraction.EffectiveDate)
	assert.Equal(t, "2 years", extraction.Term)
	assert.Contains(t, extraction.GoverningLaw, "New York")
	assert.Contains(t, extraction.PaymentTerms, "Net 30 days")
	assert.Contains(t, extraction.Termination, "terminate this Agreement")

	assert.True(t, extraction.AutoRenewal.Exists)
	require.NotNil(t, extraction.AutoRenewal.NoticePeriodDays)
	assert.Equal(t, 15, *extraction.AutoRenewal.NoticePeriodDays)

	assert.True(t, extraction.Confidentiality.Exists)
	assert.True(t, extraction.Indemnity.Exists)

	require.NotNil(t, extraction.LiabilityCap)
	assert.Equal(t, float64(10000), extraction.LiabilityCap.Amount)
	assert.Equal(t, "USD", extraction.LiabilityCap.Currency)

	require.Len(t, extraction.Signatories, 2)
	assert.Equal(t, "John Smith", extraction.Signatories[0].Name)
	assert.Equal(t, "Director", extraction.Signatories[0].Title)
	assert.Equal(t, "Jane Doe", extraction.Signatories[1].Name)
}

func TestExtractEvidenceSpansPointIntoDocument(t *testing.T) {
	extractor := NewExtractService(nil, 3000)
	doc := buildDocument(sampleContract)

	extraction := extractor.Extract(context.Background(), doc)

	dateSpans := extraction.Evidence["effective_date"]
	require.Len(t, dateSpans, 1)
	assert.Equal(t, "January 15, 2024", doc.FullText[dateSpans[0].CharStart:dateSpans[0].CharEnd])
	assert.Equal(t, "January 15, 2024", dateSpans[0].Excerpt)
	assert.Equal(t, 1, dateSpans[0].Page)

	renewalSpans := extraction.Evidence["auto_renewal"]
	require.Len(t, renewalSpans, 1)
	covered := doc.FullText[renewalSpans[0].CharStart:renewalSpans[0].CharEnd]
	assert.Contains(t, covered, "automatically renew")
	assert.Contains(t, covered, "15 days notice")

	for field, spans := range extraction.Evidence {
		for _, span := range spans {
			assert.GreaterOrEqual(t, span.CharStart, 0, field)
			assert.Greater(t, span.CharEnd, span.CharStart, field)
			assert.LessOrEqual(t, span.CharEnd, len(doc.FullText), field)
			assert.Equal(t, "doc-1", span.DocumentID, field)
		}
	}
}

func TestExtractNothingRecognizable(t *testing.T) {
	extractor := NewExtractService(nil, 3000)
	doc := buildDocument("Lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor.")

	extraction := extractor.Extract(context.Background(), doc)
	require.NotNil(t, extraction)

	assert.Empty(t, extraction.Parties)
	assert.Empty(t, extraction.EffectiveDate)
	assert.Empty(t, extraction.Term)
	assert.Empty(t, extraction.GoverningLaw)
	assert.Empty(t, extraction.PaymentTerms)
	assert.Empty(t, extraction.Termination)
	assert.False(t, extraction.AutoRenewal.Exists)
	assert.Nil(t, extraction.AutoRenewal.NoticePeriodDays)
	assert.False(t, extraction.Confidentiality.Exists)
	assert.False(t, extraction.Indemnity.Exists)
	assert.Nil(t, extraction.LiabilityCap)
	assert.Empty(t, extraction.Signatories)
	assert.Empty(t, extraction.Evidence)
}

func TestExtractEmptyDocument(t *testing.T) {
	extractor := NewExtractService(nil, 3000)
	extraction := extractor.Extract(context.Background(), buildDocument(""))
	require.NotNil(t, extraction)
	assert.Empty(t, extraction.Parties)
	assert.Nil(t, extraction.LiabilityCap)
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"January 15, 2024": "2024-01-15",
		"March 3 2023":     "2023-03-03",
		"7/4/2022":         "2022-07-04",
		"2021-12-31":       "2021-12-31",
	}
	for raw, want := range cases {
		got, ok := normalizeDate(raw)
		require.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := normalizeDate("sometime next year")
	assert.False(t, ok)
}

type fakeGenerator struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestExtractEscalationFillsUnresolvedFields(t *testing.T) {
	generator := &fakeGenerator{
		response: `{"parties": ["Gamma Inc", "Delta LLC"], "effective_date": "2024-03-01", "term": "NOT_FOUND", "governing_law": "", "payment_terms": "Net 45 days"}`,
	}
	extractor := NewExtractService(generator, 3000)
	doc := buildDocument("An agreement concerning professional services rendered on an ongoing basis.")

	extraction := extractor.Extract(context.Background(), doc)
	require.Equal(t, 1, generator.calls)

	assert.Equal(t, []string{"Gamma Inc", "Delta LLC"}, extraction.Parties)
	assert.Equal(t, "2024-03-01", extraction.EffectiveDate)
	assert.Equal(t, "Net 45 days", extraction.PaymentTerms)
	// NOT_FOUND and empty answers stay null.
	assert.Empty(t, extraction.Term)
	assert.Empty(t, extraction.GoverningLaw)

	// Escalated fields carry the scanned window as evidence.
	require.Len(t, extraction.Evidence["parties"], 1)
	assert.Equal(t, 0, extraction.Evidence["parties"][0].CharStart)
}

func TestExtractEscalationRejectsMalformedDate(t *testing.T) {
	generator := &fakeGenerator{
		response: `{"effective_date": "March 1, 2024"}`,
	}
	extractor := NewExtractService(generator, 3000)
	doc := buildDocument("An agreement concerning professional services rendered on an ongoing basis.")

	extraction := extractor.Extract(context.Background(), doc)
	assert.Empty(t, extraction.EffectiveDate)
}

func TestExtractEscalationSkippedWhenResolved(t *testing.T) {
	generator := &fakeGenerator{response: `{}`}
	extractor := NewExtractService(generator, 3000)
	doc := buildDocument(sampleContract)

	extraction := extractor.Extract(context.Background(), doc)
	assert.Equal(t, 0, generator.calls)
	assert.Equal(t, "2024-01-15", extraction.EffectiveDate)
}

func TestExtractEscalationToleratesCodeFences(t *testing.T) {
	generator := &fakeGenerator{
		response: "```json\n{\"governing_law\": \"Delaware\"}\n```",
	}
	extractor := NewExtractService(generator, 3000)
	doc := buildDocument("An agreement concerning professional services rendered on an ongoing basis.")

	extraction := extractor.Extract(context.Background(), doc)
	assert.Equal(t, "Delaware", extraction.GoverningLaw)
}
