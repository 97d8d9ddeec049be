package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/contract-intel-be/types"
)

const riskyContract = `This Agreement shall automatically renew for successive terms unless terminated with 10 days notice.
The Supplier shall be liable for all damages and accepts unlimited liability.
Supplier shall indemnify Customer against all claims of any kind.
Either party may terminate this Agreement only for material breach.
`

const goodContract = `This Agreement is made between Acme Corporation and Beta Services LLC.
Either party may terminate this Agreement for convenience upon sixty days written notice.
The aggregate liability of either party shall be limited to $100,000.
`

func auditDocument(t *testing.T, text string) []types.Finding {
	t.Helper()
	doc := buildDocument(text)
	extraction := NewExtractService(nil, 3000).Extract(context.Background(), doc)
	return NewAuditService(30, 50000).Audit(doc, extraction)
}

func TestAuditRiskyContract(t *testing.T) {
	findings := auditDocument(t, riskyContract)
	require.Len(t, findings, 4)

	assert.Equal(t, "FIND-001", findings[0].ID)
	assert.Equal(t, FindingAutoRenewal, findings[0].Type)
	assert.Equal(t, types.SeverityHigh, findings[0].Severity)
	assert.Contains(t, findings[0].Summary, "10 days")

	assert.Equal(t, "FIND-002", findings[1].ID)
	assert.Equal(t, FindingUnlimitedLiability, findings[1].Type)
	assert.Equal(t, types.SeverityHigh, findings[1].Severity)

	assert.Equal(t, "FIND-003", findings[2].ID)
	assert.Equal(t, FindingBroadIndemnity, findings[2].Type)
	assert.Equal(t, types.SeverityMedium, findings[2].Severity)

	assert.Equal(t, "FIND-004", findings[3].ID)
	assert.Equal(t, FindingMissingTermination, findings[3].Type)
	assert.Equal(t, types.SeverityMedium, findings[3].Severity)
}

func TestAuditCleanContract(t *testing.T) {
	findings := auditDocument(t, goodContract)
	assert.Empty(t, findings)
}

func TestAuditShortNoticeAutoRenewalEvidence(t *testing.T) {
	text := "This Agreement shall automatically renew each year unless either party gives 15 days notice of termination. " +
		"Either party may also terminate this Agreement for convenience. " +
		"The total liability of either party shall be limited to $75,000."
	doc := buildDocument(text)
	extraction := NewExtractService(nil, 3000).Extract(context.Background(), doc)

	findings := NewAuditService(30, 50000).Audit(doc, extraction)
	require.Len(t, findings, 1)

	finding := findings[0]
	assert.Equal(t, FindingAutoRenewal, finding.Type)
	assert.Equal(t, types.SeverityHigh, finding.Severity)
	require.NotEmpty(t, finding.Evidence)
	covered := doc.FullText[finding.Evidence[0].CharStart:finding.Evidence[0].CharEnd]
	assert.Contains(t, covered, "automatically renew")
	assert.Contains(t, covered, "15 days")
}

func TestAuditUncappedLiabilityMention(t *testing.T) {
	text := "The Contractor shall be liable for damages arising from its negligence. " +
		"Either party may terminate this Agreement for convenience."
	findings := auditDocument(t, text)

	require.Len(t, findings, 1)
	assert.Equal(t, FindingUnlimitedLiability, findings[0].Type)
	assert.Equal(t, types.SeverityHigh, findings[0].Severity)
}

func TestAuditLowLiabilityCap(t *testing.T) {
	text := "Either party may terminate this Agreement for convenience. " +
		"The total liability of either party shall be limited to $10,000."
	findings := auditDocument(t, text)

	require.Len(t, findings, 1)
	assert.Equal(t, FindingLowLiabilityCap, findings[0].Type)
	assert.Equal(t, types.SeverityLow, findings[0].Severity)
	assert.Equal(t, "FIND-001", findings[0].ID)
	require.NotEmpty(t, findings[0].Evidence)
}

func TestAuditDeterministic(t *testing.T) {
	first := auditDocument(t, riskyContract)
	second := auditDocument(t, riskyContract)
	assert.Equal(t, first, second)
}

func TestAuditAutoRenewalWithoutNoticePeriod(t *testing.T) {
	days := 45
	extraction := &types.Extraction{
		DocumentID:  "doc-1",
		AutoRenewal: types.AutoRenewal{Exists: true},
		Evidence:    map[string][]types.EvidenceSpan{},
	}
	doc := buildDocument("Either party may terminate this Agreement for convenience. Liability shall be limited to $90,000.")

	findings := NewAuditService(30, 50000).Audit(doc, extraction)
	require.Len(t, findings, 2)
	assert.Equal(t, FindingAutoRenewal, findings[0].Type)
	assert.Contains(t, findings[0].Summary, "no clear notice period")
	// No stored cap on the extraction, so the liability mention is flagged.
	assert.Equal(t, FindingUnlimitedLiability, findings[1].Type)

	extraction.AutoRenewal.NoticePeriodDays = &days
	extraction.LiabilityCap = &types.LiabilityCap{Amount: 90000, Currency: "USD"}
	findings = NewAuditService(30, 50000).Audit(doc, extraction)
	assert.Empty(t, findings)
}
