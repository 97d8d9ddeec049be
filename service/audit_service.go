package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tieubaoca/contract-intel-be/types"
)

// Finding type identifiers, one per rule, evaluated in this order.
const (
	FindingAutoRenewal        = "auto_renewal"
	FindingUnlimitedLiability = "unlimited_liability"
	FindingBroadIndemnity     = "broad_indemnity"
	FindingMissingTermination = "missing_termination_convenience"
	FindingLowLiabilityCap    = "low_liability_cap"
)

var (
	unlimitedLiabilityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)unlimited\s+liability`),
		regexp.MustCompile(`(?i)no\s+(?:limit|limitation)\s+(?:on|of)\s+liability`),
		regexp.MustCompile(`(?i)liability\s+(?:of\s+\w+\s+)?shall\s+not\s+be\s+limited`),
	}

	broadIndemnityPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)indemnif\w+[^.\n]{0,80}(?:any\s+and\s+all|against\s+all)`),
		regexp.MustCompile(`(?i)hold\s+harmless[^.\n]{0,80}(?:any\s+and\s+all|against\s+all|from\s+all)`),
	}

	terminationConveniencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)terminat\w+[^.\n]{0,60}for\s+convenience`),
		regexp.MustCompile(`(?i)terminat\w+[^.\n]{0,60}without\s+cause`),
		regexp.MustCompile(`(?i)terminat\w+[^.\n]{0,60}for\s+any\s+reason`),
	}

	liabilityMentionPattern = regexp.MustCompile(`(?i)liab(?:le|ility)`)
)

// AuditService evaluates a fixed, ordered set of independent risk rules
// over a document and its extraction. Rules never see each other's output;
// finding identifiers are assigned sequentially across the whole run.
type AuditService struct {
	noticeDays   int
	capThreshold float64
}

func NewAuditService(noticeDays int, capThreshold float64) *AuditService {
	if noticeDays <= 0 {
		noticeDays = 30
	}
	if capThreshold <= 0 {
		capThreshold = 50000
	}
	return &AuditService{
		noticeDays:   noticeDays,
		capThreshold: capThreshold,
	}
}

// Audit is deterministic: the same document and extraction always produce
// the same findings in the same order with the same identifiers.
func (s *AuditService) Audit(doc *types.Document, extraction *types.Extraction) []types.Finding {
	var findings []types.Finding
	add := func(severity, findingType, summary string, evidence []types.EvidenceSpan) {
		findings = append(findings, types.Finding{
			ID:       fmt.Sprintf("FIND-%03d", len(findings)+1),
			Severity: severity,
			Type:     findingType,
			Summary:  summary,
			Evidence: evidence,
		})
	}

	s.checkAutoRenewal(extraction, add)
	s.checkUnlimitedLiability(doc, extraction, add)
	s.checkBroadIndemnity(doc, add)
	s.checkTerminationConvenience(doc, extraction, add)
	s.checkLowLiabilityCap(extraction, add)

	return findings
}

func (s *AuditService) checkAutoRenewal(extraction *types.Extraction, add func(string, string, string, []types.EvidenceSpan)) {
	if !extraction.AutoRenewal.Exists {
		return
	}
	days := extraction.AutoRenewal.NoticePeriodDays
	if days != nil && *days >= s.noticeDays {
		return
	}

	summary := fmt.Sprintf("Contract renews automatically with no clear notice period (at least %d days expected)", s.noticeDays)
	if days != nil {
		summary = fmt.Sprintf("Contract renews automatically with only %d days notice (at least %d days expected)", *days, s.noticeDays)
	}
	add(types.SeverityHigh, FindingAutoRenewal, summary, extraction.Evidence["auto_renewal"])
}

func (s *AuditService) checkUnlimitedLiability(doc *types.Document, extraction *types.Extraction, add func(string, string, string, []types.EvidenceSpan)) {
	for _, pattern := range unlimitedLiabilityPatterns {
		if match := pattern.FindStringIndex(doc.FullText); match != nil {
			add(types.SeverityHigh, FindingUnlimitedLiability,
				"Contract exposes a party to unlimited liability",
				[]types.EvidenceSpan{contextSpan(doc, match[0], match[1])})
			return
		}
	}

	// Liability is discussed but never capped.
	if extraction.LiabilityCap == nil {
		if match := liabilityMentionPattern.FindStringIndex(doc.FullText); match != nil {
			add(types.SeverityHigh, FindingUnlimitedLiability,
				"Contract discusses liability without stating any cap",
				[]types.EvidenceSpan{contextSpan(doc, match[0], match[1])})
		}
	}
}

func (s *AuditService) checkBroadIndemnity(doc *types.Document, add func(string, string, string, []types.EvidenceSpan)) {
	for _, pattern := range broadIndemnityPatterns {
		if match := pattern.FindStringIndex(doc.FullText); match != nil {
			add(types.SeverityMedium, FindingBroadIndemnity,
				"Indemnification obligation covers any and all claims without carve-outs",
				[]types.EvidenceSpan{contextSpan(doc, match[0], match[1])})
			return
		}
	}
}

func (s *AuditService) checkTerminationConvenience(doc *types.Document, extraction *types.Extraction, add func(string, string, string, []types.EvidenceSpan)) {
	for _, pattern := range terminationConveniencePatterns {
		if pattern.MatchString(doc.FullText) {
			return
		}
	}
	add(types.SeverityMedium, FindingMissingTermination,
		"No termination-for-convenience right found",
		extraction.Evidence["termination"])
}

func (s *AuditService) checkLowLiabilityCap(extraction *types.Extraction, add func(string, string, string, []types.EvidenceSpan)) {
	liabilityCap := extraction.LiabilityCap
	if liabilityCap == nil || liabilityCap.Amount >= s.capThreshold {
		return
	}
	add(types.SeverityLow, FindingLowLiabilityCap,
		fmt.Sprintf("Liability cap of %s is below the %s review threshold",
			formatAmount(liabilityCap.Amount, liabilityCap.Currency), formatAmount(s.capThreshold, liabilityCap.Currency)),
		extraction.Evidence["liability_cap"])
}

// contextSpan widens a raw pattern match to roughly 100 characters of
// surrounding text so the evidence excerpt is readable on its own.
func contextSpan(doc *types.Document, start, end int) types.EvidenceSpan {
	spanStart := start - 50
	if spanStart < 0 {
		spanStart = 0
	}
	spanEnd := end + 50
	if spanEnd > len(doc.FullText) {
		spanEnd = len(doc.FullText)
	}
	return types.EvidenceSpan{
		DocumentID: doc.ID,
		Page:       pageAtOffset(doc.Pages, start),
		CharStart:  spanStart,
		CharEnd:    spanEnd,
		Excerpt:    doc.FullText[spanStart:spanEnd],
	}
}

func formatAmount(amount float64, currency string) string {
	formatted := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", amount), "0"), ".")
	if currency == "" {
		return formatted
	}
	return formatted + " " + currency
}
