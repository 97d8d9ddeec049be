package service

import (
	"context"
	"encoding/json"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tieubaoca/contract-intel-be/types"
)

// ExtractService derives structured fields from a contract's full text.
// Pass 1 runs ordered regex rules, each resolved field recording the exact
// character span it came from. Pass 2 escalates still-unresolved scalar
// fields to the text-generation capability when one is configured; returned
// values are accepted only when structurally valid for their type.
type ExtractService struct {
	generator TextGenerator // nil disables escalation
	window    int           // leading slice of full text scanned by the scalar rules
}

func NewExtractService(generator TextGenerator, window int) *ExtractService {
	if window <= 0 {
		window = 3000
	}
	return &ExtractService{
		generator: generator,
		window:    window,
	}
}

var (
	partyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:by and between|By and between|BY AND BETWEEN)\s+([A-Z][A-Za-z0-9\s&.,'-]+?)\s+(?:and|AND)\s+([A-Z][A-Za-z0-9\s&.,'-]+?)\s*(?:\(|,|;|\.\s|\.$|\n)`),
		regexp.MustCompile(`(?:between|Between|BETWEEN)\s+([A-Z][A-Za-z0-9\s&.,'-]+?)\s+(?:and|AND)\s+([A-Z][A-Za-z0-9\s&.,'-]+?)\s*(?:\(|,|;|\.\s|\.$|\n)`),
		regexp.MustCompile(`Party\s+[A-Z]:\s*([A-Z][A-Za-z0-9\s&.,'-]+)`),
	}

	// Date recognizers tried in fixed preference order; textual phrasings
	// win over bare numeric dates.
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)effective\s+(?:date|as\s+of)[:\s]+([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(?i)dated\s+(?:as\s+of\s+)?([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`),
	}

	termPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)term\s+of\s+(?:this\s+|the\s+)?agreement\s+(?:is|shall\s+be)\s+([0-9]+\s+(?:year|month|day)s?)`),
		regexp.MustCompile(`(?i)term[:\s]+([0-9]+\s+(?:year|month|day)s?)`),
		regexp.MustCompile(`(?i)(?:duration|period)\s+of\s+([0-9]+\s+(?:year|month|day)s?)`),
	}

	lawPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)governed\s+by\s+the\s+laws?\s+of\s+([A-Za-z\s]+?)(?:\.|,|\n)`),
		regexp.MustCompile(`(?i)governing\s+law[:\s]+([A-Za-z\s]+?)(?:\.|,|\n)`),
		regexp.MustCompile(`(?i)jurisdiction[:\s]+([A-Za-z\s]+?)(?:\.|,|\n)`),
	}

	paymentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)payment\s+terms?[:\s]+([^\n.]{10,100})`),
		regexp.MustCompile(`(?i)net\s+\d+\s+days?`),
		regexp.MustCompile(`(?i)\$[\d,]+(?:\.\d{2})?\s+(?:per|monthly|annually)`),
	}

	terminationPattern = regexp.MustCompile(`(?i)termination[:\s]+([^\n]{20,200})`)

	noticePattern = regexp.MustCompile(`(?i)(\d+)\s+days?['’]?\s*(?:prior\s+|written\s+)?notice`)

	confidentialitySummaryPattern = regexp.MustCompile(`(?i)confidential(?:ity)?[:\s]+([^\n]{20,150})`)
	indemnitySummaryPattern       = regexp.MustCompile(`(?i)indemni(?:ty|fication|fy)[:\s]+([^\n]{20,150})`)

	liabilityCapPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)liability.{0,100}?(?:limited|capped|not\s+exceed).{0,60}?\$\s?([\d,]+(?:\.\d+)?)`),
		regexp.MustCompile(`(?i)\$\s?([\d,]+(?:\.\d+)?).{0,60}?(?:maximum|limit).{0,60}?liability`),
	}

	signatoryPattern = regexp.MustCompile(`(?:By:|Signature:)\s*([A-Z][a-z]+\s+[A-Z][a-z]+)\s*(?:Title:)?\s*([A-Z][a-z\s]+)?`)

	autoRenewalKeywords    = []string{"auto-renew", "automatic renewal", "automatically renew"}
	confidentialityKeys    = []string{"confidential", "non-disclosure"}
	indemnityKeys          = []string{"indemnif", "hold harmless"}
	canonicalDateFormat    = "2006-01-02"
	canonicalDateValidator = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Extract never fails on merely missing data: a document without a single
// recognizable pattern yields an all-null extraction.
func (s *ExtractService) Extract(ctx context.Context, doc *types.Document) *types.Extraction {
	extraction := &types.Extraction{
		DocumentID: doc.ID,
		Evidence:   make(map[string][]types.EvidenceSpan),
	}
	fullText := doc.FullText
	if fullText == "" {
		return extraction
	}

	window := fullText
	if len(window) > s.window {
		window = window[:s.window]
	}

	s.extractParties(extraction, doc, window)
	s.extractEffectiveDate(extraction, doc, window)
	s.extractFirstMatch(extraction, doc, window, "term", termPatterns, func(v string) { extraction.Term = v })
	s.extractFirstMatch(extraction, doc, window, "governing_law", lawPatterns, func(v string) { extraction.GoverningLaw = v })
	s.extractPaymentTerms(extraction, doc, window)
	s.extractTermination(extraction, doc, fullText)
	s.extractAutoRenewal(extraction, doc, fullText)
	s.extractClause(extraction, doc, fullText, "confidentiality", confidentialityKeys, confidentialitySummaryPattern,
		func(exists bool, summary string) {
			extraction.Confidentiality = types.Confidentiality{Exists: exists, Summary: summary}
		})
	s.extractClause(extraction, doc, fullText, "indemnity", indemnityKeys, indemnitySummaryPattern,
		func(exists bool, summary string) {
			extraction.Indemnity = types.Indemnity{Exists: exists, Summary: summary}
		})
	s.extractLiabilityCap(extraction, doc, fullText)
	s.extractSignatories(extraction, doc, fullText)

	if s.generator != nil {
		s.escalate(ctx, extraction, doc, window)
	}

	return extraction
}

func (s *ExtractService) extractParties(extraction *types.Extraction, doc *types.Document, window string) {
	scan := window
	if len(scan) > 2000 {
		scan = scan[:2000]
	}
	seen := make(map[string]struct{})
	for _, pattern := range partyPatterns {
		for _, match := range pattern.FindAllStringSubmatchIndex(scan, -1) {
			for g := 1; g*2 < len(match); g++ {
				start, end := match[g*2], match[g*2+1]
				if start < 0 {
					continue
				}
				party := strings.Trim(strings.TrimSpace(scan[start:end]), ".,")
				if len(party) <= 3 {
					continue
				}
				if _, dup := seen[party]; dup {
					continue
				}
				seen[party] = struct{}{}
				extraction.Parties = append(extraction.Parties, party)
				extraction.Evidence["parties"] = append(extraction.Evidence["parties"], s.span(doc, start, end))
			}
		}
		if len(extraction.Parties) > 0 {
			break
		}
	}
	if len(extraction.Parties) > 10 {
		extraction.Parties = extraction.Parties[:10]
	}
}

func (s *ExtractService) extractEffectiveDate(extraction *types.Extraction, doc *types.Document, window string) {
	for _, pattern := range datePatterns {
		match := pattern.FindStringSubmatchIndex(window)
		if match == nil {
			continue
		}
		raw := window[match[2]:match[3]]
		normalized, ok := normalizeDate(raw)
		if !ok {
			continue
		}
		extraction.EffectiveDate = normalized
		extraction.Evidence["effective_date"] = []types.EvidenceSpan{s.span(doc, match[2], match[3])}
		return
	}
}

func (s *ExtractService) extractFirstMatch(extraction *types.Extraction, doc *types.Document, window, field string, patterns []*regexp.Regexp, set func(string)) {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatchIndex(window)
		if match == nil {
			continue
		}
		start, end := match[0], match[1]
		if len(match) >= 4 && match[2] >= 0 {
			start, end = match[2], match[3]
		}
		set(strings.TrimSpace(window[start:end]))
		extraction.Evidence[field] = []types.EvidenceSpan{s.span(doc, start, end)}
		return
	}
}

func (s *ExtractService) extractPaymentTerms(extraction *types.Extraction, doc *types.Document, window string) {
	for _, pattern := range paymentPatterns {
		match := pattern.FindStringSubmatchIndex(window)
		if match == nil {
			continue
		}
		// Some payment recognizers match the whole phrase, not a group.
		start, end := match[0], match[1]
		if len(match) >= 4 && match[2] >= 0 {
			start, end = match[2], match[3]
		}
		extraction.PaymentTerms = strings.TrimSpace(window[start:end])
		extraction.Evidence["payment_terms"] = []types.EvidenceSpan{s.span(doc, start, end)}
		return
	}
}

func (s *ExtractService) extractTermination(extraction *types.Extraction, doc *types.Document, fullText string) {
	match := terminationPattern.FindStringSubmatchIndex(fullText)
	if match == nil {
		return
	}
	extraction.Termination = strings.TrimSpace(fullText[match[2]:match[3]])
	extraction.Evidence["termination"] = []types.EvidenceSpan{s.span(doc, match[2], match[3])}
}

func (s *ExtractService) extractAutoRenewal(extraction *types.Extraction, doc *types.Document, fullText string) {
	lower := strings.ToLower(fullText)
	keywordStart := -1
	keywordEnd := -1
	for _, keyword := range autoRenewalKeywords {
		if idx := strings.Index(lower, keyword); idx != -1 && (keywordStart == -1 || idx < keywordStart) {
			keywordStart = idx
			keywordEnd = idx + len(keyword)
		}
	}
	if keywordStart == -1 {
		extraction.AutoRenewal = types.AutoRenewal{Exists: false}
		return
	}

	extraction.AutoRenewal = types.AutoRenewal{Exists: true}
	spanStart, spanEnd := keywordStart, keywordEnd
	if match := noticePattern.FindStringSubmatchIndex(fullText); match != nil {
		if days, err := strconv.Atoi(fullText[match[2]:match[3]]); err == nil {
			extraction.AutoRenewal.NoticePeriodDays = &days
		}
		if match[1] > spanEnd {
			spanEnd = match[1]
		}
		if match[0] < spanStart {
			spanStart = match[0]
		}
	}
	extraction.Evidence["auto_renewal"] = []types.EvidenceSpan{s.span(doc, spanStart, spanEnd)}
}

func (s *ExtractService) extractClause(extraction *types.Extraction, doc *types.Document, fullText, field string, keywords []string, summaryPattern *regexp.Regexp, set func(bool, string)) {
	lower := strings.ToLower(fullText)
	keywordStart := -1
	keywordLen := 0
	for _, keyword := range keywords {
		if idx := strings.Index(lower, keyword); idx != -1 && (keywordStart == -1 || idx < keywordStart) {
			keywordStart = idx
			keywordLen = len(keyword)
		}
	}
	if keywordStart == -1 {
		set(false, "")
		return
	}

	summary := ""
	spanStart, spanEnd := keywordStart, keywordStart+keywordLen
	if match := summaryPattern.FindStringSubmatchIndex(fullText); match != nil {
		summary = strings.TrimSpace(fullText[match[2]:match[3]])
		spanStart, spanEnd = match[0], match[1]
	}
	set(true, summary)
	extraction.Evidence[field] = []types.EvidenceSpan{s.span(doc, spanStart, spanEnd)}
}

func (s *ExtractService) extractLiabilityCap(extraction *types.Extraction, doc *types.Document, fullText string) {
	for _, pattern := range liabilityCapPatterns {
		match := pattern.FindStringSubmatchIndex(fullText)
		if match == nil {
			continue
		}
		amountStr := strings.ReplaceAll(fullText[match[2]:match[3]], ",", "")
		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil {
			continue
		}
		extraction.LiabilityCap = &types.LiabilityCap{
			Amount:   amount,
			Currency: detectCurrency(fullText[match[0]:match[1]]),
		}
		extraction.Evidence["liability_cap"] = []types.EvidenceSpan{s.span(doc, match[0], match[1])}
		return
	}
}

func (s *ExtractService) extractSignatories(extraction *types.Extraction, doc *types.Document, fullText string) {
	tailStart := 0
	if len(fullText) > 2000 {
		tailStart = len(fullText) - 2000
	}
	tail := fullText[tailStart:]

	for _, match := range signatoryPattern.FindAllStringSubmatchIndex(tail, -1) {
		if len(extraction.Signatories) >= 5 {
			break
		}
		signatory := types.Signatory{
			Name: strings.TrimSpace(tail[match[2]:match[3]]),
		}
		if len(match) >= 6 && match[4] >= 0 {
			signatory.Title = strings.TrimSpace(tail[match[4]:match[5]])
		}
		extraction.Signatories = append(extraction.Signatories, signatory)
		extraction.Evidence["signatories"] = append(extraction.Evidence["signatories"],
			s.span(doc, tailStart+match[0], tailStart+match[1]))
	}
}

// escalate hands the same bounded window plus a field checklist to the
// generator and fills only the fields pass 1 left null. Values must be
// structurally valid; the explicit NOT_FOUND marker and empty strings are
// rejected.
func (s *ExtractService) escalate(ctx context.Context, extraction *types.Extraction, doc *types.Document, window string) {
	checklist := s.unresolvedFields(extraction)
	if len(checklist) == 0 {
		return
	}

	prompt := `Extract structured information from this contract text. Return a JSON object with exactly these keys: ` +
		strings.Join(checklist, ", ") + `.
Use the string "NOT_FOUND" for any field that is not present in the text.
Format effective_date as YYYY-MM-DD. Format parties as a JSON array of names.

Contract text:
` + window

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("generation escalation failed, unresolved fields stay null: %v", err)
		return
	}

	var payload struct {
		Parties       json.RawMessage `json:"parties"`
		EffectiveDate string          `json:"effective_date"`
		Term          string          `json:"term"`
		GoverningLaw  string          `json:"governing_law"`
		PaymentTerms  string          `json:"payment_terms"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		log.Printf("generation returned unparseable JSON, unresolved fields stay null: %v", err)
		return
	}

	windowEvidence := []types.EvidenceSpan{s.span(doc, 0, len(window))}

	if len(extraction.Parties) == 0 && payload.Parties != nil {
		var parties []string
		if err := json.Unmarshal(payload.Parties, &parties); err == nil {
			parties = filterValid(parties)
			if len(parties) > 0 {
				extraction.Parties = parties
				extraction.Evidence["parties"] = windowEvidence
			}
		}
	}
	if extraction.EffectiveDate == "" && validDate(payload.EffectiveDate) {
		extraction.EffectiveDate = payload.EffectiveDate
		extraction.Evidence["effective_date"] = windowEvidence
	}
	if extraction.Term == "" && validValue(payload.Term) {
		extraction.Term = payload.Term
		extraction.Evidence["term"] = windowEvidence
	}
	if extraction.GoverningLaw == "" && validValue(payload.GoverningLaw) {
		extraction.GoverningLaw = payload.GoverningLaw
		extraction.Evidence["governing_law"] = windowEvidence
	}
	if extraction.PaymentTerms == "" && validValue(payload.PaymentTerms) {
		extraction.PaymentTerms = payload.PaymentTerms
		extraction.Evidence["payment_terms"] = windowEvidence
	}
}

func (s *ExtractService) unresolvedFields(extraction *types.Extraction) []string {
	var fields []string
	if len(extraction.Parties) == 0 {
		fields = append(fields, "parties")
	}
	if extraction.EffectiveDate == "" {
		fields = append(fields, "effective_date")
	}
	if extraction.Term == "" {
		fields = append(fields, "term")
	}
	if extraction.GoverningLaw == "" {
		fields = append(fields, "governing_law")
	}
	if extraction.PaymentTerms == "" {
		fields = append(fields, "payment_terms")
	}
	return fields
}

func (s *ExtractService) span(doc *types.Document, start, end int) types.EvidenceSpan {
	excerpt := doc.FullText[start:end]
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}
	return types.EvidenceSpan{
		DocumentID: doc.ID,
		Page:       pageAtOffset(doc.Pages, start),
		CharStart:  start,
		CharEnd:    end,
		Excerpt:    excerpt,
	}
}

// normalizeDate parses a date phrase with a fixed format-preference order
// and renders it in the canonical calendar format.
func normalizeDate(raw string) (string, bool) {
	formats := []string{
		"January 2, 2006",
		"January 2 2006",
		"1/2/2006",
		"2006-01-02",
		"2 January 2006",
		"2-1-2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return t.Format(canonicalDateFormat), true
		}
	}
	return "", false
}

func validDate(value string) bool {
	if !canonicalDateValidator.MatchString(value) {
		return false
	}
	_, err := time.Parse(canonicalDateFormat, value)
	return err == nil
}

func validValue(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != "NOT_FOUND"
}

func filterValid(values []string) []string {
	var out []string
	for _, v := range values {
		if validValue(v) {
			out = append(out, strings.TrimSpace(v))
		}
	}
	return out
}

func detectCurrency(matched string) string {
	upper := strings.ToUpper(matched)
	for _, code := range []string{"USD", "EUR", "GBP"} {
		if strings.Contains(upper, code) {
			return code
		}
	}
	if strings.Contains(matched, "$") {
		return "USD"
	}
	if strings.Contains(matched, "€") {
		return "EUR"
	}
	if strings.Contains(matched, "£") {
		return "GBP"
	}
	return ""
}

func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx != -1 {
			trimmed = trimmed[:idx]
		}
	}
	return strings.TrimSpace(trimmed)
}
