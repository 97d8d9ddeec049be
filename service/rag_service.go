package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/tieubaoca/contract-intel-be/database"
	"github.com/tieubaoca/contract-intel-be/repository"
	"github.com/tieubaoca/contract-intel-be/types"
)

var ErrEmptyQuestion = errors.New("question must not be empty")

// CannotAnswerText is the exact sentence returned whenever the corpus does
// not support an answer. Clients match on it, so it never varies.
const CannotAnswerText = "I cannot answer this question based on the provided documents."

var sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]?`)

// RAGService answers questions from the indexed corpus only. Every answer
// cites the chunks whose text actually made it into the assembled context.
type RAGService struct {
	embedder      Embedder
	index         database.VectorIndex
	generator     TextGenerator // nil selects the extractive fallback
	metrics       repository.MetricsRepo
	topK          int
	contextBudget int
	stopwords     map[string]struct{}
}

func NewRAGService(
	embedder Embedder,
	index database.VectorIndex,
	generator TextGenerator,
	metrics repository.MetricsRepo,
	topK int,
	contextBudget int,
) *RAGService {
	if topK <= 0 {
		topK = 5
	}
	if contextBudget <= 0 {
		contextBudget = 3000
	}
	return &RAGService{
		embedder:      embedder,
		index:         index,
		generator:     generator,
		metrics:       metrics,
		topK:          topK,
		contextBudget: contextBudget,
		stopwords:     defaultStopwords(),
	}
}

// Answer retrieves the closest chunks, assembles a bounded context and
// produces an answer plus the evidence spans of the chunks that contributed.
// documentIDs restricts retrieval to those documents; empty means the whole
// corpus.
func (s *RAGService) Answer(ctx context.Context, question string, documentIDs []string) (string, []types.EvidenceSpan, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, ErrEmptyQuestion
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := s.index.TopK(ctx, vector, s.topK, documentIDs)
	if err != nil {
		return "", nil, fmt.Errorf("retrieval failed: %w", err)
	}
	if len(hits) == 0 {
		if err := s.metrics.Inc(ctx, repository.MetricQueriesAnswered); err != nil {
			return "", nil, err
		}
		return CannotAnswerText, nil, nil
	}

	// Deterministic ordering regardless of index backend: score descending,
	// chunk position as tiebreaker.
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.Position < hits[j].Chunk.Position
	})

	contextText, citations := s.assembleContext(hits)

	answer := ""
	if s.generator != nil {
		answer, err = s.generate(ctx, question, contextText)
		if err != nil {
			log.Printf("generation failed, falling back to extractive answer: %v", err)
			answer = ""
		}
	}
	if answer == "" {
		answer = s.extractiveAnswer(question, contextText)
	}

	if err := s.metrics.Inc(ctx, repository.MetricQueriesAnswered); err != nil {
		return "", nil, err
	}
	return answer, citations, nil
}

// assembleContext concatenates chunk texts under source tags until the
// character budget is reached. Only chunks whose text made it in are cited.
func (s *RAGService) assembleContext(hits []database.ChunkHit) (string, []types.EvidenceSpan) {
	var builder strings.Builder
	var citations []types.EvidenceSpan

	for _, hit := range hits {
		block := fmt.Sprintf("[Document %s, Page %d]:\n%s\n\n", hit.Chunk.DocumentID, hit.Chunk.Page, hit.Chunk.Text)
		if builder.Len() > 0 && builder.Len()+len(block) > s.contextBudget {
			break
		}
		builder.WriteString(block)
		excerpt := hit.Chunk.Text
		if len(excerpt) > 200 {
			excerpt = excerpt[:200]
		}
		citations = append(citations, types.EvidenceSpan{
			DocumentID: hit.Chunk.DocumentID,
			Page:       hit.Chunk.Page,
			CharStart:  hit.Chunk.CharStart,
			CharEnd:    hit.Chunk.CharEnd,
			Excerpt:    excerpt,
		})
		if builder.Len() >= s.contextBudget {
			break
		}
	}

	contextText := builder.String()
	if len(contextText) > s.contextBudget {
		contextText = contextText[:s.contextBudget]
	}
	return contextText, citations
}

func (s *RAGService) generate(ctx context.Context, question, contextText string) (string, error) {
	prompt := fmt.Sprintf(`Answer the question using ONLY the context below. Do not use outside knowledge.
If the context does not contain the answer, reply exactly: %s

Context:
%s

Question: %s

Answer:`, CannotAnswerText, contextText, question)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// extractiveAnswer is the deterministic no-generator path: sentences of the
// assembled context are scored by how many distinct question keywords they
// contain, and the best three are returned verbatim.
func (s *RAGService) extractiveAnswer(question, contextText string) string {
	keywords := s.keywords(question)
	if len(keywords) == 0 {
		return CannotAnswerText
	}

	type scored struct {
		sentence string
		score    int
		order    int
	}
	var candidates []scored
	for i, raw := range sentencePattern.FindAllString(contextText, -1) {
		sentence := strings.TrimSpace(raw)
		if sentence == "" || strings.HasPrefix(sentence, "[Document ") {
			continue
		}
		lower := strings.ToLower(sentence)
		score := 0
		for keyword := range keywords {
			if strings.Contains(lower, keyword) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{sentence: sentence, score: score, order: i})
		}
	}
	if len(candidates) == 0 {
		return CannotAnswerText
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})
	if len(candidates) > 3 {
		candidates = candidates[:3]
	}

	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = c.sentence
	}
	return strings.Join(parts, " ")
}

func (s *RAGService) keywords(question string) map[string]struct{} {
	keywords := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(question)) {
		token = strings.Trim(token, ".,?!;:\"'()")
		if len(token) < 3 {
			continue
		}
		if _, isStop := s.stopwords[token]; isStop {
			continue
		}
		keywords[token] = struct{}{}
	}
	return keywords
}
