// Package answer turns ranked chunks into a natural-language answer with a
// confidence score and source citations, using template selection keyed off
// the question's phrasing.
package answer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/kotaeru/internal/chunker"
	"github.com/hyperjump/kotaeru/internal/models"
	"github.com/hyperjump/kotaeru/internal/retrieval"
	"github.com/hyperjump/kotaeru/pkg/utils"
)

// NoMatchMessage is returned when retrieval produced no results.
const NoMatchMessage = "I couldn't find information about that in your documents. " +
	"This may be because the documents don't cover the topic, they use different terminology, " +
	"or the relevant section hasn't been indexed yet. Try rephrasing the question using terms " +
	"that appear in the documents."

// Synthesizer assembles answers from ranked chunks.
type Synthesizer struct {
	cfg *Config
}

// NewSynthesizer creates a synthesizer. A nil config selects defaults.
func NewSynthesizer(cfg *Config) *Synthesizer {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		cfg.ApplyDefaults()
	}
	return &Synthesizer{cfg: cfg}
}

// Synthesize builds an answer for the query from ranked chunks. With no
// ranked chunks it returns the fixed no-match message with zero confidence.
func (s *Synthesizer) Synthesize(query string, ranked []models.ScoredChunk) *models.Answer {
	if len(ranked) == 0 {
		return &models.Answer{Text: NoMatchMessage, Sources: []models.Source{}}
	}

	queryLower := strings.ToLower(query)
	var text string
	switch classify(queryLower) {
	case templateSummary:
		text = s.composeSummary(ranked)
	case templateComparison:
		text = s.composeComparison(query, ranked)
	case templateList:
		text = s.composeList(ranked)
	default:
		text = s.composeGeneric(query, ranked)
	}

	confidence := s.confidence(query, ranked)
	text += s.confidenceNote(confidence)

	return &models.Answer{
		Text:       text,
		Confidence: confidence,
		Sources:    s.sources(ranked),
	}
}

type template int

const (
	templateGeneric template = iota
	templateSummary
	templateComparison
	templateList
)

var (
	summaryRe    = regexp.MustCompile(`summar|overview|main points`)
	comparisonRe = regexp.MustCompile(`compar|difference|differ|versus| vs `)
	listRe       = regexp.MustCompile(`\blist\b|types|kinds|categories|enumerate`)
)

// classify picks the answer template for a lowercased query. First match wins.
func classify(queryLower string) template {
	switch {
	case summaryRe.MatchString(queryLower):
		return templateSummary
	case comparisonRe.MatchString(queryLower):
		return templateComparison
	case listRe.MatchString(queryLower):
		return templateList
	default:
		return templateGeneric
	}
}

// composeSummary concatenates the leading sentences of the top chunks with
// numbered prefixes.
func (s *Synthesizer) composeSummary(ranked []models.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Here is a summary drawn from your documents:\n")
	count := len(ranked)
	if count > 3 {
		count = 3
	}
	for i := 0; i < count; i++ {
		sentences := chunker.SplitSentences(ranked[i].Chunk.Content)
		if len(sentences) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%d. %s", i+1, sentences[0])
	}
	return b.String()
}

// composeComparison juxtaposes the top two chunks. Falls back to the generic
// template when only one chunk is available.
func (s *Synthesizer) composeComparison(query string, ranked []models.ScoredChunk) string {
	if len(ranked) < 2 {
		return s.composeGeneric(query, ranked)
	}
	first := leadingSentence(ranked[0].Chunk.Content)
	second := leadingSentence(ranked[1].Chunk.Content)
	return "The documents offer more than one perspective.\n\n" +
		"First perspective: " + first + "\n\n" +
		"Another perspective: " + second
}

var listItemRe = regexp.MustCompile(`(?m)^\s*(?:[-•*]|\d+[.)])\s+(.+)$`)

// composeList extracts bullet or numbered list items from the top chunks.
// When no list structure is found, the top chunk's text is returned raw.
func (s *Synthesizer) composeList(ranked []models.ScoredChunk) string {
	var items []string
	count := len(ranked)
	if count > 3 {
		count = 3
	}
	for i := 0; i < count; i++ {
		for _, m := range listItemRe.FindAllStringSubmatch(ranked[i].Chunk.Content, -1) {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	if len(items) == 0 {
		return ranked[0].Chunk.Content
	}
	var b strings.Builder
	b.WriteString("The documents mention the following:\n")
	for _, item := range items {
		b.WriteString("\n- " + item)
	}
	return b.String()
}

// composeGeneric picks the sentence in the top chunk with the highest
// query-term overlap, breaking ties toward earlier sentences, and appends one
// supporting sentence from the runner-up when its score is close enough.
func (s *Synthesizer) composeGeneric(query string, ranked []models.ScoredChunk) string {
	terms := retrieval.ExtractTerms(query, 0)
	text := bestSentence(ranked[0].Chunk.Content, terms)
	if len(ranked) > 1 && ranked[1].Score >= s.cfg.SupportingThreshold*ranked[0].Score {
		if supporting := bestSentence(ranked[1].Chunk.Content, terms); supporting != "" {
			text += " " + supporting
		}
	}
	return text
}

// bestSentence returns the sentence with the most query terms present.
// Ties break toward the earliest sentence.
func bestSentence(content string, terms []string) string {
	sentences := chunker.SplitSentences(content)
	if len(sentences) == 0 {
		return content
	}
	best := sentences[0]
	bestCount := -1
	for _, sentence := range sentences {
		lower := strings.ToLower(sentence)
		count := 0
		for _, term := range terms {
			if strings.Contains(lower, term) {
				count++
			}
		}
		if count > bestCount {
			best = sentence
			bestCount = count
		}
	}
	return best
}

func leadingSentence(content string) string {
	sentences := chunker.SplitSentences(content)
	if len(sentences) == 0 {
		return content
	}
	return sentences[0]
}

// confidence estimates answer confidence: min(topScore/10, 1), a bonus for a
// close runner-up, and a bonus proportional to query-term coverage in the top
// chunk. Clamped to [0,1].
func (s *Synthesizer) confidence(query string, ranked []models.ScoredChunk) float64 {
	top := ranked[0].Score
	confidence := top / 10
	if confidence > 1 {
		confidence = 1
	}
	if len(ranked) > 1 && ranked[1].Score >= s.cfg.CloseSecondThreshold*top {
		confidence += 0.1
	}
	terms := retrieval.ExtractTerms(query, 0)
	if len(terms) > 0 {
		contentLower := strings.ToLower(ranked[0].Chunk.Content)
		present := 0
		for _, term := range terms {
			if strings.Contains(contentLower, term) {
				present++
			}
		}
		confidence += 0.2 * float64(present) / float64(len(terms))
	}
	return utils.Clamp01(confidence)
}

// confidenceNote returns the visible annotation for the confidence band, or
// an empty string below the moderate band.
func (s *Synthesizer) confidenceNote(confidence float64) string {
	switch {
	case confidence > s.cfg.HighConfidence:
		return "\n\n(High confidence based on your documents.)"
	case confidence > s.cfg.ModerateConfidence:
		return "\n\n(Moderate confidence. Verify against the cited pages.)"
	default:
		return ""
	}
}

// sources formats the top ranked chunks as citations.
func (s *Synthesizer) sources(ranked []models.ScoredChunk) []models.Source {
	count := len(ranked)
	if count > s.cfg.MaxSources {
		count = s.cfg.MaxSources
	}
	sources := make([]models.Source, 0, count)
	for i := 0; i < count; i++ {
		sources = append(sources, models.Source{
			Document: ranked[i].Document.Name,
			Page:     ranked[i].Chunk.Page,
			Excerpt:  utils.Truncate(ranked[i].Chunk.Content, s.cfg.ExcerptLength),
		})
	}
	return sources
}
