// Package retrieval scores document chunks against natural-language questions
// using deterministic keyword heuristics: phrase matches, positionally
// weighted term matches, query/content co-occurrence rules, and keyword
// density. There is no statistical ranking model; the rules are explainable
// and reproduce exactly the scores the answer templates were tuned against.
package retrieval

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/kotaeru/internal/models"
)

// Engine scores chunks against queries. Pure: Search mutates nothing and
// depends only on its inputs, so callers may share one Engine freely.
type Engine struct {
	cfg   *ScoringConfig
	rules []compiledRule
}

type compiledRule struct {
	query   *regexp.Regexp
	content *regexp.Regexp
	weight  float64
}

// NewEngine creates an engine. A nil config selects defaults; a partial config
// has its zero values filled in. Returns an error if a context rule pattern
// does not compile.
func NewEngine(cfg *ScoringConfig) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultScoringConfig()
	} else {
		cfg.ApplyDefaults()
	}
	e := &Engine{cfg: cfg}
	for _, rule := range cfg.ContextRules {
		qre, err := regexp.Compile(rule.QueryPattern)
		if err != nil {
			return nil, fmt.Errorf("compile query pattern %q: %w", rule.QueryPattern, err)
		}
		cre, err := regexp.Compile(rule.ContentPattern)
		if err != nil {
			return nil, fmt.Errorf("compile content pattern %q: %w", rule.ContentPattern, err)
		}
		e.rules = append(e.rules, compiledRule{query: qre, content: cre, weight: rule.Weight})
	}
	return e, nil
}

// Config returns the engine's scoring configuration.
func (e *Engine) Config() *ScoringConfig {
	return e.cfg
}

// Search scores every chunk of every ready document against the query and
// returns chunks with positive scores, sorted by descending score. Ties keep
// original chunk order. The result is truncated to the configured maximum.
func (e *Engine) Search(query string, docs []*models.Document) []models.ScoredChunk {
	terms := ExtractTerms(query, e.cfg.MaxQueryTerms)
	return e.search(query, terms, docs, e.cfg.MaxResults)
}

// SearchFallback rescores with relaxed terms when the primary pass found
// nothing: long terms are cut to a prefix so morphological variants still
// match ("analyses" finds "analysis"). The result cap is tighter than the
// primary path.
func (e *Engine) SearchFallback(query string, docs []*models.Document) []models.ScoredChunk {
	terms := relaxTerms(ExtractTerms(query, e.cfg.MaxQueryTerms))
	return e.search(query, terms, docs, e.cfg.FallbackMaxResults)
}

func (e *Engine) search(query string, terms []string, docs []*models.Document, limit int) []models.ScoredChunk {
	phrase := strings.Join(terms, " ")
	queryLower := strings.ToLower(query)

	var results []models.ScoredChunk
	for _, doc := range docs {
		if !doc.Ready() {
			continue
		}
		nameLower := strings.ToLower(doc.Name)
		for i := range doc.Chunks {
			chunk := &doc.Chunks[i]
			score := e.scoreChunk(queryLower, terms, phrase, chunk.Content, nameLower)
			if score > 0 {
				results = append(results, models.ScoredChunk{Chunk: chunk, Document: doc, Score: score})
			}
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// scoreChunk applies the additive scoring rules to one chunk.
func (e *Engine) scoreChunk(queryLower string, terms []string, phrase, content, docNameLower string) float64 {
	contentLower := strings.ToLower(content)
	score := 0.0

	// Full query phrase as a literal substring.
	if strings.Contains(contentLower, phrase) {
		score += e.cfg.PhraseMatchBonus
	}

	// Per-term matches, earlier query terms weighted higher.
	n := len(terms)
	matched := 0
	for i, term := range terms {
		if !strings.Contains(contentLower, term) {
			continue
		}
		matched++
		weight := 1 + e.cfg.PositionalStep*float64(n-i)
		score += e.cfg.TermMatchWeight * weight
		if containsWord(contentLower, term) {
			score += e.cfg.WordBoundaryWeight * weight
		}
	}

	// Query/content co-occurrence bonuses.
	for _, rule := range e.rules {
		if rule.query.MatchString(queryLower) && rule.content.MatchString(contentLower) {
			score += rule.weight
		}
	}

	// Keyword density.
	if words := len(strings.Fields(contentLower)); words > 0 {
		score += float64(matched) / float64(words) * e.cfg.DensityWeight
	}

	// Document title relevance.
	for _, term := range terms {
		if strings.Contains(docNameLower, term) {
			score += e.cfg.TitleMatchBonus
		}
	}

	return score
}
