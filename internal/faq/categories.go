package faq

import (
	"strings"
	"time"

	"github.com/hyperjump/kotaeru/internal/models"
)

// categoryKeywords maps a category to trigger words. The first category whose
// keyword appears in the question wins, in the listed order.
var categoryKeywords = []struct {
	name     string
	keywords []string
}{
	{"Summary", []string{"summary", "summarize", "overview", "about", "main point"}},
	{"Research Methods", []string{"method", "methodology", "approach", "procedure", "experiment"}},
	{"Results", []string{"result", "finding", "outcome", "conclusion"}},
	{"Analysis", []string{"analysis", "analyze", "compare", "comparison", "difference", "versus"}},
	{"Applications", []string{"application", "use case", "practical", "apply", "implement"}},
	{"Theory", []string{"theory", "concept", "definition", "define", "what is", "what are"}},
	{"Data", []string{"data", "dataset", "statistic", "sample", "measurement"}},
	{"Context", []string{"background", "context", "history", "motivation", "why"}},
	{"Future Work", []string{"future", "next step", "recommendation", "further"}},
}

// defaultCategory is used when no keyword matches.
const defaultCategory = "General"

// Categorize assigns a question to a category by keyword match.
func Categorize(question string) string {
	q := strings.ToLower(question)
	for _, c := range categoryKeywords {
		for _, k := range c.keywords {
			if strings.Contains(q, k) {
				return c.name
			}
		}
	}
	return defaultCategory
}

// defaultFAQItems seeds a fresh installation with starter questions so the
// FAQ endpoints are useful before any history accumulates.
func defaultFAQItems(now time.Time) []*models.FAQItem {
	seed := []struct {
		id       string
		question string
		answer   string
		category string
		keywords []string
	}{
		{
			id:       "seed-summary",
			question: "What is this document about?",
			answer:   "Ask this question to get a summary synthesized from your uploaded documents.",
			category: "Summary",
			keywords: []string{"document", "about", "summary"},
		},
		{
			id:       "seed-methods",
			question: "What methodology was used?",
			answer:   "Ask this question to find the methods described in your documents.",
			category: "Research Methods",
			keywords: []string{"methodology", "methods", "used"},
		},
		{
			id:       "seed-findings",
			question: "What are the main findings?",
			answer:   "Ask this question to extract key results from your documents.",
			category: "Results",
			keywords: []string{"main", "findings", "results"},
		},
		{
			id:       "seed-limitations",
			question: "What are the limitations of this study?",
			answer:   "Ask this question to surface stated limitations and caveats.",
			category: "Analysis",
			keywords: []string{"limitations", "study", "caveats"},
		},
	}
	items := make([]*models.FAQItem, 0, len(seed))
	for _, s := range seed {
		items = append(items, &models.FAQItem{
			ID:         s.id,
			Question:   s.question,
			Answer:     s.answer,
			Category:   s.category,
			Popularity: 1,
			Keywords:   s.keywords,
			LastAsked:  now,
			TimesAsked: 0,
		})
	}
	return items
}
