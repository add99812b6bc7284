package models

import "time"

// FAQItem is a reusable question promoted from repeatedly asked questions,
// or seeded as a default. Popularity and TimesAsked only ever increase.
type FAQItem struct {
	ID         string    `json:"id" db:"id"`
	Question   string    `json:"question" db:"question"`
	Answer     string    `json:"answer" db:"answer"`
	Category   string    `json:"category" db:"category"`
	Popularity int       `json:"popularity" db:"popularity"`
	Keywords   []string  `json:"keywords,omitempty"`
	LastAsked  time.Time `json:"last_asked" db:"last_asked"`
	TimesAsked int       `json:"times_asked" db:"times_asked"`
}

// QuestionHistoryEntry records one asked question. History is an append-only
// ring capped at a fixed size; oldest entries are evicted first.
type QuestionHistoryEntry struct {
	Question  string    `json:"question" db:"question"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Category  string    `json:"category" db:"category"`
}
