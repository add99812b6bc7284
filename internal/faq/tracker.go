// Package faq records asked questions, promotes recurring ones to FAQ
// entries, and computes popularity and trend analytics.
package faq

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/kotaeru/internal/chunker"
	"github.com/hyperjump/kotaeru/internal/models"
	"github.com/hyperjump/kotaeru/pkg/utils"
)

const (
	// repeatThreshold: a question this similar to an existing FAQ entry counts
	// as a repeat of it.
	repeatThreshold = 0.7
	// promoteThreshold: questions this similar to each other in recent history
	// can be promoted into a new FAQ entry.
	promoteThreshold = 0.6
	// promoteWindow is how many recent history entries the promotion check scans.
	promoteWindow = 100
	// popularityCap bounds the popularity counter.
	popularityCap = 100
	// trendingWindow restricts trending to recently asked items.
	trendingWindow = 7 * 24 * time.Hour
	// historyCap bounds the in-memory question history ring.
	historyCap = 1000
)

// Store is the persistence surface the tracker needs. A nil store keeps all
// state in memory only.
type Store interface {
	SaveFAQItem(ctx context.Context, item *models.FAQItem) error
	ListFAQItems(ctx context.Context) ([]*models.FAQItem, error)
	AppendQuestion(ctx context.Context, entry models.QuestionHistoryEntry) error
	ListQuestions(ctx context.Context, limit int) ([]models.QuestionHistoryEntry, error)
}

// Tracker records questions and maintains FAQ entries. Safe for concurrent use.
type Tracker struct {
	mu      sync.Mutex
	store   Store
	items   []*models.FAQItem
	history []models.QuestionHistoryEntry
	now     func() time.Time
	logger  *zap.Logger
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithLogger sets a logger for persistence failures.
func WithLogger(l *zap.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = l }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) TrackerOption {
	return func(t *Tracker) { t.now = now }
}

// NewTracker creates a tracker, loading persisted FAQ items and history from
// st when non-nil. An empty FAQ set is seeded with the default entries.
func NewTracker(ctx context.Context, st Store, opts ...TrackerOption) (*Tracker, error) {
	t := &Tracker{
		store: st,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if st != nil {
		items, err := st.ListFAQItems(ctx)
		if err != nil {
			return nil, err
		}
		t.items = items
		entries, err := st.ListQuestions(ctx, historyCap)
		if err != nil {
			return nil, err
		}
		// Stored newest first; keep in-memory history oldest first.
		for i := len(entries) - 1; i >= 0; i-- {
			t.history = append(t.history, entries[i])
		}
	}
	if len(t.items) == 0 {
		t.items = defaultFAQItems(t.now())
		for _, item := range t.items {
			t.persistItem(ctx, item)
		}
	}
	return t, nil
}

// Track records a question: appends it to history, increments a sufficiently
// similar existing FAQ entry, or promotes the question to a new entry when it
// has recurred in recent history and no existing entry covers it.
func (t *Tracker) Track(ctx context.Context, question string) {
	q := strings.TrimSpace(question)
	if q == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	category := Categorize(q)
	entry := models.QuestionHistoryEntry{Question: q, Timestamp: now, Category: category}
	t.history = append(t.history, entry)
	if len(t.history) > historyCap {
		t.history = t.history[len(t.history)-historyCap:]
	}
	if t.store != nil {
		if err := t.store.AppendQuestion(ctx, entry); err != nil && t.logger != nil {
			t.logger.Warn("faq history persist failed", zap.Error(err))
		}
	}

	var best *models.FAQItem
	bestSim := 0.0
	for _, item := range t.items {
		if sim := utils.WordJaccard(q, item.Question); sim > bestSim {
			best = item
			bestSim = sim
		}
	}
	if bestSim >= repeatThreshold {
		best.TimesAsked++
		if best.Popularity < popularityCap {
			best.Popularity++
		}
		best.LastAsked = now
		t.persistItem(ctx, best)
		return
	}
	if bestSim >= promoteThreshold {
		// Close enough to an existing entry that a near-duplicate would be noise.
		return
	}

	start := len(t.history) - promoteWindow
	if start < 0 {
		start = 0
	}
	occurrences := 0
	for _, e := range t.history[start:] {
		if utils.WordJaccard(q, e.Question) >= promoteThreshold {
			occurrences++
		}
	}
	if occurrences < 2 {
		return
	}
	item := &models.FAQItem{
		ID:         uuid.New().String(),
		Question:   q,
		Answer:     "Ask this question to get the latest answer from your documents.",
		Category:   category,
		Popularity: 1,
		Keywords:   chunker.ExtractKeywords(q),
		LastAsked:  now,
		TimesAsked: 1,
	}
	t.items = append(t.items, item)
	t.persistItem(ctx, item)
}

func (t *Tracker) persistItem(ctx context.Context, item *models.FAQItem) {
	if t.store == nil {
		return
	}
	if err := t.store.SaveFAQItem(ctx, item); err != nil && t.logger != nil {
		t.logger.Warn("faq item persist failed", zap.String("id", item.ID), zap.Error(err))
	}
}

// Popular returns up to n FAQ items by descending popularity.
func (t *Tracker) Popular(n int) []*models.FAQItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	items := t.copyItems()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Popularity > items[j].Popularity
	})
	return truncateItems(items, n)
}

// Trending returns up to n items asked within the trending window, ranked by
// times asked weighted by recency.
func (t *Tracker) Trending(n int) []*models.FAQItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	var items []*models.FAQItem
	for _, item := range t.copyItems() {
		if now.Sub(item.LastAsked) <= trendingWindow {
			items = append(items, item)
		}
	}
	score := func(item *models.FAQItem) float64 {
		return float64(item.TimesAsked) * float64(item.LastAsked.Unix()) / float64(now.Unix())
	}
	sort.SliceStable(items, func(i, j int) bool {
		return score(items[i]) > score(items[j])
	})
	return truncateItems(items, n)
}

// Suggested returns up to n items relevant to the context text (by keyword
// overlap), falling back to the most popular items when the context is empty
// or matches nothing.
func (t *Tracker) Suggested(contextText string, n int) []*models.FAQItem {
	if strings.TrimSpace(contextText) == "" {
		return t.Popular(n)
	}
	t.mu.Lock()
	contextWords := utils.WordSet(contextText)
	type scored struct {
		item    *models.FAQItem
		overlap int
	}
	var matches []scored
	for _, item := range t.copyItems() {
		overlap := 0
		for _, k := range item.Keywords {
			if _, ok := contextWords[k]; ok {
				overlap++
			}
		}
		if overlap > 0 {
			matches = append(matches, scored{item, overlap})
		}
	}
	t.mu.Unlock()
	if len(matches) == 0 {
		return t.Popular(n)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].overlap > matches[j].overlap
	})
	items := make([]*models.FAQItem, 0, len(matches))
	for _, m := range matches {
		items = append(items, m.item)
	}
	return truncateItems(items, n)
}

// Analytics summarizes tracked questions.
type Analytics struct {
	TotalQuestions int                `json:"total_questions"`
	FAQCount       int                `json:"faq_count"`
	Categories     map[string]int     `json:"categories"`
	TopKeywords    []KeywordFrequency `json:"top_keywords"`
}

// KeywordFrequency is one keyword with its occurrence count.
type KeywordFrequency struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// AnalyticsSnapshot computes analytics over the question history.
func (t *Tracker) AnalyticsSnapshot() Analytics {
	t.mu.Lock()
	defer t.mu.Unlock()

	categories := make(map[string]int)
	keywordCounts := make(map[string]int)
	for _, e := range t.history {
		categories[e.Category]++
		for _, k := range chunker.ExtractKeywords(e.Question) {
			keywordCounts[k]++
		}
	}
	keywords := make([]KeywordFrequency, 0, len(keywordCounts))
	for k, c := range keywordCounts {
		keywords = append(keywords, KeywordFrequency{Keyword: k, Count: c})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Count != keywords[j].Count {
			return keywords[i].Count > keywords[j].Count
		}
		return keywords[i].Keyword < keywords[j].Keyword
	})
	if len(keywords) > 10 {
		keywords = keywords[:10]
	}
	return Analytics{
		TotalQuestions: len(t.history),
		FAQCount:       len(t.items),
		Categories:     categories,
		TopKeywords:    keywords,
	}
}

func (t *Tracker) copyItems() []*models.FAQItem {
	items := make([]*models.FAQItem, 0, len(t.items))
	for _, item := range t.items {
		cp := *item
		cp.Keywords = append([]string(nil), item.Keywords...)
		items = append(items, &cp)
	}
	return items
}

func truncateItems(items []*models.FAQItem, n int) []*models.FAQItem {
	if n > 0 && len(items) > n {
		items = items[:n]
	}
	return items
}
