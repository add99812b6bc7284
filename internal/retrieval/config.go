package retrieval

// ScoringConfig holds every constant used by the chunk scorer. The values are
// deliberate business logic: which answer template fires downstream depends on
// which chunks win, so changing them changes user-visible phrasing. They are
// exposed as configuration to make that tunable rather than hard-coded.
type ScoringConfig struct {
	// PhraseMatchBonus is added when the full query phrase appears verbatim.
	PhraseMatchBonus float64 `yaml:"phrase_match_bonus"` // default: 10
	// TermMatchWeight scores a term appearing anywhere in the content.
	TermMatchWeight float64 `yaml:"term_match_weight"` // default: 3
	// WordBoundaryWeight is added on top when the term matches a whole word.
	WordBoundaryWeight float64 `yaml:"word_boundary_weight"` // default: 2
	// PositionalStep weights earlier query terms higher: term i of N gets
	// weight 1 + PositionalStep*(N-i).
	PositionalStep float64 `yaml:"positional_step"` // default: 0.1
	// DensityWeight scales the matched-terms-per-word density bonus.
	DensityWeight float64 `yaml:"density_weight"` // default: 5
	// TitleMatchBonus is added per query term found in the document name.
	TitleMatchBonus float64 `yaml:"title_match_bonus"` // default: 1

	MaxQueryTerms      int `yaml:"max_query_terms"`      // default: 10
	MaxResults         int `yaml:"max_results"`          // default: 8
	FallbackMaxResults int `yaml:"fallback_max_results"` // default: 6

	// ContextRules award bonuses when a query pattern and a content pattern
	// co-occur (e.g. a "what is" question and "is defined as" content).
	// Nil selects DefaultContextRules.
	ContextRules []ContextRule `yaml:"context_rules"`
}

// ContextRule is one (query pattern, content pattern, weight) bonus rule.
// Patterns are regular expressions matched against lowercased text.
type ContextRule struct {
	QueryPattern   string  `yaml:"query_pattern"`
	ContentPattern string  `yaml:"content_pattern"`
	Weight         float64 `yaml:"weight"`
}

// DefaultScoringConfig returns the default scoring configuration.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		PhraseMatchBonus:   10,
		TermMatchWeight:    3,
		WordBoundaryWeight: 2,
		PositionalStep:     0.1,
		DensityWeight:      5,
		TitleMatchBonus:    1,
		MaxQueryTerms:      10,
		MaxResults:         8,
		FallbackMaxResults: 6,
		ContextRules:       DefaultContextRules(),
	}
}

// DefaultContextRules returns the built-in query/content co-occurrence rules.
func DefaultContextRules() []ContextRule {
	return []ContextRule{
		{`what is|define|definition`, `is a|is the|refers to|defined as|means`, 4},
		{`how does|how do|how to|process`, `process|steps|procedure|method|works by|first|then`, 4},
		{`why|reason|cause`, `because|due to|reason|since|therefore|as a result`, 3},
		{`types|categories|kinds|classification`, `types of|categories|kinds of|classified|include`, 3},
		{`example|instance|application`, `for example|such as|for instance|e\.g\.|applied`, 3},
		{`benefit|advantage`, `benefit|advantage|improve|helps|enables`, 3},
		{`limitation|disadvantage|drawback`, `limitation|disadvantage|drawback|however|challenge|weakness`, 3},
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *ScoringConfig) ApplyDefaults() {
	defaults := DefaultScoringConfig()
	if c.PhraseMatchBonus == 0 {
		c.PhraseMatchBonus = defaults.PhraseMatchBonus
	}
	if c.TermMatchWeight == 0 {
		c.TermMatchWeight = defaults.TermMatchWeight
	}
	if c.WordBoundaryWeight == 0 {
		c.WordBoundaryWeight = defaults.WordBoundaryWeight
	}
	if c.PositionalStep == 0 {
		c.PositionalStep = defaults.PositionalStep
	}
	if c.DensityWeight == 0 {
		c.DensityWeight = defaults.DensityWeight
	}
	if c.TitleMatchBonus == 0 {
		c.TitleMatchBonus = defaults.TitleMatchBonus
	}
	if c.MaxQueryTerms == 0 {
		c.MaxQueryTerms = defaults.MaxQueryTerms
	}
	if c.MaxResults == 0 {
		c.MaxResults = defaults.MaxResults
	}
	if c.FallbackMaxResults == 0 {
		c.FallbackMaxResults = defaults.FallbackMaxResults
	}
	if c.ContextRules == nil {
		c.ContextRules = defaults.ContextRules
	}
}
