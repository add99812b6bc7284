package answer

// Config holds answer synthesis constants.
type Config struct {
	// MaxSources caps how many ranked chunks are cited.
	MaxSources int `yaml:"max_sources"` // default: 3
	// ExcerptLength is the source excerpt cap in characters.
	ExcerptLength int `yaml:"excerpt_length"` // default: 150
	// SupportingThreshold: a second chunk contributes a supporting sentence
	// when its score is at least this fraction of the top score.
	SupportingThreshold float64 `yaml:"supporting_threshold"` // default: 0.7
	// CloseSecondThreshold: confidence gets a bonus when the runner-up scores
	// at least this fraction of the top score.
	CloseSecondThreshold float64 `yaml:"close_second_threshold"` // default: 0.8
	// HighConfidence and ModerateConfidence are the annotation bands.
	HighConfidence     float64 `yaml:"high_confidence"`     // default: 0.7
	ModerateConfidence float64 `yaml:"moderate_confidence"` // default: 0.4
}

// DefaultConfig returns the default synthesis configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxSources:           3,
		ExcerptLength:        150,
		SupportingThreshold:  0.7,
		CloseSecondThreshold: 0.8,
		HighConfidence:       0.7,
		ModerateConfidence:   0.4,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.MaxSources == 0 {
		c.MaxSources = defaults.MaxSources
	}
	if c.ExcerptLength == 0 {
		c.ExcerptLength = defaults.ExcerptLength
	}
	if c.SupportingThreshold == 0 {
		c.SupportingThreshold = defaults.SupportingThreshold
	}
	if c.CloseSecondThreshold == 0 {
		c.CloseSecondThreshold = defaults.CloseSecondThreshold
	}
	if c.HighConfidence == 0 {
		c.HighConfidence = defaults.HighConfidence
	}
	if c.ModerateConfidence == 0 {
		c.ModerateConfidence = defaults.ModerateConfidence
	}
}
