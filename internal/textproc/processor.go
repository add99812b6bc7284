// Package textproc cleans raw extracted document text: encoding repair, OCR
// error correction, whitespace and formatting normalization, optional acronym
// expansion and section extraction, plus a heuristic quality score.
package textproc

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// Options enables or disables individual cleaning stages.
// Stages always run in a fixed order regardless of which are enabled.
type Options struct {
	FixEncoding           bool `yaml:"fix_encoding"`
	CorrectOCRErrors      bool `yaml:"correct_ocr_errors"`
	NormalizeWhitespace   bool `yaml:"normalize_whitespace"`
	StandardizeFormatting bool `yaml:"standardize_formatting"`
	ExpandAcronyms        bool `yaml:"expand_acronyms"`
	ExtractSections       bool `yaml:"extract_sections"`
}

// DefaultOptions enables the cleaning stages and leaves acronym expansion and
// section extraction off.
func DefaultOptions() Options {
	return Options{
		FixEncoding:           true,
		CorrectOCRErrors:      true,
		NormalizeWhitespace:   true,
		StandardizeFormatting: true,
	}
}

// Result is the outcome of processing one piece of text.
type Result struct {
	CleanedText  string    `json:"cleaned_text"`
	Improvements []string  `json:"improvements"`
	QualityScore float64   `json:"quality_score"`
	Sections     []Section `json:"sections,omitempty"`
}

// Processor cleans raw text. Safe for concurrent use.
type Processor struct {
	opts     Options
	acronyms map[string]string
	logger   *zap.Logger // optional; when set, logs stage failures
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = l }
}

// WithAcronyms replaces the built-in acronym expansion table.
func WithAcronyms(table map[string]string) ProcessorOption {
	return func(p *Processor) { p.acronyms = table }
}

// NewProcessor creates a processor with the given options.
func NewProcessor(opts Options, popts ...ProcessorOption) *Processor {
	p := &Processor{
		opts:     opts,
		acronyms: defaultAcronyms,
	}
	for _, opt := range popts {
		opt(p)
	}
	return p
}

// Process runs the enabled cleaning stages over raw and returns the cleaned
// text, the list of improvements applied, and a quality score in [0,1].
// Processing never fails: on an internal panic the original text is returned
// unmodified with a 0.5 quality score and a single error note.
func (p *Processor) Process(raw string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			if p.logger != nil {
				p.logger.Warn("text processing panicked, returning original text", zap.Any("panic", r))
			}
			res = Result{
				CleanedText:  raw,
				Improvements: []string{"an error occurred during processing; original text returned"},
				QualityScore: 0.5,
			}
		}
	}()

	text := raw
	var improvements []string

	apply := func(enabled bool, name string, stage func(string) string) {
		if !enabled {
			return
		}
		cleaned := stage(text)
		if cleaned != text {
			improvements = append(improvements, name)
			text = cleaned
		}
	}

	apply(p.opts.FixEncoding, "fixed character encoding", fixEncoding)
	apply(p.opts.CorrectOCRErrors, "corrected OCR errors", correctOCRErrors)
	apply(p.opts.NormalizeWhitespace, "normalized whitespace", normalizeWhitespace)
	apply(p.opts.StandardizeFormatting, "standardized formatting", standardizeFormatting)

	if p.opts.ExpandAcronyms {
		expanded, n := p.expandAcronyms(text)
		if n > 0 {
			improvements = append(improvements, fmt.Sprintf("expanded %d acronyms", n))
			text = expanded
		}
	}

	res = Result{
		CleanedText:  text,
		Improvements: improvements,
		QualityScore: QualityScore(raw, text),
	}
	if p.opts.ExtractSections {
		res.Sections = ExtractSections(text)
	}
	return res
}

// mojibake lists common UTF-8-decoded-as-Latin-1 sequences and their intended
// characters. Applied in order.
var mojibake = []struct{ bad, good string }{
	{"â€™", "'"},
	{"â€œ", "“"},
	{"â€", "”"},
	{"â€“", "–"},
	{"â€”", "—"},
	{"â€¦", "…"},
	{"Ã©", "é"},
	{"Ã¨", "è"},
	{"Ã¤", "ä"},
	{"Ã¶", "ö"},
	{"Ã¼", "ü"},
	{"Ã±", "ñ"},
	{"Â ", " "},
}

func fixEncoding(text string) string {
	text = strings.ToValidUTF8(text, "")
	for _, m := range mojibake {
		text = strings.ReplaceAll(text, m.bad, m.good)
	}
	return norm.NFC.String(text)
}

// ligatures maps single-glyph ligatures that OCR engines emit to letter pairs.
var ligatures = []struct{ bad, good string }{
	{"ﬀ", "ff"},
	{"ﬁ", "fi"},
	{"ﬂ", "fl"},
	{"ﬃ", "ffi"},
	{"ﬄ", "ffl"},
	{"ﬅ", "st"},
	{"ﬆ", "st"},
}

var (
	hyphenBreakRe = regexp.MustCompile(`([a-zA-Z])-[ \t]*\n[ \t]*([a-z])`)
	spacedDigitRe = regexp.MustCompile(`\b\d( \d)+\b`)
)

func correctOCRErrors(text string) string {
	for _, l := range ligatures {
		text = strings.ReplaceAll(text, l.bad, l.good)
	}
	// Rejoin words hyphenated across line breaks.
	text = hyphenBreakRe.ReplaceAllString(text, "$1$2")
	// Collapse digit sequences broken into single spaced digits ("2 0 2 4").
	text = spacedDigitRe.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, " ", "")
	})
	return text
}

var (
	spaceRunRe  = regexp.MustCompile(`[ \t]+`)
	lineEdgeRe  = regexp.MustCompile(`(?m)[ \t]+$|^[ \t]+`)
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
)

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = spaceRunRe.ReplaceAllString(text, " ")
	text = lineEdgeRe.ReplaceAllString(text, "")
	text = blankRunsRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// glyphs maps typographic glyph variants to their plain equivalents.
var glyphs = []struct{ bad, good string }{
	{"‘", "'"},
	{"’", "'"},
	{"‚", "'"},
	{"“", `"`},
	{"”", `"`},
	{"„", `"`},
	{"–", "-"},
	{"—", "-"},
	{"―", "-"},
	{"…", "..."},
	{"•", "-"},
	{"▪", "-"},
	{"●", "-"},
	{"◦", "-"},
	{" ", " "},
}

var (
	spaceBeforePunctRe = regexp.MustCompile(` +([.,;:!?)])`)
	punctNoSpaceRe     = regexp.MustCompile(`([,;:!?])([A-Za-z])`)
)

func standardizeFormatting(text string) string {
	for _, g := range glyphs {
		text = strings.ReplaceAll(text, g.bad, g.good)
	}
	text = spaceBeforePunctRe.ReplaceAllString(text, "$1")
	text = punctNoSpaceRe.ReplaceAllString(text, "$1 $2")
	return text
}

// defaultAcronyms is the built-in expansion table. Replaceable via WithAcronyms.
var defaultAcronyms = map[string]string{
	"AI":  "artificial intelligence",
	"API": "application programming interface",
	"GPU": "graphics processing unit",
	"ML":  "machine learning",
	"NLP": "natural language processing",
	"OCR": "optical character recognition",
}

// expandAcronyms expands the first standalone occurrence of each known acronym
// to "expansion (ACRONYM)" and subsequent standalone occurrences to the
// expansion alone. Occurrences already wrapped in parentheses are left as-is,
// which makes the expansion idempotent. Returns the number of replacements.
func (p *Processor) expandAcronyms(text string) (string, int) {
	total := 0
	for acr, expansion := range p.acronyms {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(acr) + `\b`)
		locs := re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		seenExpansion := strings.Contains(strings.ToLower(text), strings.ToLower(expansion))
		var b strings.Builder
		last := 0
		replaced := 0
		for _, loc := range locs {
			start, end := loc[0], loc[1]
			if start > 0 && text[start-1] == '(' && end < len(text) && text[end] == ')' {
				continue
			}
			b.WriteString(text[last:start])
			if replaced == 0 && !seenExpansion {
				b.WriteString(expansion + " (" + acr + ")")
			} else {
				b.WriteString(expansion)
			}
			last = end
			replaced++
		}
		if replaced == 0 {
			continue
		}
		b.WriteString(text[last:])
		text = b.String()
		total += replaced
	}
	return text, total
}
