package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

// Section is a named region of text identified by a heading-like line.
// Start and End are character offsets into the cleaned text; Start points at
// the heading line itself.
type Section struct {
	Title string `json:"title"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// knownSections are common academic section names recognized as headings.
var knownSections = map[string]struct{}{
	"abstract":          {},
	"introduction":      {},
	"background":        {},
	"related work":      {},
	"literature review": {},
	"methodology":       {},
	"methods":           {},
	"results":           {},
	"discussion":        {},
	"conclusion":        {},
	"conclusions":       {},
	"references":        {},
	"acknowledgements":  {},
	"appendix":          {},
}

var numberedHeadingRe = regexp.MustCompile(`^\d+(\.\d+)*[.)]?\s+\S`)

// ExtractSections scans lines for heading-like patterns and groups the text
// that follows each heading into a named section.
func ExtractSections(text string) []Section {
	var sections []Section
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isHeading(trimmed) {
			if n := len(sections); n > 0 {
				sections[n-1].End = offset
			}
			sections = append(sections, Section{Title: trimmed, Start: offset})
		}
		offset += len(line)
	}
	if n := len(sections); n > 0 {
		sections[n-1].End = len(text)
	}
	return sections
}

// isHeading reports whether a trimmed line looks like a section heading:
// a numbered heading, a short ALL-CAPS line, or a known section name.
func isHeading(line string) bool {
	if line == "" || len(line) > 80 {
		return false
	}
	if numberedHeadingRe.MatchString(line) {
		return true
	}
	name := strings.ToLower(strings.TrimSuffix(line, ":"))
	if _, ok := knownSections[name]; ok {
		return true
	}
	return isAllCapsHeading(line)
}

func isAllCapsHeading(line string) bool {
	if len(line) > 60 || len(strings.Fields(line)) > 8 {
		return false
	}
	letters := 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters >= 3
}
