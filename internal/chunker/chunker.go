// Package chunker splits per-page document text into bounded-size,
// sentence-aligned chunks tagged with page numbers and keywords.
package chunker

import (
	"regexp"
	"strings"

	"github.com/hyperjump/kotaeru/internal/models"
)

const (
	// DefaultMaxChunkSize is the chunk content size bound in characters.
	DefaultMaxChunkSize = 500
	// maxKeywordsPerChunk caps the keyword list; the first ones encountered win.
	maxKeywordsPerChunk = 20
)

var sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]+|[^.!?]+$`)

// Chunker splits pages into sentence-aligned chunks.
type Chunker struct {
	maxChunkSize int
}

// NewChunker creates a chunker. A non-positive maxChunkSize selects the default.
func NewChunker(maxChunkSize int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	return &Chunker{maxChunkSize: maxChunkSize}
}

// Chunk splits each page's text on sentence boundaries and accumulates
// sentences into chunks of at most maxChunkSize characters. Chunks never span
// pages. A single sentence longer than the bound becomes its own oversized
// chunk rather than being split mid-sentence. ChunkIndex increases across the
// whole document in reading order.
func (c *Chunker) Chunk(docID string, pages []models.Page) []models.Chunk {
	var chunks []models.Chunk
	index := 0
	for _, page := range pages {
		var buf strings.Builder
		flush := func() {
			content := strings.TrimSpace(buf.String())
			if content == "" {
				return
			}
			chunks = append(chunks, models.Chunk{
				DocumentID: docID,
				Page:       page.Number,
				ChunkIndex: index,
				Content:    content,
				Keywords:   ExtractKeywords(content),
			})
			index++
			buf.Reset()
		}
		for _, sentence := range SplitSentences(page.Text) {
			if buf.Len() > 0 && buf.Len()+1+len(sentence) > c.maxChunkSize {
				flush()
			}
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(sentence)
		}
		flush()
	}
	return chunks
}

// SplitSentences splits text on sentence terminators, keeping the terminator
// with its sentence. A trailing fragment without a terminator is kept too.
func SplitSentences(text string) []string {
	var sentences []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// ExtractKeywords returns up to 20 lowercase tokens of length > 3 from
// content, excluding pure-numeric tokens, in first-seen order.
func ExtractKeywords(content string) []string {
	var keywords []string
	seen := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(content)) {
		token = strings.TrimFunc(token, func(r rune) bool {
			return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
		})
		if len(token) <= 3 || isNumeric(token) {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywordsPerChunk {
			break
		}
	}
	return keywords
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
