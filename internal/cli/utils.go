// Package cli renders answers, document lists, and FAQ items for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hyperjump/kotaeru/internal/faq"
	"github.com/hyperjump/kotaeru/internal/models"
	"github.com/hyperjump/kotaeru/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// FormatText renders human-readable output. The default.
	FormatText OutputFormat = "text"
	// FormatJSON renders indented JSON.
	FormatJSON OutputFormat = "json"
)

// WriteAnswer writes an answer in the requested format. Unknown formats are
// treated as text.
func WriteAnswer(w io.Writer, ans *models.Answer, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, ans)
	}
	fmt.Fprintln(w, ans.Text)
	fmt.Fprintf(w, "\nConfidence: %.0f%%\n", ans.Confidence*100)
	if ans.KnowledgeBase != "" {
		fmt.Fprintf(w, "Knowledge base: %s\n", ans.KnowledgeBase)
	}
	if len(ans.Sources) > 0 {
		fmt.Fprintln(w, "Sources:")
		for i, src := range ans.Sources {
			fmt.Fprintf(w, "  %d. %s, page %d\n", i+1, src.Document, src.Page)
			if src.Excerpt != "" {
				fmt.Fprintf(w, "     %s\n", utils.Truncate(src.Excerpt, 120))
			}
		}
	}
	if ans.QueryTime > 0 {
		fmt.Fprintf(w, "(%d ms)\n", ans.QueryTime)
	}
	return nil
}

// WriteDocumentList writes a document listing in the requested format.
func WriteDocumentList(w io.Writer, docs []*models.Document, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, docs)
	}
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents uploaded.")
		return nil
	}
	fmt.Fprintf(w, "%d document(s):\n", len(docs))
	for _, doc := range docs {
		fmt.Fprintf(w, "  %s  %s\n", doc.ID, doc.Name)
		fmt.Fprintf(w, "    status: %s, pages: %d, size: %d bytes, quality: %.0f%%\n",
			doc.Status, doc.PageCount, doc.SizeBytes, doc.Quality*100)
		if doc.ErrorNote != "" {
			fmt.Fprintf(w, "    note: %s\n", doc.ErrorNote)
		}
	}
	return nil
}

// WriteFAQ writes FAQ items in the requested format.
func WriteFAQ(w io.Writer, items []*models.FAQItem, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No FAQ entries yet.")
		return nil
	}
	for i, item := range items {
		fmt.Fprintf(w, "%d. [%s] %s (asked %d times)\n", i+1, item.Category, item.Question, item.TimesAsked)
	}
	return nil
}

// WriteAnalytics writes question analytics in the requested format.
func WriteAnalytics(w io.Writer, a faq.Analytics, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, a)
	}
	fmt.Fprintf(w, "Questions asked: %d\n", a.TotalQuestions)
	fmt.Fprintf(w, "FAQ entries: %d\n", a.FAQCount)
	if len(a.Categories) > 0 {
		fmt.Fprintln(w, "By category:")
		for category, count := range a.Categories {
			fmt.Fprintf(w, "  %s: %d\n", category, count)
		}
	}
	if len(a.TopKeywords) > 0 {
		fmt.Fprintln(w, "Top keywords:")
		for _, kw := range a.TopKeywords {
			fmt.Fprintf(w, "  %s (%d)\n", kw.Keyword, kw.Count)
		}
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
