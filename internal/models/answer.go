package models

// Source is a citation pointing at the document content an answer was drawn from.
type Source struct {
	Document string `json:"document"`
	Page     int    `json:"page"`
	Excerpt  string `json:"excerpt"`
}

// Answer is the response to a question.
type Answer struct {
	Text       string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	Sources    []Source `json:"sources"`
	// KnowledgeBase names the built-in knowledge base that answered the
	// question, when the predefined-answer pre-filter matched.
	KnowledgeBase string `json:"knowledge_base,omitempty"`
	QueryTime     int64  `json:"query_time_ms,omitempty"`
}
