package models

import (
	"fmt"
	"strings"
)

// Question represents an ask request.
type Question struct {
	Text string `json:"question"`
}

// Validate ensures the question is non-empty after trimming.
// The trimmed text is written back so downstream code sees the normalized form.
func (q *Question) Validate() error {
	q.Text = strings.TrimSpace(q.Text)
	if q.Text == "" {
		return fmt.Errorf("question cannot be empty")
	}
	return nil
}
