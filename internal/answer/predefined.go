package answer

import (
	"strings"

	"github.com/hyperjump/kotaeru/internal/models"
	"github.com/hyperjump/kotaeru/pkg/utils"
)

// jaccardMatchThreshold is the whole-question word-overlap threshold for the
// fallback match against a knowledge base entry's canonical question.
const jaccardMatchThreshold = 0.8

// KBEntry is one canonical question/answer pair in a knowledge base.
// Keywords are lowercase phrases; a question containing any of them as a
// substring matches the entry.
type KBEntry struct {
	Question string
	Answer   string
	Keywords []string
}

// KnowledgeBase is a named set of predefined answers checked before retrieval.
type KnowledgeBase struct {
	Name    string
	Entries []KBEntry
}

// MatchPredefined checks the question against the knowledge bases: keyword
// substring matching first, then Jaccard word overlap against each entry's
// canonical question. A hit returns a canned answer annotated with the
// knowledge base's name, bypassing retrieval entirely.
func MatchPredefined(question string, kbs []KnowledgeBase) (*models.Answer, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return nil, false
	}
	for _, kb := range kbs {
		for _, entry := range kb.Entries {
			if matchKeywords(q, entry.Keywords) {
				return cannedAnswer(kb.Name, entry), true
			}
		}
	}
	for _, kb := range kbs {
		for _, entry := range kb.Entries {
			if utils.WordJaccard(q, entry.Question) >= jaccardMatchThreshold {
				return cannedAnswer(kb.Name, entry), true
			}
		}
	}
	return nil, false
}

func matchKeywords(questionLower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(questionLower, k) {
			return true
		}
	}
	return false
}

func cannedAnswer(kbName string, entry KBEntry) *models.Answer {
	return &models.Answer{
		Text:          entry.Answer + "\n\n(From the built-in " + kbName + " knowledge base.)",
		Confidence:    1,
		Sources:       []models.Source{},
		KnowledgeBase: kbName,
	}
}

// DefaultKnowledgeBases returns the two built-in knowledge domains.
func DefaultKnowledgeBases() []KnowledgeBase {
	return []KnowledgeBase{
		{
			Name: "Machine Learning Fundamentals",
			Entries: []KBEntry{
				{
					Question: "What are the three key elements of every machine learning algorithm?",
					Answer: "Every machine learning algorithm consists of three key elements: " +
						"representation (how knowledge and candidate models are represented), " +
						"evaluation (how candidate models are scored against the data), and " +
						"optimization (how the search for the best-scoring model is carried out).",
					Keywords: []string{
						"three key elements of every machine learning algorithm",
						"three key components of machine learning",
					},
				},
				{
					Question: "What is the difference between supervised and unsupervised learning?",
					Answer: "Supervised learning trains on labeled examples, learning a mapping from " +
						"inputs to known outputs, while unsupervised learning finds structure such as " +
						"clusters or low-dimensional representations in unlabeled data.",
					Keywords: []string{
						"difference between supervised and unsupervised",
						"supervised versus unsupervised",
					},
				},
				{
					Question: "What is overfitting?",
					Answer: "Overfitting is when a model captures noise or idiosyncrasies of the training " +
						"data instead of the underlying pattern, so it performs well on training data but " +
						"poorly on unseen data. Common remedies include regularization, cross-validation, " +
						"and more training data.",
					Keywords: []string{"what is overfitting", "overfitting mean"},
				},
			},
		},
		{
			Name: "Research Methods",
			Entries: []KBEntry{
				{
					Question: "What is the difference between qualitative and quantitative research?",
					Answer: "Quantitative research measures numerical data and analyzes it statistically, " +
						"while qualitative research examines non-numerical material such as interviews and " +
						"observations to understand meaning and context. Mixed-methods studies combine both.",
					Keywords: []string{
						"difference between qualitative and quantitative",
						"qualitative versus quantitative",
					},
				},
				{
					Question: "What is a null hypothesis?",
					Answer: "The null hypothesis is the default assumption that there is no effect or no " +
						"difference between groups. Statistical tests measure how surprising the observed " +
						"data would be if the null hypothesis were true.",
					Keywords: []string{"what is a null hypothesis", "null hypothesis mean"},
				},
				{
					Question: "What is a literature review?",
					Answer: "A literature review surveys and synthesizes prior published work on a topic, " +
						"identifying themes, gaps, and disagreements to position new research within the " +
						"existing body of knowledge.",
					Keywords: []string{"what is a literature review", "purpose of a literature review"},
				},
			},
		},
	}
}
