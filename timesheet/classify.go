package timesheet

import "strings"

// =============================================================================
// FIELD / OFFICE CLASSIFICATION
// =============================================================================

// WorkKind is the outcome of classifying a work block's free text.
type WorkKind int

const (
	OfficeWork WorkKind = iota
	FieldWork
)

// Classifier decides whether a block's minutes count as field work.
// Keyword matching on free text is inherently brittle to wording
// drift, so the allocator takes it as a strategy rather than
// hard-coding the list.
type Classifier interface {
	// ClassifyTask classifies regular-window and early minutes from
	// the task description.
	ClassifyTask(task string) WorkKind

	// ClassifyOvertime classifies late (overtime) minutes from the
	// overtime-type tag, falling back to the task description when
	// the tag is empty.
	ClassifyOvertime(tag, task string) WorkKind
}

// KeywordClassifier matches by substring against a keyword list. The
// overtime list extends the base list with the tag spellings that only
// appear in the 残業種別 column.
type KeywordClassifier struct {
	FieldKeywords    []string
	OvertimeKeywords []string
}

// NewKeywordClassifier returns the production keyword set.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		FieldKeywords:    []string{"現場", "夜間作業", "夜工事", "運搬"},
		OvertimeKeywords: []string{"現場残業", "夜工事残業"},
	}
}

func (c *KeywordClassifier) ClassifyTask(task string) WorkKind {
	if containsAny(task, c.FieldKeywords) {
		return FieldWork
	}
	return OfficeWork
}

func (c *KeywordClassifier) ClassifyOvertime(tag, task string) WorkKind {
	text := strings.TrimSpace(tag)
	if text == "" {
		text = task
	}
	if containsAny(text, c.FieldKeywords) || containsAny(text, c.OvertimeKeywords) {
		return FieldWork
	}
	return OfficeWork
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
