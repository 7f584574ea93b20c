package synth

import "strings"

// Field is one labelled line of a corpus block.
type Field struct {
	Label string
	Value string
}

// Record is a single generated corpus entry.
type Record interface {
	// Fields returns the labelled header lines in output order.
	Fields() []Field
	// Narrative returns the multi-paragraph body.
	Narrative() string
}

func joinParagraphs(paragraphs ...string) string {
	return strings.Join(paragraphs, "\n\n")
}

func percent(x float64) string {
	return FormatFloat(x) + "%"
}
