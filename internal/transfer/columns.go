// Package transfer moves flashcards between decks and xlsx workbooks.
package transfer

import (
	"strings"
)

// Column headers of the flashcard sheet, in export order.
const (
	ColType        = "Type"
	ColQuestion    = "Question"
	ColAnswer      = "Answer"
	ColOptionA     = "Option A"
	ColOptionB     = "Option B"
	ColOptionC     = "Option C"
	ColOptionD     = "Option D"
	ColCorrect     = "Correct Answer"
	ColExplanation = "Explanation"
	ColID          = "ID"
)

// SheetName is the sheet written on export. Import reads the first sheet
// whatever its name.
const SheetName = "Flashcards"

var exportColumns = []string{
	ColType, ColQuestion, ColAnswer,
	ColOptionA, ColOptionB, ColOptionC, ColOptionD,
	ColCorrect, ColExplanation, ColID,
}

var optionColumns = []string{ColOptionA, ColOptionB, ColOptionC, ColOptionD}

// headerKey folds a header cell so "Correct answer", "correct_answer" and
// " CORRECT ANSWER " all match.
func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), "_")
}

// headerAliases lets sheets written for the web app import unchanged.
var headerAliases = map[string]string{
	"card_type":     headerKey(ColType),
	"question_type": headerKey(ColType),
	"front":         headerKey(ColQuestion),
	"question_text": headerKey(ColQuestion),
	"back":          headerKey(ColAnswer),
	"correct":       headerKey(ColCorrect),
}

// headerMap indexes the header row by folded column name.
type headerMap map[string]int

func newHeaderMap(row []string) headerMap {
	m := make(headerMap, len(row))
	for i, h := range row {
		key := headerKey(h)
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		if _, dup := m[key]; key != "" && !dup {
			m[key] = i
		}
	}
	return m
}

func (m headerMap) has(col string) bool {
	_, ok := m[headerKey(col)]
	return ok
}

// get returns the trimmed cell of col in row, or "".
func (m headerMap) get(row []string, col string) string {
	i, ok := m[headerKey(col)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
