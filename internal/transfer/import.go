package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/flashdeck/internal/api"
	"github.com/abhisek/flashdeck/internal/authoring"
	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/llm"
	"github.com/abhisek/flashdeck/internal/logging"
)

// ErrNoRows is returned for a workbook without a header and data row.
var ErrNoRows = errors.New("workbook must have a header row and at least one data row")

// RowError is a problem with one spreadsheet row. Row is 1-based as shown
// in spreadsheet programs.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, %s: %s", e.Row, e.Column, e.Message)
}

// Row is a parsed card ready to be created.
type Row struct {
	Line     int
	Question string
	Type     card.Type
	Payload  json.RawMessage
}

// ParseResult is the outcome of reading a workbook.
type ParseResult struct {
	TotalRows int
	Rows      []Row
	Errors    []RowError
}

// Parse reads the first sheet of an xlsx workbook. Rows with problems are
// reported in Errors and left out of Rows; blank rows are skipped.
func Parse(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	hm := newHeaderMap(rows[0])
	for _, col := range []string{ColType, ColQuestion} {
		if !hm.has(col) {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	res := &ParseResult{}
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		res.TotalRows++
		parsed, rowErrs := parseRow(hm, row, i+2)
		if len(rowErrs) > 0 {
			res.Errors = append(res.Errors, rowErrs...)
			continue
		}
		res.Rows = append(res.Rows, parsed)
	}
	return res, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseType accepts the stored type names, the display names and a few
// common abbreviations such as "mc" and "tf". Empty means basic.
func ParseType(s string) (card.Type, bool) {
	key := headerKey(s)
	for _, t := range card.AllTypes {
		if key == string(t) || key == headerKey(t.DisplayName()) {
			return t, true
		}
	}
	switch key {
	case "", "qa":
		return card.TypeBasic, true
	case "mc", "mcq", "multiple":
		return card.TypeMultipleChoice, true
	case "tf", "true/false", "true_/_false":
		return card.TypeTrueFalse, true
	case "fib", "cloze":
		return card.TypeFillInBlank, true
	}
	return "", false
}

func parseRow(hm headerMap, row []string, line int) (Row, []RowError) {
	var errs []RowError
	question := hm.get(row, ColQuestion)
	if question == "" {
		errs = append(errs, RowError{Row: line, Column: ColQuestion, Message: "question is required"})
	}
	rawType := hm.get(row, ColType)
	t, ok := ParseType(rawType)
	if !ok {
		errs = append(errs, RowError{Row: line, Column: ColType, Message: "unknown card type", Value: rawType})
		return Row{}, errs
	}

	f := Fields{
		Answer:      hm.get(row, ColAnswer),
		Correct:     hm.get(row, ColCorrect),
		Explanation: hm.get(row, ColExplanation),
	}
	for _, col := range optionColumns {
		if o := hm.get(row, col); o != "" {
			f.Options = append(f.Options, o)
		}
	}

	raw, payloadErrs := BuildPayload(question, t, f)
	for _, e := range payloadErrs {
		e.Row = line
		errs = append(errs, e)
	}
	if len(errs) > 0 {
		return Row{}, errs
	}
	return Row{Line: line, Question: question, Type: t, Payload: raw}, nil
}

// Fields are the answer cells of one card.
type Fields struct {
	Answer      string
	Options     []string
	Correct     string
	Explanation string
}

// BuildPayload checks f for a card of type t and returns the canonical
// answer payload. Problems name the sheet column at fault; Row is left
// zero for the caller to fill in.
func BuildPayload(question string, t card.Type, f Fields) (json.RawMessage, []RowError) {
	var errs []RowError
	fail := func(col, msg, value string) {
		errs = append(errs, RowError{Column: col, Message: msg, Value: value})
	}

	correct := f.Correct
	var payload map[string]any
	switch t {
	case card.TypeMultipleChoice:
		if len(f.Options) < 2 {
			fail(ColOptionA, "multiple choice needs at least two options", "")
		}
		if correct == "" {
			fail(ColCorrect, "correct answer is required", "")
		}
		payload = map[string]any{"options": f.Options, "correct_answer": correct, "explanation": f.Explanation}
	case card.TypeTrueFalse:
		payload = map[string]any{"correct_answer": correct, "explanation": f.Explanation}
	case card.TypeFillInBlank:
		if correct == "" {
			correct = f.Answer
		}
		if correct == "" {
			fail(ColCorrect, "correct answer is required", "")
		}
		if question != "" && card.BlankCount(question) == 0 {
			fail(ColQuestion, "question has no "+card.BlankMarker+" blank", question)
		}
		payload = map[string]any{"correct_answer": correct, "explanation": f.Explanation}
	case card.TypeBasic, card.TypeDefinition:
		answer := f.Answer
		if answer == "" {
			answer = correct
		}
		if answer == "" {
			fail(ColAnswer, "answer is required", "")
		}
		payload = map[string]any{"answer": answer, "explanation": f.Explanation}
	default:
		fail(ColType, "unknown card type", string(t))
	}
	if len(errs) > 0 {
		return nil, errs
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		fail("", err.Error(), "")
		return nil, errs
	}
	if p := card.Problem(card.Normalize(raw, t)); p != "" {
		fail(ColCorrect, p, correct)
		return nil, errs
	}
	// Normalization canonicalizes letters and t/f; store the canonical form.
	raw = canonical(raw, t)
	if err := llm.ValidateJSON(authoring.SchemaFor(t), raw); err != nil {
		fail("", err.Error(), "")
		return nil, errs
	}
	return raw, nil
}

// canonical rewrites correct_answer to the normalized value, so "b" or
// "t" in the sheet is stored as the option text or "True".
func canonical(raw json.RawMessage, t card.Type) json.RawMessage {
	var correct string
	switch a := card.Normalize(raw, t).(type) {
	case card.ChoiceAnswer:
		correct = a.Correct
	case card.TrueFalseAnswer:
		correct = a.Correct
	default:
		return raw
	}
	var m map[string]any
	if json.Unmarshal(raw, &m) != nil {
		return raw
	}
	m["correct_answer"] = correct
	out, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return out
}

// CardCreator is the part of the API client an import needs.
type CardCreator interface {
	CreateFlashcard(ctx context.Context, in api.FlashcardInput) (*card.Flashcard, error)
}

// ImportResult summarizes an import.
type ImportResult struct {
	TotalRows    int
	SuccessCount int
	ErrorCount   int
	Errors       []RowError
	Created      []card.Flashcard
}

// Importer uploads parsed rows as cards.
type Importer struct {
	client      CardCreator
	logger      *slog.Logger
	concurrency int
}

func NewImporter(client CardCreator, logger *slog.Logger) *Importer {
	return &Importer{client: client, logger: logging.OrDiscard(logger), concurrency: 4}
}

// Import parses r and creates every valid row in deckID. A failed upload
// is reported per row and does not stop the others. With dryRun nothing
// is sent.
func (im *Importer) Import(ctx context.Context, deckID string, r io.Reader, dryRun bool) (*ImportResult, error) {
	parsed, err := Parse(r)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{
		TotalRows: parsed.TotalRows,
		Errors:    parsed.Errors,
	}
	if dryRun {
		res.SuccessCount = len(parsed.Rows)
		res.ErrorCount = parsed.TotalRows - len(parsed.Rows)
		return res, nil
	}

	var mu sync.Mutex
	created := make(map[int]card.Flashcard, len(parsed.Rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.concurrency)
	for _, row := range parsed.Rows {
		g.Go(func() error {
			c, err := im.client.CreateFlashcard(gctx, api.FlashcardInput{
				DeckID:   deckID,
				Question: row.Question,
				Type:     row.Type,
				Answer:   row.Payload,
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				res.Errors = append(res.Errors, RowError{Row: row.Line, Message: err.Error()})
				return nil
			}
			created[row.Line] = *c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make([]int, 0, len(created))
	for line := range created {
		lines = append(lines, line)
	}
	sort.Ints(lines)
	for _, line := range lines {
		res.Created = append(res.Created, created[line])
	}
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Row < res.Errors[j].Row })

	res.SuccessCount = len(res.Created)
	res.ErrorCount = res.TotalRows - res.SuccessCount
	im.logger.Info("xlsx import completed",
		"deck_id", deckID,
		"total_rows", res.TotalRows,
		"success_count", res.SuccessCount,
		"error_count", res.ErrorCount)
	return res, nil
}
