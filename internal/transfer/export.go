package transfer

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/flashdeck/internal/card"
)

// CardLister is the part of the API client an export needs.
type CardLister interface {
	ListFlashcards(ctx context.Context, deckID string) ([]card.Flashcard, error)
}

// ExportDeck writes every card of deckID to w as an xlsx workbook and
// returns the number of cards written.
func ExportDeck(ctx context.Context, client CardLister, deckID string, w io.Writer) (int, error) {
	cards, err := client.ListFlashcards(ctx, deckID)
	if err != nil {
		return 0, fmt.Errorf("list flashcards: %w", err)
	}
	if err := Write(w, cards); err != nil {
		return 0, err
	}
	return len(cards), nil
}

// Write renders cards into a single-sheet workbook that Parse reads back.
func Write(w io.Writer, cards []card.Flashcard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(exportColumns))
	for i, c := range exportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for i, c := range cards {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := cardRow(c)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write card %s: %w", c.ID, err)
		}
	}
	_ = f.SetColWidth(SheetName, "B", "C", 48)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cardRow lays a card out in exportColumns order.
func cardRow(c card.Flashcard) []any {
	if c.Answer == nil {
		c = c.Normalized()
	}
	cells := map[string]string{
		ColType:     string(c.Type),
		ColQuestion: c.Question,
		ColID:       c.ID,
	}
	if c.Answer != nil {
		cells[ColExplanation] = c.Answer.Explain()
	}
	switch a := c.Answer.(type) {
	case card.ChoiceAnswer:
		for i, o := range a.Options {
			if i < len(optionColumns) {
				cells[optionColumns[i]] = o
			}
		}
		cells[ColCorrect] = a.Correct
	case card.TrueFalseAnswer:
		cells[ColCorrect] = a.Correct
	case card.BlankAnswer:
		cells[ColCorrect] = a.Correct
	case card.TextAnswer:
		cells[ColAnswer] = a.Text
	}

	row := make([]any, len(exportColumns))
	for i, col := range exportColumns {
		row[i] = cells[col]
	}
	return row
}
