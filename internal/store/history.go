package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	return r.insert(ctx, tableSessionEvents,
		[]string{
			"session_id", "deck_id", "deck_name", "action",
			"cards_total", "cards_checked", "first_try_correct",
			"ratings_submitted", "restarts", "duration_secs",
		},
		[]any{
			data.SessionID, data.DeckID, data.DeckName, data.Action,
			data.CardsTotal, data.CardsChecked, data.FirstTryCorrect,
			data.RatingsSubmitted, data.Restarts, data.DurationSecs,
		},
	)
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	return r.insert(ctx, tableAnswerEvents,
		[]string{
			"session_id", "deck_id", "card_id", "card_type", "question",
			"response", "correct_answer", "correct", "attempt",
		},
		[]any{
			data.SessionID, data.DeckID, data.CardID, data.CardType, data.Question,
			data.Response, data.CorrectAnswer, data.Correct, data.Attempt,
		},
	)
}

func (r *eventRepo) AppendScoreEvent(ctx context.Context, data ScoreEventData) error {
	return r.insert(ctx, tableScoreEvents,
		[]string{"session_id", "card_id", "score", "success", "error_message"},
		[]any{data.SessionID, data.CardID, data.Score, data.Success, data.ErrorMessage},
	)
}

func (r *eventRepo) QuerySessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummaryRecord, error) {
	b := builder()
	s := b.Select(
		"session_id", "deck_id", "deck_name", "sequence", "timestamp",
		"cards_total", "cards_checked", "first_try_correct",
		"ratings_submitted", "restarts", "duration_secs",
	).
		From(b.Table(tableSessionEvents)).
		Where(entsql.EQ("action", ActionEnd)).
		OrderBy(entsql.Desc("sequence"))
	if opts.DeckID != "" {
		s.Where(entsql.EQ("deck_id", opts.DeckID))
	}
	applyOpts(s, opts)

	var records []SessionSummaryRecord
	err := r.query(ctx, s, func(rows *entsql.Rows) error {
		var rec SessionSummaryRecord
		var ts string
		if err := rows.Scan(
			&rec.SessionID, &rec.DeckID, &rec.DeckName, &rec.Sequence, &ts,
			&rec.CardsTotal, &rec.CardsChecked, &rec.FirstTryCorrect,
			&rec.RatingsSubmitted, &rec.Restarts, &rec.DurationSecs,
		); err != nil {
			return err
		}
		rec.Timestamp = parseTime(ts)
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query session summaries: %w", err)
	}
	return records, nil
}

func (r *eventRepo) QueryAnswerEvents(ctx context.Context, opts QueryOpts) ([]AnswerEventRecord, error) {
	b := builder()
	s := b.Select(
		"session_id", "deck_id", "card_id", "card_type", "question",
		"response", "correct_answer", "correct", "attempt", "sequence", "timestamp",
	).
		From(b.Table(tableAnswerEvents)).
		OrderBy("sequence")
	if opts.SessionID != "" {
		s.Where(entsql.EQ("session_id", opts.SessionID))
	}
	if opts.DeckID != "" {
		s.Where(entsql.EQ("deck_id", opts.DeckID))
	}
	applyOpts(s, opts)

	var records []AnswerEventRecord
	err := r.query(ctx, s, func(rows *entsql.Rows) error {
		var rec AnswerEventRecord
		var ts string
		if err := rows.Scan(
			&rec.SessionID, &rec.DeckID, &rec.CardID, &rec.CardType, &rec.Question,
			&rec.Response, &rec.CorrectAnswer, &rec.Correct, &rec.Attempt, &rec.Sequence, &ts,
		); err != nil {
			return err
		}
		rec.Timestamp = parseTime(ts)
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	return records, nil
}

func (r *eventRepo) DeckAccuracy(ctx context.Context, deckID string) (DeckAccuracy, error) {
	b := builder()
	s := b.Select(
		entsql.As(entsql.Count("*"), "answers"),
		entsql.As("COALESCE(SUM(`correct`), 0)", "correct"),
	).
		From(b.Table(tableAnswerEvents)).
		Where(entsql.EQ("deck_id", deckID))

	var acc DeckAccuracy
	err := r.query(ctx, s, func(rows *entsql.Rows) error {
		return rows.Scan(&acc.Answers, &acc.Correct)
	})
	if err != nil {
		return DeckAccuracy{}, fmt.Errorf("query deck accuracy: %w", err)
	}
	if acc.Answers > 0 {
		acc.Accuracy = float64(acc.Correct) / float64(acc.Answers)
	}
	return acc, nil
}
