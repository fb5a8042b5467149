package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	return r.insert(ctx, tableLLMEvents,
		[]string{
			"provider", "model", "purpose", "input_tokens", "output_tokens",
			"latency_ms", "success", "error_message", "request_body", "response_body",
		},
		[]any{
			data.Provider, data.Model, data.Purpose, data.InputTokens, data.OutputTokens,
			data.LatencyMs, data.Success, data.ErrorMessage, data.RequestBody, data.ResponseBody,
		},
	)
}

var llmColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success",
	"error_message", "request_body", "response_body",
}

func scanLLMEvent(rows *entsql.Rows) (LLMRequestEventRecord, error) {
	var rec LLMRequestEventRecord
	var ts string
	err := rows.Scan(
		&rec.ID, &rec.Sequence, &ts, &rec.Provider, &rec.Model, &rec.Purpose,
		&rec.InputTokens, &rec.OutputTokens, &rec.LatencyMs, &rec.Success,
		&rec.ErrorMessage, &rec.RequestBody, &rec.ResponseBody,
	)
	rec.Timestamp = parseTime(ts)
	return rec, err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error) {
	b := builder()
	s := b.Select(llmColumns...).
		From(b.Table(tableLLMEvents)).
		OrderBy(entsql.Desc("sequence"))
	applyOpts(s, opts)

	var records []LLMRequestEventRecord
	err := r.query(ctx, s, func(rows *entsql.Rows) error {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	return records, nil
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error) {
	b := builder()
	s := b.Select(llmColumns...).
		From(b.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id)).
		Limit(1)

	var found *LLMRequestEventRecord
	err := r.query(ctx, s, func(rows *entsql.Rows) error {
		rec, err := scanLLMEvent(rows)
		if err != nil {
			return err
		}
		found = &rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return found, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	usage, err := r.llmUsage(ctx, "purpose")
	if err != nil {
		return nil, fmt.Errorf("query usage by purpose: %w", err)
	}
	return usage, nil
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	usage, err := r.llmUsage(ctx, "model")
	if err != nil {
		return nil, fmt.Errorf("query usage by model: %w", err)
	}
	return usage, nil
}

// llmUsage aggregates LLM events grouped by column.
func (r *eventRepo) llmUsage(ctx context.Context, column string) ([]LLMUsage, error) {
	b := builder()
	s := b.Select(
		column,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("COALESCE(SUM(CASE WHEN `success` THEN 0 ELSE 1 END), 0)", "failures"),
		entsql.As("COALESCE(SUM(`input_tokens`), 0)", "input_tokens"),
		entsql.As("COALESCE(SUM(`output_tokens`), 0)", "output_tokens"),
		entsql.As("CAST(COALESCE(AVG(`latency_ms`), 0) AS INTEGER)", "avg_latency_ms"),
	).
		From(b.Table(tableLLMEvents)).
		GroupBy(column).
		OrderBy(column)

	var usage []LLMUsage
	err := r.query(ctx, s, func(rows *entsql.Rows) error {
		var u LLMUsage
		var key string
		if err := rows.Scan(&key, &u.Calls, &u.Failures, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return err
		}
		if column == "model" {
			u.Model = key
		} else {
			u.Purpose = key
		}
		usage = append(usage, u)
		return nil
	})
	return usage, err
}
