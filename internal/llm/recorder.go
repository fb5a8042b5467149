package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/flashdeck/internal/logging"
	"github.com/abhisek/flashdeck/internal/store"
)

// RecordingProvider stores every request it forwards as an LLM request
// event. A failed write is logged and never fails the request.
type RecordingProvider struct {
	inner    Provider
	provider string
	repo     store.EventRepo
	logger   *slog.Logger
}

func WithRecorder(p Provider, providerName string, repo store.EventRepo, logger *slog.Logger) Provider {
	return &RecordingProvider{
		inner:    p,
		provider: providerName,
		repo:     repo,
		logger:   logging.OrDiscard(logger),
	}
}

func (r *RecordingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := r.inner.Generate(ctx, req)

	data := store.LLMRequestEventData{
		Provider:    r.provider,
		Model:       r.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	if resp != nil {
		data.Model = resp.Model
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// The request context may already be done; the record should still land.
	if werr := r.repo.AppendLLMRequest(context.WithoutCancel(ctx), data); werr != nil {
		r.logger.Warn("record llm request", "purpose", data.Purpose, "error", werr)
	}
	r.logger.Debug("llm request",
		"provider", r.provider,
		"model", data.Model,
		"purpose", data.Purpose,
		"latency_ms", data.LatencyMs,
		"ok", data.Success)

	return resp, err
}

func (r *RecordingProvider) ModelID() string {
	return r.inner.ModelID()
}

// transcript renders a request as tagged plain text for later inspection.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
