package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	Before    int64     // sequence < Before
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
	SessionID string    // only events of this session
	DeckID    string    // only events of this deck
}

// SessionEventData captures a session start or end.
type SessionEventData struct {
	SessionID        string
	DeckID           string
	DeckName         string
	Action           string // "start" or "end"
	CardsTotal       int
	CardsChecked     int
	FirstTryCorrect  int
	RatingsSubmitted int
	Restarts         int
	DurationSecs     int
}

// Session actions.
const (
	ActionStart = "start"
	ActionEnd   = "end"
)

// AnswerEventData captures one evaluated response.
type AnswerEventData struct {
	SessionID     string
	DeckID        string
	CardID        string
	CardType      string
	Question      string
	Response      string
	CorrectAnswer string
	Correct       bool
	Attempt       int
}

// ScoreEventData captures one difficulty rating submission.
type ScoreEventData struct {
	SessionID    string
	CardID       string
	Score        int
	Success      bool
	ErrorMessage string
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// SessionSummaryRecord is a finished session for history views.
type SessionSummaryRecord struct {
	SessionID        string
	DeckID           string
	DeckName         string
	Sequence         int64
	Timestamp        time.Time
	CardsTotal       int
	CardsChecked     int
	FirstTryCorrect  int
	RatingsSubmitted int
	Restarts         int
	DurationSecs     int
}

// AnswerEventRecord is a stored answer event.
type AnswerEventRecord struct {
	AnswerEventData
	Sequence  int64
	Timestamp time.Time
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	LLMRequestEventData
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// LLMUsage aggregates LLM requests by purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// DeckAccuracy summarizes stored answers for a deck.
type DeckAccuracy struct {
	Answers  int
	Correct  int
	Accuracy float64 // Correct / Answers
}

// EventRepo provides append and query access to study history.
type EventRepo interface {
	AppendSessionEvent(ctx context.Context, data SessionEventData) error
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error
	AppendScoreEvent(ctx context.Context, data ScoreEventData) error

	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QuerySessionSummaries returns finished sessions, newest first.
	QuerySessionSummaries(ctx context.Context, opts QueryOpts) ([]SessionSummaryRecord, error)

	// QueryAnswerEvents returns answer events in sequence order.
	QueryAnswerEvents(ctx context.Context, opts QueryOpts) ([]AnswerEventRecord, error)

	// DeckAccuracy returns answer totals for a deck.
	DeckAccuracy(ctx context.Context, deckID string) (DeckAccuracy, error)

	// QueryLLMEvents returns LLM request events, newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one LLM request event, or nil if missing.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
