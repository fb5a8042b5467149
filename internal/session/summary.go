package session

import "time"

// SessionSummary holds the data displayed when a session finishes.
type SessionSummary struct {
	DeckID           string
	Duration         time.Duration
	TotalCards       int
	CardsChecked     int
	FirstTryCorrect  int
	Accuracy         float64 // FirstTryCorrect / CardsChecked
	RatingsSubmitted int
	RatingFailures   int
	Ratings          map[int]int
	Restarts         int
}

// BuildSummary creates a SessionSummary from the current session state.
func BuildSummary(state *SessionState) *SessionSummary {
	var accuracy float64
	if state.Stats.CardsChecked > 0 {
		accuracy = float64(state.Stats.FirstTryCorrect) / float64(state.Stats.CardsChecked)
	}

	ratings := make(map[int]int, len(state.Stats.Ratings))
	for k, v := range state.Stats.Ratings {
		ratings[k] = v
	}

	return &SessionSummary{
		DeckID:           state.DeckID,
		Duration:         state.Elapsed(),
		TotalCards:       len(state.Cards),
		CardsChecked:     state.Stats.CardsChecked,
		FirstTryCorrect:  state.Stats.FirstTryCorrect,
		Accuracy:         accuracy,
		RatingsSubmitted: state.Stats.RatingsSubmitted,
		RatingFailures:   state.Stats.RatingFailures,
		Ratings:          ratings,
		Restarts:         state.Stats.Restarts,
	}
}
