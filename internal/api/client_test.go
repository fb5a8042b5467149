package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/flashdeck/internal/card"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/"})
}

func TestListFlashcards_DropsBlankAndNormalizes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/decks/d1/flashcards", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"id":"c1","deck_id":"d1","question":"2+2?","type":"fill_in_blank","answer":"{\"correct_answer\":\"4\"}"},
			{"id":"c2","deck_id":"d1","question":"  ","type":"basic","answer":"x"},
			{"id":"c3","deck_id":"d1","question":"Pick","type":"multiple_choice","answer":{"options":["a","b"],"correct_answer":"b"}},
			{"id":"c4","deck_id":"d1","type":"basic","answer":"no question"}
		]`)
	}))

	cards, err := c.ListFlashcards(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, "c1", cards[0].ID)
	assert.Equal(t, card.BlankAnswer{Correct: "4"}, cards[0].Answer)
	ca, ok := cards[1].Answer.(card.ChoiceAnswer)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, ca.Options)
	assert.Equal(t, "b", ca.Correct)
}

func TestSubmitScore(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/flashcards/c1/score", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"id":"c1","difficulty_score":2}`)
	}))

	require.NoError(t, c.SubmitScore(context.Background(), "c1", 2))
	assert.Equal(t, map[string]any{"score": float64(2)}, got)
}

func TestSubmitScore_RejectsOutOfRange(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))

	for _, score := range []int{0, 4} {
		err := c.SubmitScore(context.Background(), "c1", score)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, int32(0), calls.Load())
}

func TestStatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"error field", http.StatusNotFound, `{"error":"Flashcard not found"}`, "Flashcard not found"},
		{"detail field", http.StatusBadRequest, `{"detail":"bad score"}`, "bad score"},
		{"plain text", http.StatusInternalServerError, "oops\n", "oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))

			err := c.SubmitScore(context.Background(), "c1", 1)
			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.wantMsg, se.Message)
			assert.Equal(t, "/flashcards/c1/score", se.Path)
			assert.Equal(t, tt.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url})
	_, err := c.ListDecks(context.Background())

	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.MethodGet, ne.Method)
	assert.False(t, IsNotFound(err))
}

func TestTimeout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	c.http.Timeout = 50 * time.Millisecond

	_, err := c.ListDecks(context.Background())
	var ne *NetworkError
	assert.ErrorAs(t, err, &ne)
}

func TestCreateDeck(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in DeckInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "Go", in.Name)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"d9","name":"Go","description":"","is_public":true,"created_at":"2024-05-01T12:00:00.000001"}`)
	}))

	d, err := c.CreateDeck(context.Background(), DeckInput{Name: "Go", IsPublic: true})
	require.NoError(t, err)
	assert.Equal(t, "d9", d.ID)
	assert.Equal(t, 2024, d.CreatedAt.Year())

	_, err = c.CreateDeck(context.Background(), DeckInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "name is required")
}

func TestCreateFlashcard_Validation(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:1"})

	_, err := c.CreateFlashcard(context.Background(), FlashcardInput{DeckID: "d1", Question: "q", Type: "essay"})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "not a known card type")
}

func TestUpdateAndDeleteFlashcard(t *testing.T) {
	var methods []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPut {
			_, _ = io.WriteString(w, `{"id":"c1","question":"q","type":"true_false","answer":{"correct_answer":false}}`)
			return
		}
		_, _ = io.WriteString(w, `{"message":"deleted"}`)
	}))

	fc, err := c.UpdateFlashcard(context.Background(), "c1", FlashcardInput{DeckID: "d1", Question: "q", Type: card.TypeTrueFalse})
	require.NoError(t, err)
	assert.Equal(t, card.TrueFalseAnswer{Correct: card.False}, fc.Answer)

	require.NoError(t, c.DeleteFlashcard(context.Background(), "c1"))
	assert.Equal(t, []string{"PUT /flashcards/c1", "DELETE /flashcards/c1"}, methods)
}

func TestDeckCardCounts(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/decks/a/flashcards":
			_, _ = io.WriteString(w, `[{"id":"1","question":"q","type":"basic"},{"id":"2","question":"q","type":"basic"}]`)
		case "/decks/b/flashcards":
			_, _ = io.WriteString(w, `[]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	counts, err := c.DeckCardCounts(context.Background(), []card.Deck{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"a": 2, "b": 0}, counts)

	_, err = c.DeckCardCounts(context.Background(), []card.Deck{{ID: "a"}, {ID: "missing"}})
	assert.True(t, IsNotFound(err))
}

func TestRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `[]`)
	}))
	t.Cleanup(srv.Close)

	c := New(Config{BaseURL: srv.URL, RateLimit: 1})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := c.ListDecks(ctx)
	require.NoError(t, err)
	_, err = c.ListDecks(ctx)
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*NetworkError)))
	assert.Equal(t, int32(1), calls.Load())
}

func TestMarkReviewed(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flashcards/c1/reviewed", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.MarkReviewed(context.Background(), "c1", true))
	assert.Equal(t, map[string]any{"correct": true}, got)
}

func TestErrorMessageTruncatesOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("é", maxMessageLen+10)
	msg := errorMessage([]byte(body))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, strings.Repeat("é", maxMessageLen)+"...", msg)

	assert.Equal(t, "short", errorMessage([]byte("  short ")))
}
