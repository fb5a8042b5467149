package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/flashdeck/internal/card"
	"github.com/abhisek/flashdeck/internal/transfer"
)

// fakeAPI serves one deck with two cards and fails on anything that
// writes.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /decks", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{{"id": "d1", "name": "Biology", "is_public": true}})
	})
	mux.HandleFunc("GET /decks/d1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "d1", "name": "Biology"})
	})
	mux.HandleFunc("GET /decks/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Deck not found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("GET /decks/d1/flashcards", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "c1", "deck_id": "d1", "question": "Powerhouse of the cell?", "type": "basic", "answer": "Mitochondria"},
			{"id": "c2", "deck_id": "d1", "question": "Cells are alive.", "type": "true_false", "answer": `{"correct_answer":"true"}`},
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusTeapot)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// run executes the root command with args against srv and returns stdout.
func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("FLASHDECK_DB", filepath.Join(dir, "flashdeck.db"))
	if srv != nil {
		t.Setenv("FLASHDECK_API_URL", srv.URL)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestDecksList(t *testing.T) {
	out, err := run(t, fakeAPI(t), "decks", "list", "--counts")
	require.NoError(t, err)
	assert.Contains(t, out, "Biology")
	assert.Contains(t, out, "yes")
	assert.Regexp(t, `Biology\s+2\s+yes`, out)
}

func TestDecksShow(t *testing.T) {
	srv := fakeAPI(t)
	out, err := run(t, srv, "decks", "show", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cards:       2")
	assert.Contains(t, out, "Mitochondria")
	assert.Contains(t, out, "True / False")

	_, err = run(t, srv, "decks", "show", "missing")
	assert.ErrorContains(t, err, "deck missing not found")
}

func TestCardsAdd_InvalidCard(t *testing.T) {
	_, err := run(t, fakeAPI(t), "cards", "add", "d1",
		"-t", "multiple_choice", "-q", "Largest planet?", "-a", "Jupiter", "-o", "Jupiter")
	assert.ErrorContains(t, err, "at least two options")

	_, err = run(t, nil, "cards", "add", "d1", "-t", "essay", "-q", "Discuss.")
	assert.ErrorContains(t, err, `unknown card type "essay"`)
}

func TestCardsImport_DryRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.xlsx")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, transfer.Write(f, []card.Flashcard{
		{ID: "1", Type: card.TypeBasic, Question: "Capital of France?", RawAnswer: json.RawMessage(`"Paris"`)},
	}))
	require.NoError(t, f.Close())

	out, err := run(t, fakeAPI(t), "cards", "import", "d1", path, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Would import 1 of 1 rows")
}

func TestCardsExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := run(t, fakeAPI(t), "cards", "export", "d1", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 cards")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	res, err := transfer.Parse(f)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}

func TestHistory_Empty(t *testing.T) {
	out, err := run(t, nil, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No study sessions recorded yet.")
}

func TestLLMStats_Empty(t *testing.T) {
	out, err := run(t, nil, "llm", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "No LLM usage recorded yet.")
}

func TestVersion(t *testing.T) {
	out, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "flashdeck (devel)\n", out)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0:07", formatDuration(7))
	assert.Equal(t, "12:05", formatDuration(725))
}

func TestUpdate_DevBuild(t *testing.T) {
	out, err := run(t, nil, "update")
	require.NoError(t, err)
	assert.Contains(t, out, "Cannot update a development build")
}
