package study

import "github.com/abhisek/flashdeck/internal/card"

// Every message carries the token of the session that issued it. A
// result whose token does not match the live session is dropped.

// cardsLoadedMsg is sent when the deck's cards have been fetched.
type cardsLoadedMsg struct {
	Token string
	Cards []card.Flashcard
	Err   error
}

// scoreResultMsg is sent when a difficulty rating submission finishes.
type scoreResultMsg struct {
	Token  string
	CardID string
	Score  int
	Err    error
}

// reviewedMsg is sent when the review counter update finishes.
type reviewedMsg struct {
	Token  string
	CardID string
	Err    error
}
