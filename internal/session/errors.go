package session

import "errors"

// Errors returned by illegal transitions. A failed transition never
// changes the session.
var (
	ErrEmpty            = errors.New("session has no cards")
	ErrNotActive        = errors.New("session is not active")
	ErrBusy             = errors.New("score submission in progress")
	ErrInvalidCard      = errors.New("card cannot be presented")
	ErrAlreadyChecked   = errors.New("answer already checked")
	ErrNotChecked       = errors.New("answer not checked yet")
	ErrNoSelection      = errors.New("no answer selected")
	ErrInvalidSelection = errors.New("selection is not a valid choice")
	ErrRevealOnly       = errors.New("card is self-rated; reveal the answer instead")
	ErrNotRevealable    = errors.New("only basic cards can be revealed")
	ErrCannotRetry      = errors.New("retry is not available")
	ErrInvalidScore     = errors.New("score must be between 1 and 3")
	ErrNotSubmitting    = errors.New("no score submission in progress")
	ErrNotAtEnd         = errors.New("end of deck not reached")
	ErrBoundary         = errors.New("no card in that direction")
)
