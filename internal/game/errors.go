package game

import "errors"

var (
	// ErrIllegalAction marks a Double or Split the active hand cannot make.
	// Env.Step turns it into a terminal penalty rather than returning it.
	ErrIllegalAction = errors.New("illegal action")

	// ErrCapacityExceeded is returned when a table or seat would hold too much.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	ErrInvalidWager  = errors.New("wager must be positive")
	ErrUnknownAction = errors.New("unknown action")
	ErrRoundOver     = errors.New("round is over, reset required")

	// ErrRoundFailed is returned by Step once a step in the round has failed.
	ErrRoundFailed = errors.New("round failed, reset required")
)
