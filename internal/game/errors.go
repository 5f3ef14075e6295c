package game

import "errors"

var (
	ErrAlreadyActive      = errors.New("round already active")
	ErrNoActiveRound      = errors.New("no active round")
	ErrUnknownParticipant = errors.New("unknown participant")
	ErrAlreadyForfeited   = errors.New("participant forfeited")
	ErrOutOfRange         = errors.New("guess out of range")
	ErrUnauthorized       = errors.New("not authorized")
	ErrAlreadyResolved    = errors.New("round already resolved")
)
