package service

import (
	"context"
	"time"

	"github.com/grigolet/gangle/internal/game"
)

// RankedEntry is one leaderboard row ready for display.
type RankedEntry struct {
	Rank         int        `json:"rank"`
	UserID       int64      `json:"userId"`
	Username     string     `json:"username"`
	FirstName    string     `json:"firstName"`
	TotalPoints  int        `json:"totalPoints"`
	RoundsPlayed int        `json:"roundsPlayed"`
	BestGuess    int        `json:"bestGuess"`
	LastPlayed   *time.Time `json:"lastPlayed,omitempty"`
}

// Notifier receives round lifecycle events for the presentation layer. The
// angle reaches it only inside Results, post-resolution.
type Notifier interface {
	RoundStarted(chatID int64, status game.RoundStatus)
	RoundResolved(chatID int64, results *game.Results)
}

type Config struct {
	MinWait          time.Duration
	MaxWait          time.Duration
	MonitorInterval  time.Duration
	LeaderboardLimit int
}

type GameService interface {
	StartRound(ctx context.Context, chatID, starterID int64) (game.RoundStatus, error)
	AddParticipant(ctx context.Context, chatID, userID int64, username, firstName string) error
	SubmitGuess(ctx context.Context, chatID, userID int64, guess int) (accepted bool, err error)
	Forfeit(ctx context.Context, chatID, userID int64) error
	SetEstimatedPlayers(ctx context.Context, chatID int64, estimated int) error
	ForceEnd(ctx context.Context, chatID, requesterID int64) (*game.Results, error)

	// TryComplete resolves the round if the completion policy allows it.
	// Returns nil with no error when the round is not ready, already gone,
	// or lost the resolution race.
	TryComplete(ctx context.Context, chatID int64) (*game.Results, error)

	RoundStatus(chatID int64) (game.RoundStatus, error)
	AngleImage(chatID int64) ([]byte, error)

	Leaderboard(ctx context.Context, chatID int64, limit int) ([]RankedEntry, error)
	ResetLeaderboard(ctx context.Context, chatID, requesterID int64) error

	RestoreActiveRounds(ctx context.Context) (int, error)
	SetNotifier(n Notifier)
	Close()
}
