package storage

import (
	"context"
	"time"
)

// Entry is one player's persistent record in a chat's leaderboard. Points and
// rounds only ever grow; BestGuess (angular error of the closest guess ever)
// only ever shrinks.
type Entry struct {
	Username     string     `json:"username"`
	FirstName    string     `json:"firstName"`
	TotalPoints  int        `json:"totalPoints"`
	RoundsPlayed int        `json:"roundsPlayed"`
	BestGuess    int        `json:"bestGuess"`
	LastPlayed   *time.Time `json:"lastPlayed"`
}

type UpdateStatsInput struct {
	UserID    int64
	Username  string
	FirstName string
	Points    int
	Accuracy  int
}

type LeaderboardStore interface {
	Load(ctx context.Context, chatID int64) (map[int64]Entry, error)
	UpdateStats(ctx context.Context, chatID int64, in UpdateStatsInput) error
	// Reset archives the chat's leaderboard rather than destroying it.
	Reset(ctx context.Context, chatID int64) error
}
