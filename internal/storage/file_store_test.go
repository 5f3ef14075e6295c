package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/grigolet/gangle/internal/game"
	"github.com/stretchr/testify/require"
)

func testSnapshot(chatID int64) game.Snapshot {
	guess := 42
	return game.Snapshot{
		ChatID:           chatID,
		Angle:            137,
		StartTime:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:           game.StatusAwaitingGuesses,
		StarterID:        1,
		EstimatedPlayers: 5,
		Players:          map[int64]string{11: "alice", 22: "bob"},
		FirstNames:       map[int64]string{11: "Alice", 22: "Bob"},
		Guesses:          map[int64]int{11: guess},
		Forfeited:        []int64{22},
	}
}

func TestFileRoundStore_SaveLoadDelete(t *testing.T) {
	store, err := NewFileRoundStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := store.Load(ctx, -1001)
	require.NoError(t, err)
	require.False(t, ok)

	snap := testSnapshot(-1001)
	require.NoError(t, store.Save(ctx, -1001, snap))

	got, ok, err := store.Load(ctx, -1001)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snap.Angle, got.Angle)
	require.Equal(t, snap.Players, got.Players)
	require.Equal(t, snap.Guesses, got.Guesses)
	require.Equal(t, snap.Forfeited, got.Forfeited)
	require.True(t, snap.StartTime.Equal(got.StartTime))

	// The snapshot must be enough to rebuild the round.
	r := game.RoundFromSnapshot(got)
	require.Equal(t, 137, r.Angle)
	require.Len(t, r.Participants, 2)
	require.NotNil(t, r.Participants[11].Guess)
	require.Equal(t, 42, *r.Participants[11].Guess)
	require.True(t, r.Participants[22].Forfeited)

	require.NoError(t, store.Delete(ctx, -1001))
	_, ok, err = store.Load(ctx, -1001)
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting twice is harmless.
	require.NoError(t, store.Delete(ctx, -1001))
}

func TestFileRoundStore_ListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileRoundStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, -1, testSnapshot(-1)))
	require.NoError(t, store.Save(ctx, -2, testSnapshot(-2)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "game_-3.json"), []byte("{broken"), 0o644))

	snaps, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
}

func TestFileLeaderboardStore_UpdateStats(t *testing.T) {
	clock := quartz.NewMock(t)
	store, err := NewFileLeaderboardStore(t.TempDir(), clock)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.UpdateStats(ctx, -1001, UpdateStatsInput{
		UserID: 11, Username: "alice", FirstName: "Alice", Points: 80, Accuracy: 36,
	}))
	require.NoError(t, store.UpdateStats(ctx, -1001, UpdateStatsInput{
		UserID: 11, Username: "alice", FirstName: "Alice", Points: 50, Accuracy: 90,
	}))

	board, err := store.Load(ctx, -1001)
	require.NoError(t, err)
	entry := board[11]
	require.Equal(t, 130, entry.TotalPoints)
	require.Equal(t, 2, entry.RoundsPlayed)
	// Best guess only improves; the worse second round must not regress it.
	require.Equal(t, 36, entry.BestGuess)
	require.NotNil(t, entry.LastPlayed)
}

func TestFileLeaderboardStore_ResetArchives(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileLeaderboardStore(dir, quartz.NewMock(t))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.UpdateStats(ctx, -1001, UpdateStatsInput{
		UserID: 11, Username: "alice", FirstName: "Alice", Points: 80, Accuracy: 36,
	}))

	require.NoError(t, store.Reset(ctx, -1001))

	board, err := store.Load(ctx, -1001)
	require.NoError(t, err)
	require.Empty(t, board)

	// Reset archives under a timestamped name instead of deleting.
	matches, err := filepath.Glob(filepath.Join(dir, "group_-1001.json.backup_*"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Resetting an absent board is a no-op.
	require.NoError(t, store.Reset(ctx, -1001))
}
