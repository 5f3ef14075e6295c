package service

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/grigolet/gangle/internal/auth"
	"github.com/grigolet/gangle/internal/game"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	started  chan game.RoundStatus
	resolved chan *game.Results
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		started:  make(chan game.RoundStatus, 8),
		resolved: make(chan *game.Results, 8),
	}
}

func (n *recordingNotifier) RoundStarted(_ int64, status game.RoundStatus) {
	n.started <- status
}

func (n *recordingNotifier) RoundResolved(_ int64, results *game.Results) {
	n.resolved <- results
}

func tickingConfig() Config {
	return Config{
		MinWait:         30 * time.Second,
		MaxWait:         120 * time.Second,
		MonitorInterval: 10 * time.Second,
	}
}

func advance(t *testing.T, clock *quartz.Mock, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	clock.Advance(d).MustWait(ctx)
}

func TestMonitor_ResolvesRoundAfterMinWait(t *testing.T) {
	store := newMemRoundStore()
	board := new(mockLeaderboardStore)
	clock := quartz.NewMock(t)
	svc := NewGameService(store, board, auth.NewStaticChecker(nil), clock, tickingConfig(), nil)
	defer svc.Close()

	notifier := newRecordingNotifier()
	svc.SetNotifier(notifier)

	board.On("UpdateStats", mock.Anything, testChat, mock.Anything).Return(nil).Twice()

	seedRound(t, svc, store, allSubmittedSnapshot(clock))

	// Everyone has guessed, so the first tick past the grace period
	// resolves the round.
	for i := 0; i < 2; i++ {
		advance(t, clock, 10*time.Second)
		_, err := svc.RoundStatus(testChat)
		require.NoError(t, err)
	}
	advance(t, clock, 10*time.Second)

	select {
	case results := <-notifier.resolved:
		require.Equal(t, 100, results.Angle)
		require.Len(t, results.Scores, 2)
	default:
		t.Fatal("round was not resolved by the monitor")
	}

	_, err := svc.RoundStatus(testChat)
	require.ErrorIs(t, err, game.ErrNoActiveRound)
	board.AssertExpectations(t)

	// The ticker stood down with the round; further time passing must not
	// produce another resolution or leaderboard write.
	advance(t, clock, time.Minute)
	require.Empty(t, notifier.resolved)
	board.AssertNumberOfCalls(t, "UpdateStats", 2)
}

func TestMonitor_ResolvesStalledRoundAtMaxWait(t *testing.T) {
	store := newMemRoundStore()
	board := new(mockLeaderboardStore)
	clock := quartz.NewMock(t)
	svc := NewGameService(store, board, auth.NewStaticChecker(nil), clock, tickingConfig(), nil)
	defer svc.Close()

	notifier := newRecordingNotifier()
	svc.SetNotifier(notifier)

	// One guess in, one pending forever: nothing to credit for the holdout
	// but the round must still close at the deadline.
	snap := allSubmittedSnapshot(clock)
	snap.Guesses = map[int64]int{11: 100}
	board.On("UpdateStats", mock.Anything, testChat, mock.Anything).Return(nil).Once()

	seedRound(t, svc, store, snap)

	for i := 0; i < 11; i++ {
		advance(t, clock, 10*time.Second)
	}
	require.Empty(t, notifier.resolved, "still within the response window")

	advance(t, clock, 10*time.Second)

	select {
	case results := <-notifier.resolved:
		require.Len(t, results.Scores, 1)
		require.Equal(t, int64(11), results.Scores[0].UserID)
	default:
		t.Fatal("stalled round was not resolved at the deadline")
	}
	board.AssertExpectations(t)
}

func TestMonitor_StartIsIdempotentAndCloseStopsAll(t *testing.T) {
	store := newMemRoundStore()
	board := new(mockLeaderboardStore)
	clock := quartz.NewMock(t)
	svc := NewGameService(store, board, auth.NewStaticChecker(nil), clock, tickingConfig(), nil)

	seedRound(t, svc, store, allSubmittedSnapshot(clock))

	// Restoring again must not double-register a ticker for the chat.
	restored, err := svc.RestoreActiveRounds(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, restored)

	svc.Close()
	svc.Close()

	// With every ticker cancelled, time passing resolves nothing.
	advance(t, clock, 5*time.Minute)
	board.AssertNotCalled(t, "UpdateStats", mock.Anything, mock.Anything, mock.Anything)
}
