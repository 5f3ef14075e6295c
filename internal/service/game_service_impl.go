package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/coder/quartz"
	"github.com/grigolet/gangle/internal/auth"
	"github.com/grigolet/gangle/internal/game"
	"github.com/grigolet/gangle/internal/render"
	"github.com/grigolet/gangle/internal/storage"
	"go.uber.org/zap"
)

type gameService struct {
	manager *game.Manager
	rounds  game.RoundStore
	board   storage.LeaderboardStore
	admins  auth.Checker
	monitor *monitor
	cfg     Config
	log     *zap.Logger

	notifier Notifier
}

func NewGameService(
	rounds game.RoundStore,
	board storage.LeaderboardStore,
	admins auth.Checker,
	clock quartz.Clock,
	cfg Config,
	log *zap.Logger,
) GameService {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MinWait == 0 {
		cfg.MinWait = game.DefaultMinWait
	}
	if cfg.MaxWait == 0 {
		cfg.MaxWait = game.DefaultMaxWait
	}
	if cfg.MonitorInterval == 0 {
		cfg.MonitorInterval = 10 * time.Second
	}
	if cfg.LeaderboardLimit == 0 {
		cfg.LeaderboardLimit = 10
	}

	s := &gameService{
		manager: game.NewManager(rounds, clock, game.CompletionPolicy{MinWait: cfg.MinWait, MaxWait: cfg.MaxWait}),
		rounds:  rounds,
		board:   board,
		admins:  admins,
		cfg:     cfg,
		log:     log,
	}
	s.monitor = newMonitor(clock, cfg.MonitorInterval, log, s.monitorTick)
	return s
}

func (s *gameService) SetNotifier(n Notifier) { s.notifier = n }

func (s *gameService) StartRound(ctx context.Context, chatID, starterID int64) (game.RoundStatus, error) {
	status, err := s.manager.CreateRound(ctx, chatID, starterID)
	if err != nil {
		return game.RoundStatus{}, err
	}
	s.monitor.Start(chatID)
	s.log.Info("round started",
		zap.Int64("chat_id", chatID),
		zap.Int64("starter_id", starterID),
	)
	if s.notifier != nil {
		s.notifier.RoundStarted(chatID, status)
	}
	return status, nil
}

func (s *gameService) AddParticipant(ctx context.Context, chatID, userID int64, username, firstName string) error {
	if err := s.manager.AddParticipant(ctx, chatID, userID, username, firstName); err != nil {
		return err
	}
	s.log.Info("participant joined",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", userID),
		zap.String("username", username),
	)
	return nil
}

func (s *gameService) SubmitGuess(ctx context.Context, chatID, userID int64, guess int) (bool, error) {
	accepted, err := s.manager.SubmitGuess(ctx, chatID, userID, guess)
	if err != nil {
		return false, err
	}
	if !accepted {
		return false, nil
	}
	s.log.Info("guess submitted",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", userID),
	)
	// A guess may have been the last one pending; the monitor would catch
	// it on its next tick anyway, but checking now keeps rounds snappy.
	if _, err := s.TryComplete(ctx, chatID); err != nil {
		s.log.Warn("completion check after guess failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	return true, nil
}

func (s *gameService) Forfeit(ctx context.Context, chatID, userID int64) error {
	if err := s.manager.Forfeit(ctx, chatID, userID); err != nil {
		return err
	}
	s.log.Info("participant forfeited",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", userID),
	)
	if _, err := s.TryComplete(ctx, chatID); err != nil {
		s.log.Warn("completion check after forfeit failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
	return nil
}

func (s *gameService) SetEstimatedPlayers(ctx context.Context, chatID int64, estimated int) error {
	return s.manager.SetEstimatedPlayers(ctx, chatID, estimated)
}

func (s *gameService) ForceEnd(ctx context.Context, chatID, requesterID int64) (*game.Results, error) {
	isAdmin, err := s.admins.IsAdmin(ctx, chatID, requesterID)
	if err != nil {
		s.log.Error("admin check failed",
			zap.Int64("chat_id", chatID),
			zap.Int64("user_id", requesterID),
			zap.Error(err),
		)
		isAdmin = false
	}

	results, err := s.manager.ForceEnd(ctx, chatID, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}
	s.log.Info("round force-ended",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", requesterID),
		zap.Bool("is_admin", isAdmin),
	)
	s.finishResolution(ctx, results)
	return results, nil
}

func (s *gameService) TryComplete(ctx context.Context, chatID int64) (*game.Results, error) {
	status, err := s.manager.Status(chatID)
	if errors.Is(err, game.ErrNoActiveRound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !status.CanComplete {
		return nil, nil
	}

	results, err := s.manager.Resolve(ctx, chatID)
	if errors.Is(err, game.ErrNoActiveRound) || errors.Is(err, game.ErrAlreadyResolved) {
		// Lost the race against another resolution path.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.log.Info("round completed",
		zap.Int64("chat_id", chatID),
		zap.Int("participated", results.Participated),
		zap.Int("total_players", results.TotalPlayers),
	)
	s.finishResolution(ctx, results)
	return results, nil
}

// finishResolution runs the post-resolution side effects. The round state is
// already durably committed here: leaderboard failures are logged and left
// behind, never rolled back into the round machine.
func (s *gameService) finishResolution(ctx context.Context, results *game.Results) {
	s.monitor.Stop(results.ChatID)

	for _, score := range results.Scores {
		err := s.board.UpdateStats(ctx, results.ChatID, storage.UpdateStatsInput{
			UserID:    score.UserID,
			Username:  score.Username,
			FirstName: score.FirstName,
			Points:    score.Points,
			Accuracy:  score.Accuracy,
		})
		if err != nil {
			s.log.Error("leaderboard update failed",
				zap.Int64("chat_id", results.ChatID),
				zap.Int64("user_id", score.UserID),
				zap.Error(err),
			)
		}
	}

	if s.notifier != nil {
		s.notifier.RoundResolved(results.ChatID, results)
	}
}

// monitorTick is the repeating completion check. It reports done once the
// chat no longer has an active round so the ticker can stand down; errors are
// swallowed after logging so one bad tick never kills the schedule.
func (s *gameService) monitorTick(ctx context.Context, chatID int64) (done bool) {
	if _, err := s.manager.Status(chatID); errors.Is(err, game.ErrNoActiveRound) {
		return true
	}
	results, err := s.TryComplete(ctx, chatID)
	if err != nil {
		s.log.Warn("monitor completion check failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return false
	}
	return results != nil
}

func (s *gameService) RoundStatus(chatID int64) (game.RoundStatus, error) {
	return s.manager.Status(chatID)
}

func (s *gameService) AngleImage(chatID int64) ([]byte, error) {
	angle, err := s.manager.Angle(chatID)
	if err != nil {
		return nil, err
	}
	// Unlabeled while the round is live; the reveal image is rendered from
	// Results after resolution.
	return render.Angle(angle, false), nil
}

func (s *gameService) Leaderboard(ctx context.Context, chatID int64, limit int) ([]RankedEntry, error) {
	if limit <= 0 {
		limit = s.cfg.LeaderboardLimit
	}
	board, err := s.board.Load(ctx, chatID)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedEntry, 0, len(board))
	for userID, e := range board {
		ranked = append(ranked, RankedEntry{
			UserID:       userID,
			Username:     e.Username,
			FirstName:    e.FirstName,
			TotalPoints:  e.TotalPoints,
			RoundsPlayed: e.RoundsPlayed,
			BestGuess:    e.BestGuess,
			LastPlayed:   e.LastPlayed,
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalPoints != ranked[j].TotalPoints {
			return ranked[i].TotalPoints > ranked[j].TotalPoints
		}
		return ranked[i].BestGuess < ranked[j].BestGuess
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

func (s *gameService) ResetLeaderboard(ctx context.Context, chatID, requesterID int64) error {
	isAdmin, err := s.admins.IsAdmin(ctx, chatID, requesterID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return game.ErrUnauthorized
	}
	if err := s.board.Reset(ctx, chatID); err != nil {
		return err
	}
	s.log.Info("leaderboard reset",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", requesterID),
	)
	return nil
}

func (s *gameService) RestoreActiveRounds(ctx context.Context) (int, error) {
	snaps, err := s.rounds.List(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, snap := range snaps {
		if !s.manager.Restore(snap) {
			continue
		}
		s.monitor.Start(snap.ChatID)
		restored++
		s.log.Info("round restored",
			zap.Int64("chat_id", snap.ChatID),
			zap.Int("participants", len(snap.Players)),
		)
	}
	return restored, nil
}

func (s *gameService) Close() {
	s.monitor.StopAll()
}
