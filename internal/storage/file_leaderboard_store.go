package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/coder/quartz"
)

// FileLeaderboardStore keeps one JSON file per chat, mirroring the round
// store's layout. Saves rotate the previous file to a .bak alongside; Reset
// renames the file to a timestamped backup so history survives.
type FileLeaderboardStore struct {
	dir   string
	clock quartz.Clock
}

func NewFileLeaderboardStore(dir string, clock quartz.Clock) (*FileLeaderboardStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create leaderboards dir: %w", err)
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &FileLeaderboardStore{dir: dir, clock: clock}, nil
}

func (s *FileLeaderboardStore) path(chatID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("group_%d.json", chatID))
}

func (s *FileLeaderboardStore) Load(_ context.Context, chatID int64) (map[int64]Entry, error) {
	data, err := os.ReadFile(s.path(chatID))
	if errors.Is(err, fs.ErrNotExist) {
		return map[int64]Entry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var board map[int64]Entry
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, fmt.Errorf("decode leaderboard for chat %d: %w", chatID, err)
	}
	return board, nil
}

func (s *FileLeaderboardStore) save(chatID int64, board map[int64]Entry) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return err
	}
	path := s.path(chatID)
	if _, err := os.Stat(path); err == nil {
		_ = os.Rename(path, path+".bak")
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *FileLeaderboardStore) UpdateStats(ctx context.Context, chatID int64, in UpdateStatsInput) error {
	board, err := s.Load(ctx, chatID)
	if err != nil {
		return err
	}

	entry, ok := board[in.UserID]
	if !ok {
		entry = Entry{BestGuess: 180}
	}
	entry.Username = in.Username
	entry.FirstName = in.FirstName
	entry.TotalPoints += in.Points
	entry.RoundsPlayed++
	if in.Accuracy < entry.BestGuess {
		entry.BestGuess = in.Accuracy
	}
	now := s.clock.Now().UTC()
	entry.LastPlayed = &now
	board[in.UserID] = entry

	return s.save(chatID, board)
}

func (s *FileLeaderboardStore) Reset(_ context.Context, chatID int64) error {
	path := s.path(chatID)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	backup := fmt.Sprintf("%s.backup_%d", path, s.clock.Now().Unix())
	return os.Rename(path, backup)
}
