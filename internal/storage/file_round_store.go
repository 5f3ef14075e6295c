package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/grigolet/gangle/internal/game"
)

// FileRoundStore keeps one JSON file per chat under its directory.
type FileRoundStore struct {
	dir string
}

func NewFileRoundStore(dir string) (*FileRoundStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create games dir: %w", err)
	}
	return &FileRoundStore{dir: dir}, nil
}

func (s *FileRoundStore) path(chatID int64) string {
	return filepath.Join(s.dir, fmt.Sprintf("game_%d.json", chatID))
}

func (s *FileRoundStore) Save(_ context.Context, chatID int64, snap game.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path(chatID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path(chatID))
}

func (s *FileRoundStore) Load(_ context.Context, chatID int64) (game.Snapshot, bool, error) {
	data, err := os.ReadFile(s.path(chatID))
	if errors.Is(err, fs.ErrNotExist) {
		return game.Snapshot{}, false, nil
	}
	if err != nil {
		return game.Snapshot{}, false, err
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return game.Snapshot{}, false, fmt.Errorf("decode round snapshot for chat %d: %w", chatID, err)
	}
	return snap, true, nil
}

func (s *FileRoundStore) Delete(_ context.Context, chatID int64) error {
	err := os.Remove(s.path(chatID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileRoundStore) List(_ context.Context) ([]game.Snapshot, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "game_*.json"))
	if err != nil {
		return nil, err
	}
	out := make([]game.Snapshot, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var snap game.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			// A corrupt file must not block recovery of the others.
			continue
		}
		out = append(out, snap)
	}
	return out, nil
}
