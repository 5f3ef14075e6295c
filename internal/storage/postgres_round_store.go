package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grigolet/gangle/internal/game"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRoundStore keeps active-round snapshots in a jsonb column keyed by
// chat id.
type PostgresRoundStore struct {
	db *pgxpool.Pool
}

func NewPostgresRoundStore(db *pgxpool.Pool) *PostgresRoundStore {
	return &PostgresRoundStore{db: db}
}

// InitSchema creates the tables both Postgres stores rely on.
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS active_rounds (
			chat_id    BIGINT PRIMARY KEY,
			snapshot   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS leaderboard_entries (
			chat_id       BIGINT NOT NULL,
			user_id       BIGINT NOT NULL,
			username      TEXT NOT NULL DEFAULT '',
			first_name    TEXT NOT NULL DEFAULT '',
			total_points  INT NOT NULL DEFAULT 0,
			rounds_played INT NOT NULL DEFAULT 0,
			best_guess    INT NOT NULL DEFAULT 180,
			last_played   TIMESTAMPTZ,
			PRIMARY KEY (chat_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS leaderboard_archive (
			chat_id       BIGINT NOT NULL,
			user_id       BIGINT NOT NULL,
			username      TEXT NOT NULL,
			first_name    TEXT NOT NULL,
			total_points  INT NOT NULL,
			rounds_played INT NOT NULL,
			best_guess    INT NOT NULL,
			last_played   TIMESTAMPTZ,
			archived_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

func (s *PostgresRoundStore) Save(ctx context.Context, chatID int64, snap game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO active_rounds (chat_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (chat_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, chatID, data)
	return err
}

func (s *PostgresRoundStore) Load(ctx context.Context, chatID int64) (game.Snapshot, bool, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `
		SELECT snapshot FROM active_rounds WHERE chat_id = $1
	`, chatID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresRoundStore) Delete(ctx context.Context, chatID int64) error {
	_, err := s.db.Exec(ctx, `DELETE FROM active_rounds WHERE chat_id = $1`, chatID)
	return err
}

func (s *PostgresRoundStore) List(ctx context.Context) ([]game.Snapshot, error) {
	rows, err := s.db.Query(ctx, `SELECT snapshot FROM active_rounds`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]game.Snapshot, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var snap game.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			continue
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
