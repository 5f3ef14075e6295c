package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresLeaderboardStore struct {
	db *pgxpool.Pool
}

func NewPostgresLeaderboardStore(db *pgxpool.Pool) *PostgresLeaderboardStore {
	return &PostgresLeaderboardStore{db: db}
}

func (s *PostgresLeaderboardStore) Load(ctx context.Context, chatID int64) (map[int64]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, username, first_name, total_points, rounds_played, best_guess, last_played
		FROM leaderboard_entries
		WHERE chat_id = $1
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	board := make(map[int64]Entry)
	for rows.Next() {
		var userID int64
		var e Entry
		var lastPlayed *time.Time
		if err := rows.Scan(&userID, &e.Username, &e.FirstName, &e.TotalPoints, &e.RoundsPlayed, &e.BestGuess, &lastPlayed); err != nil {
			return nil, err
		}
		e.LastPlayed = lastPlayed
		board[userID] = e
	}
	return board, rows.Err()
}

func (s *PostgresLeaderboardStore) UpdateStats(ctx context.Context, chatID int64, in UpdateStatsInput) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO leaderboard_entries
			(chat_id, user_id, username, first_name, total_points, rounds_played, best_guess, last_played)
		VALUES ($1, $2, $3, $4, $5, 1, $6, now())
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
			username      = EXCLUDED.username,
			first_name    = EXCLUDED.first_name,
			total_points  = leaderboard_entries.total_points + EXCLUDED.total_points,
			rounds_played = leaderboard_entries.rounds_played + 1,
			best_guess    = LEAST(leaderboard_entries.best_guess, EXCLUDED.best_guess),
			last_played   = now()
	`, chatID, in.UserID, in.Username, in.FirstName, in.Points, in.Accuracy)
	return err
}

func (s *PostgresLeaderboardStore) Reset(ctx context.Context, chatID int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO leaderboard_archive
			(chat_id, user_id, username, first_name, total_points, rounds_played, best_guess, last_played)
		SELECT chat_id, user_id, username, first_name, total_points, rounds_played, best_guess, last_played
		FROM leaderboard_entries
		WHERE chat_id = $1
	`, chatID)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM leaderboard_entries WHERE chat_id = $1`, chatID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
