package game

import "context"

// RoundStore persists active-round snapshots keyed by chat id. A mutation is
// not considered committed until Save returns nil; the Manager rolls staged
// changes back on failure.
type RoundStore interface {
	Save(ctx context.Context, chatID int64, snap Snapshot) error
	Load(ctx context.Context, chatID int64) (Snapshot, bool, error)
	Delete(ctx context.Context, chatID int64) error
	List(ctx context.Context) ([]Snapshot, error)
}
