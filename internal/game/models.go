package game

import "time"

type Status string

const (
	StatusAwaitingGuesses Status = "awaiting_guesses"
	StatusResolved        Status = "resolved"
)

// PointsMax is awarded for a perfect guess; points fall off linearly to 0 at
// 180 degrees of error.
const PointsMax = 100

type Participant struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	Guess     *int   `json:"guess,omitempty"`
	Forfeited bool   `json:"forfeited"`
}

type PlayerScore struct {
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	Guess     int    `json:"guess"`
	Points    int    `json:"points"`
	Accuracy  int    `json:"accuracy"`
}

// Results is produced exactly once per round, at resolution. It is the only
// place the secret angle is revealed.
type Results struct {
	ChatID       int64         `json:"chatId"`
	Angle        int           `json:"angle"`
	Scores       []PlayerScore `json:"scores"`
	TotalPlayers int           `json:"totalPlayers"`
	Participated int           `json:"participated"`
	Duration     time.Duration `json:"duration"`
}

// RoundStatus is the public view of an active round. The angle is deliberately
// absent: it must never leave the game package before resolution.
type RoundStatus struct {
	ChatID           int64         `json:"chatId"`
	ActivePlayers    int           `json:"activePlayers"`
	EstimatedPlayers int           `json:"estimatedPlayers"`
	Submitted        int           `json:"submitted"`
	Forfeited        int           `json:"forfeited"`
	Pending          int           `json:"pending"`
	AllSubmitted     bool          `json:"allSubmitted"`
	CanComplete      bool          `json:"canComplete"`
	CanCompleteIn    time.Duration `json:"canCompleteIn"`
	Elapsed          time.Duration `json:"elapsed"`
	StartTime        time.Time     `json:"startTime"`
}
