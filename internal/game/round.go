package game

import (
	"sort"
	"time"
)

// Round is one live game in one chat. The secret angle is fixed at creation
// and never mutated. Rounds are only ever touched under the Manager's
// per-chat lock, so the struct itself carries no synchronization.
type Round struct {
	ChatID           int64
	Angle            int
	StartTime        time.Time
	Status           Status
	StarterID        int64
	Participants     map[int64]*Participant
	EstimatedPlayers int
}

// Snapshot is the serializable projection of a Round persisted between
// mutations. It carries everything needed to rebuild controller state after
// a restart, including guesses and forfeit flags.
type Snapshot struct {
	ChatID           int64            `json:"chatId"`
	Angle            int              `json:"angle"`
	StartTime        time.Time        `json:"startTime"`
	Status           Status           `json:"status"`
	StarterID        int64            `json:"starterUserId"`
	EstimatedPlayers int              `json:"estimatedPlayers"`
	Players          map[int64]string `json:"players"`
	FirstNames       map[int64]string `json:"firstNames"`
	Guesses          map[int64]int    `json:"guesses"`
	Forfeited        []int64          `json:"forfeited"`
}

func (r *Round) snapshot() Snapshot {
	s := Snapshot{
		ChatID:           r.ChatID,
		Angle:            r.Angle,
		StartTime:        r.StartTime,
		Status:           r.Status,
		StarterID:        r.StarterID,
		EstimatedPlayers: r.EstimatedPlayers,
		Players:          make(map[int64]string, len(r.Participants)),
		FirstNames:       make(map[int64]string, len(r.Participants)),
		Guesses:          make(map[int64]int),
		Forfeited:        make([]int64, 0),
	}
	for id, p := range r.Participants {
		s.Players[id] = p.Username
		s.FirstNames[id] = p.FirstName
		if p.Guess != nil {
			s.Guesses[id] = *p.Guess
		}
		if p.Forfeited {
			s.Forfeited = append(s.Forfeited, id)
		}
	}
	return s
}

// RoundFromSnapshot rebuilds a Round from its persisted form.
func RoundFromSnapshot(s Snapshot) *Round {
	r := &Round{
		ChatID:           s.ChatID,
		Angle:            s.Angle,
		StartTime:        s.StartTime,
		Status:           s.Status,
		StarterID:        s.StarterID,
		Participants:     make(map[int64]*Participant, len(s.Players)),
		EstimatedPlayers: s.EstimatedPlayers,
	}
	if r.EstimatedPlayers < 2 {
		r.EstimatedPlayers = 2
	}
	forfeited := make(map[int64]bool, len(s.Forfeited))
	for _, id := range s.Forfeited {
		forfeited[id] = true
	}
	for id, username := range s.Players {
		p := &Participant{
			UserID:    id,
			Username:  username,
			FirstName: s.FirstNames[id],
			Forfeited: forfeited[id],
		}
		if g, ok := s.Guesses[id]; ok {
			guess := g
			p.Guess = &guess
		}
		r.Participants[id] = p
	}
	return r
}

func (r *Round) counts() (submitted, forfeited, pending int) {
	for _, p := range r.Participants {
		switch {
		case p.Forfeited:
			forfeited++
		case p.Guess != nil:
			submitted++
		default:
			pending++
		}
	}
	return submitted, forfeited, pending
}

// scores rates every non-forfeited participant with a guess, sorted by points
// descending, accuracy ascending on ties.
func (r *Round) scores() []PlayerScore {
	out := make([]PlayerScore, 0, len(r.Participants))
	for _, p := range r.Participants {
		if p.Guess == nil || p.Forfeited {
			continue
		}
		points, accuracy := Score(*p.Guess, r.Angle)
		out = append(out, PlayerScore{
			UserID:    p.UserID,
			Username:  p.Username,
			FirstName: p.FirstName,
			Guess:     *p.Guess,
			Points:    points,
			Accuracy:  accuracy,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Accuracy < out[j].Accuracy
	})
	return out
}
