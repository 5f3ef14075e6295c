package game

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/coder/quartz"
)

// Manager owns every active round, one per chat at most. All mutating
// operations on a chat run under that chat's lock, so "first submission wins"
// and "resolve exactly once" hold when user events race the monitor.
//
// Each mutation is persisted through the RoundStore before the lock is
// released; a failed save rolls the staged change back so in-memory state
// never runs ahead of the store.
type Manager struct {
	store  RoundStore
	clock  quartz.Clock
	policy CompletionPolicy

	mu     sync.Mutex
	rounds map[int64]*Round
	// Per-chat locks are kept for the life of the process. Removing one
	// while a goroutine still waits on it would let two rounds of the same
	// chat interleave, and the set of chats is small.
	locks map[int64]*sync.Mutex
}

func NewManager(store RoundStore, clock quartz.Clock, policy CompletionPolicy) *Manager {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if policy.MinWait == 0 && policy.MaxWait == 0 {
		policy = DefaultPolicy()
	}
	return &Manager{
		store:  store,
		clock:  clock,
		policy: policy,
		rounds: make(map[int64]*Round),
		locks:  make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) chatLock(chatID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[chatID] = l
	}
	return l
}

func (m *Manager) getRound(chatID int64) *Round {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rounds[chatID]
}

func (m *Manager) setRound(chatID int64, r *Round) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r == nil {
		delete(m.rounds, chatID)
	} else {
		m.rounds[chatID] = r
	}
}

// CreateRound starts a new round with a uniformly random secret angle.
// Fails with ErrAlreadyActive while another round is awaiting guesses.
func (m *Manager) CreateRound(ctx context.Context, chatID, starterID int64) (RoundStatus, error) {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	if m.getRound(chatID) != nil {
		return RoundStatus{}, ErrAlreadyActive
	}

	r := &Round{
		ChatID:           chatID,
		Angle:            rand.IntN(360),
		StartTime:        m.clock.Now(),
		Status:           StatusAwaitingGuesses,
		StarterID:        starterID,
		Participants:     make(map[int64]*Participant),
		EstimatedPlayers: 2,
	}
	if err := m.store.Save(ctx, chatID, r.snapshot()); err != nil {
		return RoundStatus{}, err
	}
	m.setRound(chatID, r)
	return m.statusLocked(r), nil
}

// Restore readopts a persisted round after a restart. Resolved snapshots and
// chats that already have a live round are skipped.
func (m *Manager) Restore(snap Snapshot) bool {
	if snap.Status != StatusAwaitingGuesses {
		return false
	}
	l := m.chatLock(snap.ChatID)
	l.Lock()
	defer l.Unlock()

	if m.getRound(snap.ChatID) != nil {
		return false
	}
	m.setRound(snap.ChatID, RoundFromSnapshot(snap))
	return true
}

// AddParticipant registers a user with the active round. Re-adding an
// existing participant only refreshes the display names and never touches
// their guess.
func (m *Manager) AddParticipant(ctx context.Context, chatID, userID int64, username, firstName string) error {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	r := m.getRound(chatID)
	if r == nil || r.Status != StatusAwaitingGuesses {
		return ErrNoActiveRound
	}

	if p, ok := r.Participants[userID]; ok {
		oldUsername, oldFirstName := p.Username, p.FirstName
		p.Username, p.FirstName = username, firstName
		if err := m.store.Save(ctx, chatID, r.snapshot()); err != nil {
			p.Username, p.FirstName = oldUsername, oldFirstName
			return err
		}
		return nil
	}

	r.Participants[userID] = &Participant{UserID: userID, Username: username, FirstName: firstName}
	if err := m.store.Save(ctx, chatID, r.snapshot()); err != nil {
		delete(r.Participants, userID)
		return err
	}
	return nil
}

// SubmitGuess records a participant's guess. The first submission wins: a
// repeat is rejected without mutation, reported as accepted=false rather than
// an error.
func (m *Manager) SubmitGuess(ctx context.Context, chatID, userID int64, guess int) (accepted bool, err error) {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	r := m.getRound(chatID)
	if r == nil || r.Status != StatusAwaitingGuesses {
		return false, ErrNoActiveRound
	}
	p, ok := r.Participants[userID]
	if !ok {
		return false, ErrUnknownParticipant
	}
	if p.Forfeited {
		return false, ErrAlreadyForfeited
	}
	if guess < 0 || guess > 359 {
		return false, ErrOutOfRange
	}
	if p.Guess != nil {
		return false, nil
	}

	staged := guess
	p.Guess = &staged
	if err := m.store.Save(ctx, chatID, r.snapshot()); err != nil {
		p.Guess = nil
		return false, err
	}
	return true, nil
}

// Forfeit excludes a participant from scoring and from the pending count the
// completion policy looks at.
func (m *Manager) Forfeit(ctx context.Context, chatID, userID int64) error {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	r := m.getRound(chatID)
	if r == nil || r.Status != StatusAwaitingGuesses {
		return ErrNoActiveRound
	}
	p, ok := r.Participants[userID]
	if !ok {
		return ErrUnknownParticipant
	}
	if p.Forfeited {
		return nil
	}

	p.Forfeited = true
	if err := m.store.Save(ctx, chatID, r.snapshot()); err != nil {
		p.Forfeited = false
		return err
	}
	return nil
}

// SetEstimatedPlayers records how many group members could plausibly play.
// Purely informational: the completion policy never reads it.
func (m *Manager) SetEstimatedPlayers(ctx context.Context, chatID int64, estimated int) error {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	r := m.getRound(chatID)
	if r == nil || r.Status != StatusAwaitingGuesses {
		return ErrNoActiveRound
	}

	old := r.EstimatedPlayers
	r.EstimatedPlayers = estimated
	if r.EstimatedPlayers < 2 {
		r.EstimatedPlayers = 2
	}
	if err := m.store.Save(ctx, chatID, r.snapshot()); err != nil {
		r.EstimatedPlayers = old
		return err
	}
	return nil
}

// Status reports the public view of the active round, including the
// completion policy's verdict. The secret angle is never part of it.
func (m *Manager) Status(chatID int64) (RoundStatus, error) {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	r := m.getRound(chatID)
	if r == nil {
		return RoundStatus{}, ErrNoActiveRound
	}
	return m.statusLocked(r), nil
}

func (m *Manager) statusLocked(r *Round) RoundStatus {
	submitted, forfeited, pending := r.counts()
	elapsed := m.clock.Since(r.StartTime)
	canComplete, waitRemaining := m.policy.Evaluate(elapsed, len(r.Participants), pending)

	return RoundStatus{
		ChatID:           r.ChatID,
		ActivePlayers:    len(r.Participants),
		EstimatedPlayers: r.EstimatedPlayers,
		Submitted:        submitted,
		Forfeited:        forfeited,
		Pending:          pending,
		AllSubmitted:     pending == 0 && len(r.Participants) > 0,
		CanComplete:      canComplete,
		CanCompleteIn:    waitRemaining,
		Elapsed:          elapsed,
		StartTime:        r.StartTime,
	}
}

// Angle exposes the secret for rendering the guess affordance. Callers must
// not surface it before resolution.
func (m *Manager) Angle(chatID int64) (int, error) {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	r := m.getRound(chatID)
	if r == nil {
		return 0, ErrNoActiveRound
	}
	return r.Angle, nil
}

// Resolve ends the round, scores every non-forfeited participant with a
// guess, and removes the round from the active set. A second call finds no
// active round and fails with ErrNoActiveRound, which double-triggering
// callers treat as a no-op.
func (m *Manager) Resolve(ctx context.Context, chatID int64) (*Results, error) {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	return m.resolveLocked(ctx, chatID)
}

// ForceEnd resolves immediately, bypassing the completion policy. Only the
// round's starter or a chat admin may do it.
func (m *Manager) ForceEnd(ctx context.Context, chatID, requesterID int64, isAdmin bool) (*Results, error) {
	l := m.chatLock(chatID)
	l.Lock()
	defer l.Unlock()

	r := m.getRound(chatID)
	if r == nil || r.Status != StatusAwaitingGuesses {
		return nil, ErrNoActiveRound
	}
	if !isAdmin && r.StarterID != requesterID {
		return nil, ErrUnauthorized
	}
	return m.resolveLocked(ctx, chatID)
}

func (m *Manager) resolveLocked(ctx context.Context, chatID int64) (*Results, error) {
	r := m.getRound(chatID)
	if r == nil {
		return nil, ErrNoActiveRound
	}
	if r.Status != StatusAwaitingGuesses {
		return nil, ErrAlreadyResolved
	}

	scores := r.scores()

	r.Status = StatusResolved
	if err := m.store.Save(ctx, chatID, r.snapshot()); err != nil {
		r.Status = StatusAwaitingGuesses
		return nil, err
	}
	// The resolved state is durable; a failed cleanup leaves only a stale
	// snapshot that Restore filters out by status.
	_ = m.store.Delete(ctx, chatID)
	m.setRound(chatID, nil)

	return &Results{
		ChatID:       chatID,
		Angle:        r.Angle,
		Scores:       scores,
		TotalPlayers: len(r.Participants),
		Participated: len(scores),
		Duration:     m.clock.Since(r.StartTime),
	}, nil
}
