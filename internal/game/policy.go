package game

import "time"

// CompletionPolicy decides when a round may resolve on its own. MinWait is a
// grace period so a round that fills instantly still gives latecomers time to
// join; MaxWait is a hard ceiling so a round that never fills terminates
// anyway.
type CompletionPolicy struct {
	MinWait time.Duration
	MaxWait time.Duration
}

const (
	DefaultMinWait = 30 * time.Second
	DefaultMaxWait = 120 * time.Second
)

func DefaultPolicy() CompletionPolicy {
	return CompletionPolicy{MinWait: DefaultMinWait, MaxWait: DefaultMaxWait}
}

// Evaluate reports whether a round with the given state may resolve now, and
// if not, how long until the MinWait threshold stops being the blocker.
//
//  1. elapsed >= MaxWait: resolve regardless of pending guesses.
//  2. elapsed >= MinWait and at least one participant and nobody pending:
//     resolve.
//  3. otherwise wait; waitRemaining counts down to MinWait.
func (p CompletionPolicy) Evaluate(elapsed time.Duration, participants, pending int) (canComplete bool, waitRemaining time.Duration) {
	if elapsed >= p.MaxWait {
		return true, 0
	}
	if elapsed >= p.MinWait && participants > 0 && pending == 0 {
		return true, 0
	}
	if remaining := p.MinWait - elapsed; remaining > 0 {
		waitRemaining = remaining
	}
	return false, waitRemaining
}
