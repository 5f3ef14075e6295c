package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testPolicy() CompletionPolicy {
	return CompletionPolicy{MinWait: 30 * time.Second, MaxWait: 120 * time.Second}
}

func TestCompletionPolicy_AllSubmittedBeforeMinWait(t *testing.T) {
	can, wait := testPolicy().Evaluate(10*time.Second, 3, 0)
	require.False(t, can)
	require.Equal(t, 20*time.Second, wait)
}

func TestCompletionPolicy_AllSubmittedAfterMinWait(t *testing.T) {
	can, wait := testPolicy().Evaluate(31*time.Second, 3, 0)
	require.True(t, can)
	require.Zero(t, wait)
}

func TestCompletionPolicy_PendingGuessesAfterMinWait(t *testing.T) {
	can, wait := testPolicy().Evaluate(60*time.Second, 3, 1)
	require.False(t, can)
	require.Zero(t, wait)
}

func TestCompletionPolicy_MaxWaitOverridesEverything(t *testing.T) {
	can, _ := testPolicy().Evaluate(150*time.Second, 0, 0)
	require.True(t, can)

	can, _ = testPolicy().Evaluate(120*time.Second, 5, 5)
	require.True(t, can)
}

func TestCompletionPolicy_NoParticipantsBeforeMaxWait(t *testing.T) {
	can, _ := testPolicy().Evaluate(60*time.Second, 0, 0)
	require.False(t, can)
}
