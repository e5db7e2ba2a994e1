package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playingSession(ids ...string) *Session {
	s := NewSession("ABCD", MaxQuestions, time.Now())
	s.AddPlayer("thinker", "Thinker", RoleThinker, time.Now())
	s.ThinkerID = "thinker"
	for _, id := range ids {
		s.AddPlayer(id, id, RoleGuesser, time.Now())
	}
	s.Status = StatusPlaying
	s.TurnOrder = append(s.TurnOrder, ids...)
	return s
}

func TestRemoveFromTurnOrder(t *testing.T) {
	tests := []struct {
		name        string
		index       int
		remove      string
		wantOrder   []string
		wantIndex   int
		wantChanged bool
		wantHold    bool
	}{
		{name: "before current", index: 2, remove: "a", wantOrder: []string{"b", "c"}, wantIndex: 1},
		{name: "after current", index: 0, remove: "c", wantOrder: []string{"a", "b"}, wantIndex: 0},
		{name: "current in the middle", index: 1, remove: "b", wantOrder: []string{"a", "c"}, wantIndex: 1, wantChanged: true},
		{name: "current at the end wraps", index: 2, remove: "c", wantOrder: []string{"a", "b"}, wantIndex: 0, wantChanged: true},
		{name: "unknown player", index: 1, remove: "z", wantOrder: []string{"a", "b", "c"}, wantIndex: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := playingSession("a", "b", "c")
			s.TurnIndex = tt.index

			removed, changed := s.RemoveFromTurnOrder(tt.remove)

			assert.Equal(t, tt.remove != "z", removed)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.wantOrder, s.TurnOrder)
			assert.Equal(t, tt.wantIndex, s.TurnIndex)
			assert.Equal(t, tt.wantHold, s.HoldIndex)
		})
	}
}

func TestRemoveLastFromTurnOrder(t *testing.T) {
	s := playingSession("a")

	removed, changed := s.RemoveFromTurnOrder("a")

	assert.True(t, removed)
	assert.False(t, changed)
	assert.Empty(t, s.TurnOrder)
	assert.Zero(t, s.TurnIndex)
	assert.True(t, s.HoldIndex)
	assert.Nil(t, s.CurrentAsker())
}

func TestGuessersFollowJoinOrder(t *testing.T) {
	s := playingSession("zoe", "adam", "mia")

	var ids []string
	for _, p := range s.Guessers() {
		ids = append(ids, p.Id)
	}
	assert.Equal(t, []string{"zoe", "adam", "mia"}, ids)

	first := s.EarliestPlayer()
	require.NotNil(t, first)
	assert.Equal(t, "thinker", first.Id)
	assert.True(t, first.IsThinker())
	assert.False(t, s.Players["zoe"].IsThinker())
}

func TestResetRoundClearsRoundState(t *testing.T) {
	s := playingSession("a", "b")
	answer := "Sì"
	s.SecretWord = "gatto"
	s.Questions = append(s.Questions, Question{ID: 1, Text: "?", Answer: &answer})
	s.AskedCount = 5
	s.GuessAttempts = map[string]int{"a": 1}
	s.PendingQuestionID = 1

	s.ResetRound()

	assert.Equal(t, StatusWaiting, s.Status)
	assert.Empty(t, s.SecretWord)
	assert.Empty(t, s.Questions)
	assert.Zero(t, s.AskedCount)
	assert.Nil(t, s.GuessAttempts)
	assert.Empty(t, s.TurnOrder)
	assert.Zero(t, s.PendingQuestionID)
	assert.Len(t, s.Players, 3)
}

func TestIsDontKnow(t *testing.T) {
	assert.True(t, IsDontKnow("Non lo so"))
	assert.True(t, IsDontKnow("  NON LO SO "))
	assert.True(t, IsDontKnow("?"))
	assert.False(t, IsDontKnow("No"))
	assert.False(t, IsDontKnow("Sì"))
}
