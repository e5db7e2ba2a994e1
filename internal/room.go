package internal

import (
	"slices"
	"strings"
	"time"
)

func NewSession(code string, maxQuestions int, now time.Time) *Session {
	return &Session{
		Code:         code,
		Status:       StatusWaiting,
		Players:      make(map[string]*Player),
		MaxQuestions: maxQuestions,
		Questions:    make([]Question, 0),
		Guesses:      make([]Guess, 0),
		TurnOrder:    make([]string, 0),
		Logs:         make([]LogEntry, 0),
		Chat:         make([]ChatEntry, 0),
		CreatedAt:    now,
		LastActive:   now,
	}
}

// Methods (Session Struct)
func (s *Session) AddPlayer(id, name string, role Role, now time.Time) *Player {
	s.joinSeq++
	p := &Player{
		Id:       id,
		Name:     name,
		Role:     role,
		JoinSeq:  s.joinSeq,
		JoinedAt: now,
	}
	s.Players[id] = p
	return p
}

func (s *Session) Thinker() *Player {
	if s.ThinkerID == "" {
		return nil
	}
	return s.Players[s.ThinkerID]
}

// Guessers returns every non-thinker player in join order.
func (s *Session) Guessers() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		if !p.IsThinker() {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *Player) int { return a.JoinSeq - b.JoinSeq })
	return out
}

// EarliestPlayer returns the longest-standing member, or nil when empty.
func (s *Session) EarliestPlayer() *Player {
	var first *Player
	for _, p := range s.Players {
		if first == nil || p.JoinSeq < first.JoinSeq {
			first = p
		}
	}
	return first
}

func (s *Session) Roster() []PlayerSnapshot {
	players := make([]*Player, 0, len(s.Players))
	for _, p := range s.Players {
		players = append(players, p)
	}
	slices.SortFunc(players, func(a, b *Player) int { return a.JoinSeq - b.JoinSeq })

	roster := make([]PlayerSnapshot, 0, len(players))
	for _, p := range players {
		roster = append(roster, CreatePlayerSnapshot(p))
	}
	return roster
}

// CurrentAsker is the guesser expected to ask next, or nil while no turn is
// assigned.
func (s *Session) CurrentAsker() *Player {
	if s.Status != StatusPlaying || s.HoldIndex || len(s.TurnOrder) == 0 {
		return nil
	}
	if s.TurnIndex < 0 || s.TurnIndex >= len(s.TurnOrder) {
		return nil
	}
	return s.Players[s.TurnOrder[s.TurnIndex]]
}

// RemoveFromTurnOrder drops id from the rotation. Entries before the current
// index shift it down by one; removing the current entry hands the turn to
// whoever now occupies that index. An emptied rotation parks the index at 0
// with HoldIndex set so the next joiner is served first.
func (s *Session) RemoveFromTurnOrder(id string) (removed, currentChanged bool) {
	idx := slices.Index(s.TurnOrder, id)
	if idx < 0 {
		return false, false
	}
	s.TurnOrder = slices.Delete(s.TurnOrder, idx, idx+1)

	if len(s.TurnOrder) == 0 {
		s.TurnIndex = 0
		s.HoldIndex = true
		return true, false
	}

	switch {
	case idx < s.TurnIndex:
		s.TurnIndex--
	case idx == s.TurnIndex:
		if s.TurnIndex >= len(s.TurnOrder) {
			s.TurnIndex = 0
		}
		return true, true
	}
	return true, false
}

func (s *Session) FindQuestion(id int) *Question {
	for i := range s.Questions {
		if s.Questions[i].ID == id {
			return &s.Questions[i]
		}
	}
	return nil
}

func (s *Session) PendingQuestion() *Question {
	if s.PendingQuestionID == 0 {
		return nil
	}
	return s.FindQuestion(s.PendingQuestionID)
}

// AttemptsLeft reports whether any guesser can still guess in the Guessing phase.
func (s *Session) AttemptsLeft() bool {
	for _, n := range s.GuessAttempts {
		if n > 0 {
			return true
		}
	}
	return false
}

func (s *Session) AppendLog(text string, now time.Time) LogEntry {
	entry := LogEntry{Text: text, At: now}
	s.Logs = append(s.Logs, entry)
	return entry
}

// ResetRound clears every round-scoped field and returns to Waiting.
func (s *Session) ResetRound() {
	s.Status = StatusWaiting
	s.SecretWord = ""
	s.Questions = make([]Question, 0)
	s.Guesses = make([]Guess, 0)
	s.NextQuestionID = 0
	s.PendingQuestionID = 0
	s.AskedCount = 0
	s.GuessAttempts = nil
	s.TurnOrder = make([]string, 0)
	s.TurnIndex = 0
	s.HoldIndex = false
}

func (s *Session) Summary() RoomSummary {
	return RoomSummary{
		Code:        s.Code,
		PlayerCount: len(s.Players),
		Status:      s.Status,
	}
}

func IsDontKnow(answer string) bool {
	a := strings.TrimSpace(answer)
	return strings.EqualFold(a, AnswerDontKnow) || a == answerDontKnowMark
}
