package game

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
	"github.com/scythe504/guessword-backend/internal/utils"
)

// =============================================================================
// GAME FLOW
// =============================================================================

const suggestionCount = 3

// StartRound opens a new round with secret as the word to guess.
func (r *Registry) StartRound(connID, code, secret string) error {
	return r.withSession(code, func(s *internal.Session, o *outbox) error {
		thinker := s.Thinker()
		if thinker == nil || thinker.Id != connID {
			return fmt.Errorf("%w: only the thinker can start a round", ErrForbidden)
		}
		if s.Status != internal.StatusWaiting {
			return fmt.Errorf("%w: a round is already in progress", ErrForbidden)
		}
		secret = strings.TrimSpace(secret)
		if secret == "" {
			return ErrEmptySecret
		}

		// 1. Fresh round-scoped state
		r.cancelTimer(s)
		s.ResetRound()
		s.Round++
		s.SecretWord = secret
		s.Status = internal.StatusPlaying
		s.MaxQuestions = r.opts.MaxQuestions
		for _, p := range s.Players {
			p.ResetTimeouts()
		}

		// 2. Rotation in join order, thinker excluded
		for _, p := range s.Guessers() {
			s.TurnOrder = append(s.TurnOrder, p.Id)
		}
		s.TurnIndex = 0

		// 3. Announce
		o.to(connID, internal.EventRoundSecret, internal.RoundSecretData{Secret: secret})
		o.room(s.Code, internal.EventRoundStarted, internal.RoundStartedData{
			Round:        s.Round,
			MaxQuestions: s.MaxQuestions,
			ThinkerID:    s.ThinkerID,
			Players:      s.Roster(),
		})
		r.logf(s, o, "Round %d started, %s is thinking of a word", s.Round, thinker.Name)
		o.lobbyChanged = true

		if len(s.TurnOrder) > 0 {
			r.announceTurn(s, o)
		} else {
			s.HoldIndex = true
		}
		r.broadcastState(s, o)

		log.Info().Str("room", s.Code).Int("round", s.Round).Int("guessers", len(s.TurnOrder)).Msg("round started")
		return nil
	})
}

// Suggest privately offers the Thinker a few candidate secrets.
func (r *Registry) Suggest(connID, code string) error {
	return r.withSession(code, func(s *internal.Session, o *outbox) error {
		if s.ThinkerID != connID {
			return fmt.Errorf("%w: only the thinker can ask for suggestions", ErrForbidden)
		}
		if s.Status != internal.StatusWaiting {
			return fmt.Errorf("%w: a round is already in progress", ErrForbidden)
		}
		o.to(connID, internal.EventRoundSuggestions, internal.RoundSuggestionsData{
			Words: utils.PickWords(r.opts.Words, suggestionCount),
		})
		return nil
	})
}

// AskQuestion records a yes/no question from the current asker and hands the
// turn to the Thinker.
func (r *Registry) AskQuestion(connID, code, text string) error {
	return r.withSession(code, func(s *internal.Session, o *outbox) error {
		if s.Status != internal.StatusPlaying {
			return fmt.Errorf("%w: no round is being played", ErrNotYourTurn)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		if s.PendingQuestionID != 0 {
			return fmt.Errorf("%w: waiting for an answer", ErrNotYourTurn)
		}
		asker := s.CurrentAsker()
		if asker == nil || asker.Id != connID {
			return ErrNotYourTurn
		}
		if s.AskedCount >= s.MaxQuestions {
			return ErrQuestionLimitReached
		}

		r.cancelTimer(s)
		asker.ResetTimeouts()

		s.NextQuestionID++
		q := internal.Question{
			ID:        s.NextQuestionID,
			AskerID:   asker.Id,
			AskerName: asker.Name,
			Text:      text,
		}
		s.Questions = append(s.Questions, q)
		s.PendingQuestionID = q.ID

		o.room(s.Code, internal.EventQuestionNew, q)
		r.startTimer(s, o, internal.TimerAnswer, s.ThinkerID, q.ID)
		return nil
	})
}

// AnswerQuestion records the Thinker's answer and moves the turn on.
func (r *Registry) AnswerQuestion(connID, code string, questionID int, answer string) error {
	return r.withSession(code, func(s *internal.Session, o *outbox) error {
		thinker := s.Thinker()
		if thinker == nil || thinker.Id != connID {
			return fmt.Errorf("%w: only the thinker can answer", ErrForbidden)
		}
		if s.Status != internal.StatusPlaying {
			return nil
		}
		q := s.FindQuestion(questionID)
		if q == nil || q.Answered() {
			return nil
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return nil
		}

		dontKnow := internal.IsDontKnow(answer)
		if dontKnow {
			answer = internal.AnswerDontKnow
		}

		r.cancelTimer(s)
		thinker.ResetTimeouts()
		q.Answer = &answer
		if s.PendingQuestionID == q.ID {
			s.PendingQuestionID = 0
		}
		o.room(s.Code, internal.EventQuestionUpdate, *q)

		if !dontKnow && s.AskedCount < s.MaxQuestions {
			s.AskedCount++
			r.broadcastCounter(s, o)
		}
		r.advanceTurn(s, o)
		return nil
	})
}

// advanceTurn moves to the next asker, or into Guessing once the question
// budget is spent.
func (r *Registry) advanceTurn(s *internal.Session, o *outbox) {
	if s.AskedCount >= s.MaxQuestions {
		r.enterGuessing(s, o)
		return
	}
	if len(s.TurnOrder) == 0 {
		s.TurnIndex = 0
		s.HoldIndex = true
		r.cancelTimer(s)
		r.broadcastState(s, o)
		return
	}

	if s.HoldIndex {
		if s.TurnIndex >= len(s.TurnOrder) {
			s.TurnIndex = 0
		}
	} else {
		s.TurnIndex = (s.TurnIndex + 1) % len(s.TurnOrder)
	}
	r.announceTurn(s, o)
	r.broadcastState(s, o)
}

// announceTurn tells the room whose turn it is and starts their ask timer.
func (r *Registry) announceTurn(s *internal.Session, o *outbox) {
	s.HoldIndex = false
	asker := s.CurrentAsker()
	if asker == nil {
		return
	}
	o.room(s.Code, internal.EventTurnNow, internal.TurnNowData{PlayerID: asker.Id, Name: asker.Name})
	r.startTimer(s, o, internal.TimerAsk, asker.Id, 0)
}

func (r *Registry) enterGuessing(s *internal.Session, o *outbox) {
	r.cancelTimer(s)
	s.Status = internal.StatusGuessing
	s.PendingQuestionID = 0
	s.HoldIndex = false

	s.GuessAttempts = make(map[string]int)
	for _, p := range s.Guessers() {
		s.GuessAttempts[p.Id] = r.opts.GuessAttempts
	}
	if len(s.GuessAttempts) == 0 {
		r.endRound(s, o, "Nobody is left to guess.", nil)
		return
	}

	o.room(s.Code, internal.EventRoundGuessing, attemptsData(s))
	r.logf(s, o, "Out of questions, each guesser has %d final guesses", r.opts.GuessAttempts)
	o.lobbyChanged = true
	r.broadcastState(s, o)
}

// endRound reveals the secret and returns the room to Waiting. winner is nil
// when nobody guessed the word.
func (r *Registry) endRound(s *internal.Session, o *outbox, message string, winner *internal.Player) {
	r.cancelTimer(s)

	result := internal.RoundResult{
		Code:       s.Code,
		Round:      s.Round,
		Message:    message,
		Secret:     s.SecretWord,
		Questions:  slices.Clone(s.Questions),
		Guesses:    slices.Clone(s.Guesses),
		AskedCount: s.AskedCount,
		EndedAt:    r.clock.Now(),
	}
	if winner != nil {
		id := winner.Id
		result.WinnerID = &id
		result.WinnerName = winner.Name
	}

	o.room(s.Code, internal.EventRoundEnded, result)
	r.logf(s, o, "%s The word was %q.", sentence(message), s.SecretWord)
	o.finished = append(o.finished, result)

	s.ResetRound()
	o.lobbyChanged = true
	r.broadcastState(s, o)

	log.Info().Str("room", s.Code).Int("round", result.Round).Str("winner", result.WinnerName).Msg("round ended")
}

// sentence terminates message with a full stop unless it already ends in
// punctuation.
func sentence(message string) string {
	message = strings.TrimSpace(message)
	if message == "" || strings.ContainsAny(message[len(message)-1:], ".!?") {
		return message
	}
	return message + "."
}
