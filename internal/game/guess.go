package game

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
	"github.com/scythe504/guessword-backend/internal/utils"
)

// =============================================================================
// GUESS HANDLING
// =============================================================================

// SubmitGuess checks text against the secret. Guesses from the Thinker, from
// non-members or outside a round are ignored.
func (r *Registry) SubmitGuess(connID, code, text string) error {
	return r.withSession(code, func(s *internal.Session, o *outbox) error {
		p, ok := s.Players[connID]
		if !ok || p.IsThinker() {
			return nil
		}
		guess := utils.NormalizeGuess(text)
		if guess == "" {
			return nil
		}
		correct := guess == utils.NormalizeGuess(s.SecretWord)

		switch s.Status {
		case internal.StatusPlaying:
			r.guessWhilePlaying(s, o, p, text, correct)
		case internal.StatusGuessing:
			r.guessWhileGuessing(s, o, p, text, correct)
		}
		return nil
	})
}

// guessWhilePlaying: a wrong guess costs the room one question slot.
func (r *Registry) guessWhilePlaying(s *internal.Session, o *outbox, p *internal.Player, text string, correct bool) {
	p.ResetTimeouts()
	g := internal.Guess{
		PlayerID: p.Id,
		Name:     p.Name,
		Text:     text,
		Correct:  correct,
		Phase:    internal.StatusPlaying,
	}
	s.Guesses = append(s.Guesses, g)
	o.room(s.Code, internal.EventGuessNew, g)

	if correct {
		r.endRound(s, o, fmt.Sprintf("%s guessed the word!", p.Name), p)
		return
	}

	if s.AskedCount < s.MaxQuestions {
		s.AskedCount++
		r.broadcastCounter(s, o)
	}
	r.logf(s, o, "%s guessed %q, wrong", p.Name, text)
	log.Debug().Str("room", s.Code).Str("player", p.Id).Int("asked", s.AskedCount).Msg("wrong guess")

	if s.PendingQuestionID != 0 {
		// The Thinker still owes an answer. The turn moves once it arrives,
		// unless the budget is already gone.
		if s.AskedCount >= s.MaxQuestions {
			r.enterGuessing(s, o)
		}
		return
	}
	r.advanceTurn(s, o)
}

// guessWhileGuessing spends one of the player's final attempts.
func (r *Registry) guessWhileGuessing(s *internal.Session, o *outbox, p *internal.Player, text string, correct bool) {
	left := s.GuessAttempts[p.Id]
	if left <= 0 {
		return
	}
	p.ResetTimeouts()
	left--
	s.GuessAttempts[p.Id] = left

	g := internal.Guess{
		PlayerID:     p.Id,
		Name:         p.Name,
		Text:         text,
		Correct:      correct,
		Phase:        internal.StatusGuessing,
		AttemptsLeft: &left,
	}
	s.Guesses = append(s.Guesses, g)
	o.room(s.Code, internal.EventGuessNew, g)

	if correct {
		r.endRound(s, o, fmt.Sprintf("%s guessed the word!", p.Name), p)
		return
	}
	if !s.AttemptsLeft() {
		r.endRound(s, o, "Nobody guessed the word.", nil)
		return
	}
	o.room(s.Code, internal.EventRoundGuessing, attemptsData(s))
}
