package game

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

// Clock schedules the per-room timeouts.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) internal.Stopper
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) internal.Stopper {
	return time.AfterFunc(d, f)
}

// SystemClock is backed by time.AfterFunc.
func SystemClock() Clock { return systemClock{} }

// startTimer replaces the session's pending timeout. The callback carries the
// generation it was issued under and is ignored once a newer timer exists.
func (r *Registry) startTimer(s *internal.Session, o *outbox, kind internal.TimerKind, playerID string, questionID int) {
	r.cancelTimer(s)

	s.TimerSeq++
	now := r.clock.Now()
	d := r.opts.TurnTimeout
	s.Timer = &internal.TurnTimer{
		Seq:        s.TimerSeq,
		Kind:       kind,
		PlayerID:   playerID,
		QuestionID: questionID,
		StartedAt:  now,
		Duration:   d,
	}
	s.Timer.Handle = r.clock.AfterFunc(d, r.onTimeout(s, s.TimerSeq))

	o.to(playerID, internal.EventTimerStart, internal.TimerStartData{
		Kind:       kind,
		DurationMs: d.Milliseconds(),
		Deadline:   now.Add(d),
	})
	log.Debug().Str("room", s.Code).Str("player", playerID).Str("kind", string(kind)).
		Uint64("seq", s.TimerSeq).Msg("timer started")
}

// cancelTimer stops the pending timeout, if any. Caller holds s.Mu.
func (r *Registry) cancelTimer(s *internal.Session) {
	if s.Timer == nil {
		return
	}
	if s.Timer.Handle != nil {
		s.Timer.Handle.Stop()
	}
	s.Timer = nil
}

func (r *Registry) onTimeout(s *internal.Session, seq uint64) func() {
	return func() {
		err := r.mutate(s, func(s *internal.Session, o *outbox) error {
			t := s.Timer
			if t == nil || t.Seq != seq {
				log.Debug().Str("room", s.Code).Uint64("seq", seq).Msg("stale timer ignored")
				return nil
			}
			s.Timer = nil

			switch t.Kind {
			case internal.TimerAsk:
				r.askTimedOut(s, o, t)
			case internal.TimerAnswer:
				r.answerTimedOut(s, o, t)
			}
			return nil
		})
		if err != nil {
			// The room was torn down before the timer could run.
			log.Debug().Err(err).Uint64("seq", seq).Msg("timer fired for closed room")
		}
	}
}

func (r *Registry) askTimedOut(s *internal.Session, o *outbox, t *internal.TurnTimer) {
	asker := s.CurrentAsker()
	if s.Status != internal.StatusPlaying || asker == nil || asker.Id != t.PlayerID || s.PendingQuestionID != 0 {
		return
	}

	asker.TimeoutCount++
	log.Info().Str("room", s.Code).Str("player", asker.Id).Int("timeouts", asker.TimeoutCount).Msg("ask timeout")

	if asker.TimeoutCount >= r.opts.MaxTimeouts {
		r.removePlayer(s, o, asker.Id, "was removed for inactivity", true)
		return
	}

	s.AskedCount++
	r.broadcastCounter(s, o)
	r.logf(s, o, "%s skipped their turn", asker.Name)
	r.advanceTurn(s, o)
}

func (r *Registry) answerTimedOut(s *internal.Session, o *outbox, t *internal.TurnTimer) {
	thinker := s.Thinker()
	if s.Status != internal.StatusPlaying || thinker == nil || thinker.Id != t.PlayerID {
		return
	}
	q := s.PendingQuestion()
	if q == nil || q.ID != t.QuestionID || q.Answered() {
		return
	}

	answer := internal.AnswerDontKnow
	q.Answer = &answer
	s.PendingQuestionID = 0
	o.room(s.Code, internal.EventQuestionUpdate, *q)

	thinker.TimeoutCount++
	log.Info().Str("room", s.Code).Str("player", thinker.Id).Int("timeouts", thinker.TimeoutCount).Msg("answer timeout")

	if thinker.TimeoutCount >= r.opts.MaxTimeouts {
		r.removePlayer(s, o, thinker.Id, "was removed for inactivity", true)
		return
	}

	r.logf(s, o, "%s did not answer in time", thinker.Name)
	r.advanceTurn(s, o)
}
