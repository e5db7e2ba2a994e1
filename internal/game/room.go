package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
)

// =============================================================================
// ROOM MEMBERSHIP
// =============================================================================

// Join adds connID to the room as a Guesser and replays the room history to it.
func (r *Registry) Join(connID, code, name string) error {
	if !r.Exists(code) {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	current := r.memberOf(connID)
	if current == code {
		return nil
	}
	if current != "" {
		_ = r.Leave(connID, current)
	}
	name = playerName(name)

	return r.withSession(code, func(s *internal.Session, o *outbox) error {
		// 1. Register the player and its membership
		s.AddPlayer(connID, name, internal.RoleGuesser, r.clock.Now())
		r.setMember(connID, code)

		// 2. Snapshot of everything said so far, private to the joiner
		o.subscribe(code, connID)
		o.to(connID, internal.EventRoomHistory, historyData(s, connID))
		r.logf(s, o, "%s joined", name)

		// 3. Mid-round joiners are queued behind the current rotation
		if s.Status == internal.StatusPlaying && r.opts.LateJoin == LateJoinAppend {
			wasEmpty := len(s.TurnOrder) == 0
			s.TurnOrder = append(s.TurnOrder, connID)
			if wasEmpty && s.PendingQuestionID == 0 {
				s.TurnIndex = 0
				r.announceTurn(s, o)
			}
		}

		r.broadcastState(s, o)
		o.lobbyChanged = true
		log.Info().Str("room", code).Str("player", connID).Str("name", name).Msg("player joined")
		return nil
	})
}

// Leave removes connID from the room. Leaving a room the connection is not in
// is ignored.
func (r *Registry) Leave(connID, code string) error {
	if r.memberOf(connID) != code {
		return nil
	}
	err := r.withSession(code, func(s *internal.Session, o *outbox) error {
		if _, ok := s.Players[connID]; !ok {
			return nil
		}
		r.removePlayer(s, o, connID, "left", false)
		return nil
	})
	if errors.Is(err, ErrRoomNotFound) {
		r.clearMember(connID, code)
		return nil
	}
	return err
}

// Disconnect is Leave for whatever room the connection is in.
func (r *Registry) Disconnect(connID string) {
	if code := r.memberOf(connID); code != "" {
		if err := r.Leave(connID, code); err != nil {
			log.Error().Err(err).Str("conn", connID).Str("room", code).Msg("leave on disconnect failed")
		}
	}
	log.Debug().Str("conn", connID).Msg("connection closed")
}

// removePlayer is the single removal path shared by leave, disconnect and
// timeout expulsion. Caller holds s.Mu.
func (r *Registry) removePlayer(s *internal.Session, o *outbox, connID, reason string, kicked bool) {
	p, ok := s.Players[connID]
	if !ok {
		return
	}
	delete(s.Players, connID)
	r.clearMember(connID, s.Code)

	if kicked {
		o.to(connID, internal.EventRoomKicked, internal.RoomClosedData{Code: s.Code, Reason: reason})
	}
	o.unsubscribe(s.Code, connID)
	r.logf(s, o, "%s %s", p.Name, reason)
	o.lobbyChanged = true

	log.Info().Str("room", s.Code).Str("player", connID).Str("reason", reason).Msg("player removed")

	if connID == s.ThinkerID {
		r.thinkerExit(s, o, p, reason)
		return
	}

	removed, currentChanged := s.RemoveFromTurnOrder(connID)
	if removed && s.Status == internal.StatusPlaying {
		switch {
		case len(s.TurnOrder) == 0:
			if s.PendingQuestionID == 0 {
				r.cancelTimer(s)
				r.logf(s, o, "No guessers left, round suspended")
			}
		case currentChanged:
			if s.PendingQuestionID == 0 {
				r.announceTurn(s, o)
			} else {
				// The next asker already sits at TurnIndex; serve it once
				// the pending answer arrives.
				s.HoldIndex = true
			}
		}
	}

	if s.Status == internal.StatusGuessing {
		delete(s.GuessAttempts, connID)
		if !s.AttemptsLeft() {
			r.endRound(s, o, "No attempts left.", nil)
		}
	}

	if len(s.Players) == 0 {
		r.destroyLocked(s, o, "room is empty")
		return
	}
	r.broadcastState(s, o)
}

// thinkerExit ends any running round with the secret revealed and then either
// tears the room down or hands the Thinker role to the earliest joiner. reason
// is how the Thinker went, as in removePlayer.
func (r *Registry) thinkerExit(s *internal.Session, o *outbox, thinker *internal.Player, reason string) {
	if s.Status != internal.StatusWaiting {
		r.endRound(s, o, fmt.Sprintf("%s %s, round over.", thinker.Name, reason), nil)
	}
	s.ThinkerID = ""

	if r.opts.ThinkerExit != ThinkerExitRotate {
		r.destroyLocked(s, o, "thinker "+reason)
		return
	}

	next := s.EarliestPlayer()
	if next == nil {
		r.destroyLocked(s, o, "room is empty")
		return
	}
	next.Role = internal.RoleThinker
	s.ThinkerID = next.Id
	r.logf(s, o, "%s is the new thinker", next.Name)
	r.broadcastState(s, o)
}
