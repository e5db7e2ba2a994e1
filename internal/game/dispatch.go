package game

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
)

// =============================================================================
// INBOUND EVENT DISPATCH
// =============================================================================

// Connect greets a new connection with its id and the current lobby.
func (r *Registry) Connect(connID string) {
	r.out.SendTo(connID, internal.Message[any]{
		Type: internal.EventWelcome,
		Data: internal.WelcomeData{ConnID: connID},
	})
	r.out.SendTo(connID, internal.Message[any]{
		Type: internal.EventRoomsUpdate,
		Data: internal.RoomsUpdateData{Rooms: r.ListSummaries()},
	})
	log.Debug().Str("conn", connID).Msg("connection opened")
}

// Dispatch routes one inbound event. Failures are reported privately to the
// sender as system:error and never affect the room.
func (r *Registry) Dispatch(connID string, msg internal.Message[json.RawMessage]) {
	log.Debug().Str("conn", connID).Str("event", msg.Type).Msg("received message")

	if err := r.route(connID, msg); err != nil {
		code := ErrorCode(err)
		log.Debug().Err(err).Str("conn", connID).Str("event", msg.Type).Str("code", code).Msg("request rejected")
		r.out.SendTo(connID, internal.Message[any]{
			Type: internal.EventSystemError,
			Data: internal.SystemErrorData{Code: code, Message: err.Error()},
		})
	}
}

func (r *Registry) route(connID string, msg internal.Message[json.RawMessage]) error {
	// Every inbound payload names its room the same way.
	var target struct {
		Code string `json:"code"`
	}
	if err := decode(msg.Data, &target); err != nil {
		return err
	}
	code := strings.TrimSpace(target.Code)

	switch msg.Type {
	case internal.EventRoomCreate:
		var req internal.RoomRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return r.Create(connID, code, req.Name)

	case internal.EventRoomJoin:
		var req internal.RoomRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return r.Join(connID, code, req.Name)

	case internal.EventRoomLeave:
		return r.Leave(connID, code)

	case internal.EventRoundStart:
		var req internal.StartRoundRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return r.StartRound(connID, code, req.SecretWord)

	case internal.EventRoundSuggest:
		return r.Suggest(connID, code)

	case internal.EventQuestionAsk:
		var req internal.AskRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return r.AskQuestion(connID, code, req.Text)

	case internal.EventQuestionAnswer:
		var req internal.AnswerRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return r.AnswerQuestion(connID, code, req.ID, req.Answer)

	case internal.EventGuessSubmit:
		var req internal.GuessRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return r.SubmitGuess(connID, code, req.Text)

	case internal.EventChatMessage:
		var req internal.ChatRequest
		if err := decode(msg.Data, &req); err != nil {
			return err
		}
		return r.Chat(connID, code, req.Name, req.Text)

	default:
		return fmt.Errorf("%w: unknown event %q", ErrBadRequest, msg.Type)
	}
}

// Chat relays a chat line to the room and keeps it for late joiners. Messages
// for rooms the sender is not in are dropped.
func (r *Registry) Chat(connID, code, name, text string) error {
	text = strings.TrimSpace(text)
	if text == "" || r.memberOf(connID) != code {
		return nil
	}
	err := r.withSession(code, func(s *internal.Session, o *outbox) error {
		p, ok := s.Players[connID]
		if !ok {
			return nil
		}
		if name = strings.TrimSpace(name); name == "" {
			name = p.Name
		}
		entry := internal.ChatEntry{PlayerID: connID, Name: name, Text: text, At: r.clock.Now()}
		s.Chat = append(s.Chat, entry)
		o.room(s.Code, internal.EventChatMessage, entry)
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("room", code).Msg("chat dropped")
	}
	return nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
