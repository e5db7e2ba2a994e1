package game

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
)

// =============================================================================
// BROADCASTING & MESSAGING
// =============================================================================

// Broadcaster is the transport boundary. Implementations must not block and
// must not call back into the Registry from the calling goroutine.
type Broadcaster interface {
	SendTo(connID string, msg internal.Message[any])
	SendRoom(code string, msg internal.Message[any])
	SendAll(msg internal.Message[any])
	Subscribe(code, connID string)
	Unsubscribe(code, connID string)
	CloseRoom(code string)
}

// RoundArchive receives every finished round. Failures are logged only.
type RoundArchive interface {
	ArchiveRound(ctx context.Context, result internal.RoundResult) error
}

const archiveTimeout = 5 * time.Second

type deliveryKind int

const (
	deliverTo deliveryKind = iota
	deliverRoom
	deliverSubscribe
	deliverUnsubscribe
	deliverCloseRoom
)

type delivery struct {
	kind   deliveryKind
	target string
	conn   string
	msg    internal.Message[any]
}

// outbox collects the effects of one mutation in order. It is flushed while
// the room lock is still held so a room's events leave in mutation order.
type outbox struct {
	deliveries   []delivery
	lobbyChanged bool
	finished     []internal.RoundResult
}

func (o *outbox) to(connID, typ string, data any) {
	o.deliveries = append(o.deliveries, delivery{
		kind:   deliverTo,
		target: connID,
		msg:    internal.Message[any]{Type: typ, Data: data},
	})
}

func (o *outbox) room(code, typ string, data any) {
	o.deliveries = append(o.deliveries, delivery{
		kind:   deliverRoom,
		target: code,
		msg:    internal.Message[any]{Type: typ, Data: data},
	})
}

func (o *outbox) subscribe(code, connID string) {
	o.deliveries = append(o.deliveries, delivery{kind: deliverSubscribe, target: code, conn: connID})
}

func (o *outbox) unsubscribe(code, connID string) {
	o.deliveries = append(o.deliveries, delivery{kind: deliverUnsubscribe, target: code, conn: connID})
}

func (o *outbox) closeRoom(code string) {
	o.deliveries = append(o.deliveries, delivery{kind: deliverCloseRoom, target: code})
}

func (r *Registry) flush(o *outbox) {
	for _, d := range o.deliveries {
		switch d.kind {
		case deliverTo:
			r.out.SendTo(d.target, d.msg)
		case deliverRoom:
			r.out.SendRoom(d.target, d.msg)
		case deliverSubscribe:
			r.out.Subscribe(d.target, d.conn)
		case deliverUnsubscribe:
			r.out.Unsubscribe(d.target, d.conn)
		case deliverCloseRoom:
			r.out.CloseRoom(d.target)
		}
	}
	o.deliveries = nil
}

// afterUnlock runs the side effects that must not hold a room lock.
func (r *Registry) afterUnlock(o *outbox) {
	if o.lobbyChanged {
		r.PublishLobby()
	}
	if r.archive == nil {
		return
	}
	for _, result := range o.finished {
		go func(result internal.RoundResult) {
			ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
			defer cancel()
			if err := r.archive.ArchiveRound(ctx, result); err != nil {
				log.Error().Err(err).Str("room", result.Code).Int("round", result.Round).
					Msg("failed to archive round")
			}
		}(result)
	}
}

// PublishLobby pushes the lobby list to every connection.
func (r *Registry) PublishLobby() {
	r.out.SendAll(internal.Message[any]{
		Type: internal.EventRoomsUpdate,
		Data: internal.RoomsUpdateData{Rooms: r.ListSummaries()},
	})
}

func stateData(s *internal.Session) internal.RoomStateData {
	data := internal.RoomStateData{
		Code:         s.Code,
		Status:       s.Status,
		Round:        s.Round,
		ThinkerID:    s.ThinkerID,
		Players:      s.Roster(),
		TurnOrder:    slices.Clone(s.TurnOrder),
		AskedCount:   s.AskedCount,
		MaxQuestions: s.MaxQuestions,
	}
	if p := s.CurrentAsker(); p != nil {
		data.CurrentTurn = p.Id
	}
	return data
}

func (r *Registry) broadcastState(s *internal.Session, o *outbox) {
	o.room(s.Code, internal.EventRoomState, stateData(s))
}

func (r *Registry) broadcastCounter(s *internal.Session, o *outbox) {
	o.room(s.Code, internal.EventCounterUpdate, internal.CounterData{
		Asked: s.AskedCount,
		Max:   s.MaxQuestions,
	})
}

func historyData(s *internal.Session, connID string) internal.RoomHistoryData {
	return internal.RoomHistoryData{
		Code: s.Code,
		You:  connID,
		Logs: slices.Clone(s.Logs),
		Chat: slices.Clone(s.Chat),
	}
}

func attemptsData(s *internal.Session) internal.RoundGuessingData {
	return internal.RoundGuessingData{Attempts: maps.Clone(s.GuessAttempts)}
}
