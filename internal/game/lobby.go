package game

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/scythe504/guessword-backend/internal"
	"github.com/scythe504/guessword-backend/internal/utils"
)

// =============================================================================
// SESSION REGISTRY
// =============================================================================

type ThinkerExitPolicy string

const (
	// ThinkerExitTeardown destroys the room when its Thinker goes away.
	ThinkerExitTeardown ThinkerExitPolicy = "teardown"
	// ThinkerExitRotate promotes the longest-standing player instead.
	ThinkerExitRotate ThinkerExitPolicy = "rotate"
)

type LateJoinPolicy string

const (
	// LateJoinAppend serves mid-round joiners after the current rotation.
	LateJoinAppend LateJoinPolicy = "append"
	// LateJoinNextRound keeps mid-round joiners out until the next round.
	LateJoinNextRound LateJoinPolicy = "next-round"
)

const roomCodeLength = 4

type Options struct {
	TurnTimeout   time.Duration
	MaxQuestions  int
	GuessAttempts int
	MaxTimeouts   int
	ThinkerExit   ThinkerExitPolicy
	LateJoin      LateJoinPolicy
	// Words backs round:suggest. May be empty.
	Words []string
}

func DefaultOptions() Options {
	return Options{
		TurnTimeout:   internal.TurnTimeout,
		MaxQuestions:  internal.MaxQuestions,
		GuessAttempts: internal.GuessAttempts,
		MaxTimeouts:   internal.MaxTimeouts,
		ThinkerExit:   ThinkerExitTeardown,
		LateJoin:      LateJoinAppend,
	}
}

// Registry owns every live session and the connection → room membership.
//
// Lock order is session before registry: code holding a Session.Mu may take
// r.mu, never the reverse.
type Registry struct {
	opts    Options
	out     Broadcaster
	clock   Clock
	archive RoundArchive

	mu       sync.RWMutex
	sessions map[string]*internal.Session
	members  map[string]string // conn id -> room code
}

// NewRegistry wires a registry to its transport. clock defaults to the system
// clock and archive may be nil.
func NewRegistry(opts Options, out Broadcaster, clock Clock, archive RoundArchive) *Registry {
	if clock == nil {
		clock = SystemClock()
	}
	return &Registry{
		opts:     opts,
		out:      out,
		clock:    clock,
		archive:  archive,
		sessions: make(map[string]*internal.Session),
		members:  make(map[string]string),
	}
}

// Create opens a new room with connID as its Thinker. An existing code is
// rejected, never retried.
func (r *Registry) Create(connID, code, name string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidCode
	}
	name = playerName(name)

	if r.Exists(code) {
		return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	if current := r.memberOf(connID); current != "" {
		_ = r.Leave(connID, current)
	}

	now := r.clock.Now()
	s := internal.NewSession(code, r.opts.MaxQuestions, now)
	s.AddPlayer(connID, name, internal.RoleThinker, now)
	s.ThinkerID = connID

	// Nobody else can see s yet, so taking its lock under r.mu cannot deadlock.
	s.Mu.Lock()
	r.mu.Lock()
	if _, exists := r.sessions[code]; exists {
		r.mu.Unlock()
		s.Mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateCode, code)
	}
	r.sessions[code] = s
	r.members[connID] = code
	r.mu.Unlock()

	o := &outbox{}
	o.subscribe(code, connID)
	o.to(connID, internal.EventRoomHistory, historyData(s, connID))
	r.logf(s, o, "%s created room %s", name, code)
	r.broadcastState(s, o)
	o.lobbyChanged = true
	r.flush(o)
	s.Mu.Unlock()
	r.afterUnlock(o)

	log.Info().Str("room", code).Str("conn", connID).Str("name", name).Msg("room created")
	return nil
}

func (r *Registry) Lookup(code string) (*internal.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[code]
	return s, ok
}

func (r *Registry) Exists(code string) bool {
	_, ok := r.Lookup(code)
	return ok
}

// Destroy tears a room down, notifying whoever is still in it.
func (r *Registry) Destroy(code string) error {
	return r.withSession(code, func(s *internal.Session, o *outbox) error {
		r.destroyLocked(s, o, "room closed")
		return nil
	})
}

// ListSummaries returns the lobby view, sorted by room code.
func (r *Registry) ListSummaries() []internal.RoomSummary {
	sessions := r.snapshot()

	summaries := make([]internal.RoomSummary, 0, len(sessions))
	for _, s := range sessions {
		s.Mu.Lock()
		if !s.Closed {
			summaries = append(summaries, s.Summary())
		}
		s.Mu.Unlock()
	}
	slices.SortFunc(summaries, func(a, b internal.RoomSummary) int {
		return strings.Compare(a.Code, b.Code)
	})
	return summaries
}

// NewCode returns a random code that is not currently in use.
func (r *Registry) NewCode() string {
	for {
		code := utils.GenerateCode(roomCodeLength)
		if !r.Exists(code) {
			return code
		}
	}
}

// Reap destroys rooms that have seen no activity for longer than idle and
// reports how many were removed.
func (r *Registry) Reap(idle time.Duration) int {
	cutoff := r.clock.Now().Add(-idle)
	reaped := 0
	for _, s := range r.snapshot() {
		o := &outbox{}
		s.Mu.Lock()
		if !s.Closed && s.LastActive.Before(cutoff) {
			r.destroyLocked(s, o, "room closed after inactivity")
			reaped++
		}
		r.flush(o)
		s.Mu.Unlock()
		r.afterUnlock(o)
	}
	return reaped
}

// RunReaper calls Reap every idle/2 until ctx is done.
func (r *Registry) RunReaper(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Reap(idle); n > 0 {
				log.Info().Int("rooms", n).Msg("reaped idle rooms")
			}
		}
	}
}

func (r *Registry) snapshot() []*internal.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := make([]*internal.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// withSession runs fn as the room's only mutator and delivers its effects.
func (r *Registry) withSession(code string, fn func(s *internal.Session, o *outbox) error) error {
	s, ok := r.Lookup(code)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, code)
	}
	return r.mutate(s, fn)
}

func (r *Registry) mutate(s *internal.Session, fn func(s *internal.Session, o *outbox) error) error {
	o := &outbox{}
	s.Mu.Lock()
	if s.Closed {
		s.Mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRoomNotFound, s.Code)
	}
	s.LastActive = r.clock.Now()
	err := fn(s, o)
	r.flush(o)
	s.Mu.Unlock()
	r.afterUnlock(o)
	return err
}

// destroyLocked closes s and removes it from the registry. Caller holds s.Mu.
func (r *Registry) destroyLocked(s *internal.Session, o *outbox, reason string) {
	if s.Closed {
		return
	}
	r.cancelTimer(s)
	s.Closed = true

	o.room(s.Code, internal.EventRoomClosed, internal.RoomClosedData{Code: s.Code, Reason: reason})
	o.closeRoom(s.Code)
	o.lobbyChanged = true

	r.mu.Lock()
	if r.sessions[s.Code] == s {
		delete(r.sessions, s.Code)
	}
	for connID, code := range r.members {
		if code == s.Code {
			delete(r.members, connID)
		}
	}
	r.mu.Unlock()

	log.Info().Str("room", s.Code).Str("reason", reason).Msg("room destroyed")
}

func (r *Registry) memberOf(connID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.members[connID]
}

func (r *Registry) setMember(connID, code string) {
	r.mu.Lock()
	r.members[connID] = code
	r.mu.Unlock()
}

func (r *Registry) clearMember(connID, code string) {
	r.mu.Lock()
	if r.members[connID] == code {
		delete(r.members, connID)
	}
	r.mu.Unlock()
}

// logf appends to the room log and broadcasts the entry.
func (r *Registry) logf(s *internal.Session, o *outbox, format string, args ...any) {
	entry := s.AppendLog(fmt.Sprintf(format, args...), r.clock.Now())
	o.room(s.Code, internal.EventLogMessage, entry)
	log.Debug().Str("room", s.Code).Msg(entry.Text)
}

func playerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.DefaultPlayerName
	}
	return name
}
