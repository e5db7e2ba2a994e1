package game

import (
	"sync"
	"testing"
	"time"

	"github.com/scythe504/guessword-backend/internal"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	target string // conn id, room code, or "*" for everyone
	msg    internal.Message[any]
}

// recorder is a Broadcaster that keeps everything it is asked to send.
type recorder struct {
	mu     sync.Mutex
	direct []sentMessage
	room   []sentMessage
	all    []sentMessage
	groups map[string]map[string]bool
	closed []string
}

func newRecorder() *recorder {
	return &recorder{groups: make(map[string]map[string]bool)}
}

func (r *recorder) SendTo(connID string, msg internal.Message[any]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.direct = append(r.direct, sentMessage{target: connID, msg: msg})
}

func (r *recorder) SendRoom(code string, msg internal.Message[any]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.room = append(r.room, sentMessage{target: code, msg: msg})
}

func (r *recorder) SendAll(msg internal.Message[any]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.all = append(r.all, sentMessage{target: "*", msg: msg})
}

func (r *recorder) Subscribe(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groups[code] == nil {
		r.groups[code] = make(map[string]bool)
	}
	r.groups[code][connID] = true
}

func (r *recorder) Unsubscribe(code, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups[code], connID)
}

func (r *recorder) CloseRoom(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, code)
	r.closed = append(r.closed, code)
}

// roomEvents returns the payloads of typ sent to room code, oldest first.
func (r *recorder) roomEvents(code, typ string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, m := range r.room {
		if m.target == code && m.msg.Type == typ {
			out = append(out, m.msg.Data)
		}
	}
	return out
}

// directEvents returns the payloads of typ sent privately to connID.
func (r *recorder) directEvents(connID, typ string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, m := range r.direct {
		if m.target == connID && m.msg.Type == typ {
			out = append(out, m.msg.Data)
		}
	}
	return out
}

func (r *recorder) lastLobby() internal.RoomsUpdateData {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.all) == 0 {
		return internal.RoomsUpdateData{}
	}
	return r.all[len(r.all)-1].msg.Data.(internal.RoomsUpdateData)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.direct, r.room, r.all = nil, nil, nil
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// manualClock only fires timers when told to.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) internal.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// active returns the timers that have been neither stopped nor fired.
func (c *manualClock) active() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped {
			out = append(out, t)
		}
	}
	return out
}

// fireActive runs the single live timer as if its delay had elapsed.
func (c *manualClock) fireActive(t *testing.T) {
	t.Helper()
	live := c.active()
	require.Len(t, live, 1, "expected exactly one live timer")
	c.fire(live[0])
}

// fire runs timer even when it was stopped, the way a late delivery would.
func (c *manualClock) fire(timer *fakeTimer) {
	c.mu.Lock()
	timer.stopped = true
	c.now = c.now.Add(timer.d)
	c.mu.Unlock()
	timer.f()
}

func (c *manualClock) latest() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

type fixture struct {
	reg   *Registry
	out   *recorder
	clock *manualClock
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	out := newRecorder()
	clock := newManualClock()
	return &fixture{
		reg:   NewRegistry(opts, out, clock, nil),
		out:   out,
		clock: clock,
	}
}

func (f *fixture) session(t *testing.T, code string) *internal.Session {
	t.Helper()
	s, ok := f.reg.Lookup(code)
	require.True(t, ok, "room %s should exist", code)
	return s
}

// startRound creates room ABCD with Alice thinking of "gatto" and the given
// guessers joined in order.
func (f *fixture) startRound(t *testing.T, guessers ...string) *internal.Session {
	t.Helper()
	require.NoError(t, f.reg.Create("alice", "ABCD", "Alice"))
	for _, g := range guessers {
		require.NoError(t, f.reg.Join(g, "ABCD", g))
	}
	require.NoError(t, f.reg.StartRound("alice", "ABCD", "gatto"))
	return f.session(t, "ABCD")
}
