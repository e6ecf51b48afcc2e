// Package notify carries one-way game notifications out of the engine.
package notify

import (
	"sync"
	"time"
)

// Notification types emitted by the game engine.
const (
	TypeGameCreated  = "GAME_CREATED"
	TypeGameEnded    = "GAME_ENDED"
	TypeGameState    = "GAME_STATE_CHANGE"
	TypePhaseChange  = "PHASE_CHANGE"
	TypePlayerAction = "PLAYER_ACTION"
	TypeTrigger      = "TRIGGER"
)

// Notification describes something that happened in a game.
type Notification struct {
	Type      string         `json:"type"`
	GameID    string         `json:"gameId"`
	PlayerID  string         `json:"playerId,omitempty"` // empty for broadcast
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Handler receives notifications. Handlers may be called from any goroutine.
type Handler func(n Notification)

// Fanout returns a handler that forwards to every non-nil handler in order.
func Fanout(handlers ...Handler) Handler {
	live := make([]Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	return func(n Notification) {
		for _, h := range live {
			h(n)
		}
	}
}

// Recorder collects notifications in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Notification
	signal chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{signal: make(chan struct{}, 1)}
}

// Handle records n. Use it as a Handler.
func (r *Recorder) Handle(n Notification) {
	r.mu.Lock()
	r.events = append(r.events, n)
	r.mu.Unlock()
	select {
	case r.signal <- struct{}{}:
	default:
	}
}

// Notifications returns a copy of what has been recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.events))
	copy(out, r.events)
	return out
}

// OfType returns recorded notifications with the given type.
func (r *Recorder) OfType(t string) []Notification {
	var out []Notification
	for _, n := range r.Notifications() {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// WaitFor blocks until a notification of type t has been recorded or the
// timeout elapses.
func (r *Recorder) WaitFor(t string, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if len(r.OfType(t)) > 0 {
			return true
		}
		select {
		case <-r.signal:
		case <-deadline.C:
			return len(r.OfType(t)) > 0
		}
	}
}
