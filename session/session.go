// Package session owns the lifecycle of per-session mutable state.
package session

import (
	"sync"
	"time"

	"github.com/xiaot623/bookchat/domain"
)

// Greeting is the synthetic assistant turn seeded at session creation.
const Greeting = "Book store xin chào! Tôi có thể giúp gì cho bạn?"

// ClassifyOutcome is the result of the classification stage for one message.
type ClassifyOutcome struct {
	Message string
	Intent  domain.Intent
	Lookup  *domain.LookupResult
}

// PendingItem is a queued inbound message together with the channel its
// in-flight classification result will arrive on. The channel is buffered so
// a classification worker never blocks delivering a result nobody collected.
type PendingItem struct {
	Message string
	Result  chan ClassifyOutcome
}

// Session is the server-held state for one conversation.
//
// All fields below the mutex are guarded by it. The lock is held only for
// brief critical sections (enqueue, snapshot-and-clear, write-back); it is
// never held across a catalog or language-service call.
type Session struct {
	ID string

	// SynthMu serializes synthesis for this session so consecutive batches
	// produce replies in firing order. Never taken while holding Mu.
	SynthMu sync.Mutex

	Mu         sync.Mutex
	History    []domain.Turn
	Draft      domain.OrderDraft
	LastLookup *domain.LookupResult
	Pending    []PendingItem
	Timer      *time.Timer
	TimerGen   uint64 // bumped on every re-arm; stale fires check it
	Busy       bool
}

// Snapshot is a consistent copy of the transport-visible state.
type Snapshot struct {
	History     []domain.Turn `json:"chat_history"`
	QueueLength int           `json:"queue_length"`
	Processing  bool          `json:"processing"`
}

// Snapshot returns a copy of the state the transport polls for.
func (s *Session) Snapshot() Snapshot {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	history := make([]domain.Turn, len(s.History))
	copy(history, s.History)
	return Snapshot{
		History:     history,
		QueueLength: len(s.Pending),
		Processing:  s.Busy,
	}
}

// HistorySnapshot returns a copy of the conversation log.
func (s *Session) HistorySnapshot() []domain.Turn {
	s.Mu.Lock()
	defer s.Mu.Unlock()
	history := make([]domain.Turn, len(s.History))
	copy(history, s.History)
	return history
}

// EventSink receives session lifecycle events. Satisfied by eventlog.Log.
type EventSink interface {
	Init(sessionID string)
	Append(sessionID string, kind domain.EventType, payload interface{})
}

// Registry owns all sessions, keyed by id. Sessions are created lazily on
// first contact and live for the process lifetime.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	events   EventSink
}

// NewRegistry creates an empty registry.
func NewRegistry(events EventSink) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		events:   events,
	}
}

// GetOrCreate returns the session for id, creating and initializing it on
// first contact. Initialization (greeting turn, log file, session_init event)
// happens exactly once even under concurrent first-contact requests, and
// completes before the session is published, so session_init is always the
// first event in a session's log.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}

	if r.events != nil {
		r.events.Init(id)
		r.events.Append(id, domain.EventTypeSessionInit, domain.SessionInitPayload{Message: "session initialized"})
	}

	s := &Session{
		ID:      id,
		History: []domain.Turn{{Role: domain.RoleAssistant, Text: Greeting}},
	}
	r.sessions[id] = s
	return s
}

// Get returns the session for id, or nil if it has never been seen.
func (r *Registry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}
