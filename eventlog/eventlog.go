// Package eventlog provides a crash-safe, append-only per-session event log.
//
// Events land in memory first and are then persisted as a single JSON array
// at {dir}/{session_id}.json. The file is replaced atomically on every append
// (whole array rewritten to a temp path, then renamed over the original), so
// a crash mid-write never leaves a partial file. Appends to the same session
// are totally ordered by a per-session lock; different sessions never block
// each other.
package eventlog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/bookchat/domain"
)

// Log records per-session events.
type Log struct {
	dir string

	mu    sync.Mutex // protects locks and mem maps
	locks map[string]*sync.Mutex
	mem   map[string][]domain.Event
}

// New creates an event log rooted at dir, creating it if needed.
func New(dir string) (*Log, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &Log{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
		mem:   make(map[string][]domain.Event),
	}, nil
}

func (l *Log) filePath(sessionID string) string {
	return filepath.Join(l.dir, sessionID+".json")
}

// sessionLock returns the lock serializing a single session's log.
func (l *Log) sessionLock(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[sessionID]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[sessionID] = lk
	}
	return lk
}

// Init ensures the session's log file exists as an empty array.
func (l *Log) Init(sessionID string) {
	lk := l.sessionLock(sessionID)
	lk.Lock()
	defer lk.Unlock()

	path := l.filePath(sessionID)
	if _, err := os.Stat(path); err == nil {
		return
	}
	if err := l.atomicWrite(path, []domain.Event{}); err != nil {
		log.Printf("WARN: failed to create log file for session %s: %v", sessionID, err)
	}
}

// Append records an event. The in-memory copy always succeeds; persistence
// failure is reported but non-fatal.
func (l *Log) Append(sessionID string, kind domain.EventType, payload interface{}) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("ERROR: failed to marshal %s payload for session %s: %v", kind, sessionID, err)
		payloadBytes = nil
	}

	lk := l.sessionLock(sessionID)
	lk.Lock()
	defer lk.Unlock()

	// Timestamped under the session lock so concurrent appenders cannot
	// persist out-of-order ts values.
	event := domain.Event{
		EventID:   "evt_" + uuid.New().String()[:8],
		SessionID: sessionID,
		Ts:        float64(time.Now().UnixNano()) / 1e9,
		Type:      kind,
		Payload:   payloadBytes,
	}

	// In-memory first
	l.mu.Lock()
	l.mem[sessionID] = append(l.mem[sessionID], event)
	l.mu.Unlock()

	// Read-modify-write of the persisted array
	path := l.filePath(sessionID)
	existing := readEvents(path)
	existing = append(existing, event)
	if err := l.atomicWrite(path, existing); err != nil {
		log.Printf("ERROR: failed to persist logs for session %s: %v", sessionID, err)
	}
}

// Read returns the session's events in append order. A corrupt or partially
// written file falls back to the in-memory copy, then to an empty slice.
func (l *Log) Read(sessionID string) []domain.Event {
	lk := l.sessionLock(sessionID)
	lk.Lock()
	defer lk.Unlock()

	path := l.filePath(sessionID)
	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err == nil {
			var events []domain.Event
			if json.Unmarshal(data, &events) == nil {
				return events
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if mem, ok := l.mem[sessionID]; ok {
		out := make([]domain.Event, len(mem))
		copy(out, mem)
		return out
	}
	return []domain.Event{}
}

// atomicWrite marshals events and replaces path via a temp file + rename.
func (l *Log) atomicWrite(path string, events []domain.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".events-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace log file: %w", err)
	}
	return nil
}

// readEvents parses the persisted array, returning nil on any error so a
// corrupt file degrades to an empty history instead of failing the append.
func readEvents(path string) []domain.Event {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil
	}
	return events
}
