package session

import (
	"sync"
	"testing"

	"github.com/xiaot623/bookchat/domain"
)

// recordingSink counts lifecycle events per session.
type recordingSink struct {
	mu    sync.Mutex
	inits map[string]int
	kinds map[string][]domain.EventType
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		inits: make(map[string]int),
		kinds: make(map[string][]domain.EventType),
	}
}

func (r *recordingSink) Init(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits[sessionID]++
}

func (r *recordingSink) Append(sessionID string, kind domain.EventType, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[sessionID] = append(r.kinds[sessionID], kind)
}

func TestGetOrCreateSeedsGreeting(t *testing.T) {
	sink := newRecordingSink()
	r := NewRegistry(sink)

	s := r.GetOrCreate("s1")
	if s == nil {
		t.Fatalf("expected session")
	}
	if len(s.History) != 1 || s.History[0].Role != domain.RoleAssistant || s.History[0].Text != Greeting {
		t.Fatalf("unexpected initial history: %+v", s.History)
	}
	if s.Draft.Confirming || len(s.Draft.Cart) != 0 {
		t.Fatalf("expected empty draft")
	}
	if sink.inits["s1"] != 1 {
		t.Fatalf("expected 1 init, got %d", sink.inits["s1"])
	}
	if len(sink.kinds["s1"]) != 1 || sink.kinds["s1"][0] != domain.EventTypeSessionInit {
		t.Fatalf("expected session_init event, got %+v", sink.kinds["s1"])
	}
}

func TestGetOrCreateIdempotent(t *testing.T) {
	r := NewRegistry(newRecordingSink())

	a := r.GetOrCreate("s1")
	b := r.GetOrCreate("s1")
	if a != b {
		t.Fatalf("expected same session instance")
	}
}

func TestGetOrCreateConcurrentFirstContact(t *testing.T) {
	sink := newRecordingSink()
	r := NewRegistry(sink)

	const goroutines = 32
	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i] = r.GetOrCreate("contended")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if sessions[i] != sessions[0] {
			t.Fatalf("goroutine %d got a different session", i)
		}
	}
	if sink.inits["contended"] != 1 {
		t.Fatalf("init ran %d times, want exactly once", sink.inits["contended"])
	}
}

func TestInitEventPrecedesFirstMessage(t *testing.T) {
	sink := newRecordingSink()
	r := NewRegistry(sink)

	// Racing first-contact submitters: whoever wins creation, session_init
	// must land in the log before any of their message events.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.GetOrCreate("s1")
			sink.Append("s1", domain.EventTypeMessageQueued, nil)
		}()
	}
	wg.Wait()

	sink.mu.Lock()
	kinds := append([]domain.EventType(nil), sink.kinds["s1"]...)
	sink.mu.Unlock()

	if len(kinds) != 17 {
		t.Fatalf("expected 17 events, got %d", len(kinds))
	}
	if kinds[0] != domain.EventTypeSessionInit {
		t.Fatalf("first event is %s, want session_init", kinds[0])
	}
	for _, k := range kinds[1:] {
		if k == domain.EventTypeSessionInit {
			t.Fatalf("duplicate session_init in %v", kinds)
		}
	}
}

func TestGetUnknownSessionIsNil(t *testing.T) {
	r := NewRegistry(newRecordingSink())
	if r.Get("nope") != nil {
		t.Fatalf("expected nil for unseen session")
	}
}

func TestSnapshotCopiesHistory(t *testing.T) {
	r := NewRegistry(newRecordingSink())
	s := r.GetOrCreate("s1")

	snap := s.Snapshot()
	snap.History[0].Text = "mutated"

	if s.History[0].Text != Greeting {
		t.Fatalf("snapshot aliased session history")
	}
	if snap.QueueLength != 0 || snap.Processing {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
