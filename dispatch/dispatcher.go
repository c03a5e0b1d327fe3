// Package dispatch implements the message coalescing engine: per-session
// queuing, debounce-based batch formation and the two-stage pipeline that
// turns a burst of messages into exactly one reply.
package dispatch

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/bookchat/config"
	"github.com/xiaot623/bookchat/domain"
	"github.com/xiaot623/bookchat/eventlog"
	"github.com/xiaot623/bookchat/llm"
	"github.com/xiaot623/bookchat/policy"
	"github.com/xiaot623/bookchat/session"
	"github.com/xiaot623/bookchat/store"
)

// SubmitStatus reports how an inbound message was handled.
type SubmitStatus string

const (
	StatusQueued   SubmitStatus = "queued"
	StatusRejected SubmitStatus = "rejected"
)

// SubmitResult is the immediate acknowledgement returned to the transport.
type SubmitResult struct {
	Status     SubmitStatus `json:"status"`
	MessageID  string       `json:"message_id,omitempty"`
	Queued     int          `json:"queued"`
	Processing bool         `json:"processing"`
}

// Dispatcher receives inbound messages, coalesces them per session and runs
// the classification and synthesis stages.
type Dispatcher struct {
	cfg      *config.Config
	registry *session.Registry
	catalog  store.Catalog
	lang     llm.LanguageService
	events   *eventlog.Log
	policy   *policy.Engine

	classifyPool  *Pool
	synthesisPool *Pool
}

// New creates a dispatcher and starts its worker pools.
func New(cfg *config.Config, registry *session.Registry, catalog store.Catalog, lang llm.LanguageService, events *eventlog.Log, engine *policy.Engine) *Dispatcher {
	return &Dispatcher{
		cfg:           cfg,
		registry:      registry,
		catalog:       catalog,
		lang:          lang,
		events:        events,
		policy:        engine,
		classifyPool:  NewPool(cfg.ClassifyWorkers, 4*cfg.ClassifyWorkers*cfg.MaxQueueSize),
		synthesisPool: NewPool(cfg.SynthesisWorkers, 4*cfg.SynthesisWorkers*cfg.MaxQueueSize),
	}
}

// Stop drains both pools. A debounce timer armed before shutdown may still
// fire afterwards; its submissions land in stopped pools and degrade to
// no-ops.
func (d *Dispatcher) Stop() {
	d.classifyPool.Stop()
	d.synthesisPool.Stop()
}

// Submit is the inbound path. It never blocks on classification, synthesis
// or persistence: it enqueues, arms the debounce timer and acknowledges.
func (d *Dispatcher) Submit(sessionID, text string) SubmitResult {
	sess := d.registry.GetOrCreate(sessionID)

	sess.Mu.Lock()
	if len(sess.Pending) >= d.cfg.MaxQueueSize {
		sess.Mu.Unlock()
		d.events.Append(sessionID, domain.EventTypeQueueRejected, domain.QueueRejectedPayload{
			Message: text,
			Reason:  "max_pending",
		})
		return SubmitResult{Status: StatusRejected}
	}

	msgID := "msg_" + uuid.New().String()[:8]
	item := session.PendingItem{
		Message: text,
		Result:  make(chan session.ClassifyOutcome, 1),
	}
	// History snapshot is taken now, at submission time, so later messages
	// in the same burst do not alter this one's classification context.
	history := make([]domain.Turn, len(sess.History))
	copy(history, sess.History)

	sess.Pending = append(sess.Pending, item)
	d.arm(sess)

	queued := len(sess.Pending)
	processing := sess.Busy
	sess.Mu.Unlock()

	d.submitClassify(sess.ID, item, history)

	d.events.Append(sessionID, domain.EventTypeMessageQueued, domain.MessageQueuedPayload{
		MessageID:  msgID,
		Message:    text,
		Queued:     queued,
		Processing: processing,
	})

	return SubmitResult{Status: StatusQueued, MessageID: msgID, Queued: queued, Processing: processing}
}

// submitClassify hands the message to the classification pool. If the pool
// queue is saturated the item degrades immediately instead of blocking the
// request path.
func (d *Dispatcher) submitClassify(sessionID string, item session.PendingItem, history []domain.Turn) {
	ok := d.classifyPool.TrySubmit(func() {
		item.Result <- d.classify(sessionID, item.Message, history)
	})
	if !ok {
		log.Printf("WARN: classify pool saturated, degrading message for session %s", sessionID)
		item.Result <- session.ClassifyOutcome{
			Message: item.Message,
			Intent:  domain.IntentUnknown,
			Lookup:  &domain.LookupResult{Error: "classify pool saturated"},
		}
	}
}

// classify runs intent classification and, for catalog questions, the quick
// structured lookup. Errors degrade to a null-intent outcome; they never
// abort the batch.
func (d *Dispatcher) classify(sessionID, message string, history []domain.Turn) session.ClassifyOutcome {
	ctx := context.Background()
	outcome := session.ClassifyOutcome{Message: message, Intent: domain.IntentUnknown}

	intent, err := d.lang.ClassifyIntent(ctx, message, history)
	if err != nil {
		d.events.Append(sessionID, domain.EventTypeClassifyError, domain.ClassifyErrorPayload{
			Message: message,
			Error:   err.Error(),
		})
	} else {
		outcome.Intent = intent
	}

	if outcome.Intent == domain.IntentQueryBooks {
		outcome.Lookup = d.lookup(ctx, sessionID, message, history)
	}

	d.events.Append(sessionID, domain.EventTypeClassifyResult, domain.ClassifyResultPayload{
		Message: message,
		Intent:  outcome.Intent,
		Lookup:  outcome.Lookup,
	})
	return outcome
}

// lookup answers a catalog question with a structured filter query.
func (d *Dispatcher) lookup(ctx context.Context, sessionID, message string, history []domain.Turn) *domain.LookupResult {
	filter, err := d.lang.ExtractBookFilter(ctx, message, history)
	if err != nil {
		d.events.Append(sessionID, domain.EventTypeLookupError, domain.ClassifyErrorPayload{
			Message: message,
			Error:   err.Error(),
		})
		return &domain.LookupResult{Error: err.Error()}
	}

	books, err := d.catalog.QueryBooks(ctx, filter)
	if err != nil {
		d.events.Append(sessionID, domain.EventTypeLookupError, domain.ClassifyErrorPayload{
			Message: message,
			Error:   err.Error(),
		})
		return &domain.LookupResult{Error: err.Error()}
	}
	if len(books) == 0 {
		return &domain.LookupResult{Message: "Data not found!"}
	}
	return &domain.LookupResult{Books: books}
}

// arm resets the session's debounce timer. Caller must hold the session
// lock. The per-session timer state machine is Idle -> Armed -> Fired ->
// Idle; arming while Armed cancels the previous timer, so a session has at
// most one live timer.
func (d *Dispatcher) arm(sess *session.Session) {
	if sess.Timer != nil {
		sess.Timer.Stop()
	}
	sess.TimerGen++
	gen := sess.TimerGen
	sess.Timer = time.AfterFunc(d.cfg.Debounce, func() {
		d.fire(sess, gen)
	})
}

// fire is the debounce callback. It snapshots and clears the queue
// atomically under the session lock: anything enqueued after the snapshot
// belongs to the next cycle, so no message is dropped or batched twice.
// A fire outlived by a re-arm (its generation no longer current) is stale
// and does nothing; the replacement timer owns the queue.
func (d *Dispatcher) fire(sess *session.Session, gen uint64) {
	sess.Mu.Lock()
	if gen != sess.TimerGen {
		sess.Mu.Unlock()
		return
	}
	pending := sess.Pending
	sess.Pending = nil
	sess.Timer = nil
	sess.Mu.Unlock()

	d.events.Append(sess.ID, domain.EventTypeTimerFire, domain.TimerFirePayload{
		SnapshotCount: len(pending),
	})

	if len(pending) == 0 {
		return
	}

	// Bounded wait per item: classification started at submission time, so
	// most results are already buffered. A timeout degrades the single item
	// and the batch moves on; a result arriving later is discarded.
	batch := make([]session.ClassifyOutcome, 0, len(pending))
	for _, item := range pending {
		select {
		case res := <-item.Result:
			batch = append(batch, res)
		case <-time.After(d.cfg.ClassifyWait):
			d.events.Append(sess.ID, domain.EventTypeClassifyTimeout, domain.ClassifyErrorPayload{
				Message: item.Message,
			})
			batch = append(batch, session.ClassifyOutcome{
				Message: item.Message,
				Intent:  domain.IntentUnknown,
				Lookup:  &domain.LookupResult{Error: "classify timeout"},
			})
		}
	}

	d.synthesisPool.Submit(func() {
		d.processBatch(sess, batch)
	})
}
