// Package domain defines the core domain models for the chat pipeline.
package domain

import "strings"

// Intent represents the classified intent of a user message.
type Intent string

const (
	IntentChitchat        Intent = "chitchat"
	IntentQueryBooks      Intent = "query_books"
	IntentOrderBook       Intent = "order_book"
	IntentConfirmOrder    Intent = "confirm_order"
	IntentCancelOrder     Intent = "cancel_order"
	IntentEditOrder       Intent = "edit_order"
	IntentReconsiderOrder Intent = "reconsider_order"
	IntentUnknown         Intent = "unknown"
)

// ParseIntent maps a raw classifier token to a known intent.
// Unrecognized tokens fall back to IntentUnknown.
func ParseIntent(token string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(token))) {
	case IntentChitchat:
		return IntentChitchat
	case IntentQueryBooks:
		return IntentQueryBooks
	case IntentOrderBook:
		return IntentOrderBook
	case IntentConfirmOrder:
		return IntentConfirmOrder
	case IntentCancelOrder:
		return IntentCancelOrder
	case IntentEditOrder:
		return IntentEditOrder
	case IntentReconsiderOrder:
		return IntentReconsiderOrder
	default:
		return IntentUnknown
	}
}

// IsOrderFlow reports whether the intent belongs to the ordering family and
// should be routed through the order handler.
func (i Intent) IsOrderFlow() bool {
	switch i {
	case IntentOrderBook, IntentEditOrder, IntentConfirmOrder, IntentReconsiderOrder:
		return true
	default:
		return false
	}
}

// EventType represents the type of a logged event.
type EventType string

const (
	EventTypeSessionInit       EventType = "session_init"
	EventTypeMessageQueued     EventType = "message_queued"
	EventTypeQueueRejected     EventType = "queue_rejected"
	EventTypeTimerFire         EventType = "timer_fire"
	EventTypeClassifyResult    EventType = "classify_result"
	EventTypeClassifyError     EventType = "classify_error"
	EventTypeClassifyTimeout   EventType = "classify_timeout"
	EventTypeLookupError       EventType = "sql_error"
	EventTypeBatchStart        EventType = "batch_start"
	EventTypeLLMError          EventType = "llm_error"
	EventTypeLLMResponse       EventType = "llm_response"
	EventTypeOrderCommitted    EventType = "order_committed"
	EventTypeOrderCommitFailed EventType = "order_commit_failed"
)
