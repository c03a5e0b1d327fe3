package domain

// SessionInitPayload is the payload for session_init events.
type SessionInitPayload struct {
	Message string `json:"message"`
}

// MessageQueuedPayload is the payload for message_queued events.
type MessageQueuedPayload struct {
	MessageID  string `json:"message_id"`
	Message    string `json:"message"`
	Queued     int    `json:"queued"`
	Processing bool   `json:"processing"`
}

// QueueRejectedPayload is the payload for queue_rejected events.
type QueueRejectedPayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// TimerFirePayload is the payload for timer_fire events.
type TimerFirePayload struct {
	SnapshotCount int `json:"snapshot_count"`
}

// ClassifyResultPayload is the payload for classify_result events.
type ClassifyResultPayload struct {
	Message string        `json:"message"`
	Intent  Intent        `json:"intent"`
	Lookup  *LookupResult `json:"lookup,omitempty"`
}

// ClassifyErrorPayload is the payload for classify_error, classify_timeout
// and sql_error events.
type ClassifyErrorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// BatchStartPayload is the payload for batch_start events.
type BatchStartPayload struct {
	BatchSize int `json:"batch_size"`
}

// LLMErrorPayload is the payload for llm_error events.
type LLMErrorPayload struct {
	Error  string `json:"error"`
	Prompt string `json:"prompt,omitempty"`
}

// LLMResponsePayload is the payload for llm_response events.
type LLMResponsePayload struct {
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	BatchSize int    `json:"batch_size"`
}

// OrderCommittedPayload is the payload for order_committed events.
type OrderCommittedPayload struct {
	OrderID    int64   `json:"order_id"`
	Lines      int     `json:"lines"`
	TotalPrice float64 `json:"total_price"`
}

// OrderCommitFailedPayload is the payload for order_commit_failed events.
type OrderCommitFailedPayload struct {
	Error string `json:"error"`
}
