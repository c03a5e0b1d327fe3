package domain

import "encoding/json"

// Role of a conversation turn.
const (
	RoleUser      = "user"
	RoleAssistant = "model"
)

// Turn is a single entry in a session's conversation log.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// CartLine is one requested book in an order draft.
type CartLine struct {
	Title         string  `json:"title"`
	Quantity      int     `json:"quantity"`
	ResolvedTitle string  `json:"resolved_title,omitempty"`
	UnitPrice     float64 `json:"unit_price,omitempty"`
}

// OrderDraft is the in-progress order for a session.
// Confirming is only set once every required customer field is present and
// every cart line has a resolved title.
type OrderDraft struct {
	Cart         []CartLine `json:"cart"`
	CustomerName string     `json:"customer_name,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Address      string     `json:"address,omitempty"`
	Confirming   bool       `json:"confirming"`
	TotalPrice   float64    `json:"total_price"`
}

// Reset restores the draft to its empty state.
func (d *OrderDraft) Reset() {
	*d = OrderDraft{}
}

// MissingFields lists the customer fields still required before confirmation.
func (d *OrderDraft) MissingFields() []string {
	var missing []string
	if d.CustomerName == "" {
		missing = append(missing, "tên")
	}
	if d.Phone == "" {
		missing = append(missing, "số điện thoại")
	}
	if d.Address == "" {
		missing = append(missing, "địa chỉ")
	}
	return missing
}

// Book is one catalog entry.
type Book struct {
	BookID   int64   `json:"book_id"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Category string  `json:"category"`
}

// LookupResult is the outcome of a quick catalog lookup performed during
// classification. Exactly one of Books, Message or Error is meaningful.
type LookupResult struct {
	Books   []Book `json:"books,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BookFilter narrows a catalog query. Zero-value fields are ignored.
type BookFilter struct {
	Title    string  `json:"title,omitempty"`
	Author   string  `json:"author,omitempty"`
	Category string  `json:"category,omitempty"`
	MaxPrice float64 `json:"max_price,omitempty"`
}

// OrderItem is one extracted book request before cart merging.
type OrderItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

// OrderFields is the structured information extracted from an order message.
type OrderFields struct {
	CustomerName string      `json:"customer_name,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	Address      string      `json:"address,omitempty"`
	Items        []OrderItem `json:"books,omitempty"`
}

// Event is one immutable entry in a session's event log.
// Ts is epoch seconds with fractional precision, matching the on-disk format.
type Event struct {
	EventID   string          `json:"event_id"`
	SessionID string          `json:"session_id"`
	Ts        float64         `json:"ts"`
	Type      EventType       `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}
