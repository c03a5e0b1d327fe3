package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/xiaot623/bookchat/domain"
)

// MockService is a deterministic LanguageService for development and tests.
// Classification is keyword-driven so the pipeline can be exercised without
// a model behind it.
type MockService struct{}

// NewMockService creates a new mock language service.
func NewMockService() *MockService {
	return &MockService{}
}

var _ LanguageService = (*MockService)(nil)

// ClassifyIntent classifies by keyword.
func (m *MockService) ClassifyIntent(_ context.Context, text string, _ []domain.Turn) (domain.Intent, error) {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "hủy"), strings.Contains(t, "huy don"), strings.Contains(t, "cancel"):
		return domain.IntentCancelOrder, nil
	case strings.Contains(t, "chính xác"), strings.Contains(t, "xác nhận"), strings.Contains(t, "đúng rồi"):
		return domain.IntentConfirmOrder, nil
	case strings.Contains(t, "sửa"):
		return domain.IntentEditOrder, nil
	case strings.Contains(t, "đắt quá"), strings.Contains(t, "mắc quá"):
		return domain.IntentReconsiderOrder, nil
	case strings.Contains(t, "mua"), strings.Contains(t, "đặt"):
		return domain.IntentOrderBook, nil
	case strings.Contains(t, "sách"), strings.Contains(t, "còn"), strings.Contains(t, "giá"):
		return domain.IntentQueryBooks, nil
	default:
		return domain.IntentChitchat, nil
	}
}

// ExtractBookFilter treats the whole message as a title search.
func (m *MockService) ExtractBookFilter(_ context.Context, text string, _ []domain.Turn) (domain.BookFilter, error) {
	return domain.BookFilter{Title: strings.TrimSpace(text)}, nil
}

// ExtractOrderFields does a shallow parse: "mua <title>" becomes one item.
func (m *MockService) ExtractOrderFields(_ context.Context, text string, _ []domain.Turn, _ *domain.LookupResult) (*domain.OrderFields, error) {
	fields := &domain.OrderFields{}
	t := strings.TrimSpace(text)
	for _, prefix := range []string{"mua ", "đặt "} {
		if strings.HasPrefix(strings.ToLower(t), prefix) {
			fields.Items = append(fields.Items, domain.OrderItem{
				Title:    strings.TrimSpace(t[len(prefix):]),
				Quantity: ParseQuantity(t),
			})
			break
		}
	}
	return fields, nil
}

// ComposeReply echoes the lookup size.
func (m *MockService) ComposeReply(_ context.Context, prompt string, _ []domain.Turn, lookup *domain.LookupResult) (string, error) {
	if lookup != nil && len(lookup.Books) > 0 {
		return fmt.Sprintf("[MOCK] Tìm thấy %d cuốn phù hợp.", len(lookup.Books)), nil
	}
	return fmt.Sprintf("[MOCK] Trả lời cho: %s", truncate(prompt, 80)), nil
}

// Chitchat returns a canned reply.
func (m *MockService) Chitchat(_ context.Context, text string) (string, error) {
	return fmt.Sprintf("[MOCK] Cảm ơn bạn đã nhắn: %s", truncate(text, 80)), nil
}

// truncate shortens a string for echo replies.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
