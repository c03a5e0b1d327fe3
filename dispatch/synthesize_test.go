package dispatch

import (
	"strings"
	"testing"

	"github.com/xiaot623/bookchat/domain"
	"github.com/xiaot623/bookchat/session"
)

func TestMergeCartAppendsAndUpdates(t *testing.T) {
	draft := &domain.OrderDraft{}

	mergeCart(draft, []domain.OrderItem{{Title: "Nhà giả kim", Quantity: 2}})
	if len(draft.Cart) != 1 || draft.Cart[0].Quantity != 2 {
		t.Fatalf("unexpected cart after first merge: %+v", draft.Cart)
	}

	// Same title again updates quantity instead of duplicating the line.
	draft.Cart[0].ResolvedTitle = "Nhà giả kim"
	mergeCart(draft, []domain.OrderItem{{Title: "nhà giả kim", Quantity: 5}})
	if len(draft.Cart) != 1 {
		t.Fatalf("duplicate line added: %+v", draft.Cart)
	}
	if draft.Cart[0].Quantity != 5 {
		t.Fatalf("quantity not updated: %+v", draft.Cart[0])
	}
	if draft.Cart[0].ResolvedTitle != "" {
		t.Fatalf("changed line must be re-resolved against the catalog")
	}

	mergeCart(draft, []domain.OrderItem{{Title: "Dế Mèn phiêu lưu ký", Quantity: 1}})
	if len(draft.Cart) != 2 {
		t.Fatalf("new title not appended: %+v", draft.Cart)
	}
}

func TestMergeCartSubstringMatches(t *testing.T) {
	draft := &domain.OrderDraft{
		Cart: []domain.CartLine{{Title: "Harry Potter và Hòn đá phù thủy", Quantity: 1}},
	}
	mergeCart(draft, []domain.OrderItem{{Title: "harry potter và hòn đá phù thủy", Quantity: 3}})
	if len(draft.Cart) != 1 || draft.Cart[0].Quantity != 3 {
		t.Fatalf("case-insensitive match failed: %+v", draft.Cart)
	}
}

func TestMergeCartSkipsEmptyAndClampsQuantity(t *testing.T) {
	draft := &domain.OrderDraft{}
	mergeCart(draft, []domain.OrderItem{
		{Title: "", Quantity: 4},
		{Title: "Nhà giả kim", Quantity: 0},
	})
	if len(draft.Cart) != 1 {
		t.Fatalf("empty title must be skipped: %+v", draft.Cart)
	}
	if draft.Cart[0].Quantity != 1 {
		t.Fatalf("zero quantity must clamp to 1: %+v", draft.Cart[0])
	}
}

func TestCopyDraftIsDeep(t *testing.T) {
	orig := domain.OrderDraft{
		CustomerName: "An",
		Cart:         []domain.CartLine{{Title: "Nhà giả kim", Quantity: 1}},
	}
	cp := copyDraft(orig)
	cp.Cart[0].Quantity = 9
	if orig.Cart[0].Quantity != 1 {
		t.Fatalf("cart slice shared between copies")
	}
}

func TestFormatVND(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{500, "500"},
		{80000, "80,000"},
		{160000, "160,000"},
		{1234567, "1,234,567"},
		{86000.4, "86,000"},
	}
	for _, tc := range cases {
		if got := formatVND(tc.in); got != tc.want {
			t.Errorf("formatVND(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCombinedPrompt(t *testing.T) {
	batch := []session.ClassifyOutcome{
		{Message: "chào shop", Intent: domain.IntentChitchat},
		{
			Message: "có sách khoa học không?",
			Intent:  domain.IntentQueryBooks,
			Lookup:  &domain.LookupResult{Books: []domain.Book{{Title: "Lược sử thời gian"}}},
		},
		{
			Message: "còn truyện ma không?",
			Intent:  domain.IntentQueryBooks,
			Lookup:  &domain.LookupResult{Message: "Data not found!"},
		},
	}

	prompt := combinedPrompt(batch)
	if strings.Count(prompt, "\n\n---\n\n") != 2 {
		t.Fatalf("expected 2 separators: %q", prompt)
	}
	for _, want := range []string{
		"User: chào shop\nIntent: chitchat",
		"Intent: query_books\nSQL result: 1 books",
		"SQL result: Data not found!",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestCombinedMessages(t *testing.T) {
	batch := []session.ClassifyOutcome{
		{Message: "một"},
		{Message: "hai"},
	}
	if got := combinedMessages(batch); got != "một\nhai" {
		t.Fatalf("unexpected combined messages: %q", got)
	}
}
