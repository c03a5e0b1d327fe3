// Package llm provides the language service the dispatcher calls for
// classification, extraction and reply synthesis.
package llm

import (
	"context"

	"github.com/xiaot623/bookchat/domain"
)

// LanguageService defines the external natural-language operations.
// Implementations must be safe for concurrent use.
type LanguageService interface {
	// ClassifyIntent maps the latest user message to an intent token.
	ClassifyIntent(ctx context.Context, text string, history []domain.Turn) (domain.Intent, error)

	// ExtractBookFilter turns a catalog question into a structured filter.
	ExtractBookFilter(ctx context.Context, text string, history []domain.Turn) (domain.BookFilter, error)

	// ExtractOrderFields pulls customer fields and requested books out of an
	// order message. Pronoun-like references ("cuốn đó") are resolved against
	// the last lookup result.
	ExtractOrderFields(ctx context.Context, text string, history []domain.Turn, lastLookup *domain.LookupResult) (*domain.OrderFields, error)

	// ComposeReply produces the final answer for a batch, given the combined
	// prompt and the lookup results gathered during classification.
	ComposeReply(ctx context.Context, prompt string, history []domain.Turn, lookup *domain.LookupResult) (string, error)

	// Chitchat produces a short friendly reply with no catalog context.
	Chitchat(ctx context.Context, text string) (string, error)
}
