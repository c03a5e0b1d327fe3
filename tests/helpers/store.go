// Package helpers provides shared test fixtures.
package helpers

import (
	"context"
	"testing"

	"github.com/xiaot623/bookchat/store"
)

// NewTestCatalog creates an in-memory seeded catalog that is closed when the
// test finishes.
func NewTestCatalog(t *testing.T) *store.SQLiteCatalog {
	t.Helper()

	s, err := store.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite catalog: %v", err)
	}
	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
