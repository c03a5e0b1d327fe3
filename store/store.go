// Package store defines the catalog storage interface and implementations.
package store

import (
	"context"
	"errors"

	"github.com/xiaot623/bookchat/domain"
)

// ErrInsufficientStock is returned by CommitOrder when any line cannot be
// satisfied. The whole order is rolled back.
var ErrInsufficientStock = errors.New("insufficient stock")

// Catalog defines the interface for book and order persistence.
type Catalog interface {
	// LookupTitle resolves a possibly misspelled title to the closest
	// catalog title. ok is false when nothing scores above the cutoff.
	LookupTitle(ctx context.Context, fuzzyTitle string) (match string, ok bool, err error)

	// GetPriceAndStock returns price and stock for an exact title.
	GetPriceAndStock(ctx context.Context, title string) (price float64, stock int, err error)

	// QueryBooks returns books matching the filter, all books for the
	// zero filter.
	QueryBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error)

	// ListTitles returns every distinct title in the catalog.
	ListTitles(ctx context.Context) ([]string, error)

	// CommitOrder inserts one order row per cart line and decrements stock,
	// all inside a single transaction. Any failure rolls back every line.
	CommitOrder(ctx context.Context, name, phone, address string, lines []domain.CartLine) (orderID int64, err error)

	// Lifecycle
	Close() error
}
