package store

import (
	"context"
	"testing"

	"github.com/xiaot623/bookchat/domain"
)

func newTestCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	s, err := NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSeedIdempotent(t *testing.T) {
	s := newTestCatalog(t)

	if err := s.Seed(context.Background()); err != nil {
		t.Fatalf("second seed failed: %v", err)
	}
	titles, err := s.ListTitles(context.Background())
	if err != nil {
		t.Fatalf("ListTitles failed: %v", err)
	}
	if len(titles) != 30 {
		t.Fatalf("expected 30 titles, got %d", len(titles))
	}

	var orders int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM Orders`).Scan(&orders); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if orders != 5 {
		t.Fatalf("expected 5 sample orders, got %d", orders)
	}
}

func TestLookupTitleExact(t *testing.T) {
	s := newTestCatalog(t)

	match, ok, err := s.LookupTitle(context.Background(), "Nhà giả kim")
	if err != nil {
		t.Fatalf("LookupTitle failed: %v", err)
	}
	if !ok || match != "Nhà giả kim" {
		t.Fatalf("unexpected match: %q ok=%v", match, ok)
	}
}

func TestLookupTitleFuzzy(t *testing.T) {
	s := newTestCatalog(t)

	match, ok, err := s.LookupTitle(context.Background(), "nha gia kim")
	if err != nil {
		t.Fatalf("LookupTitle failed: %v", err)
	}
	if !ok || match != "Nhà giả kim" {
		t.Fatalf("unexpected match: %q ok=%v", match, ok)
	}
}

func TestLookupTitleSubstring(t *testing.T) {
	s := newTestCatalog(t)

	match, ok, err := s.LookupTitle(context.Background(), "clean code")
	if err != nil {
		t.Fatalf("LookupTitle failed: %v", err)
	}
	if !ok || match != "Clean Code" {
		t.Fatalf("unexpected match: %q ok=%v", match, ok)
	}
}

func TestLookupTitleMiss(t *testing.T) {
	s := newTestCatalog(t)

	_, ok, err := s.LookupTitle(context.Background(), "quantum basket weaving")
	if err != nil {
		t.Fatalf("LookupTitle failed: %v", err)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestGetPriceAndStock(t *testing.T) {
	s := newTestCatalog(t)

	price, stock, err := s.GetPriceAndStock(context.Background(), "Nhà giả kim")
	if err != nil {
		t.Fatalf("GetPriceAndStock failed: %v", err)
	}
	if price != 80000 || stock != 50 {
		t.Fatalf("unexpected price/stock: %v/%d", price, stock)
	}

	if _, _, err := s.GetPriceAndStock(context.Background(), "no such book"); err == nil {
		t.Fatalf("expected error for unknown title")
	}
}

func TestQueryBooksFilters(t *testing.T) {
	s := newTestCatalog(t)

	books, err := s.QueryBooks(context.Background(), domain.BookFilter{Author: "Rowling"})
	if err != nil {
		t.Fatalf("QueryBooks failed: %v", err)
	}
	if len(books) != 3 {
		t.Fatalf("expected 3 Rowling books, got %d", len(books))
	}

	books, err = s.QueryBooks(context.Background(), domain.BookFilter{Category: "Truyện tranh", MaxPrice: 92000})
	if err != nil {
		t.Fatalf("QueryBooks failed: %v", err)
	}
	if len(books) != 1 || books[0].Title != "Thám tử lừng danh Conan" {
		t.Fatalf("unexpected result: %+v", books)
	}
}

func TestCommitOrderSuccess(t *testing.T) {
	s := newTestCatalog(t)

	lines := []domain.CartLine{
		{Title: "nha gia kim", ResolvedTitle: "Nhà giả kim", Quantity: 2, UnitPrice: 80000},
		{Title: "dune", ResolvedTitle: "Dune", Quantity: 1, UnitPrice: 170000},
	}
	orderID, err := s.CommitOrder(context.Background(), "Vũ Văn F", "0911112222", "Huế", lines)
	if err != nil {
		t.Fatalf("CommitOrder failed: %v", err)
	}
	if orderID == 0 {
		t.Fatalf("expected order id")
	}

	_, stock, err := s.GetPriceAndStock(context.Background(), "Nhà giả kim")
	if err != nil {
		t.Fatalf("GetPriceAndStock failed: %v", err)
	}
	if stock != 48 {
		t.Fatalf("expected stock 48, got %d", stock)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM Orders WHERE customer_name = ?`, "Vũ Văn F").Scan(&count); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 order rows, got %d", count)
	}
}

func TestCommitOrderAllOrNothing(t *testing.T) {
	s := newTestCatalog(t)

	// Second line exceeds stock (Trí tuệ nhân tạo has 5), so the whole
	// order must roll back including the first line's decrement.
	lines := []domain.CartLine{
		{Title: "nha gia kim", ResolvedTitle: "Nhà giả kim", Quantity: 2},
		{Title: "tri tue", ResolvedTitle: "Trí tuệ nhân tạo", Quantity: 6},
	}
	_, err := s.CommitOrder(context.Background(), "Đỗ Thị G", "0944445555", "Vinh", lines)
	if err == nil {
		t.Fatalf("expected commit to fail")
	}

	_, stock, err := s.GetPriceAndStock(context.Background(), "Nhà giả kim")
	if err != nil {
		t.Fatalf("GetPriceAndStock failed: %v", err)
	}
	if stock != 50 {
		t.Fatalf("expected stock unchanged at 50, got %d", stock)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM Orders WHERE customer_name = ?`, "Đỗ Thị G").Scan(&count); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no order rows, got %d", count)
	}
}

func TestCommitOrderUnresolvedLine(t *testing.T) {
	s := newTestCatalog(t)

	lines := []domain.CartLine{{Title: "dune", Quantity: 1}}
	if _, err := s.CommitOrder(context.Background(), "A", "1", "X", lines); err == nil {
		t.Fatalf("expected error for unresolved line")
	}
}
