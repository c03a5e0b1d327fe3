package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	_ "github.com/mattn/go-sqlite3"

	"github.com/xiaot623/bookchat/domain"
)

// titleScoreCutoff is the minimum normalized similarity for a fuzzy title
// match to be accepted.
const titleScoreCutoff = 0.75

// SQLiteCatalog implements Catalog using SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLiteCatalog creates a new SQLite catalog.
func NewSQLiteCatalog(dsn string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway; a single connection also keeps
	// :memory: databases coherent across goroutines.
	db.SetMaxOpenConns(1)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	catalog := &SQLiteCatalog{db: db}
	if err := catalog.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return catalog, nil
}

// migrate runs database migrations.
func (s *SQLiteCatalog) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS Books (
			book_id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			price REAL NOT NULL,
			stock INTEGER NOT NULL,
			category TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS Orders (
			order_id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_name TEXT NOT NULL,
			phone TEXT,
			address TEXT,
			book_id INTEGER,
			quantity INTEGER,
			status TEXT,
			FOREIGN KEY (book_id) REFERENCES Books (book_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_books_title ON Books(title)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteCatalog) Close() error {
	return s.db.Close()
}

// ListTitles returns every distinct title in the catalog.
func (s *SQLiteCatalog) ListTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT title FROM Books ORDER BY book_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// LookupTitle resolves a fuzzy title to the best-scoring catalog title.
func (s *SQLiteCatalog) LookupTitle(ctx context.Context, fuzzyTitle string) (string, bool, error) {
	titles, err := s.ListTitles(ctx)
	if err != nil {
		return "", false, err
	}

	needle := strings.ToLower(strings.TrimSpace(fuzzyTitle))
	if needle == "" {
		return "", false, nil
	}

	best := ""
	bestScore := 0.0
	for _, title := range titles {
		score := similarity(needle, strings.ToLower(title))
		if score > bestScore {
			best = title
			bestScore = score
		}
	}
	if bestScore < titleScoreCutoff {
		return "", false, nil
	}
	return best, true, nil
}

// similarity is a normalized levenshtein ratio in [0,1]. A substring hit
// counts as a full match so "harry potter" finds the full series title.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if strings.Contains(b, a) || strings.Contains(a, b) {
		return 1.0
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// GetPriceAndStock returns price and stock for an exact title.
func (s *SQLiteCatalog) GetPriceAndStock(ctx context.Context, title string) (float64, int, error) {
	var price float64
	var stock int
	err := s.db.QueryRowContext(ctx,
		`SELECT price, stock FROM Books WHERE title = ?`, title).Scan(&price, &stock)
	if err == sql.ErrNoRows {
		return 0, 0, fmt.Errorf("book not found: %s", title)
	}
	if err != nil {
		return 0, 0, err
	}
	return price, stock, nil
}

// QueryBooks returns books matching the filter.
func (s *SQLiteCatalog) QueryBooks(ctx context.Context, filter domain.BookFilter) ([]domain.Book, error) {
	query := `SELECT book_id, title, author, price, stock, category FROM Books WHERE 1=1`
	var args []interface{}

	if filter.Title != "" {
		query += ` AND title LIKE ?`
		args = append(args, "%"+filter.Title+"%")
	}
	if filter.Author != "" {
		query += ` AND author LIKE ?`
		args = append(args, "%"+filter.Author+"%")
	}
	if filter.Category != "" {
		query += ` AND category LIKE ?`
		args = append(args, "%"+filter.Category+"%")
	}
	if filter.MaxPrice > 0 {
		query += ` AND price <= ?`
		args = append(args, filter.MaxPrice)
	}
	query += ` ORDER BY book_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []domain.Book
	for rows.Next() {
		var b domain.Book
		var category sql.NullString
		if err := rows.Scan(&b.BookID, &b.Title, &b.Author, &b.Price, &b.Stock, &category); err != nil {
			return nil, err
		}
		if category.Valid {
			b.Category = category.String
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CommitOrder inserts order rows and decrements stock atomically.
func (s *SQLiteCatalog) CommitOrder(ctx context.Context, name, phone, address string, lines []domain.CartLine) (int64, error) {
	if len(lines) == 0 {
		return 0, fmt.Errorf("empty cart")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var firstOrderID int64
	for _, line := range lines {
		title := line.ResolvedTitle
		if title == "" {
			return 0, fmt.Errorf("unresolved cart line: %s", line.Title)
		}

		var bookID int64
		if err := tx.QueryRowContext(ctx,
			`SELECT book_id FROM Books WHERE title = ?`, title).Scan(&bookID); err != nil {
			return 0, fmt.Errorf("failed to resolve book %q: %w", title, err)
		}

		// Stock guard inside the UPDATE keeps the decrement race-free.
		res, err := tx.ExecContext(ctx,
			`UPDATE Books SET stock = stock - ? WHERE book_id = ? AND stock >= ?`,
			line.Quantity, bookID, line.Quantity)
		if err != nil {
			return 0, fmt.Errorf("failed to decrement stock for %q: %w", title, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		if affected == 0 {
			return 0, fmt.Errorf("%w: %s", ErrInsufficientStock, title)
		}

		ins, err := tx.ExecContext(ctx,
			`INSERT INTO Orders (customer_name, phone, address, book_id, quantity, status) VALUES (?, ?, ?, ?, ?, ?)`,
			name, phone, address, bookID, line.Quantity, "Pending")
		if err != nil {
			return 0, fmt.Errorf("failed to insert order row for %q: %w", title, err)
		}
		if firstOrderID == 0 {
			firstOrderID, _ = ins.LastInsertId()
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit order: %w", err)
	}
	return firstOrderID, nil
}
