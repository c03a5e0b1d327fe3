package store

import (
	"context"
	"fmt"

	"github.com/xiaot623/bookchat/domain"
)

var seedBooks = []domain.Book{
	{BookID: 1, Title: "Lược sử thời gian", Author: "Stephen Hawking", Price: 150000, Stock: 20, Category: "Khoa học"},
	{BookID: 2, Title: "Nhà giả kim", Author: "Paulo Coelho", Price: 80000, Stock: 50, Category: "Tiểu thuyết"},
	{BookID: 3, Title: "Lập trình Python từ A đến Z", Author: "Nguyễn Văn A", Price: 250000, Stock: 15, Category: "Lập trình"},
	{BookID: 4, Title: "Đắc nhân tâm", Author: "Dale Carnegie", Price: 120000, Stock: 100, Category: "Kỹ năng sống"},
	{BookID: 5, Title: "Trí tuệ nhân tạo", Author: "Nguyễn Xuân B", Price: 300000, Stock: 5, Category: "Lập trình"},
	{BookID: 6, Title: "Tư duy nhanh và chậm", Author: "Daniel Kahneman", Price: 200000, Stock: 40, Category: "Tâm lý"},
	{BookID: 7, Title: "Khởi nghiệp tinh gọn", Author: "Eric Ries", Price: 180000, Stock: 25, Category: "Kinh doanh"},
	{BookID: 8, Title: "Thế giới phẳng", Author: "Thomas L. Friedman", Price: 220000, Stock: 30, Category: "Kinh tế"},
	{BookID: 9, Title: "Dune", Author: "Frank Herbert", Price: 170000, Stock: 35, Category: "Tiểu thuyết"},
	{BookID: 10, Title: "Harry Potter và Hòn đá phù thủy", Author: "J.K. Rowling", Price: 120000, Stock: 60, Category: "Thiếu nhi"},
	{BookID: 11, Title: "Harry Potter và Phòng chứa bí mật", Author: "J.K. Rowling", Price: 130000, Stock: 55, Category: "Thiếu nhi"},
	{BookID: 12, Title: "Harry Potter và Tên tù nhân ngục Azkaban", Author: "J.K. Rowling", Price: 140000, Stock: 50, Category: "Thiếu nhi"},
	{BookID: 13, Title: "Lập trình C cơ bản", Author: "Nguyễn Văn C", Price: 180000, Stock: 20, Category: "Lập trình"},
	{BookID: 14, Title: "Clean Code", Author: "Robert C. Martin", Price: 280000, Stock: 10, Category: "Lập trình"},
	{BookID: 15, Title: "Thiết kế giải thuật", Author: "Nguyễn Văn D", Price: 260000, Stock: 15, Category: "Lập trình"},
	{BookID: 16, Title: "Giải tích 1", Author: "Ngô Bảo Châu", Price: 200000, Stock: 30, Category: "Giáo trình"},
	{BookID: 17, Title: "Đại số tuyến tính", Author: "Nguyễn Văn E", Price: 190000, Stock: 25, Category: "Giáo trình"},
	{BookID: 18, Title: "Machine Learning cơ bản", Author: "Andrew Ng", Price: 320000, Stock: 10, Category: "Khoa học"},
	{BookID: 19, Title: "Deep Learning", Author: "Ian Goodfellow", Price: 450000, Stock: 8, Category: "Khoa học"},
	{BookID: 20, Title: "Blockchain cơ bản", Author: "Satoshi Nakamoto", Price: 210000, Stock: 12, Category: "Công nghệ"},
	{BookID: 21, Title: "Khuyến học", Author: "Fukuzawa Yukichi", Price: 110000, Stock: 40, Category: "Kỹ năng sống"},
	{BookID: 22, Title: "7 thói quen để thành đạt", Author: "Stephen R. Covey", Price: 150000, Stock: 45, Category: "Kỹ năng sống"},
	{BookID: 23, Title: "Tuổi trẻ đáng giá bao nhiêu", Author: "Rosie Nguyễn", Price: 100000, Stock: 30, Category: "Kỹ năng sống"},
	{BookID: 24, Title: "Muôn kiếp nhân sinh", Author: "Nguyên Phong", Price: 160000, Stock: 35, Category: "Tâm linh"},
	{BookID: 25, Title: "Homo Deus", Author: "Yuval Noah Harari", Price: 240000, Stock: 20, Category: "Khoa học"},
	{BookID: 26, Title: "Sapiens: Lược sử loài người", Author: "Yuval Noah Harari", Price: 230000, Stock: 25, Category: "Khoa học"},
	{BookID: 27, Title: "Sherlock Holmes: Toàn tập", Author: "Arthur Conan Doyle", Price: 300000, Stock: 15, Category: "Trinh thám"},
	{BookID: 28, Title: "Thám tử lừng danh Conan", Author: "Aoyama Gosho", Price: 90000, Stock: 100, Category: "Truyện tranh"},
	{BookID: 29, Title: "One Piece", Author: "Eiichiro Oda", Price: 95000, Stock: 100, Category: "Truyện tranh"},
	{BookID: 30, Title: "Naruto", Author: "Masashi Kishimoto", Price: 95000, Stock: 100, Category: "Truyện tranh"},
}

type seedOrder struct {
	OrderID  int64
	Customer string
	Phone    string
	Address  string
	BookID   int64
	Quantity int
	Status   string
}

var seedOrders = []seedOrder{
	{1, "Nguyễn Văn A", "0912345678", "Hà Nội", 4, 2, "Delivered"},
	{2, "Trần Thị B", "0987654321", "Hải Phòng", 2, 1, "Shipped"},
	{3, "Lê Văn C", "0933334444", "Đà Nẵng", 14, 1, "Pending"},
	{4, "Phạm Thị D", "0977778888", "Hồ Chí Minh", 25, 3, "Delivered"},
	{5, "Hoàng Văn E", "0922223333", "Cần Thơ", 10, 2, "Pending"},
}

// Seed populates the catalog with the sample inventory if it is empty.
func (s *SQLiteCatalog) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM Books`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, b := range seedBooks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Books (book_id, title, author, price, stock, category) VALUES (?, ?, ?, ?, ?, ?)`,
			b.BookID, b.Title, b.Author, b.Price, b.Stock, b.Category); err != nil {
			return fmt.Errorf("failed to seed book %q: %w", b.Title, err)
		}
	}

	for _, o := range seedOrders {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO Orders (order_id, customer_name, phone, address, book_id, quantity, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.OrderID, o.Customer, o.Phone, o.Address, o.BookID, o.Quantity, o.Status); err != nil {
			return fmt.Errorf("failed to seed order %d: %w", o.OrderID, err)
		}
	}

	return tx.Commit()
}
