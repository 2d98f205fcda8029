package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/domain"
)

// BookFilter narrows book listings. Zero values mean "no constraint".
type BookFilter struct {
	// AuthorID matches books referencing the given author exactly.
	AuthorID string
	// Genre matches case-insensitively against each book's genre set.
	Genre string
}

// Matches reports whether a book satisfies the filter.
func (f BookFilter) Matches(b *domain.Book) bool {
	if f.AuthorID != "" && b.AuthorID != f.AuthorID {
		return false
	}
	if f.Genre != "" && !b.HasGenre(f.Genre) {
		return false
	}
	return true
}

// CreateBook persists a new book record.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	if err := s.Books.Create(ctx, book.ID, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("author_id", book.AuthorID),
		)
	}
	return nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.Books.Get(ctx, id)
}

// ListBooks returns all books matching the filter, in key order.
// Key order is stable for unchanged data, which is all the read contract
// promises about ordering.
func (s *Store) ListBooks(ctx context.Context, filter BookFilter) ([]*domain.Book, error) {
	books := make([]*domain.Book, 0)
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list books: %w", err)
		}
		if filter.Matches(book) {
			books = append(books, book)
		}
	}
	return books, nil
}

// CountBooks returns the total number of books in the catalog.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.Books.Count(ctx)
}

// CountBooksGroupedByAuthor returns book counts keyed by author ID, computed
// in a single pass. Authors with no books are absent from the map.
func (s *Store) CountBooksGroupedByAuthor(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("count books grouped by author: %w", err)
		}
		counts[book.AuthorID]++
	}
	return counts, nil
}

// CountBooksByAuthor returns the number of books referencing the given
// author. This is the derivation behind Author.bookCount: always computed
// by scan, never read from a stored counter.
func (s *Store) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	count := 0
	for book, err := range s.Books.List(ctx) {
		if err != nil {
			return 0, fmt.Errorf("count books by author: %w", err)
		}
		if book.AuthorID == authorID {
			count++
		}
	}
	return count, nil
}
