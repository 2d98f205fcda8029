package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/domain"
	"github.com/librisapp/libris-server/internal/dto"
	domainerrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/id"
	"github.com/librisapp/libris-server/internal/search"
	"github.com/librisapp/libris-server/internal/sse"
	"github.com/librisapp/libris-server/internal/store"
)

// findOrCreateRetries bounds re-reads after losing a concurrent author
// creation race. One retry is enough in practice; the loop guards against
// the pathological create-then-delete interleave.
const findOrCreateRetries = 3

// CatalogService resolves catalog reads and applies catalog writes.
//
// Reads are open to anonymous callers. Writes require a resolved identity:
// every mutating method takes the current user and rejects nil before
// touching any state.
type CatalogService struct {
	store  *store.Store
	search *search.Index
	events *sse.Manager
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store *store.Store, searchIndex *search.Index, events *sse.Manager, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		search: searchIndex,
		events: events,
		logger: logger,
	}
}

// AddBookRequest contains the data for a new book.
// Published is a plain integer year; zero is a legal value.
type AddBookRequest struct {
	Title     string   `json:"title" validate:"required,max=500"`
	Author    string   `json:"author" validate:"required,max=200"`
	Published int      `json:"published"`
	Genres    []string `json:"genres" validate:"dive,required,max=100"`
}

// EditAuthorRequest sets an author's birth year.
// SetBornTo is a plain integer year; zero is a legal value.
type EditAuthorRequest struct {
	Name      string `json:"name" validate:"required"`
	SetBornTo int    `json:"setBornTo"`
}

// AllBooks returns books, optionally narrowed by author name and/or genre.
// Both filters combine conjunctively. An author name that matches nobody
// yields an empty list, not an error. Genre matching is case-insensitive.
func (s *CatalogService) AllBooks(ctx context.Context, authorName, genre string) ([]*dto.Book, error) {
	filter := store.BookFilter{Genre: genre}

	if authorName != "" {
		author, err := s.store.GetAuthorByName(ctx, authorName)
		if err != nil {
			if domainerrors.Is(err, store.ErrNotFound) {
				return []*dto.Book{}, nil
			}
			return nil, fmt.Errorf("resolve author filter: %w", err)
		}
		filter.AuthorID = author.ID
	}

	books, err := s.store.ListBooks(ctx, filter)
	if err != nil {
		return nil, err
	}

	return s.populateBooks(ctx, books)
}

// AllAuthors returns every author with their current book count. Counts are
// computed from the book records at read time; nothing is cached between
// calls, so additions are reflected immediately.
func (s *CatalogService) AllAuthors(ctx context.Context) ([]*dto.Author, error) {
	authors, err := s.store.ListAuthors(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := s.store.CountBooksGroupedByAuthor(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.Author, 0, len(authors))
	for _, author := range authors {
		result = append(result, dto.NewAuthor(author, counts[author.ID]))
	}
	return result, nil
}

// BookCount returns the total number of books in the catalog.
func (s *CatalogService) BookCount(ctx context.Context) (int, error) {
	return s.store.CountBooks(ctx)
}

// AuthorCount returns the total number of distinct authors.
func (s *CatalogService) AuthorCount(ctx context.Context) (int, error) {
	return s.store.CountAuthors(ctx)
}

// AddBook creates a book on behalf of currentUser, creating the author
// record first if the name is unknown. The created author survives even if
// the book write later fails.
//
// Subscribers are notified before the call returns: the book.added event is
// placed on every live subscriber's queue as part of the write path.
func (s *CatalogService) AddBook(ctx context.Context, currentUser *domain.User, req AddBookRequest) (*dto.Book, error) {
	if currentUser == nil {
		return nil, domainerrors.ErrUnauthenticated
	}

	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	author, err := s.findOrCreateAuthor(ctx, req.Author)
	if err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		ID:        bookID,
		Title:     req.Title,
		Published: req.Published,
		AuthorID:  author.ID,
		Genres:    req.Genres,
	}

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInvalidInput, "saving book failed").WithDetails(req.Title)
	}

	// Search indexing is best-effort; a failed index write never fails the
	// mutation.
	if err := s.search.IndexBook(ctx, book, author.Name); err != nil {
		s.logger.Warn("failed to index book", "book_id", book.ID, "error", err)
	}

	bookCount, err := s.store.CountBooksByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}
	populated := dto.NewBook(book, dto.NewAuthor(author, bookCount))

	s.events.Publish(sse.NewBookAddedEvent(populated))

	s.logger.Info("book added",
		"book_id", book.ID,
		"title", book.Title,
		"author", author.Name,
		"user_id", currentUser.ID,
	)
	return populated, nil
}

// EditAuthor sets the birth year of the named author on behalf of
// currentUser. An unknown name returns (nil, nil): the caller sees an
// explicit null, not an error.
func (s *CatalogService) EditAuthor(ctx context.Context, currentUser *domain.User, req EditAuthorRequest) (*dto.Author, error) {
	if currentUser == nil {
		return nil, domainerrors.ErrUnauthenticated
	}

	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	author, err := s.store.GetAuthorByName(ctx, req.Name)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	born := req.SetBornTo
	author.Born = &born

	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInvalidInput, "saving author failed").WithDetails(req.Name)
	}

	bookCount, err := s.store.CountBooksByAuthor(ctx, author.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("author updated", "author_id", author.ID, "name", author.Name, "born", born)
	return dto.NewAuthor(author, bookCount), nil
}

// SearchBooks runs a full-text query over titles and author names and
// returns matching books in relevance order.
func (s *CatalogService) SearchBooks(ctx context.Context, query string, limit int) ([]*dto.Book, error) {
	if query == "" {
		return []*dto.Book{}, nil
	}

	ids, err := s.search.SearchBooks(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	books := make([]*domain.Book, 0, len(ids))
	for _, bookID := range ids {
		book, err := s.store.GetBook(ctx, bookID)
		if err != nil {
			if domainerrors.Is(err, store.ErrNotFound) {
				// Index entry outlived the record; skip it.
				continue
			}
			return nil, err
		}
		books = append(books, book)
	}

	return s.populateBooks(ctx, books)
}

// findOrCreateAuthor resolves an author name to a record, creating one if
// needed. Losing a concurrent creation race is handled by re-reading: the
// store's unique name index guarantees at most one record per name.
func (s *CatalogService) findOrCreateAuthor(ctx context.Context, name string) (*domain.Author, error) {
	for range findOrCreateRetries {
		author, err := s.store.GetAuthorByName(ctx, name)
		if err == nil {
			return author, nil
		}
		if !domainerrors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup author: %w", err)
		}

		authorID, err := id.Generate("author")
		if err != nil {
			return nil, fmt.Errorf("generate author ID: %w", err)
		}

		author = &domain.Author{ID: authorID, Name: name}
		err = s.store.CreateAuthor(ctx, author)
		if err == nil {
			return author, nil
		}
		if domainerrors.Is(err, store.ErrAlreadyExists) || domainerrors.Is(err, store.ErrConflict) {
			// Lost the race, either on the unique name index or on the
			// transaction commit itself; loop and read the winner's record.
			continue
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInvalidInput, "saving author failed").WithDetails(name)
	}
	return nil, domainerrors.Internalf("author %q could not be resolved", name)
}

// populateBooks attaches author records and their derived book counts to a
// slice of books.
func (s *CatalogService) populateBooks(ctx context.Context, books []*domain.Book) ([]*dto.Book, error) {
	counts, err := s.store.CountBooksGroupedByAuthor(ctx)
	if err != nil {
		return nil, err
	}

	authorCache := make(map[string]*dto.Author)
	result := make([]*dto.Book, 0, len(books))
	for _, book := range books {
		author, ok := authorCache[book.AuthorID]
		if !ok {
			record, err := s.store.GetAuthor(ctx, book.AuthorID)
			if err != nil {
				return nil, fmt.Errorf("resolve author %s: %w", book.AuthorID, err)
			}
			author = dto.NewAuthor(record, counts[record.ID])
			authorCache[book.AuthorID] = author
		}
		result = append(result, dto.NewBook(book, author))
	}
	return result, nil
}
