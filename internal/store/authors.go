package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/domain"
)

// CreateAuthor persists a new author record.
// Returns ErrAlreadyExists (wrapped) if the name is already taken; callers
// doing find-or-create treat that as "lost the race" and re-read.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	if err := s.Authors.Create(ctx, author.ID, author); err != nil {
		return fmt.Errorf("create author: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "author created",
			slog.String("id", author.ID),
			slog.String("name", author.Name),
		)
	}
	return nil
}

// GetAuthor retrieves an author by ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	return s.Authors.Get(ctx, id)
}

// GetAuthorByName retrieves an author by exact name match.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.Authors.GetByIndex(ctx, "name", name)
}

// UpdateAuthor updates an existing author record.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	if err := s.Authors.Update(ctx, author.ID, author); err != nil {
		return fmt.Errorf("update author: %w", err)
	}
	return nil
}

// ListAuthors returns all authors in key order.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors := make([]*domain.Author, 0)
	for author, err := range s.Authors.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list authors: %w", err)
		}
		authors = append(authors, author)
	}
	return authors, nil
}

// CountAuthors returns the total number of authors in the catalog.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.Authors.Count(ctx)
}
