package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/domain"
)

// CreateUser persists a new user record.
// Returns ErrAlreadyExists (wrapped) if the username is already taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.Users.Create(ctx, user.ID, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "user created",
			slog.String("id", user.ID),
			slog.String("username", user.Username),
		)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.Users.Get(ctx, id)
}

// GetUserByUsername retrieves a user by exact username match.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "username", username)
}
