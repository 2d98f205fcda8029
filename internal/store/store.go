// Package store implements the catalog's persistence layer on top of an
// embedded Badger database, with a generic entity layer providing typed
// CRUD and unique secondary indexes.
package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/librisapp/libris-server/internal/domain"
)

// Store wraps a Badger database instance.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	// Typed entities.
	Authors *Entity[domain.Author]
	Books   *Entity[domain.Book]
	Users   *Entity[domain.User]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	store := &Store{
		db:     db,
		logger: logger,
	}

	store.initAuthors()
	store.initBooks()
	store.initUsers()

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return store, nil
}

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// initAuthors initializes the Authors entity.
// The unique name index arbitrates concurrent find-or-create: of two racing
// creators of the same author name, exactly one create succeeds.
func (s *Store) initAuthors() {
	s.Authors = NewEntity[domain.Author](s, "author:").
		WithIndex("name", func(a *domain.Author) []string {
			return []string{a.Name}
		})
}

// initBooks initializes the Books entity.
// Books carry no unique index; they are filtered and counted by prefix scan
// so that derived per-author counts are always computed fresh.
func (s *Store) initBooks() {
	s.Books = NewEntity[domain.Book](s, "book:")
}

// initUsers initializes the Users entity with a unique username index.
func (s *Store) initUsers() {
	s.Users = NewEntity[domain.User](s, "user:").
		WithIndex("username", func(u *domain.User) []string {
			return []string{u.Username}
		})
}
