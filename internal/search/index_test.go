package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librisapp/libris-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := New(Options{Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func indexTestBooks(t *testing.T, index *Index) {
	t.Helper()
	ctx := context.Background()

	books := []struct {
		book   *domain.Book
		author string
	}{
		{&domain.Book{ID: "book-1", Title: "Dune", Genres: []string{"scifi"}}, "Frank Herbert"},
		{&domain.Book{ID: "book-2", Title: "Dune Messiah", Genres: []string{"scifi"}}, "Frank Herbert"},
		{&domain.Book{ID: "book-3", Title: "Ancillary Justice", Genres: []string{"scifi"}}, "Ann Leckie"},
	}
	for _, b := range books {
		require.NoError(t, index.IndexBook(ctx, b.book, b.author))
	}
}

func TestIndex_SearchByTitle(t *testing.T) {
	index := setupTestIndex(t)
	indexTestBooks(t, index)

	ids, err := index.SearchBooks(context.Background(), "dune", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"book-1", "book-2"}, ids)
}

func TestIndex_SearchByAuthor(t *testing.T) {
	index := setupTestIndex(t)
	indexTestBooks(t, index)

	ids, err := index.SearchBooks(context.Background(), "leckie", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"book-3"}, ids)
}

func TestIndex_SearchFuzzyMatch(t *testing.T) {
	index := setupTestIndex(t)
	indexTestBooks(t, index)

	// One edit away still matches.
	ids, err := index.SearchBooks(context.Background(), "dunes", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, ids)
}

func TestIndex_SearchNoResults(t *testing.T) {
	index := setupTestIndex(t)
	indexTestBooks(t, index)

	ids, err := index.SearchBooks(context.Background(), "zzzzzz", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestIndex_ReindexUpdatesDocument(t *testing.T) {
	index := setupTestIndex(t)
	ctx := context.Background()

	book := &domain.Book{ID: "book-1", Title: "Draft Title"}
	require.NoError(t, index.IndexBook(ctx, book, "Frank Herbert"))

	book.Title = "Dune"
	require.NoError(t, index.IndexBook(ctx, book, "Frank Herbert"))

	ids, err := index.SearchBooks(ctx, "dune", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"book-1"}, ids)
}
