package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBook_HasGenre(t *testing.T) {
	book := &Book{
		Title:  "Dune",
		Genres: []string{"SciFi", "Classic"},
	}

	assert.True(t, book.HasGenre("SciFi"))
	assert.True(t, book.HasGenre("scifi"))
	assert.True(t, book.HasGenre("SCIFI"))
	assert.True(t, book.HasGenre("classic"))
	assert.False(t, book.HasGenre("romance"))
	assert.False(t, book.HasGenre(""))
}

func TestBook_HasGenre_NoGenres(t *testing.T) {
	book := &Book{Title: "Untagged"}

	assert.False(t, book.HasGenre("scifi"))
}
