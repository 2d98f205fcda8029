package domain

import "strings"

// Book represents a book in the catalog.
//
// A book holds a non-owning reference to exactly one author. The author
// record itself is resolved on read; it is never embedded in the persisted
// book. Books are immutable after creation.
type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published int      `json:"published"`
	AuthorID  string   `json:"author"`
	Genres    []string `json:"genres"`
}

// HasGenre reports whether the book carries the given genre.
// Genres are stored case-sensitively but matched case-insensitively.
func (b *Book) HasGenre(genre string) bool {
	for _, g := range b.Genres {
		if strings.EqualFold(g, genre) {
			return true
		}
	}
	return false
}
