// Package dto contains API-facing representations of domain entities with
// derived fields resolved. These are the shapes clients and event
// subscribers see; persisted records stay normalized in the store.
package dto

import "github.com/librisapp/libris-server/internal/domain"

// Author is an author with its derived book count resolved.
type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Born      *int   `json:"born"`
	BookCount int    `json:"bookCount"`
}

// Book is a book with its author record inlined.
type Book struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Published int      `json:"published"`
	Author    *Author  `json:"author"`
	Genres    []string `json:"genres"`
}

// NewAuthor builds an Author view from a domain record and its current
// book count. The count is computed by the caller on every read; it is
// never cached on the domain record.
func NewAuthor(a *domain.Author, bookCount int) *Author {
	return &Author{
		ID:        a.ID,
		Name:      a.Name,
		Born:      a.Born,
		BookCount: bookCount,
	}
}

// NewBook builds a Book view with the given resolved author.
func NewBook(b *domain.Book, author *Author) *Book {
	genres := b.Genres
	if genres == nil {
		genres = []string{}
	}
	return &Book{
		ID:        b.ID,
		Title:     b.Title,
		Published: b.Published,
		Author:    author,
		Genres:    genres,
	}
}
