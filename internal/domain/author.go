// Package domain contains the core entity types for the Libris catalog.
package domain

// Author represents a book author in the catalog.
//
// Authors are created implicitly the first time a book is submitted under an
// unseen name, and are never deleted. The number of books an author has
// written is deliberately not stored here: it is derived on every read by
// counting the books that reference the author, so it can never drift.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Born *int   `json:"born,omitempty"`
}
