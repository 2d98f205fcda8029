package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/librisapp/libris-server/internal/http/response"
	"github.com/librisapp/libris-server/internal/service"
)

// handleListBooks returns books, optionally filtered by author and/or genre.
// Both query parameters combine; omitting both returns the full catalog.
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")
	genre := r.URL.Query().Get("genre")

	books, err := s.catalogService.AllBooks(r.Context(), author, genre)
	if err != nil {
		s.logger.Error("Failed to list books", "error", err)
		response.InternalError(w, "Failed to retrieve books", s.logger)
		return
	}

	response.Success(w, books, s.logger)
}

// handleAddBook creates a new book. Requires authentication.
func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req service.AddBookRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	book, err := s.catalogService.AddBook(r.Context(), currentUser(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleBookCount returns the total number of books.
func (s *Server) handleBookCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.catalogService.BookCount(r.Context())
	if err != nil {
		s.logger.Error("Failed to count books", "error", err)
		response.InternalError(w, "Failed to count books", s.logger)
		return
	}

	response.Success(w, map[string]int{"bookCount": count}, s.logger)
}

// handleSearchBooks runs a full-text query over titles and author names.
func (s *Server) handleSearchBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, "Query parameter 'q' is required", s.logger)
		return
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	books, err := s.catalogService.SearchBooks(r.Context(), query, limit)
	if err != nil {
		s.logger.Error("Failed to search books", "error", err, "query", query)
		response.InternalError(w, "Search failed", s.logger)
		return
	}

	response.Success(w, books, s.logger)
}
