package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/librisapp/libris-server/internal/http/response"
	"github.com/librisapp/libris-server/internal/service"
)

// handleListAuthors returns all authors with their derived book counts.
func (s *Server) handleListAuthors(w http.ResponseWriter, r *http.Request) {
	authors, err := s.catalogService.AllAuthors(r.Context())
	if err != nil {
		s.logger.Error("Failed to list authors", "error", err)
		response.InternalError(w, "Failed to retrieve authors", s.logger)
		return
	}

	response.Success(w, authors, s.logger)
}

// handleAuthorCount returns the total number of authors.
func (s *Server) handleAuthorCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.catalogService.AuthorCount(r.Context())
	if err != nil {
		s.logger.Error("Failed to count authors", "error", err)
		response.InternalError(w, "Failed to count authors", s.logger)
		return
	}

	response.Success(w, map[string]int{"authorCount": count}, s.logger)
}

// handleEditAuthor sets an author's birth year. Requires authentication.
// Editing an unknown author returns null data, not an error.
func (s *Server) handleEditAuthor(w http.ResponseWriter, r *http.Request) {
	var req service.EditAuthorRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	author, err := s.catalogService.EditAuthor(r.Context(), currentUser(r.Context()), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	if author == nil {
		response.Null(w, s.logger)
		return
	}

	response.Success(w, author, s.logger)
}
