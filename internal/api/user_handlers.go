package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/librisapp/libris-server/internal/http/response"
	"github.com/librisapp/libris-server/internal/service"
)

// handleCreateUser registers a new account. No authentication required.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req service.CreateUserRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	user, err := s.authService.CreateUser(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, user, s.logger)
}

// handleGetCurrentUser returns the authenticated user's record, or an
// explicit null for anonymous callers. Anonymity is not an error here.
func (s *Server) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r.Context())
	if user == nil {
		response.Null(w, s.logger)
		return
	}

	response.Success(w, user, s.logger)
}
