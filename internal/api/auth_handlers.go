package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/librisapp/libris-server/internal/http/response"
	"github.com/librisapp/libris-server/internal/service"
)

// handleLogin authenticates a user and returns an access token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	token, err := s.authService.Login(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, token, s.logger)
}
