package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/librisapp/libris-server/internal/auth"
	"github.com/librisapp/libris-server/internal/domain"
	domainerrors "github.com/librisapp/libris-server/internal/errors"
	"github.com/librisapp/libris-server/internal/id"
	"github.com/librisapp/libris-server/internal/store"
)

// AuthService handles account creation, login, and token verification.
//
// Authentication compares the presented password against the single shared
// catalog password in constant time. There are no per-user secrets; see
// DESIGN.md for the tradeoff.
type AuthService struct {
	store          *store.Store
	tokenService   *auth.TokenService
	sharedPassword []byte
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(store *store.Store, tokenService *auth.TokenService, sharedPassword string, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sharedPassword: []byte(sharedPassword),
		logger:         logger,
	}
}

// CreateUserRequest contains the new account data.
type CreateUserRequest struct {
	Username      string `json:"username" validate:"required,min=3,max=100"`
	FavoriteGenre string `json:"favoriteGenre" validate:"required,max=100"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Token is the credential returned by a successful login.
type Token struct {
	Value string `json:"value"`
}

// CreateUser creates a new account. No identity is required; registration
// is open to anonymous callers.
func (s *AuthService) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		ID:            userID,
		Username:      req.Username,
		FavoriteGenre: req.FavoriteGenre,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.InvalidInput("username already taken").WithDetails(req.Username)
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeInvalidInput, "user creation failed").WithDetails(req.Username)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login authenticates a user and issues a signed access token embedding
// the username and user id.
//
// Unknown username and wrong password both yield the same generic
// BadCredentials error; callers cannot distinguish the two cases.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Token, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			// Burn the comparison anyway so the unknown-user path costs the
			// same as a wrong password.
			subtle.ConstantTimeCompare([]byte(req.Password), s.sharedPassword)
			return nil, domainerrors.ErrBadCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if subtle.ConstantTimeCompare([]byte(req.Password), s.sharedPassword) != 1 {
		return nil, domainerrors.ErrBadCredentials
	}

	tokenString, err := s.tokenService.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return &Token{Value: tokenString}, nil
}

// VerifyAccessToken verifies a token and resolves it to the current user
// record. An invalid signature or an unknown user id both fail; the
// transport layer treats either as an anonymous request.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.Claims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Wrap(err, domainerrors.CodeUnauthenticated, "invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthenticated("unknown user")
		}
		return nil, nil, fmt.Errorf("lookup user: %w", err)
	}

	return user, claims, nil
}
