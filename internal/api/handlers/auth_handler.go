package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/cleancity/cleancity-be/internal/auth"
	"github.com/cleancity/cleancity-be/internal/errs"
	"github.com/cleancity/cleancity-be/internal/services"
	"github.com/cleancity/cleancity-be/internal/trace"
)

// AuthHandler handles registration, login and the current-user lookup.
type AuthHandler struct {
	userSvc  services.UserServiceProvider
	tokenSvc *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userSvc services.UserServiceProvider, tokenSvc *auth.TokenService) *AuthHandler {
	return &AuthHandler{userSvc: userSvc, tokenSvc: tokenSvc}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validate checks the registration payload at the boundary, before any
// store mutation, reporting every violated field at once.
func (p RegisterPayload) validate() error {
	ve := &errs.ValidationError{}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		ve.Add("name", "Name is required")
	} else if len(name) > 100 {
		ve.Add("name", "Name cannot exceed 100 characters")
	}

	if !emailRe.MatchString(strings.TrimSpace(p.Email)) {
		ve.Add("email", "Please provide a valid email address")
	}

	if len(p.Password) < 6 {
		ve.Add("password", "Password must be at least 6 characters long")
	}

	return ve.OrNil()
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	var payload RegisterPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := payload.validate(); err != nil {
		ve, _ := errs.AsValidation(err)
		respondValidation(w, ve)
		return
	}

	user, err := h.userSvc.Register(strings.TrimSpace(payload.Name), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, errs.ErrConflict) {
			logger.Warn().Str("email", payload.Email).Msg("Registration with existing email")
			respondError(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		logger.Error().Err(err).Msg("Failed to register user")
		respondError(w, http.StatusInternalServerError, "Server error during registration")
		return
	}

	token, err := h.tokenSvc.Issue(user)
	if err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User registered")
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userSvc.Authenticate(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidCredentials) {
			logger.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		logger.Error().Err(err).Msg("Login failed")
		respondError(w, http.StatusInternalServerError, "Server error during login")
		return
	}

	token, err := h.tokenSvc.Issue(user)
	if err != nil {
		logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("User logged in")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// GetMe retrieves the currently authenticated user from the token.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	logger := trace.Logger(r.Context())

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "No token provided")
		return
	}

	user, err := h.userSvc.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			logger.Warn().Str("user_id", claims.UserID).Msg("User from token not found")
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Error().Err(err).Msg("Failed to load current user")
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
