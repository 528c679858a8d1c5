package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/somniary/somniary/internal/auth"
	"github.com/somniary/somniary/internal/store"
)

type registerRequest struct {
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	Name       string   `json:"name"`
	AgeRange   string   `json:"age_range,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Occupation string   `json:"occupation,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the account shape returned to clients. The password hash
// never leaves the server.
type userResponse struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Name       string   `json:"name"`
	AgeRange   string   `json:"age_range,omitempty"`
	Gender     string   `json:"gender,omitempty"`
	Occupation string   `json:"occupation,omitempty"`
	Interests  []string `json:"interests,omitempty"`
}

type authResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		respondError(w, http.StatusBadRequest, "valid email is required")
		return
	}
	if len(req.Password) < 8 {
		respondError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("password hashing failed", "error", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	u := &store.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		AgeRange:     req.AgeRange,
		Gender:       req.Gender,
		Occupation:   req.Occupation,
		Interests:    req.Interests,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			respondError(w, http.StatusConflict, "email already registered")
			return
		}
		s.logger.Error("failed to create user", "error", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	token, err := s.auth.IssueToken(u.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "user_id", u.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	respondJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserResponse(u)})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	u, err := s.store.GetUserByEmail(r.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.logger.Error("failed to load user", "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.auth.IssueToken(u.ID)
	if err != nil {
		s.logger.Error("failed to issue token", "user_id", u.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	respondJSON(w, http.StatusOK, authResponse{Token: token, User: toUserResponse(u)})
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{
		ID:         u.ID.String(),
		Email:      u.Email,
		Name:       u.Name,
		AgeRange:   u.AgeRange,
		Gender:     u.Gender,
		Occupation: u.Occupation,
		Interests:  u.Interests,
	}
}
