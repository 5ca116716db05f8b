package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"soundbay/core/auth"
	"soundbay/core/session"
	"soundbay/logger"
	"soundbay/model"
	"soundbay/repository"
)

type contextKey string

const userIDKey contextKey = "userID"

// CredentialsRequest represents the register and login request body.
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterHandler handles user registration requests. On success a new
// session is bound to the created user.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("[Register] failed to hash password", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	user := &model.User{
		Username:     req.Username,
		PasswordHash: hashedPassword,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("[Register] username already exists", logger.String("username", req.Username))
			respondError(w, http.StatusConflict, "Username already exists")
			return
		}
		logger.Error("[Register] failed to create user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.ID = userID

	sess, err := h.sessions.Create(r.Context(), userID)
	if err != nil {
		logger.Error("[Register] failed to create session", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	session.SetCookie(w, sess, h.cfg.SecureCookies)

	logger.Info("[Register] user created", logger.Int64("userId", userID), logger.String("username", user.Username))
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// LoginHandler handles user login requests. An unknown username and a wrong
// password produce the same response, so neither case is distinguishable.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.userRepo.GetUserByUsername(req.Username)
	if err != nil {
		logger.Error("[Login] failed to query user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("[Login] invalid credentials", logger.String("username", req.Username))
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	sess, err := h.sessions.Create(r.Context(), user.ID)
	if err != nil {
		logger.Error("[Login] failed to create session", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	session.SetCookie(w, sess, h.cfg.SecureCookies)

	logger.Info("[Login] user logged in", logger.Int64("userId", user.ID), logger.String("username", user.Username))
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// AuthMiddleware requires an active session and puts the bound user id on
// the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.IDFromRequest(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		sess, err := h.sessions.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrNoSession) {
				respondError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			logger.Error("[Auth] failed to load session", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, sess.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}
