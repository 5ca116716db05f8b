package server

import (
	"errors"
	"net/http"

	"soundbay/logger"
)

// MeHandler returns the user bound to the current session.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Me] failed to query user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfileHandler updates the current user's bio and, when an
// "avatar" attachment is present, their avatar. The avatar goes through
// the same upload store as song attachments.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse profile form")
		return
	}

	bio := r.FormValue("bio")

	var avatarRef string
	avatar, avatarHeader, err := r.FormFile("avatar")
	switch {
	case err == nil:
		defer avatar.Close()
		avatarRef, err = h.uploads.Save(r.Context(), avatar, avatarHeader.Filename)
		if err != nil {
			logger.Error("[Profile] failed to store avatar", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Failed to store file")
			return
		}
	case errors.Is(err, http.ErrMissingFile):
		// Bio-only update.
	default:
		respondError(w, http.StatusBadRequest, "Failed to read avatar file")
		return
	}

	if err := h.userRepo.UpdateProfile(userID, bio, avatarRef); err != nil {
		logger.Error("[Profile] failed to update profile", logger.ErrorField(err))
		if avatarRef != "" {
			h.uploads.Remove(r.Context(), avatarRef)
		}
		respondError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil || user == nil {
		logger.Error("[Profile] failed to reload user", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Profile] profile updated", logger.Int64("userId", userID), logger.Bool("avatarChanged", avatarRef != ""))
	respondJSON(w, http.StatusOK, user)
}
