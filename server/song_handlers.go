package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"soundbay/logger"
	"soundbay/model"
)

// RateRequest represents the rating request body. The score carries no
// validated range.
type RateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// UploadSongHandler handles song creation: a title plus two attachments,
// "audio" and "cover". Both attachments are required.
//
// The file writes and the row insert are independent steps. If the insert
// fails after the files were written, the files are removed best-effort;
// a crash in between still leaves orphans, which is accepted.
func (h *APIHandler) UploadSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse upload form")
		return
	}

	title := r.FormValue("title")

	audio, audioHeader, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer audio.Close()

	cover, coverHeader, err := r.FormFile("cover")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer cover.Close()

	audioRef, err := h.uploads.Save(r.Context(), audio, audioHeader.Filename)
	if err != nil {
		logger.Error("[Upload] failed to store audio file", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	coverRef, err := h.uploads.Save(r.Context(), cover, coverHeader.Filename)
	if err != nil {
		logger.Error("[Upload] failed to store cover file", logger.ErrorField(err))
		h.uploads.Remove(r.Context(), audioRef)
		respondError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	song := &model.Song{
		Title:    title,
		Filename: audioRef,
		Cover:    coverRef,
		UserID:   userID,
	}

	songID, err := h.songRepo.CreateSong(song)
	if err != nil {
		logger.Error("[Upload] failed to insert song", logger.ErrorField(err))
		h.uploads.Remove(r.Context(), audioRef)
		h.uploads.Remove(r.Context(), coverRef)
		respondError(w, http.StatusInternalServerError, "Failed to create song")
		return
	}
	song.ID = songID

	logger.Info("[Upload] song created",
		logger.Int64("songId", songID),
		logger.Int64("userId", userID),
		logger.String("title", title),
		logger.String("filename", audioRef),
		logger.String("cover", coverRef))

	respondJSON(w, http.StatusOK, song)
}

// GetSongsHandler returns every song, newest first. Open to
// unauthenticated callers.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	songs, err := h.songRepo.GetAllSongs()
	if err != nil {
		logger.Error("[Songs] failed to list songs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list songs")
		return
	}

	respondJSON(w, http.StatusOK, songs)
}

// RateSongHandler inserts a rating for the song id in the path. The id is
// not checked against the songs table; rating an unknown song succeeds.
func (h *APIHandler) RateSongHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	songID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rating := &model.Rating{
		UserID:  userID,
		SongID:  songID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	ratingID, err := h.ratingRepo.CreateRating(rating)
	if err != nil {
		logger.Error("[Rate] failed to insert rating", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to create rating")
		return
	}
	rating.ID = ratingID

	logger.Info("[Rate] rating created",
		logger.Int64("ratingId", ratingID),
		logger.Int64("songId", songID),
		logger.Int64("userId", userID),
		logger.Int("rating", req.Rating))

	respondJSON(w, http.StatusOK, rating)
}

// GetRatingsHandler returns all ratings for the song id in the path,
// newest first. An unknown id yields an empty array.
func (h *APIHandler) GetRatingsHandler(w http.ResponseWriter, r *http.Request) {
	songID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid song ID")
		return
	}

	ratings, err := h.ratingRepo.GetRatingsBySongID(songID)
	if err != nil {
		logger.Error("[Ratings] failed to list ratings", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to list ratings")
		return
	}

	respondJSON(w, http.StatusOK, ratings)
}
