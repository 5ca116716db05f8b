package repository

import (
	"database/sql"
	"fmt"

	"soundbay/model"
)

// RatingRepository defines the interface for rating data operations.
//
// CreateRating performs no existence check on the song id: a rating on an
// unknown song is accepted. The same user may also rate one song any
// number of times.
type RatingRepository interface {
	CreateRating(rating *model.Rating) (int64, error)
	GetRatingsBySongID(songID int64) ([]*model.Rating, error)
}

// sqlRatingRepository implements RatingRepository over database/sql.
type sqlRatingRepository struct {
	db *sql.DB
}

// NewSQLRatingRepository creates a new sqlRatingRepository.
func NewSQLRatingRepository(db *sql.DB) RatingRepository {
	return &sqlRatingRepository{db: db}
}

// CreateRating adds a new rating to the database.
func (r *sqlRatingRepository) CreateRating(rating *model.Rating) (int64, error) {
	query := "INSERT INTO ratings (user_id, song_id, rating, comment) VALUES (?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create rating statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(rating.UserID, rating.SongID, rating.Rating, rating.Comment)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create rating statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for rating: %w", err)
	}
	return id, nil
}

// GetRatingsBySongID retrieves all ratings for a song, newest first. An
// unknown song id yields an empty slice, consistent with the tolerated
// dangling references.
func (r *sqlRatingRepository) GetRatingsBySongID(songID int64) ([]*model.Rating, error) {
	query := "SELECT id, user_id, song_id, rating, comment FROM ratings WHERE song_id = ? ORDER BY id DESC"
	rows, err := r.db.Query(query, songID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings for song ID %d: %w", songID, err)
	}
	defer rows.Close()

	ratings := make([]*model.Rating, 0)
	for rows.Next() {
		rating := &model.Rating{}
		if err := rows.Scan(&rating.ID, &rating.UserID, &rating.SongID, &rating.Rating, &rating.Comment); err != nil {
			return nil, fmt.Errorf("failed to scan rating row: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rating rows iteration: %w", err)
	}

	return ratings, nil
}
