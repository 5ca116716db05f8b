package repository

import (
	"database/sql"
	"fmt"

	"soundbay/model"
)

// SongRepository defines the interface for song data operations. Songs are
// insert-only; there is no update or delete.
type SongRepository interface {
	CreateSong(song *model.Song) (int64, error)
	GetAllSongs() ([]*model.Song, error)
}

// sqlSongRepository implements SongRepository over database/sql.
type sqlSongRepository struct {
	db *sql.DB
}

// NewSQLSongRepository creates a new sqlSongRepository.
func NewSQLSongRepository(db *sql.DB) SongRepository {
	return &sqlSongRepository{db: db}
}

// CreateSong adds a new song to the database.
func (r *sqlSongRepository) CreateSong(song *model.Song) (int64, error) {
	query := "INSERT INTO songs (title, filename, cover, user_id) VALUES (?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create song statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(song.Title, song.Filename, song.Cover, song.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to execute create song statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for song: %w", err)
	}
	return id, nil
}

// GetAllSongs retrieves every song, newest first (descending id).
func (r *sqlSongRepository) GetAllSongs() ([]*model.Song, error) {
	query := "SELECT id, title, filename, cover, user_id FROM songs ORDER BY id DESC"
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song := &model.Song{}
		if err := rows.Scan(&song.ID, &song.Title, &song.Filename, &song.Cover, &song.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during song rows iteration: %w", err)
	}

	return songs, nil
}
