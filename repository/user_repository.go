package repository

import (
	"database/sql"
	"fmt"

	"soundbay/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	UpdateProfile(userID int64, bio, avatar string) error
}

// sqlUserRepository implements UserRepository over database/sql.
type sqlUserRepository struct {
	db *sql.DB
}

// NewSQLUserRepository creates a new sqlUserRepository.
func NewSQLUserRepository(db *sql.DB) UserRepository {
	return &sqlUserRepository{db: db}
}

// CreateUser adds a new user to the database. A username collision is
// reported as ErrDuplicateUser.
func (r *sqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := "INSERT INTO users (username, password, bio, avatar) VALUES (?, ?, ?, ?)"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare create user statement: %w", err)
	}
	defer stmt.Close()

	res, err := stmt.Exec(user.Username, user.PasswordHash, user.Bio, user.Avatar)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to execute create user statement: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

// GetUserByID retrieves a user by their ID.
func (r *sqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	query := "SELECT id, username, password, bio, avatar FROM users WHERE id = ?"
	row := r.db.QueryRow(query, id)
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Bio, &user.Avatar)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for ID %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by their username. The lookup is
// case-sensitive, matching the uniqueness rule at registration.
func (r *sqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	query := "SELECT id, username, password, bio, avatar FROM users WHERE username = ?"
	row := r.db.QueryRow(query, username)
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Bio, &user.Avatar)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row for username %s: %w", username, err)
	}
	return user, nil
}

// UpdateProfile updates a user's bio, and their avatar reference when a new
// one was uploaded. An empty avatar keeps the existing reference.
func (r *sqlUserRepository) UpdateProfile(userID int64, bio, avatar string) error {
	query := "UPDATE users SET bio = ? WHERE id = ?"
	args := []interface{}{bio, userID}
	if avatar != "" {
		query = "UPDATE users SET bio = ?, avatar = ? WHERE id = ?"
		args = []interface{}{bio, avatar, userID}
	}

	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare update profile statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(args...); err != nil {
		return fmt.Errorf("failed to execute update profile statement: %w", err)
	}
	return nil
}
