package model

// User represents a registered account.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Not exposed in API responses
	Bio          string `json:"bio"`
	Avatar       string `json:"avatar"` // Upload reference, empty until the user sets one
}
