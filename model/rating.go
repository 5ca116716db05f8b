package model

// Rating represents a score and comment left on a song. A user may rate the
// same song any number of times; neither UserID nor SongID is checked
// against its table.
type Rating struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"userId"`
	SongID  int64  `json:"songId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
