package model

// Song represents an uploaded audio track.
//
// Filename and Cover are generated upload references; clients resolve them
// under the /uploads/ static path. UserID points at the uploader but is not
// backed by a foreign key, so a song may outlive its owner row.
type Song struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Filename string `json:"filename"`
	Cover    string `json:"cover"`
	UserID   int64  `json:"userId"`
}
