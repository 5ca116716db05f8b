package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"soundbay/config"
	"soundbay/core/session"
	"soundbay/db"
	"soundbay/model"
	"soundbay/repository"
	"soundbay/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		DBDriver:      "sqlite",
		SQLitePath:    filepath.Join(t.TempDir(), "test.db"),
		MaxUploadSize: 10 << 20,
		SessionTTL:    time.Hour,
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.InitDB(conn, cfg.DBDriver); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	uploads, err := storage.NewFSStore(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("Failed to create upload store: %v", err)
	}

	handler := NewAPIHandler(
		repository.NewSQLUserRepository(conn),
		repository.NewSQLSongRepository(conn),
		repository.NewSQLRatingRepository(conn),
		session.NewMemoryStore(cfg.SessionTTL),
		uploads,
		cfg,
	)

	srv := httptest.NewServer(handler.Routes())
	t.Cleanup(srv.Close)
	return srv
}

// newClient returns a client with a cookie jar so the session cookie flows
// across requests, like a browser.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("Failed to create cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func postJSON(t *testing.T, client *http.Client, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func register(t *testing.T, client *http.Client, baseURL, username, password string) *http.Response {
	t.Helper()
	return postJSON(t, client, baseURL+"/api/register", map[string]string{
		"username": username,
		"password": password,
	})
}

// uploadSong posts a multipart song-creation request. Empty content for
// audio or cover omits that attachment entirely.
func uploadSong(t *testing.T, client *http.Client, baseURL, title, audioContent, coverContent string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("title", title); err != nil {
		t.Fatalf("Failed to write title field: %v", err)
	}
	if audioContent != "" {
		part, err := writer.CreateFormFile("audio", title+".mp3")
		if err != nil {
			t.Fatalf("Failed to create audio part: %v", err)
		}
		io.WriteString(part, audioContent)
	}
	if coverContent != "" {
		part, err := writer.CreateFormFile("cover", title+".jpg")
		if err != nil {
			t.Fatalf("Failed to create cover part: %v", err)
		}
		io.WriteString(part, coverContent)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/songs", &buf)
	if err != nil {
		t.Fatalf("Failed to build upload request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Upload request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
}

func TestRegister(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	t.Run("Success", func(t *testing.T) {
		resp := register(t, client, srv.URL, "alice", "pw1")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}

		gotCookie := false
		for _, c := range resp.Cookies() {
			if c.Name == session.CookieName && c.Value != "" {
				gotCookie = true
			}
		}
		if !gotCookie {
			t.Error("Expected a session cookie on successful registration")
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("Failed to read body: %v", err)
		}
		if bytes.Contains(body, []byte("pw1")) || bytes.Contains(body, []byte("password")) {
			t.Errorf("Response must not expose the password: %s", body)
		}
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		resp := register(t, newClient(t), srv.URL, "alice", "other")
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("Expected 409 for duplicate username, got %d", resp.StatusCode)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		resp := postJSON(t, client, srv.URL+"/api/register", map[string]string{"username": "x"})
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 for missing password, got %d", resp.StatusCode)
		}
	})
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp := register(t, client, srv.URL, "alice", "pw1")
	resp.Body.Close()

	readLoginFailure := func(username, password string) (int, string) {
		resp := postJSON(t, newClient(t), srv.URL+"/api/login", map[string]string{
			"username": username,
			"password": password,
		})
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("Failed to read login response: %v", err)
		}
		return resp.StatusCode, string(body)
	}

	wrongPwStatus, wrongPwBody := readLoginFailure("alice", "wrong")
	noUserStatus, noUserBody := readLoginFailure("nobody", "pw1")

	if wrongPwStatus != http.StatusUnauthorized || noUserStatus != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for both failures, got %d and %d", wrongPwStatus, noUserStatus)
	}
	if wrongPwBody != noUserBody {
		t.Errorf("Expected identical failure bodies, got %q vs %q", wrongPwBody, noUserBody)
	}
}

func TestLoginSuccess(t *testing.T) {
	srv := newTestServer(t)

	resp := register(t, newClient(t), srv.URL, "alice", "pw1")
	resp.Body.Close()

	client := newClient(t)
	resp = postJSON(t, client, srv.URL+"/api/login", map[string]string{
		"username": "alice",
		"password": "pw1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		User model.User `json:"user"`
	}
	decodeBody(t, resp, &body)
	if body.User.Username != "alice" {
		t.Errorf("Expected user alice in response, got %+v", body.User)
	}

	// The session from login must satisfy the auth gate.
	meResp, err := client.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatalf("GET /api/me failed: %v", err)
	}
	meResp.Body.Close()
	if meResp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /api/me with active session, got %d", meResp.StatusCode)
	}
}

func TestUploadRequiresSession(t *testing.T) {
	srv := newTestServer(t)

	// Valid payload, no session.
	resp := uploadSong(t, newClient(t), srv.URL, "Song A", "audio-bytes", "cover-bytes")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without session, got %d", resp.StatusCode)
	}
}

func TestUploadMissingFile(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp := register(t, client, srv.URL, "alice", "pw1")
	resp.Body.Close()

	t.Run("NoCover", func(t *testing.T) {
		resp := uploadSong(t, client, srv.URL, "Song A", "audio-bytes", "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 without cover, got %d", resp.StatusCode)
		}
	})

	t.Run("NoAudio", func(t *testing.T) {
		resp := uploadSong(t, client, srv.URL, "Song A", "", "cover-bytes")
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400 without audio, got %d", resp.StatusCode)
		}
	})
}

func TestListNewestFirst(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp := register(t, client, srv.URL, "alice", "pw1")
	resp.Body.Close()

	for _, title := range []string{"A", "B", "C"} {
		resp := uploadSong(t, client, srv.URL, title, "audio-"+title, "cover-"+title)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Upload %s failed with %d", title, resp.StatusCode)
		}
		resp.Body.Close()
	}

	listResp, err := client.Get(srv.URL + "/api/songs")
	if err != nil {
		t.Fatalf("GET /api/songs failed: %v", err)
	}
	var songs []model.Song
	decodeBody(t, listResp, &songs)

	if len(songs) != 3 {
		t.Fatalf("Expected 3 songs, got %d", len(songs))
	}
	for i, want := range []string{"C", "B", "A"} {
		if songs[i].Title != want {
			t.Errorf("Expected song %d to be %s, got %s", i, want, songs[i].Title)
		}
	}
}

func TestRateRequiresSession(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, newClient(t), srv.URL+"/api/songs/1/rate", map[string]interface{}{
		"rating": 5, "comment": "great",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 without session, got %d", resp.StatusCode)
	}
}

func TestRateUnknownSongTolerated(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp := register(t, client, srv.URL, "alice", "pw1")
	resp.Body.Close()

	// No song with id 999 exists; the rating is accepted anyway.
	resp = postJSON(t, client, srv.URL+"/api/songs/999/rate", map[string]interface{}{
		"rating": 3, "comment": "phantom",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 rating an unknown song, got %d", resp.StatusCode)
	}

	var rating model.Rating
	decodeBody(t, resp, &rating)
	if rating.SongID != 999 || rating.ID == 0 {
		t.Errorf("Unexpected rating row: %+v", rating)
	}
}

func TestEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	// Register and log in as alice.
	resp := register(t, client, srv.URL, "alice", "pw1")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Register failed with %d", resp.StatusCode)
	}

	resp = postJSON(t, client, srv.URL+"/api/login", map[string]string{
		"username": "alice", "password": "pw1",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Login failed with %d", resp.StatusCode)
	}

	// Upload a track with both attachments.
	resp = uploadSong(t, client, srv.URL, "Song A", "audio-bytes", "cover-bytes")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Upload failed with %d", resp.StatusCode)
	}
	var created model.Song
	decodeBody(t, resp, &created)

	if created.Filename == "" || created.Cover == "" {
		t.Fatalf("Expected generated references, got %+v", created)
	}
	if created.Filename == created.Cover {
		t.Error("Expected distinct references for audio and cover")
	}
	if created.Filename == "Song A.mp3" || created.Cover == "Song A.jpg" {
		t.Error("Expected generated names, not the original filenames")
	}

	// The listing includes the track with its references.
	listResp, err := client.Get(srv.URL + "/api/songs")
	if err != nil {
		t.Fatalf("GET /api/songs failed: %v", err)
	}
	var songs []model.Song
	decodeBody(t, listResp, &songs)
	if len(songs) != 1 || songs[0].Title != "Song A" {
		t.Fatalf("Expected Song A in listing, got %+v", songs)
	}

	// The stored audio is served back by reference.
	fileResp, err := client.Get(srv.URL + "/uploads/" + created.Filename)
	if err != nil {
		t.Fatalf("GET upload failed: %v", err)
	}
	fileBody, err := io.ReadAll(fileResp.Body)
	fileResp.Body.Close()
	if err != nil {
		t.Fatalf("Failed to read upload body: %v", err)
	}
	if fileResp.StatusCode != http.StatusOK || string(fileBody) != "audio-bytes" {
		t.Errorf("Expected stored audio back, got %d %q", fileResp.StatusCode, fileBody)
	}

	// Rate the track; the row must be retrievable.
	resp = postJSON(t, client, fmt.Sprintf("%s/api/songs/%d/rate", srv.URL, created.ID), map[string]interface{}{
		"rating": 5, "comment": "great",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Rating failed with %d", resp.StatusCode)
	}

	ratingsResp, err := client.Get(fmt.Sprintf("%s/api/songs/%d/ratings", srv.URL, created.ID))
	if err != nil {
		t.Fatalf("GET ratings failed: %v", err)
	}
	var ratings []model.Rating
	decodeBody(t, ratingsResp, &ratings)
	if len(ratings) != 1 {
		t.Fatalf("Expected 1 rating, got %d", len(ratings))
	}
	if ratings[0].Rating != 5 || ratings[0].Comment != "great" {
		t.Errorf("Unexpected rating row: %+v", ratings[0])
	}
}

func TestProfile(t *testing.T) {
	srv := newTestServer(t)
	client := newClient(t)

	resp := register(t, client, srv.URL, "alice", "pw1")
	resp.Body.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	writer.WriteField("bio", "I make noise")
	part, err := writer.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatalf("Failed to create avatar part: %v", err)
	}
	io.WriteString(part, "png-bytes")
	writer.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/profile", &buf)
	if err != nil {
		t.Fatalf("Failed to build profile request: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	putResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/profile failed: %v", err)
	}
	var updated model.User
	decodeBody(t, putResp, &updated)
	if putResp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", putResp.StatusCode)
	}
	if updated.Bio != "I make noise" || updated.Avatar == "" {
		t.Errorf("Unexpected profile: %+v", updated)
	}

	meResp, err := client.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatalf("GET /api/me failed: %v", err)
	}
	var me model.User
	decodeBody(t, meResp, &me)
	if me.Bio != "I make noise" || me.Avatar != updated.Avatar {
		t.Errorf("Expected persisted profile, got %+v", me)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
}
