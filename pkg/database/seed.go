package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vidhub/pkg/models"
)

type SeedUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type SeedVideo struct {
	Owner        string  `json:"owner"` // username
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	VideoURL     string  `json:"video"`
	ThumbnailURL string  `json:"thumbnail"`
	Duration     float64 `json:"duration"`
}

type SeedData struct {
	Users  []SeedUser  `json:"users"`
	Videos []SeedVideo `json:"videos"`
}

func LoadSeedFromJSON(jsonPath string) (SeedData, error) {
	b, err := os.ReadFile(jsonPath)
	if err != nil {
		return SeedData{}, fmt.Errorf("read seed json: %w", err)
	}

	var data SeedData
	if err := json.Unmarshal(b, &data); err != nil {
		return SeedData{}, fmt.Errorf("unmarshal seed json: %w", err)
	}
	return data, nil
}

// Seed inserts the users and videos that are not already present and
// returns how many rows of each it created. Re-running it is a no-op.
func Seed(db *sql.DB, data SeedData) (users int, videos int, err error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UnixNano()
	ids := map[string]string{}

	for _, u := range data.Users {
		username := strings.ToLower(strings.TrimSpace(u.Username))
		var id string
		err := tx.QueryRow(`SELECT id FROM users WHERE username = ?`, username).Scan(&id)
		if err == nil {
			ids[username] = id
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("lookup user %s: %w", username, err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return 0, 0, fmt.Errorf("hash password for %s: %w", username, err)
		}
		id = uuid.NewString()
		if _, err := tx.Exec(`INSERT INTO users(id, username, email, fullname, password_hash, avatar, created_at, updated_at)
			VALUES(?,?,?,?,?,?,?,?)`, id, username, strings.ToLower(u.Email), u.Fullname, string(hash), u.Avatar, now, now); err != nil {
			return 0, 0, fmt.Errorf("insert user %s: %w", username, err)
		}
		if _, err := tx.Exec(`INSERT INTO playlists(id, owner_id, name, description, is_permanent, created_at, updated_at)
			VALUES(?,?,?,?,1,?,?) ON CONFLICT DO NOTHING`, uuid.NewString(), id, models.PermanentPlaylistName, "Videos saved to watch later", now, now); err != nil {
			return 0, 0, fmt.Errorf("insert watch later for %s: %w", username, err)
		}
		ids[username] = id
		users++
	}

	for _, v := range data.Videos {
		ownerID, ok := ids[strings.ToLower(v.Owner)]
		if !ok {
			return 0, 0, fmt.Errorf("video %q: unknown owner %q", v.Title, v.Owner)
		}
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM videos WHERE owner_id = ? AND title = ?`, ownerID, v.Title).Scan(&exists); err != nil {
			return 0, 0, fmt.Errorf("lookup video %q: %w", v.Title, err)
		}
		if exists > 0 {
			continue
		}
		now++
		if _, err := tx.Exec(`INSERT INTO videos(id, owner_id, video_url, thumbnail_url, title, description, duration, created_at, updated_at)
			VALUES(?,?,?,?,?,?,?,?,?)`, uuid.NewString(), ownerID, v.VideoURL, v.ThumbnailURL, v.Title, v.Description, v.Duration, now, now); err != nil {
			return 0, 0, fmt.Errorf("insert video %q: %w", v.Title, err)
		}
		videos++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit tx: %w", err)
	}
	return users, videos, nil
}
