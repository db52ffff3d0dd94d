// Package testutil holds fixtures shared by package tests. Fixtures insert
// rows directly so repositories can be tested without importing each other.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"vidhub/pkg/database"
)

// NewDB opens a migrated database in t's temp dir and closes it on cleanup.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return db
}

// InsertUser creates a user row with no playlists and returns its id.
func InsertUser(t *testing.T, db *sql.DB, username string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UnixNano()
	_, err := db.Exec(`INSERT INTO users(id, username, email, fullname, password_hash, avatar, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?)`, id, username, username+"@example.com", "Full "+username, "x", "http://img/"+username, now, now)
	if err != nil {
		t.Fatalf("insert user %s: %v", username, err)
	}
	return id
}

func InsertVideo(t *testing.T, db *sql.DB, ownerID, title string, createdAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO videos(id, owner_id, video_url, thumbnail_url, title, description, duration, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`, id, ownerID, "http://media/"+id+".mp4", "http://media/"+id+".jpg", title, "about "+title, 60, createdAt.UnixNano(), createdAt.UnixNano())
	if err != nil {
		t.Fatalf("insert video %s: %v", title, err)
	}
	return id
}

func InsertComment(t *testing.T, db *sql.DB, videoID, ownerID, content string, createdAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO comments(id, video_id, owner_id, content, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		id, videoID, ownerID, content, createdAt.UnixNano(), createdAt.UnixNano())
	if err != nil {
		t.Fatalf("insert comment: %v", err)
	}
	return id
}

func InsertTweet(t *testing.T, db *sql.DB, ownerID, content string, createdAt time.Time) string {
	t.Helper()
	id := uuid.NewString()
	_, err := db.Exec(`INSERT INTO tweets(id, owner_id, content, created_at, updated_at) VALUES(?,?,?,?,?)`,
		id, ownerID, content, createdAt.UnixNano(), createdAt.UnixNano())
	if err != nil {
		t.Fatalf("insert tweet: %v", err)
	}
	return id
}

// Count runs SELECT COUNT(*) with the given where clause.
func Count(t *testing.T, db *sql.DB, table, where string, args ...any) int {
	t.Helper()
	var n int
	q := `SELECT COUNT(*) FROM ` + table
	if where != "" {
		q += ` WHERE ` + where
	}
	if err := db.QueryRow(q, args...).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
