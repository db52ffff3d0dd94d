package database

import (
	"database/sql"
	"fmt"
)

// Timestamps are stored as unix nanoseconds so ORDER BY is numeric.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			fullname TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			avatar TEXT NOT NULL DEFAULT '',
			cover_image TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS videos (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id),
			video_url TEXT NOT NULL,
			thumbnail_url TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration REAL NOT NULL DEFAULT 0,
			views INTEGER NOT NULL DEFAULT 0 CHECK (views >= 0),
			is_published INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_videos_owner ON videos(owner_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			video_id TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			content TEXT NOT NULL,
			is_edited INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_video ON comments(video_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS tweets (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id),
			content TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS likes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			target_kind TEXT NOT NULL CHECK (target_kind IN ('video', 'comment', 'tweet')),
			target_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (user_id, target_kind, target_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_likes_target ON likes(target_kind, target_id);`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id TEXT PRIMARY KEY,
			subscriber_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (subscriber_id, channel_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_channel ON subscriptions(channel_id);`,
		`CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_permanent INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		// at most one permanent playlist per owner
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_playlists_permanent ON playlists(owner_id) WHERE is_permanent = 1;`,
		// no FK on video_id: deleted videos stay as dangling references
		`CREATE TABLE IF NOT EXISTS playlist_videos (
			playlist_id TEXT NOT NULL REFERENCES playlists(id) ON DELETE CASCADE,
			video_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (playlist_id, video_id)
		);`,
		`CREATE TABLE IF NOT EXISTS watch_history (
			user_id TEXT NOT NULL,
			video_id TEXT NOT NULL,
			watched_at INTEGER NOT NULL,
			PRIMARY KEY (user_id, video_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_watch_history_recent ON watch_history(user_id, watched_at);`,
	}

	for i, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migrate stmt %d: %w", i, err)
		}
	}
	return nil
}
