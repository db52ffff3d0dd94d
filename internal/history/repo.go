package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vidhub/internal/video"
	"vidhub/pkg/database"
	"vidhub/pkg/models"
)

// RecordWatch upserts (userID, videoID) and refreshes watched_at, so a
// video appears once per user. Watching a video that does not exist is a
// no-op.
func RecordWatch(ctx context.Context, db *sql.DB, userID, videoID string, now time.Time) error {
	_, err := db.ExecContext(ctx, `
	INSERT INTO watch_history(user_id, video_id, watched_at)
	SELECT ?, id, ? FROM videos WHERE id = ?
	ON CONFLICT(user_id, video_id)
	DO UPDATE SET watched_at = excluded.watched_at
	`, userID, now.UnixNano(), videoID)
	if err != nil {
		return fmt.Errorf("record watch: %w", err)
	}
	return nil
}

// List returns userID's history, most recent first. Entries for deleted
// videos are skipped.
func List(ctx context.Context, db *sql.DB, userID string) ([]models.WatchEntry, error) {
	q := `SELECT ` + video.Columns + `, h.watched_at` + video.FromWithOwner +
		` JOIN watch_history h ON h.video_id = v.id WHERE h.user_id = ? ORDER BY h.watched_at DESC, v.id DESC`
	rows, err := db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	out := []models.WatchEntry{}
	for rows.Next() {
		var at int64
		v, err := video.Scan(rows, &at)
		if err != nil {
			return nil, err
		}
		out = append(out, models.WatchEntry{Video: v, WatchedAt: database.FromNanos(at)})
	}
	return out, rows.Err()
}

func Clear(ctx context.Context, db *sql.DB, userID string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM watch_history WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
