package playlist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidhub/internal/apperr"
	"vidhub/internal/video"
	"vidhub/pkg/database"
	"vidhub/pkg/models"
)

const selectPlaylist = `SELECT id, owner_id, name, description, is_permanent, created_at, updated_at FROM playlists`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(s scanner) (models.Playlist, error) {
	var p models.Playlist
	var permanent int
	var created, updated int64
	if err := s.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &permanent, &created, &updated); err != nil {
		return models.Playlist{}, err
	}
	p.IsPermanent = permanent != 0
	p.CreatedAt = database.FromNanos(created)
	p.UpdatedAt = database.FromNanos(updated)
	p.Videos = []models.Video{}
	return p, nil
}

func Create(ctx context.Context, db *sql.DB, ownerID, name, description string, now time.Time) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, apperr.InvalidArgument("Playlist name is required")
	}
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO playlists(id, owner_id, name, description, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		id, ownerID, name, strings.TrimSpace(description), now.UnixNano(), now.UnixNano())
	if err != nil {
		return models.Playlist{}, fmt.Errorf("insert playlist: %w", err)
	}
	return Get(ctx, db, id)
}

// EnsurePermanent creates ownerID's "Watch later" playlist if it is
// missing. The partial unique index makes concurrent callers converge on
// a single row.
func EnsurePermanent(ctx context.Context, db *sql.DB, ownerID string, now time.Time) error {
	_, err := db.ExecContext(ctx, `INSERT INTO playlists(id, owner_id, name, description, is_permanent, created_at, updated_at)
		SELECT ?, ?, ?, '', 1, ?, ? WHERE NOT EXISTS (SELECT 1 FROM playlists WHERE owner_id = ? AND is_permanent = 1)
		ON CONFLICT DO NOTHING`,
		uuid.NewString(), ownerID, models.PermanentPlaylistName, now.UnixNano(), now.UnixNano(), ownerID)
	if err != nil {
		return fmt.Errorf("ensure watch later: %w", err)
	}
	return nil
}

// Get returns the playlist with its live videos in insertion order.
func Get(ctx context.Context, db *sql.DB, id string) (models.Playlist, error) {
	p, err := scanPlaylist(db.QueryRowContext(ctx, selectPlaylist+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Playlist{}, apperr.NotFound("Playlist not found")
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("get playlist: %w", err)
	}
	byID := map[string]*models.Playlist{p.ID: &p}
	if err := attachVideos(ctx, db, `pv.playlist_id = ?`, p.ID, byID); err != nil {
		return models.Playlist{}, err
	}
	return p, nil
}

// ListForUser returns userID's playlists with "Watch later" first.
func ListForUser(ctx context.Context, db *sql.DB, userID string, now time.Time) ([]models.Playlist, error) {
	if err := EnsurePermanent(ctx, db, userID, now); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectPlaylist+` WHERE owner_id = ? ORDER BY is_permanent DESC, created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	var out []models.Playlist
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]*models.Playlist, len(out))
	for i := range out {
		byID[out[i].ID] = &out[i]
	}
	if err := attachVideos(ctx, db, `pv.playlist_id IN (SELECT id FROM playlists WHERE owner_id = ?)`, userID, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// attachVideos inner-joins playlist entries with videos, so entries whose
// video was deleted are left out.
func attachVideos(ctx context.Context, db *sql.DB, where, arg string, byID map[string]*models.Playlist) error {
	q := `SELECT ` + video.Columns + `, pv.playlist_id` + video.FromWithOwner +
		` JOIN playlist_videos pv ON pv.video_id = v.id WHERE ` + where + ` ORDER BY pv.position ASC`
	rows, err := db.QueryContext(ctx, q, arg)
	if err != nil {
		return fmt.Errorf("list playlist videos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var playlistID string
		v, err := video.Scan(rows, &playlistID)
		if err != nil {
			return err
		}
		if p, ok := byID[playlistID]; ok {
			p.Videos = append(p.Videos, v)
		}
	}
	return rows.Err()
}

func forOwner(ctx context.Context, db *sql.DB, id, userID, action string) (models.Playlist, error) {
	p, err := scanPlaylist(db.QueryRowContext(ctx, selectPlaylist+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Playlist{}, apperr.NotFound("Playlist not found")
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("get playlist: %w", err)
	}
	if p.OwnerID != userID {
		return models.Playlist{}, apperr.Forbidden("You are not authorized to %s this playlist", action)
	}
	return p, nil
}

func AddVideo(ctx context.Context, db *sql.DB, playlistID, videoID, userID string, now time.Time) (models.Playlist, error) {
	if _, err := forOwner(ctx, db, playlistID, userID, "modify"); err != nil {
		return models.Playlist{}, err
	}
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM videos WHERE id = ?`, videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Playlist{}, apperr.NotFound("Video not found")
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("lookup video: %w", err)
	}

	_, err = db.ExecContext(ctx, `INSERT INTO playlist_videos(playlist_id, video_id, position)
		SELECT ?, ?, COALESCE(MAX(position), 0) + 1 FROM playlist_videos WHERE playlist_id = ?`, playlistID, videoID, playlistID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Playlist{}, apperr.Conflict("Video already in playlist")
		}
		return models.Playlist{}, fmt.Errorf("add playlist video: %w", err)
	}
	if err := touch(ctx, db, playlistID, now); err != nil {
		return models.Playlist{}, err
	}
	return Get(ctx, db, playlistID)
}

func RemoveVideo(ctx context.Context, db *sql.DB, playlistID, videoID, userID string, now time.Time) (models.Playlist, error) {
	if _, err := forOwner(ctx, db, playlistID, userID, "modify"); err != nil {
		return models.Playlist{}, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM playlist_videos WHERE playlist_id = ? AND video_id = ?`, playlistID, videoID)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("remove playlist video: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.Playlist{}, err
	} else if n == 0 {
		return models.Playlist{}, apperr.InvalidArgument("Video is not in the playlist")
	}
	if err := touch(ctx, db, playlistID, now); err != nil {
		return models.Playlist{}, err
	}
	return Get(ctx, db, playlistID)
}

// Update changes name and/or description; empty fields keep their value.
// The permanent playlist cannot be renamed.
func Update(ctx context.Context, db *sql.DB, id, userID, name, description string, now time.Time) (models.Playlist, error) {
	name, description = strings.TrimSpace(name), strings.TrimSpace(description)
	if name == "" && description == "" {
		return models.Playlist{}, apperr.InvalidArgument("Name or description is required")
	}
	p, err := forOwner(ctx, db, id, userID, "update")
	if err != nil {
		return models.Playlist{}, err
	}
	if p.IsPermanent && name != "" && name != p.Name {
		return models.Playlist{}, apperr.Forbidden("%s playlist cannot be renamed", models.PermanentPlaylistName)
	}
	if name == "" {
		name = p.Name
	}
	if description == "" {
		description = p.Description
	}
	_, err = db.ExecContext(ctx, `UPDATE playlists SET name = ?, description = ?, updated_at = ? WHERE id = ?`, name, description, now.UnixNano(), id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("update playlist: %w", err)
	}
	return Get(ctx, db, id)
}

func Delete(ctx context.Context, db *sql.DB, id, userID string) error {
	p, err := forOwner(ctx, db, id, userID, "delete")
	if err != nil {
		return err
	}
	if p.IsPermanent {
		return apperr.Forbidden("%s playlist cannot be deleted", models.PermanentPlaylistName)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM playlists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	return nil
}

func touch(ctx context.Context, db *sql.DB, id string, now time.Time) error {
	if _, err := db.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, now.UnixNano(), id); err != nil {
		return fmt.Errorf("touch playlist: %w", err)
	}
	return nil
}
