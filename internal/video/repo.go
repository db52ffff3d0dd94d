package video

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidhub/internal/apperr"
	"vidhub/internal/pagination"
	"vidhub/pkg/database"
	"vidhub/pkg/models"
)

// Columns and FromWithOwner are shared by every listing that renders
// videos. The LEFT JOIN keeps videos whose owner row is gone; Owner is then nil.
const (
	Columns = `v.id, v.owner_id, v.video_url, v.thumbnail_url, v.title, v.description,
	v.duration, v.views, v.is_published, v.created_at, v.updated_at,
	u.id, u.username, u.fullname, u.avatar`
	FromWithOwner   = ` FROM videos v LEFT JOIN users u ON u.id = v.owner_id`
	SelectWithOwner = `SELECT ` + Columns + FromWithOwner
)

type scanner interface {
	Scan(dest ...any) error
}

// Scan reads Columns, followed by any extra columns the caller selected.
func Scan(s scanner, extra ...any) (models.Video, error) {
	var v models.Video
	var created, updated int64
	var published int
	var ownerID, username, fullname, avatar sql.NullString
	dest := []any{&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title, &v.Description,
		&v.Duration, &v.Views, &published, &created, &updated,
		&ownerID, &username, &fullname, &avatar}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return models.Video{}, err
	}
	v.IsPublished = published != 0
	v.CreatedAt = database.FromNanos(created)
	v.UpdatedAt = database.FromNanos(updated)
	if ownerID.Valid {
		v.Owner = &models.OwnerSummary{ID: ownerID.String, Username: username.String, Fullname: fullname.String, Avatar: avatar.String}
	}
	return v, nil
}

type PublishInput struct {
	OwnerID      string
	VideoURL     string
	ThumbnailURL string
	Title        string
	Description  string
	Duration     float64
}

func Publish(ctx context.Context, db *sql.DB, in PublishInput, now time.Time) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return models.Video{}, apperr.InvalidArgument("Title is required")
	}
	if in.VideoURL == "" || in.ThumbnailURL == "" {
		return models.Video{}, apperr.InvalidArgument("Video and thumbnail file is required")
	}
	if in.Duration < 0 {
		in.Duration = 0
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO videos(id, owner_id, video_url, thumbnail_url, title, description, duration, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`, id, in.OwnerID, in.VideoURL, in.ThumbnailURL, in.Title, in.Description, in.Duration, now.UnixNano(), now.UnixNano())
	if err != nil {
		return models.Video{}, fmt.Errorf("insert video: %w", err)
	}
	return GetByID(ctx, db, id)
}

func GetByID(ctx context.Context, db *sql.DB, id string) (models.Video, error) {
	v, err := Scan(db.QueryRowContext(ctx, SelectWithOwner+` WHERE v.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Video{}, apperr.NotFound("Video not found")
		}
		return models.Video{}, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// forOwner loads the video and checks userID owns it.
func forOwner(ctx context.Context, db *sql.DB, videoID, userID, action string) (models.Video, error) {
	v, err := GetByID(ctx, db, videoID)
	if err != nil {
		return models.Video{}, err
	}
	if v.OwnerID != userID {
		return models.Video{}, apperr.Forbidden("You are not authorized to %s this video", action)
	}
	return v, nil
}

type UpdateInput struct {
	Title       string
	Description string
}

// Update changes title and/or description; empty fields keep their value.
func Update(ctx context.Context, db *sql.DB, videoID, userID string, in UpdateInput, now time.Time) (models.Video, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" && in.Description == "" {
		return models.Video{}, apperr.InvalidArgument("Title or description is required")
	}
	v, err := forOwner(ctx, db, videoID, userID, "update")
	if err != nil {
		return models.Video{}, err
	}
	if in.Title == "" {
		in.Title = v.Title
	}
	if in.Description == "" {
		in.Description = v.Description
	}
	_, err = db.ExecContext(ctx, `UPDATE videos SET title = ?, description = ?, updated_at = ? WHERE id = ?`, in.Title, in.Description, now.UnixNano(), videoID)
	if err != nil {
		return models.Video{}, fmt.Errorf("update video: %w", err)
	}
	return GetByID(ctx, db, videoID)
}

// UpdateThumbnail swaps the thumbnail and returns the updated video and the old reference.
func UpdateThumbnail(ctx context.Context, db *sql.DB, videoID, userID, url string, now time.Time) (models.Video, string, error) {
	if url == "" {
		return models.Video{}, "", apperr.InvalidArgument("Thumbnail is required")
	}
	v, err := forOwner(ctx, db, videoID, userID, "update")
	if err != nil {
		return models.Video{}, "", err
	}
	if _, err := db.ExecContext(ctx, `UPDATE videos SET thumbnail_url = ?, updated_at = ? WHERE id = ?`, url, now.UnixNano(), videoID); err != nil {
		return models.Video{}, "", fmt.Errorf("update thumbnail: %w", err)
	}
	updated, err := GetByID(ctx, db, videoID)
	return updated, v.ThumbnailURL, err
}

func TogglePublish(ctx context.Context, db *sql.DB, videoID, userID string, now time.Time) (models.Video, error) {
	if _, err := forOwner(ctx, db, videoID, userID, "update"); err != nil {
		return models.Video{}, err
	}
	_, err := db.ExecContext(ctx, `UPDATE videos SET is_published = 1 - is_published, updated_at = ? WHERE id = ?`, now.UnixNano(), videoID)
	if err != nil {
		return models.Video{}, fmt.Errorf("toggle publish: %w", err)
	}
	return GetByID(ctx, db, videoID)
}

// Delete removes the video with its comments and likes in one transaction.
// Playlist entries and watch history keep dangling references; readers
// filter them out.
func Delete(ctx context.Context, db *sql.DB, videoID, userID string) (models.Video, error) {
	v, err := forOwner(ctx, db, videoID, userID, "delete")
	if err != nil {
		return models.Video{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.Video{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		`DELETE FROM likes WHERE target_kind = 'comment' AND target_id IN (SELECT id FROM comments WHERE video_id = ?)`,
		`DELETE FROM comments WHERE video_id = ?`,
		`DELETE FROM likes WHERE target_kind = 'video' AND target_id = ?`,
		`DELETE FROM videos WHERE id = ?`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s, videoID); err != nil {
			return models.Video{}, fmt.Errorf("delete video %s: %w", videoID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Video{}, fmt.Errorf("commit tx: %w", err)
	}
	return v, nil
}

// IncrementView adds one view atomically in storage and returns the new count.
func IncrementView(ctx context.Context, db *sql.DB, videoID string) (int64, error) {
	var views int64
	err := db.QueryRowContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = ? RETURNING views`, videoID).Scan(&views)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("Video not found")
		}
		return 0, fmt.Errorf("increment view: %w", err)
	}
	return views, nil
}

type ListFilter struct {
	Query   string // substring of title or description, case-insensitive
	OwnerID string
	SortBy  string // createdAt | views | title | duration
}

var sortColumns = map[string]string{
	"createdAt": "v.created_at",
	"views":     "v.views",
	"title":     "v.title",
	"duration":  "v.duration",
}

func List(ctx context.Context, db *sql.DB, f ListFilter, p pagination.Params) (pagination.Page[models.Video], error) {
	where := ` WHERE 1=1`
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(q) + "%"
		where += ` AND (v.title LIKE ? ESCAPE '\' OR v.description LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
	}
	if f.OwnerID != "" {
		where += ` AND v.owner_id = ?`
		args = append(args, f.OwnerID)
	}

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos v`+where, args...).Scan(&total); err != nil {
		return pagination.Page[models.Video]{}, fmt.Errorf("count videos: %w", err)
	}

	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns["createdAt"]
	}
	q := SelectWithOwner + where + p.OrderBy(column, "v.id") + ` LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, q, append(args, p.Limit, p.Offset())...)
	if err != nil {
		return pagination.Page[models.Video]{}, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var items []models.Video
	for rows.Next() {
		v, err := Scan(rows)
		if err != nil {
			return pagination.Page[models.Video]{}, err
		}
		items = append(items, v)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[models.Video]{}, err
	}
	return pagination.NewPage(items, p, total), nil
}

// ChannelVideos lists one channel's videos for its dashboard.
func ChannelVideos(ctx context.Context, db *sql.DB, channelID string, p pagination.Params) (pagination.Page[models.Video], error) {
	return List(ctx, db, ListFilter{OwnerID: channelID}, p)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
