package comment

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

// a missing author keeps the row with an empty owner name
const selectComment = `SELECT c.id, c.video_id, c.owner_id, COALESCE(u.username, ''), c.content, c.is_edited,
	(SELECT COUNT(*) FROM likes l WHERE l.target_kind = 'comment' AND l.target_id = c.id),
	c.created_at, c.updated_at
	FROM comments c LEFT JOIN users u ON u.id = c.owner_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanComment(s scanner) (models.Comment, error) {
	var c models.Comment
	var edited int
	var created, updated int64
	if err := s.Scan(&c.ID, &c.VideoID, &c.OwnerID, &c.Owner, &c.Content, &edited, &c.LikeCount, &created, &updated); err != nil {
		return models.Comment{}, err
	}
	c.IsEdited = edited != 0
	c.CreatedAt = database.FromNanos(created)
	c.UpdatedAt = database.FromNanos(updated)
	return c, nil
}

func Add(ctx context.Context, db *sql.DB, videoID, userID, content string, now time.Time) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.InvalidArgument("Comment content is required")
	}
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM videos WHERE id = ?`, videoID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, apperr.NotFound("Video not found")
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("lookup video: %w", err)
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx, `INSERT INTO comments(id, video_id, owner_id, content, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
		id, videoID, userID, content, now.UnixNano(), now.UnixNano())
	if err != nil {
		return models.Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return Get(ctx, db, id)
}

func Get(ctx context.Context, db *sql.DB, id string) (models.Comment, error) {
	c, err := scanComment(db.QueryRowContext(ctx, selectComment+` WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, apperr.NotFound("Comment not found")
	}
	if err != nil {
		return models.Comment{}, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func forOwner(ctx context.Context, db *sql.DB, id, userID, action string) (models.Comment, error) {
	c, err := Get(ctx, db, id)
	if err != nil {
		return models.Comment{}, err
	}
	if c.OwnerID != userID {
		return models.Comment{}, apperr.Forbidden("You are not authorized to %s this comment", action)
	}
	return c, nil
}

// Update replaces the content and marks the comment edited.
func Update(ctx context.Context, db *sql.DB, id, userID, content string, now time.Time) (models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Comment{}, apperr.InvalidArgument("Comment content is required")
	}
	if _, err := forOwner(ctx, db, id, userID, "update"); err != nil {
		return models.Comment{}, err
	}
	_, err := db.ExecContext(ctx, `UPDATE comments SET content = ?, is_edited = 1, updated_at = ? WHERE id = ?`, content, now.UnixNano(), id)
	if err != nil {
		return models.Comment{}, fmt.Errorf("update comment: %w", err)
	}
	return Get(ctx, db, id)
}

// Delete removes the comment and the likes on it.
func Delete(ctx context.Context, db *sql.DB, id, userID string) (models.Comment, error) {
	c, err := forOwner(ctx, db, id, userID, "delete")
	if err != nil {
		return models.Comment{}, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.Comment{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE target_kind = 'comment' AND target_id = ?`, id); err != nil {
		return models.Comment{}, fmt.Errorf("delete comment likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
		return models.Comment{}, fmt.Errorf("delete comment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Comment{}, fmt.Errorf("commit tx: %w", err)
	}
	return c, nil
}

// ListForVideo pages a video's comments by creation time.
func ListForVideo(ctx context.Context, db *sql.DB, videoID string, p pagination.Params) (pagination.Page[models.Comment], error) {
	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments WHERE video_id = ?`, videoID).Scan(&total); err != nil {
		return pagination.Page[models.Comment]{}, fmt.Errorf("count comments: %w", err)
	}

	q := selectComment + ` WHERE c.video_id = ?` + p.OrderBy("c.created_at", "c.id") + ` LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, q, videoID, p.Limit, p.Offset())
	if err != nil {
		return pagination.Page[models.Comment]{}, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return pagination.Page[models.Comment]{}, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return pagination.Page[models.Comment]{}, err
	}
	return pagination.NewPage(items, p, total), nil
}
