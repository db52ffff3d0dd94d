// Package engagement implements like and subscription toggles plus the
// counters and listings derived from them.
package engagement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"vidhub/internal/apperr"
	"vidhub/internal/pagination"
	"vidhub/internal/video"
	"vidhub/pkg/models"
)

type TargetKind string

const (
	KindVideo   TargetKind = "video"
	KindComment TargetKind = "comment"
	KindTweet   TargetKind = "tweet"
)

func (k TargetKind) table() (string, error) {
	switch k {
	case KindVideo:
		return "videos", nil
	case KindComment:
		return "comments", nil
	case KindTweet:
		return "tweets", nil
	}
	return "", apperr.InvalidArgument("Invalid like target %q", string(k))
}

func (k TargetKind) label() string {
	switch k {
	case KindVideo:
		return "Video"
	case KindComment:
		return "Comment"
	}
	return "Tweet"
}

// EventType names the fan-out event for a like state change.
func (k TargetKind) EventType(liked bool) string {
	switch {
	case k == KindVideo && liked:
		return models.EventVideoLiked
	case k == KindVideo:
		return models.EventVideoUnliked
	case k == KindComment && liked:
		return models.EventCommentLiked
	case k == KindComment:
		return models.EventCommentUnliked
	case liked:
		return models.EventTweetLiked
	}
	return models.EventTweetUnliked
}

type LikeResult struct {
	IsLiked   bool  `json:"isLiked"`
	LikeCount int64 `json:"likeCount"`
}

func targetExists(ctx context.Context, q querier, kind TargetKind, id string) error {
	table, err := kind.table()
	if err != nil {
		return err
	}
	var one int
	err = q.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s not found", kind.label())
	}
	if err != nil {
		return fmt.Errorf("lookup %s: %w", kind, err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ToggleLike flips userID's like on the target. The unlike path is a
// single DELETE; when nothing was deleted the insert is conflict-tolerant,
// so a concurrent duplicate toggle reports liked instead of failing.
func ToggleLike(ctx context.Context, db *sql.DB, userID string, kind TargetKind, targetID string) (LikeResult, error) {
	if err := targetExists(ctx, db, kind, targetID); err != nil {
		return LikeResult{}, err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM likes WHERE user_id = ? AND target_kind = ? AND target_id = ?`, userID, string(kind), targetID)
	if err != nil {
		return LikeResult{}, fmt.Errorf("delete like: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return LikeResult{}, err
	}

	liked := false
	if n == 0 {
		r, err := insertLike(ctx, db, userID, kind, targetID)
		if err != nil {
			return LikeResult{}, err
		}
		if r == alreadyExists {
			log.Printf("like raced with a concurrent toggle user=%s %s=%s", userID, kind, targetID)
		}
		liked = true
	}

	count, err := LikeCount(ctx, db, kind, targetID)
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{IsLiked: liked, LikeCount: count}, nil
}

func insertLike(ctx context.Context, q querier, userID string, kind TargetKind, targetID string) (insertResult, error) {
	r, err := insertOnce(ctx, q, `INSERT INTO likes(id, user_id, target_kind, target_id, created_at) VALUES(?,?,?,?,?)
		ON CONFLICT(user_id, target_kind, target_id) DO NOTHING`,
		uuid.NewString(), userID, string(kind), targetID, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert like: %w", err)
	}
	return r, nil
}

func LikeCount(ctx context.Context, db *sql.DB, kind TargetKind, targetID string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE target_kind = ? AND target_id = ?`, string(kind), targetID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count likes: %w", err)
	}
	return n, nil
}

func IsLiked(ctx context.Context, db *sql.DB, userID string, kind TargetKind, targetID string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM likes WHERE user_id = ? AND target_kind = ? AND target_id = ?`, userID, string(kind), targetID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup like: %w", err)
	}
	return true, nil
}

// LikedVideos lists videos userID liked, most recently liked first. Likes
// on deleted videos drop out through the inner join.
func LikedVideos(ctx context.Context, db *sql.DB, userID string, p pagination.Params) (pagination.Page[models.Video], error) {
	const from = ` JOIN likes l ON l.target_kind = 'video' AND l.target_id = v.id AND l.user_id = ?`

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos v`+from, userID).Scan(&total); err != nil {
		return pagination.Page[models.Video]{}, fmt.Errorf("count liked videos: %w", err)
	}

	q := video.SelectWithOwner + from + p.OrderBy("l.created_at", "l.id") + ` LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, q, userID, p.Limit, p.Offset())
	if err != nil {
		return pagination.Page[models.Video]{}, fmt.Errorf("list liked videos: %w", err)
	}
	defer rows.Close()

	var items []models.Video
	for rows.Next() {
		v, err := video.Scan(rows)
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
