package tweet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidhub/internal/apperr"
	"vidhub/pkg/database"
	"vidhub/pkg/models"
)

const selectTweet = `SELECT t.id, t.owner_id, t.content, t.created_at, t.updated_at,
	u.id, u.username, u.fullname, u.avatar
	FROM tweets t LEFT JOIN users u ON u.id = t.owner_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanTweet(s scanner) (models.Tweet, error) {
	var tw models.Tweet
	var created, updated int64
	var ownerID, username, fullname, avatar sql.NullString
	if err := s.Scan(&tw.ID, &tw.OwnerID, &tw.Content, &created, &updated, &ownerID, &username, &fullname, &avatar); err != nil {
		return models.Tweet{}, err
	}
	tw.CreatedAt = database.FromNanos(created)
	tw.UpdatedAt = database.FromNanos(updated)
	if ownerID.Valid {
		tw.Owner = &models.OwnerSummary{ID: ownerID.String, Username: username.String, Fullname: fullname.String, Avatar: avatar.String}
	}
	return tw, nil
}

func Create(ctx context.Context, db *sql.DB, userID, content string, now time.Time) (models.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, apperr.InvalidArgument("Tweet content is required")
	}
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO tweets(id, owner_id, content, created_at, updated_at) VALUES(?,?,?,?,?)`,
		id, userID, content, now.UnixNano(), now.UnixNano())
	if err != nil {
		return models.Tweet{}, fmt.Errorf("insert tweet: %w", err)
	}
	return Get(ctx, db, id)
}

func Get(ctx context.Context, db *sql.DB, id string) (models.Tweet, error) {
	tw, err := scanTweet(db.QueryRowContext(ctx, selectTweet+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tweet{}, apperr.NotFound("Tweet not found")
	}
	if err != nil {
		return models.Tweet{}, fmt.Errorf("get tweet: %w", err)
	}
	return tw, nil
}

// ListByUser returns userID's tweets, newest first. An unknown user is NotFound.
func ListByUser(ctx context.Context, db *sql.DB, userID string) ([]models.Tweet, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	rows, err := db.QueryContext(ctx, selectTweet+` WHERE t.owner_id = ? ORDER BY t.created_at DESC, t.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list tweets: %w", err)
	}
	defer rows.Close()

	out := []models.Tweet{}
	for rows.Next() {
		tw, err := scanTweet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tw)
	}
	return out, rows.Err()
}

func forOwner(ctx context.Context, db *sql.DB, id, userID, action string) (models.Tweet, error) {
	tw, err := Get(ctx, db, id)
	if err != nil {
		return models.Tweet{}, err
	}
	if tw.OwnerID != userID {
		return models.Tweet{}, apperr.Forbidden("You are not authorized to %s this tweet", action)
	}
	return tw, nil
}

func Update(ctx context.Context, db *sql.DB, id, userID, content string, now time.Time) (models.Tweet, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Tweet{}, apperr.InvalidArgument("Tweet content is required")
	}
	if _, err := forOwner(ctx, db, id, userID, "update"); err != nil {
		return models.Tweet{}, err
	}
	if _, err := db.ExecContext(ctx, `UPDATE tweets SET content = ?, updated_at = ? WHERE id = ?`, content, now.UnixNano(), id); err != nil {
		return models.Tweet{}, fmt.Errorf("update tweet: %w", err)
	}
	return Get(ctx, db, id)
}

// Delete removes the tweet and the likes on it.
func Delete(ctx context.Context, db *sql.DB, id, userID string) (models.Tweet, error) {
	tw, err := forOwner(ctx, db, id, userID, "delete")
	if err != nil {
		return models.Tweet{}, err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.Tweet{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM likes WHERE target_kind = 'tweet' AND target_id = ?`, id); err != nil {
		return models.Tweet{}, fmt.Errorf("delete tweet likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tweets WHERE id = ?`, id); err != nil {
		return models.Tweet{}, fmt.Errorf("delete tweet: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Tweet{}, fmt.Errorf("commit tx: %w", err)
	}
	return tw, nil
}
