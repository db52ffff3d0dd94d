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
	"vidhub/pkg/database"
	"vidhub/pkg/models"
)

type SubscriptionResult struct {
	IsSubscribed    bool  `json:"isSubscribed"`
	SubscriberCount int64 `json:"subscriberCount"`
}

// ToggleSubscription flips subscriberID's subscription to channelID with
// the same delete-then-insert shape as ToggleLike.
func ToggleSubscription(ctx context.Context, db *sql.DB, subscriberID, channelID string) (SubscriptionResult, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, channelID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return SubscriptionResult{}, apperr.NotFound("Channel not found")
	}
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("lookup channel: %w", err)
	}

	res, err := db.ExecContext(ctx, `DELETE FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?`, subscriberID, channelID)
	if err != nil {
		return SubscriptionResult{}, fmt.Errorf("delete subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return SubscriptionResult{}, err
	}

	subscribed := false
	if n == 0 {
		r, err := insertSubscription(ctx, db, subscriberID, channelID)
		if err != nil {
			return SubscriptionResult{}, err
		}
		if r == alreadyExists {
			log.Printf("subscription raced with a concurrent toggle subscriber=%s channel=%s", subscriberID, channelID)
		}
		subscribed = true
	}

	count, err := SubscriberCount(ctx, db, channelID)
	if err != nil {
		return SubscriptionResult{}, err
	}
	return SubscriptionResult{IsSubscribed: subscribed, SubscriberCount: count}, nil
}

func insertSubscription(ctx context.Context, q querier, subscriberID, channelID string) (insertResult, error) {
	r, err := insertOnce(ctx, q, `INSERT INTO subscriptions(id, subscriber_id, channel_id, created_at) VALUES(?,?,?,?)
		ON CONFLICT(subscriber_id, channel_id) DO NOTHING`, uuid.NewString(), subscriberID, channelID, time.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("insert subscription: %w", err)
	}
	return r, nil
}

func SubscriberCount(ctx context.Context, db *sql.DB, channelID string) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = ?`, channelID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}

func IsSubscribed(ctx context.Context, db *sql.DB, subscriberID, channelID string) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?`, subscriberID, channelID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup subscription: %w", err)
	}
	return true, nil
}

// Subscriber is one side of a subscription joined with its user summary.
type Subscriber struct {
	models.OwnerSummary
	SubscribedAt time.Time `json:"subscribedAt"`
}

// Subscribers lists the users subscribed to channelID.
func Subscribers(ctx context.Context, db *sql.DB, channelID string) ([]Subscriber, error) {
	return listSubscriptions(ctx, db, `SELECT u.id, u.username, u.fullname, u.avatar, s.created_at
		FROM subscriptions s JOIN users u ON u.id = s.subscriber_id
		WHERE s.channel_id = ? ORDER BY s.created_at DESC, s.id DESC`, channelID)
}

// SubscribedChannels lists the channels subscriberID follows.
func SubscribedChannels(ctx context.Context, db *sql.DB, subscriberID string) ([]Subscriber, error) {
	return listSubscriptions(ctx, db, `SELECT u.id, u.username, u.fullname, u.avatar, s.created_at
		FROM subscriptions s JOIN users u ON u.id = s.channel_id
		WHERE s.subscriber_id = ? ORDER BY s.created_at DESC, s.id DESC`, subscriberID)
}

func listSubscriptions(ctx context.Context, db *sql.DB, q, id string) ([]Subscriber, error) {
	rows, err := db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	out := []Subscriber{}
	for rows.Next() {
		var s Subscriber
		var at int64
		if err := rows.Scan(&s.ID, &s.Username, &s.Fullname, &s.Avatar, &at); err != nil {
			return nil, err
		}
		s.SubscribedAt = database.FromNanos(at)
		out = append(out, s)
	}
	return out, rows.Err()
}

type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

// Stats aggregates a channel's dashboard counters.
func Stats(ctx context.Context, db *sql.DB, channelID string) (ChannelStats, error) {
	var s ChannelStats
	err := db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(views), 0) FROM videos WHERE owner_id = ?`, channelID).Scan(&s.TotalVideos, &s.TotalViews)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("video stats: %w", err)
	}
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes l JOIN videos v ON l.target_kind = 'video' AND l.target_id = v.id
		WHERE v.owner_id = ?`, channelID).Scan(&s.TotalLikes)
	if err != nil {
		return ChannelStats{}, fmt.Errorf("like stats: %w", err)
	}
	if s.TotalSubscribers, err = SubscriberCount(ctx, db, channelID); err != nil {
		return ChannelStats{}, err
	}
	return s, nil
}
