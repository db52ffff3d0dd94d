package models

import "time"

// PermanentPlaylistName is the playlist every user owns and cannot delete.
const PermanentPlaylistName = "Watch later"

// users table
type User struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Fullname     string    `json:"fullname"`
	Avatar       string    `json:"avatar"`
	CoverImage   string    `json:"coverImage"`
	PasswordHash string    `json:"-"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnerSummary is the slice of a user joined onto content listings.
type OwnerSummary struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Avatar   string `json:"avatar"`
}

// videos table
type Video struct {
	ID           string        `json:"_id"`
	OwnerID      string        `json:"-"`
	Owner        *OwnerSummary `json:"owner,omitempty"`
	VideoURL     string        `json:"video"`
	ThumbnailURL string        `json:"thumbnail"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Duration     float64       `json:"duration"`
	Views        int64         `json:"views"`
	IsPublished  bool          `json:"isPublished"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// comments table
type Comment struct {
	ID        string    `json:"_id"`
	VideoID   string    `json:"video"`
	OwnerID   string    `json:"ownerId"`
	Owner     string    `json:"owner"` // username of the author
	Content   string    `json:"content"`
	IsEdited  bool      `json:"isEdited"`
	LikeCount int64     `json:"likeCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// tweets table
type Tweet struct {
	ID        string        `json:"_id"`
	OwnerID   string        `json:"-"`
	Owner     *OwnerSummary `json:"owner,omitempty"`
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// playlists + playlist_videos tables
type Playlist struct {
	ID          string    `json:"_id"`
	OwnerID     string    `json:"owner"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPermanent bool      `json:"isPermanent"`
	Videos      []Video   `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// likes table; exactly one target per row
type Like struct {
	ID         string    `json:"_id"`
	UserID     string    `json:"likedBy"`
	TargetKind string    `json:"targetKind"`
	TargetID   string    `json:"targetId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// subscriptions table
type Subscription struct {
	ID           string    `json:"_id"`
	SubscriberID string    `json:"subscriber"`
	ChannelID    string    `json:"channel"`
	CreatedAt    time.Time `json:"createdAt"`
}

// WatchEntry is one row of a user's de-duplicated watch history.
type WatchEntry struct {
	Video     Video     `json:"video"`
	WatchedAt time.Time `json:"watchedAt"`
}

// Event types pushed to live clients and the message bus.
const (
	EventVideoLiked          = "video.liked"
	EventVideoUnliked        = "video.unliked"
	EventCommentLiked        = "comment.liked"
	EventCommentUnliked      = "comment.unliked"
	EventTweetLiked          = "tweet.liked"
	EventTweetUnliked        = "tweet.unliked"
	EventChannelSubscribed   = "channel.subscribed"
	EventChannelUnsubscribed = "channel.unsubscribed"
	EventVideoViewed         = "video.viewed"
	EventCommentAdded        = "comment.added"
)

// EngagementEvent is the fan-out format for engagement changes.
type EngagementEvent struct {
	Type      string `json:"type"`
	ActorID   string `json:"actor_id,omitempty"`
	TargetID  string `json:"target_id"`
	Count     int64  `json:"count"`
	Timestamp int64  `json:"timestamp"`
}
