package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"vidhub/internal/apperr"
	"vidhub/internal/auth"
	"vidhub/pkg/database"
	"vidhub/pkg/models"
)

const userColumns = `id, username, email, fullname, avatar, cover_image, password_hash, refresh_token, created_at, updated_at`

type RegisterInput struct {
	Username   string
	Email      string
	Fullname   string
	Password   string
	Avatar     string
	CoverImage string
}

func (in *RegisterInput) normalize() error {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Fullname = strings.TrimSpace(in.Fullname)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"fullname", in.Fullname},
		{"password", in.Password},
	} {
		if f.value == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return apperr.InvalidArgument("Please fill all the fields").WithDetails(missing...)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return apperr.InvalidArgument("Invalid email address")
	}
	return nil
}

// Create registers a user and their permanent playlist in one transaction,
// so no reader ever sees a user without "Watch later".
func Create(ctx context.Context, db *sql.DB, in RegisterInput, now time.Time) (models.User, error) {
	if err := in.normalize(); err != nil {
		return models.User{}, err
	}

	var exists int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, in.Username, in.Email).Scan(&exists); err != nil {
		return models.User{}, fmt.Errorf("check existing user: %w", err)
	}
	if exists > 0 {
		return models.User{}, apperr.Conflict("Username or email already exists")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	u := models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		Fullname:     in.Fullname,
		Avatar:       in.Avatar,
		CoverImage:   in.CoverImage,
		PasswordHash: hash,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return models.User{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `INSERT INTO users(id, username, email, fullname, password_hash, avatar, cover_image, created_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?)`, u.ID, u.Username, u.Email, u.Fullname, u.PasswordHash, u.Avatar, u.CoverImage, now.UnixNano(), now.UnixNano())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("Username or email already exists")
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO playlists(id, owner_id, name, description, is_permanent, created_at, updated_at)
		VALUES(?,?,?,?,1,?,?)`, uuid.NewString(), u.ID, models.PermanentPlaylistName, "Videos saved to watch later", now.UnixNano(), now.UnixNano())
	if err != nil {
		return models.User{}, fmt.Errorf("insert watch later playlist: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.User{}, fmt.Errorf("commit tx: %w", err)
	}
	return u, nil
}

// VerifyLogin accepts either the username or the email as login.
func VerifyLogin(ctx context.Context, db *sql.DB, login, password string) (models.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	if login == "" || password == "" {
		return models.User{}, apperr.InvalidArgument("username or email and password are required")
	}

	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?`, login, login))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("User does not exist")
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return models.User{}, apperr.Unauthenticated("Password is incorrect")
	}
	return u, nil
}

func GetByID(ctx context.Context, db *sql.DB, id string) (models.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("User not found")
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func GetByUsername(ctx context.Context, db *sql.DB, username string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	u, err := scanUser(db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, apperr.NotFound("User not found")
		}
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func ChangePassword(ctx context.Context, db *sql.DB, userID, oldPassword, newPassword string, now time.Time) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.InvalidArgument("old and new password are required")
	}
	u, err := GetByID(ctx, db, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, oldPassword) {
		return apperr.Unauthenticated("Invalid old password")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, hash, now.UnixNano(), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func UpdateAccount(ctx context.Context, db *sql.DB, userID, fullname, email string, now time.Time) (models.User, error) {
	fullname = strings.TrimSpace(fullname)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullname == "" || email == "" {
		return models.User{}, apperr.InvalidArgument("fullname and email are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return models.User{}, apperr.InvalidArgument("Invalid email address")
	}

	res, err := db.ExecContext(ctx, `UPDATE users SET fullname = ?, email = ?, updated_at = ? WHERE id = ?`, fullname, email, now.UnixNano(), userID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, apperr.Conflict("Email already in use")
		}
		return models.User{}, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, apperr.NotFound("User not found")
	}
	return GetByID(ctx, db, userID)
}

// UpdateAvatar stores a new avatar reference and returns the previous one.
func UpdateAvatar(ctx context.Context, db *sql.DB, userID, url string, now time.Time) (string, error) {
	return replaceImage(ctx, db, "avatar", userID, url, now)
}

// UpdateCover stores a new cover image reference and returns the previous one.
func UpdateCover(ctx context.Context, db *sql.DB, userID, url string, now time.Time) (string, error) {
	return replaceImage(ctx, db, "cover_image", userID, url, now)
}

// column is one of our own constants, never caller input.
func replaceImage(ctx context.Context, db *sql.DB, column, userID, url string, now time.Time) (string, error) {
	if url == "" {
		return "", apperr.InvalidArgument("image file is required")
	}
	var old string
	err := db.QueryRowContext(ctx, `SELECT `+column+` FROM users WHERE id = ?`, userID).Scan(&old)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", apperr.NotFound("User not found")
		}
		return "", fmt.Errorf("read %s: %w", column, err)
	}
	if _, err := db.ExecContext(ctx, `UPDATE users SET `+column+` = ?, updated_at = ? WHERE id = ?`, url, now.UnixNano(), userID); err != nil {
		return "", fmt.Errorf("update %s: %w", column, err)
	}
	return old, nil
}

func SetRefreshToken(ctx context.Context, db *sql.DB, userID, token string) error {
	_, err := db.ExecContext(ctx, `UPDATE users SET refresh_token = ? WHERE id = ?`, token, userID)
	if err != nil {
		return fmt.Errorf("set refresh token: %w", err)
	}
	return nil
}

// CheckRefreshToken confirms token is the one currently stored for userID.
func CheckRefreshToken(ctx context.Context, db *sql.DB, userID, token string) (models.User, error) {
	u, err := GetByID(ctx, db, userID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return models.User{}, apperr.Unauthenticated("Invalid refresh token")
		}
		return models.User{}, err
	}
	if token == "" || u.RefreshToken != token {
		return models.User{}, apperr.Unauthenticated("Refresh token is expired or used")
	}
	return u, nil
}

type ChannelProfile struct {
	ID                        string `json:"_id"`
	Username                  string `json:"username"`
	Fullname                  string `json:"fullname"`
	Email                     string `json:"email"`
	Avatar                    string `json:"avatar"`
	CoverImage                string `json:"coverImage"`
	SubscribersCount          int64  `json:"subscribersCount"`
	ChannelsSubscribedToCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed              bool   `json:"isSubscribed"`
}

func GetChannelProfile(ctx context.Context, db *sql.DB, username, viewerID string) (ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return ChannelProfile{}, apperr.InvalidArgument("username is missing")
	}

	var p ChannelProfile
	var subscribed int
	err := db.QueryRowContext(ctx, `
	SELECT u.id, u.username, u.fullname, u.email, u.avatar, u.cover_image,
	       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id),
	       (SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = u.id),
	       (SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = u.id AND s.subscriber_id = ?)
	FROM users u WHERE u.username = ?`, viewerID, username).
		Scan(&p.ID, &p.Username, &p.Fullname, &p.Email, &p.Avatar, &p.CoverImage, &p.SubscribersCount, &p.ChannelsSubscribedToCount, &subscribed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ChannelProfile{}, apperr.NotFound("channel does not exist")
		}
		return ChannelProfile{}, fmt.Errorf("channel profile: %w", err)
	}
	p.IsSubscribed = subscribed > 0
	return p, nil
}

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	var created, updated int64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Fullname, &u.Avatar, &u.CoverImage, &u.PasswordHash, &u.RefreshToken, &created, &updated)
	if err != nil {
		return models.User{}, err
	}
	u.CreatedAt = database.FromNanos(created)
	u.UpdatedAt = database.FromNanos(updated)
	return u, nil
}
