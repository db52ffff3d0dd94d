package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vidhub/internal/apperr"
	"vidhub/internal/auth"
	"vidhub/internal/history"
	"vidhub/internal/httpx"
	"vidhub/internal/media"
	"vidhub/internal/user"
	"vidhub/pkg/models"
)

type registerRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Fullname string `json:"fullname" form:"fullname"`
	Password string `json:"password" form:"password"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !bind(c, &req) {
		return
	}
	avatar, err := s.upload(c, "avatar", media.KindAvatar)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	cover, err := s.upload(c, "coverphoto", media.KindCover)
	if err != nil {
		s.discard(c, avatar)
		httpx.Fail(c, err)
		return
	}

	u, err := user.Create(c.Request.Context(), s.DB, user.RegisterInput{
		Username:   req.Username,
		Email:      req.Email,
		Fullname:   req.Fullname,
		Password:   req.Password,
		Avatar:     avatar,
		CoverImage: cover,
	}, s.Now())
	if err != nil {
		s.discard(c, avatar)
		s.discard(c, cover)
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, u, "User registered successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !bind(c, &req) {
		return
	}
	login := req.Username
	if login == "" {
		login = req.Email
	}
	u, err := user.VerifyLogin(c.Request.Context(), s.DB, login, req.Password)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	tokens, ok := s.startSession(c, u)
	if !ok {
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"user": u, "accessToken": tokens.AccessToken, "refreshToken": tokens.RefreshToken}, "User logged in successfully")
}

// startSession issues a token pair, stores the refresh token and sets cookies.
func (s *Server) startSession(c *gin.Context, u models.User) (auth.Tokens, bool) {
	tokens, err := s.signer.Issue(u.ID, u.Username)
	if err != nil {
		httpx.Fail(c, apperr.Internal(err, "Failed to generate tokens"))
		return auth.Tokens{}, false
	}
	if err := user.SetRefreshToken(c.Request.Context(), s.DB, u.ID, tokens.RefreshToken); err != nil {
		httpx.Fail(c, err)
		return auth.Tokens{}, false
	}
	s.setCookies(c, tokens.AccessToken, tokens.RefreshToken)
	return tokens, true
}

func (s *Server) setCookies(c *gin.Context, access, refresh string) {
	maxAccess, maxRefresh := int(s.signer.AccessTTL.Seconds()), int(s.signer.RefreshTTL.Seconds())
	if access == "" {
		maxAccess, maxRefresh = -1, -1
	}
	secure := !s.Config.DevMode()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.AccessCookie, access, maxAccess, "/", "", secure, true)
	c.SetCookie(auth.RefreshCookie, refresh, maxRefresh, "/", "", secure, true)
}

func (s *Server) logout(c *gin.Context) {
	if err := user.SetRefreshToken(c.Request.Context(), s.DB, auth.UserID(c), ""); err != nil {
		httpx.Fail(c, err)
		return
	}
	s.setCookies(c, "", "")
	httpx.OK(c, http.StatusOK, gin.H{}, "User logged out")
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(auth.RefreshCookie)
	if token == "" {
		var req refreshRequest
		if c.Request.ContentLength != 0 && !bind(c, &req) {
			return
		}
		token = req.RefreshToken
	}
	if token == "" {
		httpx.Fail(c, apperr.Unauthenticated("Unauthorized request"))
		return
	}
	claims, err := s.signer.ParseRefresh(token)
	if err != nil {
		httpx.Fail(c, apperr.Unauthenticated("Invalid refresh token"))
		return
	}
	u, err := user.CheckRefreshToken(c.Request.Context(), s.DB, claims.UserID, token)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	tokens, ok := s.startSession(c, u)
	if !ok {
		return
	}
	httpx.OK(c, http.StatusOK, tokens, "Access token refreshed")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (s *Server) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := user.ChangePassword(c.Request.Context(), s.DB, auth.UserID(c), req.OldPassword, req.NewPassword, s.Now()); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{}, "Password changed successfully")
}

func (s *Server) currentUser(c *gin.Context) {
	u, err := user.GetByID(c.Request.Context(), s.DB, auth.UserID(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, u, "Current user fetched successfully")
}

type updateAccountRequest struct {
	Fullname string `json:"fullname" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

func (s *Server) updateAccount(c *gin.Context) {
	var req updateAccountRequest
	if !bind(c, &req) {
		return
	}
	u, err := user.UpdateAccount(c.Request.Context(), s.DB, auth.UserID(c), req.Fullname, req.Email, s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, u, "Account details updated successfully")
}

func (s *Server) updateAvatar(c *gin.Context) {
	s.replaceImage(c, media.KindAvatar, user.UpdateAvatar, "Avatar image updated successfully")
}

func (s *Server) updateCover(c *gin.Context) {
	s.replaceImage(c, media.KindCover, user.UpdateCover, "Cover image updated successfully")
}

type imageUpdater func(ctx context.Context, db *sql.DB, userID, url string, now time.Time) (string, error)

// replaceImage uploads the "file" field, swaps the reference and deletes
// the previous object.
func (s *Server) replaceImage(c *gin.Context, kind string, update imageUpdater, message string) {
	url, err := s.upload(c, "file", kind)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if url == "" {
		httpx.Fail(c, apperr.InvalidArgument("Image file is missing"))
		return
	}
	uid := auth.UserID(c)
	old, err := update(c.Request.Context(), s.DB, uid, url, s.Now())
	if err != nil {
		s.discard(c, url)
		httpx.Fail(c, err)
		return
	}
	s.discard(c, old)

	u, err := user.GetByID(c.Request.Context(), s.DB, uid)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, u, message)
}

func (s *Server) channelProfile(c *gin.Context) {
	p, err := user.GetChannelProfile(c.Request.Context(), s.DB, c.Param("username"), auth.UserID(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, p, "User channel fetched successfully")
}

func (s *Server) getHistory(c *gin.Context) {
	entries, err := history.List(c.Request.Context(), s.DB, auth.UserID(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, entries, "Watch history fetched successfully")
}

type historyRequest struct {
	VideoID string `json:"videoId" binding:"required"`
}

func (s *Server) addHistory(c *gin.Context) {
	var req historyRequest
	if !bind(c, &req) {
		return
	}
	videoID, err := apperr.ParseID("video id", req.VideoID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if err := history.RecordWatch(c.Request.Context(), s.DB, auth.UserID(c), videoID, s.Now()); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{}, "Added to watch history")
}

func (s *Server) clearHistory(c *gin.Context) {
	if err := history.Clear(c.Request.Context(), s.DB, auth.UserID(c)); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{}, "Watch history cleared")
}
