// Package api wires HTTP routes to the repositories.
package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vidhub/internal/apperr"
	"vidhub/internal/auth"
	"vidhub/internal/config"
	"vidhub/internal/events"
	"vidhub/internal/httpx"
	"vidhub/internal/media"
	"vidhub/internal/viewguard"
	"vidhub/pkg/models"
)

const (
	jsonBodyLimit   = 16 << 10
	uploadBodyLimit = 512 << 20
)

type Server struct {
	DB     *sql.DB
	Config config.Config
	Media  media.Store
	Guard  viewguard.Guard
	Events events.Publisher
	Hub    *events.Hub // nil disables /ws/events
	Now    func() time.Time

	signer auth.Signer
}

// New returns a server with in-memory media, no view suppression and no
// event fan-out. Callers replace the fields they have real backends for.
func New(db *sql.DB, cfg config.Config) *Server {
	return &Server{
		DB:     db,
		Config: cfg,
		Media:  media.NewNopStore(),
		Guard:  viewguard.AllowAll{},
		Events: events.Nop{},
		Now:    time.Now,
		signer: auth.Signer{
			AccessSecret:  []byte(cfg.AccessSecret),
			RefreshSecret: []byte(cfg.RefreshSecret),
			AccessTTL:     cfg.AccessTTL,
			RefreshTTL:    cfg.RefreshTTL,
		},
	}
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), httpx.Recovery(), httpx.DevMode(s.Config.DevMode()), httpx.CORS(s.Config.CORSOrigin), bodyLimits())

	requireAuth := auth.RequireJWT(s.signer.AccessSecret)
	optionalAuth := auth.OptionalJWT(s.signer.AccessSecret)

	v1 := r.Group("/api/v1")
	v1.GET("/healthcheck", s.healthcheck)
	if s.Hub != nil {
		v1.GET("/ws/events", optionalAuth, events.HandleWebSocket(s.Hub))
	}

	users := v1.Group("/users")
	users.POST("/register", s.register)
	users.POST("/login", s.login)
	users.POST("/refresh-token", s.refreshToken)
	authedUsers := users.Group("", requireAuth)
	authedUsers.POST("/logout", s.logout)
	authedUsers.POST("/change-password", s.changePassword)
	authedUsers.PATCH("/update-account", s.updateAccount)
	authedUsers.GET("/current-user", s.currentUser)
	authedUsers.PATCH("/update-avatar", s.updateAvatar)
	authedUsers.PATCH("/update-cover", s.updateCover)
	authedUsers.GET("/c/:username", s.channelProfile)
	authedUsers.GET("/history", s.getHistory)
	authedUsers.POST("/history", s.addHistory)
	authedUsers.DELETE("/history", s.clearHistory)

	videos := v1.Group("/videos")
	videos.GET("/get-all-videos", s.listVideos)
	videos.GET("/:videoId", s.getVideo)
	videos.POST("/:videoId/view", optionalAuth, s.incrementView)
	videos.POST("/publish-video", requireAuth, s.publishVideo)
	videos.PATCH("/:videoId", requireAuth, s.updateVideo)
	videos.DELETE("/:videoId", requireAuth, s.deleteVideo)
	videos.PATCH("/update-thumbnail/:videoId", requireAuth, s.updateThumbnail)
	videos.PATCH("/toggle/publish/:videoId", requireAuth, s.togglePublish)

	comments := v1.Group("/comment", requireAuth)
	comments.GET("/video/:videoId", s.listComments)
	comments.POST("/add-comment/:videoId", s.addComment)
	comments.PATCH("/update-comment/:commentId", s.updateComment)
	comments.DELETE("/delete-comment/:commentId", s.deleteComment)

	likes := v1.Group("/like", requireAuth)
	likes.POST("/video/:videoId", s.toggleVideoLike)
	likes.POST("/comment/:commentId", s.toggleCommentLike)
	likes.POST("/tweet/:tweetId", s.toggleTweetLike)
	likes.GET("/video", s.likedVideos)

	subs := v1.Group("/subscription", requireAuth)
	subs.PATCH("/toggle/:channelId", s.toggleSubscription)
	subs.GET("/subscribers/:channelId", s.subscribers)
	subs.GET("/channels/:subscriberId", s.subscribedChannels)

	tweets := v1.Group("/tweet", requireAuth)
	tweets.POST("/create-tweet", s.createTweet)
	tweets.GET("/get-user-tweets/:userId", s.userTweets)
	tweets.PATCH("/update/:tweetId", s.updateTweet)
	tweets.DELETE("/delete/:tweetId", s.deleteTweet)

	playlists := v1.Group("/playlist", requireAuth)
	playlists.POST("/create-playlist", s.createPlaylist)
	playlists.GET("/get-user-playlists", s.userPlaylists)
	playlists.PATCH("/:playlistId", s.updatePlaylist)
	playlists.DELETE("/:playlistId", s.deletePlaylist)
	playlists.POST("/add-video-to-playlist/:playlistId/:videoId", s.addPlaylistVideo)
	playlists.DELETE("/delete-video-from-playlist/:playlistId/:videoId", s.removePlaylistVideo)

	dashboard := v1.Group("/dashboard", requireAuth)
	dashboard.GET("/channel-stats", s.channelStats)
	dashboard.GET("/channel-videos", s.channelVideos)

	r.NoRoute(func(c *gin.Context) {
		httpx.Fail(c, apperr.NotFound("Route %s %s not found", c.Request.Method, c.Request.URL.Path))
	})
	return r
}

// bodyLimits gives uploads room while keeping JSON bodies small.
func bodyLimits() gin.HandlerFunc {
	small, large := httpx.BodyLimit(jsonBodyLimit), httpx.BodyLimit(uploadBodyLimit)
	return func(c *gin.Context) {
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			large(c)
			return
		}
		small(c)
	}
}

func (s *Server) healthcheck(c *gin.Context) {
	if err := s.DB.PingContext(c.Request.Context()); err != nil {
		httpx.Fail(c, apperr.Internal(err, "Database unavailable"))
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"status": "OK"}, "Health check passed")
}

// bind decodes JSON or form bodies; decoding failures are client errors.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		httpx.Fail(c, apperr.InvalidArgument("Invalid request body").WithDetails(err.Error()))
		return false
	}
	return true
}

// pathID reads and validates a path identifier.
func pathID(c *gin.Context, param, field string) (string, bool) {
	v, err := apperr.ParseID(field, c.Param(param))
	if err != nil {
		httpx.Fail(c, err)
		return "", false
	}
	return v, true
}

// emit publishes best effort; failures never reach the client.
func (s *Server) emit(c *gin.Context, typ, targetID string, count int64) {
	ev := models.EngagementEvent{
		Type:      typ,
		ActorID:   auth.UserID(c),
		TargetID:  targetID,
		Count:     count,
		Timestamp: s.Now().Unix(),
	}
	if err := s.Events.Publish(c.Request.Context(), ev); err != nil {
		log.Printf("publish event failed type=%s target=%s err=%v", typ, targetID, err)
	}
}

// upload stores the multipart file in field. A missing file yields "".
func (s *Server) upload(c *gin.Context, field, kind string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", apperr.InvalidArgument("Invalid %s upload", field)
	}
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", field, err)
	}
	defer f.Close()

	obj, err := s.Media.Put(c.Request.Context(), kind, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		return "", apperr.Internal(err, "Failed to upload "+field)
	}
	return obj.URL, nil
}

// discard removes a stored object that is no longer referenced.
func (s *Server) discard(c *gin.Context, url string) {
	if url == "" {
		return
	}
	if err := media.DeleteURL(c.Request.Context(), s.Media, url); err != nil {
		log.Printf("delete media failed url=%s err=%v", url, err)
	}
}
