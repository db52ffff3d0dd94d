package api

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vidhub/internal/apperr"
	"vidhub/internal/auth"
	"vidhub/internal/httpx"
	"vidhub/internal/media"
	"vidhub/internal/pagination"
	"vidhub/internal/video"
	"vidhub/pkg/models"
)

func (s *Server) listVideos(c *gin.Context) {
	p := pagination.ParseParams(c.Query("page"), c.Query("limit"), c.Query("sortType"), pagination.DefaultVideoLimit)
	f := video.ListFilter{Query: c.Query("query"), SortBy: c.Query("sortBy")}
	if raw := c.Query("userId"); raw != "" {
		ownerID, err := apperr.ParseID("user id", raw)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		f.OwnerID = ownerID
	}
	page, err := video.List(c.Request.Context(), s.DB, f, p)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, page, "Videos fetched successfully")
}

type publishRequest struct {
	Title       string `form:"title"`
	Description string `form:"description"`
	Duration    string `form:"duration"`
}

func (s *Server) publishVideo(c *gin.Context) {
	var req publishRequest
	if !bind(c, &req) {
		return
	}
	videoURL, err := s.upload(c, "video", media.KindVideo)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	thumbURL, err := s.upload(c, "thumbnail", media.KindThumbnail)
	if err != nil {
		s.discard(c, videoURL)
		httpx.Fail(c, err)
		return
	}
	duration, _ := strconv.ParseFloat(req.Duration, 64)

	v, err := video.Publish(c.Request.Context(), s.DB, video.PublishInput{
		OwnerID:      auth.UserID(c),
		VideoURL:     videoURL,
		ThumbnailURL: thumbURL,
		Title:        req.Title,
		Description:  req.Description,
		Duration:     duration,
	}, s.Now())
	if err != nil {
		s.discard(c, videoURL)
		s.discard(c, thumbURL)
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, v, "Video published successfully")
}

func (s *Server) getVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	v, err := video.GetByID(c.Request.Context(), s.DB, videoID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, v, "Video fetched successfully")
}

type updateVideoRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
}

// updateVideo changes details and, when a thumbnail file is attached,
// the thumbnail too.
func (s *Server) updateVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	var req updateVideoRequest
	if !bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	uid := auth.UserID(c)

	thumb, err := s.upload(c, "thumbnail", media.KindThumbnail)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if thumb != "" && req.Title == "" && req.Description == "" {
		s.swapThumbnail(c, videoID, thumb)
		return
	}

	v, err := video.Update(ctx, s.DB, videoID, uid, video.UpdateInput{Title: req.Title, Description: req.Description}, s.Now())
	if err != nil {
		s.discard(c, thumb)
		httpx.Fail(c, err)
		return
	}
	if thumb != "" {
		var old string
		if v, old, err = video.UpdateThumbnail(ctx, s.DB, videoID, uid, thumb, s.Now()); err != nil {
			s.discard(c, thumb)
			httpx.Fail(c, err)
			return
		}
		s.discard(c, old)
	}
	httpx.OK(c, http.StatusOK, v, "Video updated successfully")
}

func (s *Server) updateThumbnail(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	thumb, err := s.upload(c, "thumbnail", media.KindThumbnail)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	if thumb == "" {
		httpx.Fail(c, apperr.InvalidArgument("Thumbnail file is required"))
		return
	}
	s.swapThumbnail(c, videoID, thumb)
}

func (s *Server) swapThumbnail(c *gin.Context, videoID, thumb string) {
	v, old, err := video.UpdateThumbnail(c.Request.Context(), s.DB, videoID, auth.UserID(c), thumb, s.Now())
	if err != nil {
		s.discard(c, thumb)
		httpx.Fail(c, err)
		return
	}
	s.discard(c, old)
	httpx.OK(c, http.StatusOK, v, "Thumbnail updated successfully")
}

func (s *Server) togglePublish(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	v, err := video.TogglePublish(c.Request.Context(), s.DB, videoID, auth.UserID(c), s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, v, "Video publish status toggled")
}

func (s *Server) deleteVideo(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	v, err := video.Delete(c.Request.Context(), s.DB, videoID, auth.UserID(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	s.discard(c, v.VideoURL)
	s.discard(c, v.ThumbnailURL)
	httpx.OK(c, http.StatusOK, gin.H{}, "Video deleted successfully")
}

// incrementView counts a view unless the guard suppresses it. Anonymous
// viewers are keyed by client IP.
func (s *Server) incrementView(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	viewer := auth.UserID(c)
	if viewer == "" {
		viewer = "ip:" + c.ClientIP()
	}
	allowed, err := s.Guard.Allow(ctx, viewer, videoID)
	if err != nil {
		log.Printf("view guard failed, counting view video=%s err=%v", videoID, err)
		allowed = true
	}

	if !allowed {
		v, err := video.GetByID(ctx, s.DB, videoID)
		if err != nil {
			httpx.Fail(c, err)
			return
		}
		httpx.OK(c, http.StatusOK, gin.H{"views": v.Views, "counted": false}, "View already counted")
		return
	}

	views, err := video.IncrementView(ctx, s.DB, videoID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	s.emit(c, models.EventVideoViewed, videoID, views)
	httpx.OK(c, http.StatusOK, gin.H{"views": views, "counted": true}, "View count incremented")
}
