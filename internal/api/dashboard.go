package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidhub/internal/auth"
	"vidhub/internal/engagement"
	"vidhub/internal/httpx"
	"vidhub/internal/pagination"
	"vidhub/internal/video"
)

func (s *Server) channelStats(c *gin.Context) {
	stats, err := engagement.Stats(c.Request.Context(), s.DB, auth.UserID(c))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, stats, "Channel stats fetched successfully")
}

func (s *Server) channelVideos(c *gin.Context) {
	p := pagination.ParseParams(c.Query("page"), c.Query("limit"), c.Query("sortType"), pagination.DefaultVideoLimit)
	page, err := video.ChannelVideos(c.Request.Context(), s.DB, auth.UserID(c), p)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, page, "Channel videos fetched successfully")
}
