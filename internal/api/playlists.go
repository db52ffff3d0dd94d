package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidhub/internal/auth"
	"vidhub/internal/httpx"
	"vidhub/internal/playlist"
)

type createPlaylistRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) createPlaylist(c *gin.Context) {
	var req createPlaylistRequest
	if !bind(c, &req) {
		return
	}
	p, err := playlist.Create(c.Request.Context(), s.DB, auth.UserID(c), req.Name, req.Description, s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, p, "Playlist created successfully")
}

func (s *Server) userPlaylists(c *gin.Context) {
	lists, err := playlist.ListForUser(c.Request.Context(), s.DB, auth.UserID(c), s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, lists, "Playlists fetched successfully")
}

type updatePlaylistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *Server) updatePlaylist(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId", "playlist id")
	if !ok {
		return
	}
	var req updatePlaylistRequest
	if !bind(c, &req) {
		return
	}
	p, err := playlist.Update(c.Request.Context(), s.DB, playlistID, auth.UserID(c), req.Name, req.Description, s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, p, "Playlist updated successfully")
}

func (s *Server) deletePlaylist(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId", "playlist id")
	if !ok {
		return
	}
	if err := playlist.Delete(c.Request.Context(), s.DB, playlistID, auth.UserID(c)); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{}, "Playlist deleted successfully")
}

func (s *Server) addPlaylistVideo(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId", "playlist id")
	if !ok {
		return
	}
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	p, err := playlist.AddVideo(c.Request.Context(), s.DB, playlistID, videoID, auth.UserID(c), s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, p, "Video added to playlist")
}

func (s *Server) removePlaylistVideo(c *gin.Context) {
	playlistID, ok := pathID(c, "playlistId", "playlist id")
	if !ok {
		return
	}
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	p, err := playlist.RemoveVideo(c.Request.Context(), s.DB, playlistID, videoID, auth.UserID(c), s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, p, "Video removed from playlist")
}
