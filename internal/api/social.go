package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vidhub/internal/auth"
	"vidhub/internal/comment"
	"vidhub/internal/engagement"
	"vidhub/internal/httpx"
	"vidhub/internal/pagination"
	"vidhub/internal/tweet"
	"vidhub/pkg/models"
)

type contentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (s *Server) listComments(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	p := pagination.ParseParams(c.Query("page"), c.Query("limit"), c.Query("sortOrder"), pagination.DefaultCommentLimit)
	page, err := comment.ListForVideo(c.Request.Context(), s.DB, videoID, p)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, page, "Comments fetched successfully")
}

func (s *Server) addComment(c *gin.Context) {
	videoID, ok := pathID(c, "videoId", "video id")
	if !ok {
		return
	}
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	cm, err := comment.Add(c.Request.Context(), s.DB, videoID, auth.UserID(c), req.Content, s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	s.emit(c, models.EventCommentAdded, videoID, 0)
	httpx.OK(c, http.StatusCreated, cm, "Comment added successfully")
}

func (s *Server) updateComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId", "comment id")
	if !ok {
		return
	}
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	cm, err := comment.Update(c.Request.Context(), s.DB, commentID, auth.UserID(c), req.Content, s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, cm, "Comment updated successfully")
}

func (s *Server) deleteComment(c *gin.Context) {
	commentID, ok := pathID(c, "commentId", "comment id")
	if !ok {
		return
	}
	if _, err := comment.Delete(c.Request.Context(), s.DB, commentID, auth.UserID(c)); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{}, "Comment deleted successfully")
}

func (s *Server) toggleVideoLike(c *gin.Context) {
	s.toggleLike(c, engagement.KindVideo, "videoId", "video id")
}

func (s *Server) toggleCommentLike(c *gin.Context) {
	s.toggleLike(c, engagement.KindComment, "commentId", "comment id")
}

func (s *Server) toggleTweetLike(c *gin.Context) {
	s.toggleLike(c, engagement.KindTweet, "tweetId", "tweet id")
}

func (s *Server) toggleLike(c *gin.Context, kind engagement.TargetKind, param, field string) {
	targetID, ok := pathID(c, param, field)
	if !ok {
		return
	}
	res, err := engagement.ToggleLike(c.Request.Context(), s.DB, auth.UserID(c), kind, targetID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	s.emit(c, kind.EventType(res.IsLiked), targetID, res.LikeCount)

	msg := "Like removed"
	if res.IsLiked {
		msg = "Liked successfully"
	}
	httpx.OK(c, http.StatusOK, res, msg)
}

func (s *Server) likedVideos(c *gin.Context) {
	p := pagination.ParseParams(c.Query("page"), c.Query("limit"), c.Query("sortType"), pagination.DefaultVideoLimit)
	page, err := engagement.LikedVideos(c.Request.Context(), s.DB, auth.UserID(c), p)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, page, "Liked videos fetched successfully")
}

func (s *Server) toggleSubscription(c *gin.Context) {
	channelID, ok := pathID(c, "channelId", "channel id")
	if !ok {
		return
	}
	res, err := engagement.ToggleSubscription(c.Request.Context(), s.DB, auth.UserID(c), channelID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	typ, msg := models.EventChannelUnsubscribed, "Unsubscribed successfully"
	if res.IsSubscribed {
		typ, msg = models.EventChannelSubscribed, "Subscribed successfully"
	}
	s.emit(c, typ, channelID, res.SubscriberCount)
	httpx.OK(c, http.StatusOK, res, msg)
}

func (s *Server) subscribers(c *gin.Context) {
	channelID, ok := pathID(c, "channelId", "channel id")
	if !ok {
		return
	}
	list, err := engagement.Subscribers(c.Request.Context(), s.DB, channelID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, list, "Subscribers fetched successfully")
}

func (s *Server) subscribedChannels(c *gin.Context) {
	subscriberID, ok := pathID(c, "subscriberId", "subscriber id")
	if !ok {
		return
	}
	list, err := engagement.SubscribedChannels(c.Request.Context(), s.DB, subscriberID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, list, "Subscribed channels fetched successfully")
}

func (s *Server) createTweet(c *gin.Context) {
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	tw, err := tweet.Create(c.Request.Context(), s.DB, auth.UserID(c), req.Content, s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, tw, "Tweet created successfully")
}

func (s *Server) userTweets(c *gin.Context) {
	userID, ok := pathID(c, "userId", "user id")
	if !ok {
		return
	}
	list, err := tweet.ListByUser(c.Request.Context(), s.DB, userID)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, list, "Tweets fetched successfully")
}

func (s *Server) updateTweet(c *gin.Context) {
	tweetID, ok := pathID(c, "tweetId", "tweet id")
	if !ok {
		return
	}
	var req contentRequest
	if !bind(c, &req) {
		return
	}
	tw, err := tweet.Update(c.Request.Context(), s.DB, tweetID, auth.UserID(c), req.Content, s.Now())
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, tw, "Tweet updated successfully")
}

func (s *Server) deleteTweet(c *gin.Context) {
	tweetID, ok := pathID(c, "tweetId", "tweet id")
	if !ok {
		return
	}
	if _, err := tweet.Delete(c.Request.Context(), s.DB, tweetID, auth.UserID(c)); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{}, "Tweet deleted successfully")
}
