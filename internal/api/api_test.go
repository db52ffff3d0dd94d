package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/config"
	"vidhub/internal/events"
	"vidhub/internal/media"
	"vidhub/internal/testutil"
	"vidhub/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
	Stack      string          `json:"stack"`
}

type harness struct {
	t      *testing.T
	srv    *Server
	engine *gin.Engine
	events *events.Recorder
	store  *media.NopStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	srv := New(db, config.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		CORSOrigin:    "http://app.local",
		AppEnv:        "development",
	})
	rec := &events.Recorder{}
	store := media.NewNopStore()
	srv.Events = rec
	srv.Media = store
	srv.Now = testutil.NewStepClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), time.Second).Now
	return &harness{t: t, srv: srv, engine: srv.Routes(), events: rec, store: store}
}

func (h *harness) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(h.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return h.send(req, token)
}

func (h *harness) send(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	h.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

type session struct {
	ID           string
	Access       string
	RefreshToken string
}

func (h *harness) signup(username string) session {
	h.t.Helper()
	w, _ := h.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{
		"username": username, "email": username + "@example.com", "fullname": "Full " + username, "password": "secret",
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := h.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": username, "password": "secret"})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		User         models.User `json:"user"`
		AccessToken  string      `json:"accessToken"`
		RefreshToken string      `json:"refreshToken"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &data))
	return session{ID: data.User.ID, Access: data.AccessToken, RefreshToken: data.RefreshToken}
}

func (h *harness) publish(s session, title string) models.Video {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(h.t, mw.WriteField("title", title))
	require.NoError(h.t, mw.WriteField("description", "about "+title))
	require.NoError(h.t, mw.WriteField("duration", "42.5"))
	for field, name := range map[string]string{"video": "clip.mp4", "thumbnail": "thumb.jpg"} {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(h.t, err)
		_, err = fw.Write([]byte("bytes of " + name))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/publish-video", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w, env := h.send(req, s.Access)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	var v models.Video
	require.NoError(h.t, json.Unmarshal(env.Data, &v))
	return v
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestRegisterLoginAndEnvelope(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")

	w, env := h.do(http.MethodGet, "/api/v1/users/current-user", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusOK, env.StatusCode)
	assert.NotContains(t, w.Body.String(), "password")
	u := decode[models.User](t, env)
	assert.Equal(t, "alice", u.Username)

	_, env = h.do(http.MethodGet, "/api/v1/playlist/get-user-playlists", alice.Access, nil)
	lists := decode[[]models.Playlist](t, env)
	require.Len(t, lists, 1)
	assert.Equal(t, models.PermanentPlaylistName, lists[0].Name)

	w, env = h.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{"username": "ALICE", "email": "x@example.com", "fullname": "x", "password": "p"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)
	assert.NotNil(t, env.Errors)

	w, env = h.do(http.MethodPost, "/api/v1/users/register", "", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please fill all the fields", env.Message)
	assert.Len(t, env.Errors, 3)

	w, _ = h.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = h.do(http.MethodPost, "/api/v1/users/login", "", map[string]string{"username": "nobody", "password": "wrong"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(http.MethodGet, "/api/v1/users/current-user", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Unauthorized request", env.Message)

	w, _ = h.do(http.MethodPost, "/api/v1/like/video/"+"00000000-0000-0000-0000-000000000000", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	alice := h.signup("alice")
	// a refresh token is not an access token
	w, _ = h.do(http.MethodGet, "/api/v1/users/current-user", alice.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshAndLogout(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")

	w, env := h.do(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": alice.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tokens := decode[map[string]string](t, env)
	require.NotEmpty(t, tokens["accessToken"])
	assert.NotEqual(t, alice.RefreshToken, tokens["refreshToken"])

	// rotated: the old refresh token no longer works
	w, _ = h.do(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": alice.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(http.MethodPost, "/api/v1/users/logout", tokens["accessToken"], nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(http.MethodPost, "/api/v1/users/refresh-token", "", map[string]string{"refreshToken": tokens["refreshToken"]})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = h.do(http.MethodPost, "/api/v1/users/refresh-token", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCookieAuth(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: alice.Access})
	w, _ := h.send(req, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVideoOwnershipAndViews(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")
	bob := h.signup("bob")
	v := h.publish(alice, "intro")
	assert.Equal(t, 42.5, v.Duration)
	assert.Equal(t, 2, len(h.store.Objects))

	w, env := h.do(http.MethodPatch, "/api/v1/videos/"+v.ID, bob.Access, map[string]string{"title": "mine"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.False(t, env.Success)
	w, _ = h.do(http.MethodDelete, "/api/v1/videos/"+v.ID, bob.Access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = h.do(http.MethodPatch, "/api/v1/videos/toggle/publish/"+v.ID, bob.Access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = h.do(http.MethodPatch, "/api/v1/videos/"+v.ID, alice.Access, map[string]string{"title": "intro v2"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "intro v2", decode[models.Video](t, env).Title)

	for i := 1; i <= 3; i++ {
		w, env = h.do(http.MethodPost, "/api/v1/videos/"+v.ID+"/view", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, i, decode[map[string]any](t, env)["views"])
	}
	assert.Equal(t, []string{models.EventVideoViewed, models.EventVideoViewed, models.EventVideoViewed}, h.events.Types())

	w, _ = h.do(http.MethodPost, "/api/v1/videos/not-an-id/view", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w, _ = h.do(http.MethodPost, "/api/v1/videos/00000000-0000-0000-0000-000000000000/view", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = h.do(http.MethodDelete, "/api/v1/videos/"+v.ID, alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, h.store.Objects)
	w, _ = h.do(http.MethodGet, "/api/v1/videos/"+v.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListVideos(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")
	bob := h.signup("bob")
	h.publish(alice, "Go basics")
	h.publish(alice, "Cooking")
	h.publish(bob, "go further")

	_, env := h.do(http.MethodGet, "/api/v1/videos/get-all-videos?query=GO&sortBy=title&sortType=asc", "", nil)
	page := decode[struct {
		Items      []models.Video `json:"items"`
		TotalCount int64          `json:"totalCount"`
		TotalPages int            `json:"totalPages"`
	}](t, env)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Go basics", page.Items[0].Title)
	assert.Equal(t, 1, page.TotalPages)

	_, env = h.do(http.MethodGet, "/api/v1/videos/get-all-videos?userId="+alice.ID+"&limit=1&page=2", "", nil)
	page = decode[struct {
		Items      []models.Video `json:"items"`
		TotalCount int64          `json:"totalCount"`
		TotalPages int            `json:"totalPages"`
	}](t, env)
	assert.Equal(t, int64(2), page.TotalCount)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Go basics", page.Items[0].Title)
}

func TestLikesAndSubscriptions(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")
	bob := h.signup("bob")
	v := h.publish(alice, "clip")

	w, env := h.do(http.MethodPost, "/api/v1/like/video/"+v.ID, bob.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"isLiked": true, "likeCount": float64(1)}, decode[map[string]any](t, env))

	_, env = h.do(http.MethodGet, "/api/v1/like/video", bob.Access, nil)
	assert.Contains(t, string(env.Data), `"clip"`)

	_, env = h.do(http.MethodPost, "/api/v1/like/video/"+v.ID, bob.Access, nil)
	assert.Equal(t, map[string]any{"isLiked": false, "likeCount": float64(0)}, decode[map[string]any](t, env))

	w, _ = h.do(http.MethodPost, "/api/v1/like/tweet/00000000-0000-0000-0000-000000000000", bob.Access, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env = h.do(http.MethodPatch, "/api/v1/subscription/toggle/"+alice.ID, bob.Access, nil)
	assert.Equal(t, map[string]any{"isSubscribed": true, "subscriberCount": float64(1)}, decode[map[string]any](t, env))

	_, env = h.do(http.MethodGet, "/api/v1/subscription/subscribers/"+alice.ID, alice.Access, nil)
	assert.Contains(t, string(env.Data), `"bob"`)

	_, env = h.do(http.MethodGet, "/api/v1/users/c/alice", bob.Access, nil)
	profile := decode[map[string]any](t, env)
	assert.Equal(t, true, profile["isSubscribed"])
	assert.Equal(t, float64(1), profile["subscribersCount"])

	_, env = h.do(http.MethodGet, "/api/v1/dashboard/channel-stats", alice.Access, nil)
	assert.Equal(t, map[string]any{"totalVideos": float64(1), "totalViews": float64(0), "totalLikes": float64(0), "totalSubscribers": float64(1)}, decode[map[string]any](t, env))

	assert.Equal(t, []string{models.EventVideoLiked, models.EventVideoUnliked, models.EventChannelSubscribed}, h.events.Types())
}

func TestCommentsPagination(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")
	v := h.publish(alice, "clip")
	for i := 1; i <= 7; i++ {
		w, _ := h.do(http.MethodPost, "/api/v1/comment/add-comment/"+v.ID, alice.Access, map[string]string{"content": fmt.Sprintf("c%d", i)})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	_, env := h.do(http.MethodGet, "/api/v1/comment/video/"+v.ID, alice.Access, nil)
	page := decode[struct {
		Items       []models.Comment `json:"items"`
		CurrentPage int              `json:"currentPage"`
		TotalPages  int              `json:"totalPages"`
	}](t, env)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "c7", page.Items[0].Content)
	assert.Equal(t, "alice", page.Items[0].Owner)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 3, page.TotalPages)

	_, env = h.do(http.MethodGet, "/api/v1/comment/video/"+v.ID+"?page=0&limit=abc", alice.Access, nil)
	page = decode[struct {
		Items       []models.Comment `json:"items"`
		CurrentPage int              `json:"currentPage"`
		TotalPages  int              `json:"totalPages"`
	}](t, env)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Items, 3)

	w, _ := h.do(http.MethodPost, "/api/v1/comment/add-comment/"+v.ID, alice.Access, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaylistsAndHistory(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")
	v := h.publish(alice, "clip")

	_, env := h.do(http.MethodGet, "/api/v1/playlist/get-user-playlists", alice.Access, nil)
	wl := decode[[]models.Playlist](t, env)[0]

	w, _ := h.do(http.MethodDelete, "/api/v1/playlist/"+wl.ID, alice.Access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = h.do(http.MethodPost, "/api/v1/playlist/add-video-to-playlist/"+wl.ID+"/"+v.ID, alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(http.MethodPost, "/api/v1/playlist/add-video-to-playlist/"+wl.ID+"/"+v.ID, alice.Access, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = h.do(http.MethodPost, "/api/v1/playlist/create-playlist", alice.Access, map[string]string{"name": "Mix"})
	require.Equal(t, http.StatusCreated, w.Code)
	mix := decode[models.Playlist](t, env)
	w, _ = h.do(http.MethodDelete, "/api/v1/playlist/"+mix.ID, alice.Access, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = h.do(http.MethodPost, "/api/v1/users/history", alice.Access, map[string]string{"videoId": v.ID})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(http.MethodPost, "/api/v1/users/history", alice.Access, map[string]string{"videoId": v.ID})
	require.Equal(t, http.StatusOK, w.Code)
	_, env = h.do(http.MethodGet, "/api/v1/users/history", alice.Access, nil)
	assert.Len(t, decode[[]models.WatchEntry](t, env), 1)

	w, _ = h.do(http.MethodDelete, "/api/v1/users/history", alice.Access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, env = h.do(http.MethodGet, "/api/v1/users/history", alice.Access, nil)
	assert.Empty(t, decode[[]models.WatchEntry](t, env))
}

func TestTweets(t *testing.T) {
	h := newHarness(t)
	alice := h.signup("alice")
	bob := h.signup("bob")

	w, env := h.do(http.MethodPost, "/api/v1/tweet/create-tweet", alice.Access, map[string]string{"content": "hello"})
	require.Equal(t, http.StatusCreated, w.Code)
	tw := decode[models.Tweet](t, env)

	w, _ = h.do(http.MethodPatch, "/api/v1/tweet/update/"+tw.ID, bob.Access, map[string]string{"content": "hacked"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, env = h.do(http.MethodGet, "/api/v1/tweet/get-user-tweets/"+alice.ID, bob.Access, nil)
	assert.Len(t, decode[[]models.Tweet](t, env), 1)

	w, _ = h.do(http.MethodDelete, "/api/v1/tweet/delete/"+tw.ID, alice.Access, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthcheckCORSAndNoRoute(t *testing.T) {
	h := newHarness(t)

	w, env := h.do(http.MethodGet, "/api/v1/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	req.Header.Set("Origin", "http://app.local")
	w = httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://app.local", w.Header().Get("Access-Control-Allow-Origin"))

	w, env = h.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Stack)
}
