package engagement

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/apperr"
	"vidhub/internal/pagination"
	"vidhub/internal/testutil"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestToggleLike_Parity(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.InsertUser(t, db, "alice")
	v := testutil.InsertVideo(t, db, u, "clip", base)

	for i := 1; i <= 5; i++ {
		res, err := ToggleLike(ctx, db, u, KindVideo, v)
		require.NoError(t, err)
		odd := i%2 == 1
		assert.Equal(t, odd, res.IsLiked, "toggle %d", i)
		if odd {
			assert.Equal(t, int64(1), res.LikeCount)
		} else {
			assert.Equal(t, int64(0), res.LikeCount)
		}
	}
	liked, err := IsLiked(ctx, db, u, KindVideo, v)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestToggleLike_TwoUsers(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	b := testutil.InsertUser(t, db, "bob")
	v := testutil.InsertVideo(t, db, a, "clip", base)

	res, err := ToggleLike(ctx, db, a, KindVideo, v)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{IsLiked: true, LikeCount: 1}, res)

	res, err = ToggleLike(ctx, db, b, KindVideo, v)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{IsLiked: true, LikeCount: 2}, res)

	res, err = ToggleLike(ctx, db, a, KindVideo, v)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{IsLiked: false, LikeCount: 1}, res)
}

func TestToggleLike_KindsAndMissingTarget(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.InsertUser(t, db, "alice")
	v := testutil.InsertVideo(t, db, u, "clip", base)
	c := testutil.InsertComment(t, db, v, u, "nice", base)
	tw := testutil.InsertTweet(t, db, u, "hello", base)

	for kind, id := range map[TargetKind]string{KindComment: c, KindTweet: tw} {
		res, err := ToggleLike(ctx, db, u, kind, id)
		require.NoError(t, err)
		assert.True(t, res.IsLiked)
	}
	// same id under another kind is a different target
	_, err := ToggleLike(ctx, db, u, KindComment, v)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = ToggleLike(ctx, db, u, TargetKind("playlist"), v)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	assert.Equal(t, 2, testutil.Count(t, db, "likes", ""))
}

func TestInsertLike_AlreadyExists(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.InsertUser(t, db, "alice")
	v := testutil.InsertVideo(t, db, u, "clip", base)

	r, err := insertLike(ctx, db, u, KindVideo, v)
	require.NoError(t, err)
	assert.Equal(t, inserted, r)
	r, err = insertLike(ctx, db, u, KindVideo, v)
	require.NoError(t, err)
	assert.Equal(t, alreadyExists, r)
	assert.Equal(t, 1, testutil.Count(t, db, "likes", ""))
}

func TestInsertSubscription_AlreadyExists(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	b := testutil.InsertUser(t, db, "bob")

	r, err := insertSubscription(ctx, db, a, b)
	require.NoError(t, err)
	assert.Equal(t, inserted, r)
	r, err = insertSubscription(ctx, db, a, b)
	require.NoError(t, err)
	assert.Equal(t, alreadyExists, r)
	assert.Equal(t, 1, testutil.Count(t, db, "subscriptions", ""))

	n, err := SubscriberCount(ctx, db, b)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestToggleLike_ConcurrentKeepsOneRow(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.InsertUser(t, db, "alice")
	v := testutil.InsertVideo(t, db, u, "clip", base)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ToggleLike(ctx, db, u, KindVideo, v)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, testutil.Count(t, db, "likes", "user_id = ?", u), 1)
}

func TestToggleSubscription(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	b := testutil.InsertUser(t, db, "bob")

	res, err := ToggleSubscription(ctx, db, a, b)
	require.NoError(t, err)
	assert.Equal(t, SubscriptionResult{IsSubscribed: true, SubscriberCount: 1}, res)

	subs, err := Subscribers(ctx, db, b)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "alice", subs[0].Username)

	chans, err := SubscribedChannels(ctx, db, a)
	require.NoError(t, err)
	require.Len(t, chans, 1)
	assert.Equal(t, "bob", chans[0].Username)

	res, err = ToggleSubscription(ctx, db, a, b)
	require.NoError(t, err)
	assert.Equal(t, SubscriptionResult{IsSubscribed: false, SubscriberCount: 0}, res)

	ok, err := IsSubscribed(ctx, db, a, b)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = ToggleSubscription(ctx, db, a, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestLikedVideos_SkipsDeleted(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.InsertUser(t, db, "alice")
	keep := testutil.InsertVideo(t, db, u, "keep", base)
	gone := testutil.InsertVideo(t, db, u, "gone", base)
	for _, id := range []string{keep, gone} {
		_, err := ToggleLike(ctx, db, u, KindVideo, id)
		require.NoError(t, err)
	}
	_, err := db.Exec(`DELETE FROM videos WHERE id = ?`, gone)
	require.NoError(t, err)

	page, err := LikedVideos(ctx, db, u, pagination.ParseParams("", "", "", pagination.DefaultVideoLimit))
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "keep", page.Items[0].Title)
	assert.Equal(t, int64(1), page.TotalCount)
}

func TestStats(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	b := testutil.InsertUser(t, db, "bob")
	v1 := testutil.InsertVideo(t, db, a, "one", base)
	testutil.InsertVideo(t, db, a, "two", base)
	_, err := db.Exec(`UPDATE videos SET views = 7 WHERE id = ?`, v1)
	require.NoError(t, err)
	_, err = ToggleLike(ctx, db, b, KindVideo, v1)
	require.NoError(t, err)
	_, err = ToggleSubscription(ctx, db, b, a)
	require.NoError(t, err)

	s, err := Stats(ctx, db, a)
	require.NoError(t, err)
	assert.Equal(t, ChannelStats{TotalVideos: 2, TotalViews: 7, TotalLikes: 1, TotalSubscribers: 1}, s)

	empty, err := Stats(ctx, db, b)
	require.NoError(t, err)
	assert.Equal(t, ChannelStats{}, empty)
}
