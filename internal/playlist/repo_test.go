package playlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/apperr"
	"vidhub/internal/testutil"
	"vidhub/internal/video"
	"vidhub/pkg/models"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestListForUser_WatchLaterFirstAndSingle(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	u := testutil.InsertUser(t, db, "alice")

	_, err := Create(ctx, db, u, "Faves", "", base)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ListForUser(ctx, db, u, base.Add(time.Hour))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lists, err := ListForUser(ctx, db, u, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, models.PermanentPlaylistName, lists[0].Name)
	assert.True(t, lists[0].IsPermanent)
	assert.Equal(t, "Faves", lists[1].Name)
	assert.Equal(t, 1, testutil.Count(t, db, "playlists", "owner_id = ? AND is_permanent = 1", u))
}

func TestAddRemoveVideo(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	b := testutil.InsertUser(t, db, "bob")
	v1 := testutil.InsertVideo(t, db, b, "one", base)
	v2 := testutil.InsertVideo(t, db, b, "two", base)

	p, err := Create(ctx, db, a, "Mix", "stuff", base)
	require.NoError(t, err)

	p, err = AddVideo(ctx, db, p.ID, v2, a, base)
	require.NoError(t, err)
	p, err = AddVideo(ctx, db, p.ID, v1, a, base)
	require.NoError(t, err)
	require.Len(t, p.Videos, 2)
	assert.Equal(t, "two", p.Videos[0].Title)

	_, err = AddVideo(ctx, db, p.ID, v1, a, base)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	_, err = AddVideo(ctx, db, p.ID, "missing", a, base)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = AddVideo(ctx, db, "missing", v1, a, base)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = AddVideo(ctx, db, p.ID, v1, b, base)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	// a deleted video stays referenced but is not rendered
	_, err = db.Exec(`DELETE FROM videos WHERE id = ?`, v2)
	require.NoError(t, err)
	p, err = Get(ctx, db, p.ID)
	require.NoError(t, err)
	require.Len(t, p.Videos, 1)
	assert.Equal(t, 2, testutil.Count(t, db, "playlist_videos", "playlist_id = ?", p.ID))

	p, err = RemoveVideo(ctx, db, p.ID, v1, a, base)
	require.NoError(t, err)
	assert.Empty(t, p.Videos)
	_, err = RemoveVideo(ctx, db, p.ID, v1, a, base)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestListForUser_OmitsVideoDeletedByOwner(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	keep := testutil.InsertVideo(t, db, a, "keep", base)
	gone := testutil.InsertVideo(t, db, a, "gone", base.Add(time.Minute))

	p, err := Create(ctx, db, a, "Mix", "", base)
	require.NoError(t, err)
	for _, v := range []string{keep, gone} {
		_, err = AddVideo(ctx, db, p.ID, v, a, base)
		require.NoError(t, err)
	}

	_, err = video.Delete(ctx, db, gone, a)
	require.NoError(t, err)

	lists, err := ListForUser(ctx, db, a, base)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, models.PermanentPlaylistName, lists[0].Name)
	mix := lists[1]
	assert.Equal(t, p.ID, mix.ID)
	require.Len(t, mix.Videos, 1)
	assert.Equal(t, keep, mix.Videos[0].ID)
	assert.Equal(t, 2, testutil.Count(t, db, "playlist_videos", "playlist_id = ?", p.ID))
}

func TestPermanentPlaylistRules(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	b := testutil.InsertUser(t, db, "bob")

	lists, err := ListForUser(ctx, db, a, base)
	require.NoError(t, err)
	wl := lists[0]

	err = Delete(ctx, db, wl.ID, a)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = Update(ctx, db, wl.ID, a, "Renamed", "", base)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	upd, err := Update(ctx, db, wl.ID, a, "", "for later", base)
	require.NoError(t, err)
	assert.Equal(t, models.PermanentPlaylistName, upd.Name)
	assert.Equal(t, "for later", upd.Description)

	p, err := Create(ctx, db, a, "Temp", "", base)
	require.NoError(t, err)
	err = Delete(ctx, db, p.ID, b)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	require.NoError(t, Delete(ctx, db, p.ID, a))
	err = Delete(ctx, db, p.ID, a)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = Create(ctx, db, a, " ", "", base)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}
