package tweet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidhub/internal/apperr"
	"vidhub/internal/testutil"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestTweetLifecycle(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	a := testutil.InsertUser(t, db, "alice")
	b := testutil.InsertUser(t, db, "bob")

	_, err := Create(ctx, db, a, "  ", base)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))

	first, err := Create(ctx, db, a, "first", base)
	require.NoError(t, err)
	require.NotNil(t, first.Owner)
	assert.Equal(t, "alice", first.Owner.Username)
	_, err = Create(ctx, db, a, "second", base.Add(time.Minute))
	require.NoError(t, err)

	list, err := ListByUser(ctx, db, a)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content)

	empty, err := ListByUser(ctx, db, b)
	require.NoError(t, err)
	assert.Empty(t, empty)
	_, err = ListByUser(ctx, db, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = Update(ctx, db, first.ID, b, "nope", base)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = Update(ctx, db, first.ID, a, "", base)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
	upd, err := Update(ctx, db, first.ID, a, "first, edited", base)
	require.NoError(t, err)
	assert.Equal(t, "first, edited", upd.Content)

	_, err = Delete(ctx, db, first.ID, b)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = Delete(ctx, db, first.ID, a)
	require.NoError(t, err)
	assert.Equal(t, 1, testutil.Count(t, db, "tweets", ""))
}
