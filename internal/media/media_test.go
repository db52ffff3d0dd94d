package media

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopStore(t *testing.T) {
	ctx := context.Background()
	s := NewNopStore()

	obj, err := s.Put(ctx, KindVideo, "/tmp/clip.mp4", strings.NewReader("data"), 4, "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, "videos/1-clip.mp4", obj.Key)
	assert.Equal(t, obj.Key, s.KeyFromURL(obj.URL))
	assert.True(t, s.Has(obj.Key))

	require.NoError(t, DeleteURL(ctx, s, obj.URL))
	assert.False(t, s.Has(obj.Key))

	assert.Equal(t, "", s.KeyFromURL("https://elsewhere/x.jpg"))
	require.NoError(t, DeleteURL(ctx, s, "https://elsewhere/x.jpg"))
}

func TestMinioKeys(t *testing.T) {
	s := &MinioStore{bucket: "media", base: publicBase("http://cdn.local/", "media")}
	assert.Equal(t, "http://cdn.local/media/", s.base)
	assert.Equal(t, "avatars/a.png", s.KeyFromURL("http://cdn.local/media/avatars/a.png"))
	assert.Equal(t, "", s.KeyFromURL("http://other/media/avatars/a.png"))

	key := objectKey(KindThumbnail, "Cover.JPG")
	assert.True(t, strings.HasPrefix(key, "thumbnails/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}
