// Package media stores uploaded video files and images and hands back the
// public URL recorded on the owning row.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
)

const (
	KindVideo     = "videos"
	KindThumbnail = "thumbnails"
	KindAvatar    = "avatars"
	KindCover     = "covers"
)

type Object struct {
	Key string
	URL string
}

type Store interface {
	Put(ctx context.Context, kind, filename string, r io.Reader, size int64, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a URL returned by Put back to its key, or "" if the
	// URL was not issued by this store.
	KeyFromURL(url string) string
}

// NopStore keeps objects in memory. Keys are numbered in upload order.
type NopStore struct {
	mu      sync.Mutex
	seq     int
	Objects map[string][]byte
}

const nopPrefix = "memory://"

func NewNopStore() *NopStore {
	return &NopStore{Objects: map[string][]byte{}}
}

func (s *NopStore) Put(_ context.Context, kind, filename string, r io.Reader, _ int64, _ string) (Object, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Object{}, fmt.Errorf("read upload: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := fmt.Sprintf("%s/%d-%s", kind, s.seq, path.Base(filename))
	s.Objects[key] = data
	return Object{Key: key, URL: nopPrefix + key}, nil
}

func (s *NopStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Objects, key)
	return nil
}

func (s *NopStore) KeyFromURL(url string) string {
	if !strings.HasPrefix(url, nopPrefix) {
		return ""
	}
	return strings.TrimPrefix(url, nopPrefix)
}

func (s *NopStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

// DeleteURL removes the object behind url when store issued it.
func DeleteURL(ctx context.Context, store Store, url string) error {
	key := store.KeyFromURL(url)
	if key == "" {
		return nil
	}
	return store.Delete(ctx, key)
}
