package dining_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dininguru/internal/dining"
	"github.com/neexbeast/dininguru/internal/imagecache"
)

func TestImageLoader_CachesSuccessfulLoads(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path == "/missing.png" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("png-bytes"))
	}))
	t.Cleanup(srv.Close)

	c, err := imagecache.New(4)
	require.NoError(t, err)
	loader := dining.NewImageLoader(c)
	ctx := context.Background()

	for range 2 {
		img, err := loader.Load(ctx, srv.URL+"/commons.png")
		require.NoError(t, err)
		assert.Equal(t, []byte("png-bytes"), img)
	}
	assert.Equal(t, int32(1), hits.Load(), "second load is served from cache")

	_, err = loader.Load(ctx, srv.URL+"/missing.png")
	var statusErr *dining.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, 1, c.Len(), "failures are not cached")
}

func TestImageLoader_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	t.Cleanup(srv.Close)

	c, err := imagecache.New(1)
	require.NoError(t, err)

	_, err = dining.NewImageLoader(c).Load(context.Background(), srv.URL+"/empty.png")
	assert.ErrorIs(t, err, dining.ErrNoData)
}

func TestImageLoader_RejectsOversizedImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size := 5 << 20
		if r.URL.Path == "/huge.png" {
			size++
		}
		_, _ = w.Write(bytes.Repeat([]byte{7}, size))
	}))
	t.Cleanup(srv.Close)

	c, err := imagecache.New(4)
	require.NoError(t, err)
	loader := dining.NewImageLoader(c)

	_, err = loader.Load(context.Background(), srv.URL+"/huge.png")
	assert.ErrorIs(t, err, dining.ErrImageTooLarge)
	assert.Zero(t, c.Len(), "oversized images are not cached")

	img, err := loader.Load(context.Background(), srv.URL+"/max.png")
	require.NoError(t, err)
	assert.Len(t, img, 5<<20)
	assert.Equal(t, 1, c.Len())
}
