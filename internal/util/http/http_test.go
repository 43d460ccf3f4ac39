package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			assert.True(t, strings.HasPrefix(r.Header.Get("User-Agent"), UserAgentName+"/"))
			assert.Equal(t, "yes", r.Header.Get("X-Test"))
			assert.Contains(t, r.Header.Get("Accept"), "image/*")
			_, _ = w.Write([]byte("payload"))
		case "/big":
			_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			_, _ = w.Write([]byte("late"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	data, err := Fetch(context.Background(), srv.URL+"/ok", FetchOptions{Headers: map[string]string{"X-Test": "yes"}})
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	_, err = Fetch(context.Background(), srv.URL+"/missing", FetchOptions{})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.ErrorContains(t, err, "404")

	_, err = Fetch(context.Background(), srv.URL+"/big", FetchOptions{MaxBytes: 10})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.ErrorContains(t, err, "exceeds 10 bytes")

	data, err = Fetch(context.Background(), srv.URL+"/big", FetchOptions{MaxBytes: 100})
	require.NoError(t, err)
	assert.Len(t, data, 100)

	_, err = Fetch(context.Background(), srv.URL+"/slow", FetchOptions{Timeout: 20 * time.Millisecond})
	assert.Error(t, err)
}

func TestFetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch(ctx, "http://127.0.0.1:1/never", FetchOptions{})
	assert.Error(t, err)
}
