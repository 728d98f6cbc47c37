package build

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meghashyamc/wpstatic/logger"
	"github.com/stretchr/testify/require"
)

func newAssetServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/old.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new.jpg", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/hop.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/old.jpg", http.StatusFound)
	})
	mux.HandleFunc("/new.jpg", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("image-bytes"))
	})
	mux.HandleFunc("/loop.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop.jpg", http.StatusFound)
	})
	mux.HandleFunc("/nolocation.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	mux.HandleFunc("/truncated.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		_, _ = w.Write([]byte("partial"))
	})
	return httptest.NewServer(mux)
}

func listDir(assert *require.Assertions, dir string) []string {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	assert.NoError(err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestDownloadAssetFollowsRedirects(t *testing.T) {
	server := newAssetServer()
	defer server.Close()

	for _, path := range []string{"/new.jpg", "/old.jpg", "/hop.jpg"} {
		t.Run(path, func(t *testing.T) {
			assert := require.New(t)
			dir := t.TempDir()
			dest := filepath.Join(dir, "images", "post.jpg")

			downloader := NewDownloader(logger.Discard(), 5*time.Second)
			assert.NoError(downloader.DownloadAsset(context.Background(), server.URL+path, dest))

			data, err := os.ReadFile(dest)
			assert.NoError(err)
			assert.Equal("image-bytes", string(data))
			assert.Equal([]string{"post.jpg"}, listDir(assert, filepath.Dir(dest)), "exactly one file, no temporaries")
		})
	}
}

func TestDownloadAssetFailuresLeaveNothing(t *testing.T) {
	server := newAssetServer()
	defer server.Close()

	testCases := []struct {
		name string
		path string
	}{
		{name: "NotFound", path: "/missing.jpg"},
		{name: "RedirectLoop", path: "/loop.jpg"},
		{name: "RedirectWithoutLocation", path: "/nolocation.jpg"},
		{name: "TruncatedBody", path: "/truncated.jpg"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			dir := t.TempDir()
			dest := filepath.Join(dir, "post.jpg")

			downloader := NewDownloader(logger.Discard(), 5*time.Second)
			err := downloader.DownloadAsset(context.Background(), server.URL+testCase.path, dest)
			assert.Error(err)
			assert.Empty(listDir(assert, dir))
		})
	}
}

func TestDownloadAssetRedirectLimit(t *testing.T) {
	assert := require.New(t)
	server := newAssetServer()
	defer server.Close()

	downloader := NewDownloader(logger.Discard(), 5*time.Second)
	err := downloader.DownloadAsset(context.Background(), server.URL+"/loop.jpg", filepath.Join(t.TempDir(), "x.jpg"))
	assert.True(errors.Is(err, ErrTooManyRedirects))
}

func TestDownloadAssetNetworkError(t *testing.T) {
	assert := require.New(t)
	dir := t.TempDir()

	downloader := NewDownloader(logger.Discard(), time.Second)
	err := downloader.DownloadAsset(context.Background(), "http://127.0.0.1:1/x.jpg", filepath.Join(dir, "x.jpg"))
	assert.Error(err)
	assert.Empty(listDir(assert, dir))
}
