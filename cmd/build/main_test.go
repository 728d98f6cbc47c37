package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/wordpress/wordpresstest"
	"github.com/stretchr/testify/require"
)

var testPosts = []wordpresstest.Post{
	{ID: 1, Slug: "first", Date: "2024-03-01T09:00:00", Title: "First", Excerpt: "<p>One</p>", Content: "<p>One.</p>"},
	{ID: 2, Slug: "second", Date: "2024-02-01T09:00:00", Title: "Second", Excerpt: "<p>Two</p>", Content: "<p>Two.</p>"},
}

// setupEnv points the build at server and keeps every file under a temp dir.
func setupEnv(t *testing.T, serverURL string) string {
	dir := t.TempDir()
	t.Setenv("ENV", "test")
	t.Setenv("WORDPRESS_URL", serverURL)
	t.Setenv("OUTPUT_DIR", filepath.Join(dir, "public"))
	t.Setenv("STORAGE_PATH", filepath.Join(dir, "storage"))
	t.Setenv("KVDB_PATH", filepath.Join(dir, "storage", "state.db"))
	return filepath.Join(dir, "public")
}

func TestRun(t *testing.T) {
	testCases := []struct {
		name             string
		args             []string
		failPosts        bool
		expectedCode     int
		expectedStdout   string
		expectedIndexLen int
	}{
		{name: "Build", args: nil, expectedCode: exitOK, expectedStdout: "built 2 posts", expectedIndexLen: 2},
		{name: "Limit", args: []string{"-limit", "1"}, expectedCode: exitOK, expectedStdout: "built 1 posts", expectedIndexLen: 1},
		{name: "Check", args: []string{"-check"}, expectedCode: exitOK, expectedStdout: "connected to"},
		{name: "CheckFails", args: []string{"-check"}, failPosts: true, expectedCode: exitFailure},
		{name: "FetchFails", args: nil, failPosts: true, expectedCode: exitFailure},
		{name: "NegativeLimit", args: []string{"-limit", "-1"}, expectedCode: exitUsage},
		{name: "UnknownFlag", args: []string{"-verbose"}, expectedCode: exitUsage},
		{name: "ExtraArgument", args: []string{"now"}, expectedCode: exitUsage},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)

			server := wordpresstest.NewServer(testPosts)
			defer server.Close()
			server.FailPosts.Store(testCase.failPosts)
			outputDir := setupEnv(t, server.URL)

			var stdout, stderr bytes.Buffer
			code := run(context.Background(), testCase.args, &stdout, &stderr)
			assert.Equal(testCase.expectedCode, code, stderr.String())
			assert.Contains(stdout.String(), testCase.expectedStdout)

			if testCase.expectedIndexLen > 0 {
				records, err := db.ReadIndex(filepath.Join(outputDir, db.IndexFileName))
				assert.NoError(err)
				assert.Len(records, testCase.expectedIndexLen)
			} else {
				assert.NoFileExists(filepath.Join(outputDir, db.IndexFileName))
			}
		})
	}
}
