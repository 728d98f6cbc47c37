// Common test helpers
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/wpstatic/config"
	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/db/kvdb"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/build"
	"github.com/meghashyamc/wpstatic/services/search"
	"github.com/meghashyamc/wpstatic/site"
	"github.com/meghashyamc/wpstatic/validation"
	"github.com/meghashyamc/wpstatic/wordpress"
	"github.com/meghashyamc/wpstatic/wordpress/wordpresstest"
	"github.com/stretchr/testify/require"
)

var defaultTestRequestHeaders = map[string]string{"Content-Type": "application/json"}

const (
	testWait = 5 * time.Second
	testTick = 20 * time.Millisecond
)

var testWordPressPosts = []wordpresstest.Post{
	{
		ID:         11,
		Slug:       "salary-negotiation",
		Date:       "2024-03-01T09:00:00",
		Title:      "Salary Negotiation Basics",
		Excerpt:    "<p>How to ask for the pay you deserve.</p>",
		Content:    "<p>Negotiation starts before the offer arrives.</p>",
		Categories: []wordpresstest.Term{{Name: "Money", Slug: "money"}},
		Tags:       []wordpresstest.Term{{Name: "Pay", Slug: "pay"}},
	},
	{
		ID:         12,
		Slug:       "asking-for-a-raise",
		Date:       "2024-02-01T09:00:00",
		Title:      "Asking for a Raise",
		Excerpt:    "<p>Timing matters.</p>",
		Content:    "<p>Pick the right moment.</p>",
		Categories: []wordpresstest.Term{{Name: "Money", Slug: "money"}},
		Tags:       []wordpresstest.Term{{Name: "Negotiation", Slug: "negotiation"}},
	},
	{
		ID:         13,
		Slug:       "remote-interviews",
		Date:       "2024-01-01T09:00:00",
		Title:      "Remote Interviews",
		Excerpt:    "<p>Camera on, notifications off.</p>",
		Content:    "<p>Test your setup the day before.</p>",
		Categories: []wordpresstest.Term{{Name: "Interviews", Slug: "interviews"}},
	},
}

type testCase struct {
	name             string
	requestHeaders   map[string]string
	requestBody      map[string]any
	queryParams      map[string]string
	expectedStatus   int
	expectedResponse *response
}

type testServer struct {
	router       *gin.Engine
	buildService *build.Service
	search       *search.Service
	wordpress    *wordpresstest.Server
	outputDir    string
}

func newTestLogger() logger.Logger {
	return logger.NewWithOptions(&bytes.Buffer{}, "debug", "text")
}

// setupTestServer wires the handlers against a fake WordPress site. When
// built is true, one build has already completed and the search index is
// loaded.
func setupTestServer(t *testing.T, assert *require.Assertions, built bool) *testServer {

	t.Setenv("ENV", "test")

	cfg, err := config.Load("")
	assert.NoError(err, "could not load config")

	testLogger := newTestLogger()
	tempDir := t.TempDir()
	outputDir := filepath.Join(tempDir, "public")

	wordpressServer := wordpresstest.NewServer(testWordPressPosts)
	t.Cleanup(wordpressServer.Close)

	kvDB, err := kvdb.Open(testLogger, filepath.Join(tempDir, "state.db"))
	assert.NoError(err, "could not create kv database")
	t.Cleanup(func() { _ = kvDB.Close() })

	searchDB, err := searchdb.Open(testLogger, filepath.Join(tempDir, "posts.bleve"))
	assert.NoError(err, "could not create search database")
	t.Cleanup(func() { _ = searchDB.Close() })

	validator, err := validation.New(testLogger)
	assert.NoError(err, "could not create validator")

	renderer, err := site.New(cfg.GetSite(), cfg.GetAuthor())
	assert.NoError(err, "could not create renderer")

	opts := build.OptionsFromConfig(cfg)
	opts.OutputDir = outputDir
	client := wordpress.NewClient(testLogger, wordpressServer.URL, cfg.GetPostsPerPage(), cfg.GetMaxPages(), cfg.GetFetchTimeout())
	builder := build.NewBuilder(testLogger, client, kvDB, searchDB, renderer, opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	searchService := search.New(testLogger, db.FileSource{Path: filepath.Join(outputDir, db.IndexFileName)}, searchDB, search.Options{
		MinQueryLength: cfg.GetMinQueryLength(),
		RelatedLimit:   cfg.GetRelatedLimit(),
	})
	buildService := build.New(ctx, testLogger, builder, kvDB)
	buildService.OnComplete(func(ctx context.Context, _ *build.Result) {
		_ = searchService.Reload(ctx)
	})

	if built {
		_, err := builder.Run(context.Background(), "initial")
		assert.NoError(err, "could not run initial build")
		assert.NoError(searchService.Reload(context.Background()), "could not load search index")
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api")

	SetupSearch(group, testLogger, searchService, validator)
	SetupPosts(group, testLogger, searchService, validator)
	SetupFullText(group, testLogger, searchService, validator)
	SetupBuilds(group, testLogger, buildService, validator)

	return &testServer{
		router:       router,
		buildService: buildService,
		search:       searchService,
		wordpress:    wordpressServer,
		outputDir:    outputDir,
	}
}

func makeTestHTTPRequest(router *gin.Engine, assert *require.Assertions, method string, endpoint string, headers map[string]string, requestBodyMap map[string]interface{}, queryParams map[string]string) *httptest.ResponseRecorder {

	var err error
	w := httptest.NewRecorder()

	if len(queryParams) > 0 {
		values := url.Values{}
		for key, value := range queryParams {
			values.Set(key, value)
		}
		endpoint = endpoint + "?" + values.Encode()
	}
	var jsonBody []byte
	var req *http.Request
	if requestBodyMap != nil {
		jsonBody, err = json.Marshal(requestBodyMap)
		assert.NoError(err)
	}

	if len(jsonBody) > 0 {
		req, err = http.NewRequest(method, endpoint, bytes.NewBuffer(jsonBody))
	} else {
		req, err = http.NewRequest(method, endpoint, nil)
	}
	assert.NoError(err)

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	router.ServeHTTP(w, req)

	return w
}

// decodeData unmarshals the data field of a response envelope into v.
func decodeData(assert *require.Assertions, body []byte, v any) []string {
	envelope := struct {
		Data   json.RawMessage `json:"data"`
		Errors []string        `json:"errors"`
	}{}
	assert.NoError(json.Unmarshal(body, &envelope), "could not unmarshal response")
	if v != nil && len(envelope.Data) > 0 {
		assert.NoError(json.Unmarshal(envelope.Data, v), "could not unmarshal response data")
	}
	return envelope.Errors
}

func waitForBuild(assert *require.Assertions, server *testServer, requestID string) BuildStatusResponse {
	maxWaitForBuild := 10 * time.Second

	for startTime := time.Now().UTC(); time.Since(startTime) < maxWaitForBuild; time.Sleep(50 * time.Millisecond) {
		w := makeTestHTTPRequest(server.router, assert, http.MethodGet, "/api/builds/"+requestID, nil, nil, nil)
		if w.Code == http.StatusOK {
			status := BuildStatusResponse{}
			decodeData(assert, w.Body.Bytes(), &status)
			return status
		}
	}
	assert.Fail("timed out waiting for build", requestID)
	return BuildStatusResponse{}
}
