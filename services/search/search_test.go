package search

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, assert *require.Assertions, posts []db.Post) *Service {
	path := filepath.Join(t.TempDir(), db.IndexFileName)
	assert.NoError(db.WriteIndex(path, posts))

	fulltext, err := searchdb.NewInMemory(logger.Discard())
	assert.NoError(err, "could not create full-text index")
	t.Cleanup(func() { _ = fulltext.Close() })

	documents := []searchdb.Document{}
	for _, post := range posts {
		documents = append(documents, searchdb.Document{
			ID:           post.URL,
			Title:        post.Title,
			Content:      post.Content,
			Category:     post.Category,
			CategorySlug: post.CategorySlug,
			Tags:         post.Tags,
			URL:          post.URL,
		})
	}
	assert.NoError(fulltext.BuildIndex(documents))

	return New(logger.Discard(), db.FileSource{Path: path}, fulltext, Options{})
}

func servicePosts() []db.Post {
	posts := controllerPosts()
	for i := range posts {
		posts[i].URL = "post-" + string(rune('1'+i)) + ".html"
		posts[i].Content = "Body of " + posts[i].Title
	}
	return posts
}

func TestServiceBeforeReload(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, servicePosts())

	_, err := service.Search("remote")
	assert.ErrorIs(err, ErrIndexUnavailable)

	_, _, err = service.Posts("", "")
	assert.ErrorIs(err, ErrIndexUnavailable)

	_, err = service.Related(1, 0)
	assert.ErrorIs(err, ErrIndexUnavailable)
}

func TestServiceSearch(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, servicePosts())
	assert.NoError(service.Reload(context.Background()))

	outcome, err := service.Search("negotiation")
	assert.NoError(err)
	assert.True(outcome.Applied)
	assert.Equal([]int{1, 2}, postIDs(outcome.Posts))
	assert.Len(outcome.Hits, 2)
	assert.Greater(outcome.Hits[0].Score, outcome.Hits[1].Score)

	outcome, err = service.Search("n")
	assert.NoError(err)
	assert.False(outcome.Applied)
}

func TestServicePosts(t *testing.T) {
	testCases := []struct {
		name          string
		categorySlug  string
		tagSlug       string
		expectedIDs   []int
		expectedLabel string
	}{
		{name: "All", expectedIDs: []int{1, 2, 3}},
		{name: "Category", categorySlug: "career", expectedIDs: []int{2, 3}, expectedLabel: "Category: career"},
		{name: "Tag", tagSlug: "pay", expectedIDs: []int{1}, expectedLabel: "Tag: Pay"},
		{name: "CategoryWins", categorySlug: "money", tagSlug: "negotiation", expectedIDs: []int{1}, expectedLabel: "Category: money"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			service := newTestService(t, assert, servicePosts())
			assert.NoError(service.Reload(context.Background()))

			posts, label, err := service.Posts(testCase.categorySlug, testCase.tagSlug)
			assert.NoError(err)
			assert.Equal(testCase.expectedIDs, postIDs(posts))
			assert.Equal(testCase.expectedLabel, label)
		})
	}
}

func TestServiceRelated(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, servicePosts())
	assert.NoError(service.Reload(context.Background()))

	related, err := service.Related(3, 0)
	assert.NoError(err)
	assert.Equal([]int{2}, postIDs(related))

	related, err = service.Related(1, 1)
	assert.NoError(err)
	assert.Equal([]int{2}, postIDs(related), "falls back to the first other post")

	_, err = service.Related(42, 0)
	assert.ErrorIs(err, ErrPostNotFound)
}

func TestServiceFailedReloadKeepsPreviousIndex(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, servicePosts())
	assert.NoError(service.Reload(context.Background()))

	service.source = &blockingSource{err: errors.New("disk gone")}
	assert.Error(service.Reload(context.Background()))

	posts, _, err := service.Posts("", "")
	assert.NoError(err)
	assert.Len(posts, 3)
}

func TestServiceFullText(t *testing.T) {
	assert := require.New(t)
	service := newTestService(t, assert, servicePosts())

	response, err := service.FullText("interviews", 10, 1)
	assert.NoError(err)
	assert.NotEmpty(response.Results)
	assert.Equal("post-3.html", response.Results[0].URL)

	service.fulltext = nil
	_, err = service.FullText("interviews", 10, 1)
	assert.ErrorIs(err, ErrIndexUnavailable)
}
