package searchdb

import (
	"testing"

	"github.com/meghashyamc/wpstatic/logger"
	"github.com/stretchr/testify/require"
)

var parseQuotedQueryTestCases = []struct {
	name              string
	input             string
	expectedQuoted    []string
	expectedRemaining string
}{
	{
		name:              "Simple quoted phrase",
		input:             `"hello world"`,
		expectedQuoted:    []string{"hello world"},
		expectedRemaining: "",
	},
	{
		name:              "Quoted phrase with remaining terms",
		input:             `"hello world" test golang`,
		expectedQuoted:    []string{"hello world"},
		expectedRemaining: "test golang",
	},
	{
		name:              "Multiple quoted phrases",
		input:             `"hello world" test "another phrase"`,
		expectedQuoted:    []string{"hello world", "another phrase"},
		expectedRemaining: "test",
	},
	{
		name:              "No quotes",
		input:             `hello world test`,
		expectedQuoted:    nil,
		expectedRemaining: "hello world test",
	},
	{
		name:              "Empty quoted phrase",
		input:             `"" test`,
		expectedQuoted:    nil,
		expectedRemaining: "test",
	},
	{
		name:              "Quoted phrase with extra spaces",
		input:             `"  hello world  " test`,
		expectedQuoted:    []string{"hello world"},
		expectedRemaining: "test",
	},
	{
		name:              "Multiple quoted phrases with spaces",
		input:             `  "first phrase"   test   "second phrase"  `,
		expectedQuoted:    []string{"first phrase", "second phrase"},
		expectedRemaining: "test",
	},
}

func TestParseQuotedQuery(t *testing.T) {
	assert := require.New(t)
	for _, testCase := range parseQuotedQueryTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			quoted, remaining := parseQuotedQuery(testCase.input)

			assert.Equal(quoted, testCase.expectedQuoted, "quoted phrases should match")
			assert.Equal(remaining, testCase.expectedRemaining, "remaining (not quoted) terms should match")
		})
	}
}

func newTestIndex(t *testing.T, assert *require.Assertions) *BleveDB {
	index, err := NewInMemory(logger.Discard())
	assert.NoError(err, "could not create in-memory index")
	t.Cleanup(func() {
		assert.NoError(index.Close())
	})

	documents := []Document{
		{ID: "1", Title: "Salary negotiation for new managers", Content: "Negotiation starts long before the offer arrives.", Category: "Career Advice", CategorySlug: "career-advice", Tags: []string{"Salary"}, URL: "blog-post-1.html"},
		{ID: "2", Title: "Networking that works", Content: "Your network is built one honest conversation at a time.", Category: "Networking", CategorySlug: "networking", Tags: []string{"Networking"}, URL: "blog-post-2.html"},
		{ID: "3", Title: "Interview preparation", Content: "Prepare stories about negotiation wins and hard conversations.", Category: "Interviews", CategorySlug: "interviews", URL: "blog-post-3.html"},
	}
	assert.NoError(index.BuildIndex(documents))
	return index
}

func TestSearchRanksTitleMatchesFirst(t *testing.T) {
	assert := require.New(t)
	index := newTestIndex(t, assert)

	response, err := index.Search("negotiation", 10, 0)
	assert.NoError(err)
	assert.Equal(uint64(2), response.Total)
	assert.Equal("1", response.Results[0].ID)
	assert.Equal("blog-post-1.html", response.Results[0].URL)
	assert.NotEmpty(response.Results[0].Snippet)
}

func TestSearchWithQuotedPhrase(t *testing.T) {
	assert := require.New(t)
	index := newTestIndex(t, assert)

	response, err := index.Search(`"honest conversation"`, 10, 0)
	assert.NoError(err)
	assert.Equal(uint64(1), response.Total)
	assert.Equal("2", response.Results[0].ID)
}

func TestEmptyQueryMatchesAll(t *testing.T) {
	assert := require.New(t)
	index := newTestIndex(t, assert)

	response, err := index.Search("   ", 2, 0)
	assert.NoError(err)
	assert.Equal(uint64(3), response.Total)
	assert.Len(response.Results, 2)
}

func TestDeleteDocuments(t *testing.T) {
	assert := require.New(t)
	index := newTestIndex(t, assert)

	assert.NoError(index.DeleteDocuments([]string{"2", "3"}))

	count, err := index.GetDocCount()
	assert.NoError(err)
	assert.Equal(uint64(1), count)
}
