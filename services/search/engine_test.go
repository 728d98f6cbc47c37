package search

import (
	"testing"

	"github.com/meghashyamc/wpstatic/db"
	"github.com/stretchr/testify/require"
)

func testPost(id int, title string, categorySlug string, tags ...string) db.Post {
	post := db.Post{
		ID:           id,
		Title:        title,
		Category:     categorySlug,
		CategorySlug: categorySlug,
		Tags:         []string{},
		TagSlugs:     []string{},
		Keywords:     []string{},
	}
	for _, tag := range tags {
		post.Tags = append(post.Tags, tag)
		post.TagSlugs = append(post.TagSlugs, slugOf(tag))
	}
	return post
}

func slugOf(name string) string {
	slug := []rune{}
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			slug = append(slug, r+('a'-'A'))
		case r == ' ':
			slug = append(slug, '-')
		default:
			slug = append(slug, r)
		}
	}
	return string(slug)
}

func TestNegotiationScenario(t *testing.T) {
	assert := require.New(t)

	a := testPost(1, "Salary Negotiation Basics", "money")
	b := testPost(2, "Asking for a raise", "money", "Negotiation")
	engine := NewEngine([]db.Post{b, a})

	assert.GreaterOrEqual(Score(a, "negotiation"), 150)
	assert.Equal(20, Score(b, "negotiation"))

	hits := engine.Search("negotiation")
	assert.Len(hits, 2)
	assert.Equal(1, hits[0].Post.ID)
	assert.Equal(2, hits[1].Post.ID)
}

func TestScoreWeights(t *testing.T) {
	post := db.Post{
		Title:    "Resume Writing",
		Excerpt:  "Writing a resume that works",
		Content:  "Resume content here",
		Keywords: []string{"resume", "writing", "career"},
		Category: "Resume Tips",
		Tags:     []string{"Resume Writing", "Jobs"},
	}

	testCases := []struct {
		name     string
		query    string
		expected int
	}{
		// title 100+50, excerpt 50+25, content 40+20, keyword "resume" 60+30, category 30, tag "Resume Writing" 20
		{name: "SingleTerm", query: "resume", expected: 150 + 75 + 60 + 90 + 30 + 20},
		// title 100+50+50, excerpt 0+25+25, content 0+20, keywords 30+30, tag 20
		{name: "TwoTerms", query: "resume writing", expected: 200 + 50 + 20 + 60 + 20},
		{name: "CaseAndWhitespace", query: "  RESUME  ", expected: 150 + 75 + 60 + 90 + 30 + 20},
		{name: "NoMatch", query: "zebra", expected: 0},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			assert.Equal(testCase.expected, Score(post, testCase.query))
		})
	}
}

func TestKeywordsAreComparedAsStored(t *testing.T) {
	assert := require.New(t)

	post := db.Post{Keywords: []string{"Interview"}}
	assert.Equal(0, Score(post, "interview"))

	post.Keywords = []string{"interview"}
	assert.Equal(60+30, Score(post, "interview"))
}

func TestSearchExcludesZeroScores(t *testing.T) {
	assert := require.New(t)

	posts := []db.Post{
		testPost(1, "Interview tips", "career"),
		testPost(2, "Cooking pasta", "food"),
		testPost(3, "Interview questions", "career"),
	}
	engine := NewEngine(posts)

	hits := engine.Search("interview")
	assert.Len(hits, 2)
	for _, hit := range hits {
		assert.Positive(hit.Score)
		assert.Equal(hit.Score, Score(hit.Post, "interview"))
	}
	for _, post := range posts {
		if Score(post, "interview") == 0 {
			for _, hit := range hits {
				assert.NotEqual(post.ID, hit.Post.ID)
			}
		}
	}
}

func TestSearchKeepsIndexOrderForTies(t *testing.T) {
	assert := require.New(t)

	posts := []db.Post{
		testPost(1, "Remote work", "a"),
		testPost(2, "Unrelated", "b"),
		testPost(3, "Remote work", "c"),
		testPost(4, "Remote work", "d"),
	}
	hits := NewEngine(posts).Search("remote")

	ids := []int{}
	for _, hit := range hits {
		ids = append(ids, hit.Post.ID)
	}
	assert.Equal([]int{1, 3, 4}, ids)
}

func TestQueryThresholds(t *testing.T) {
	posts := []db.Post{
		testPost(1, "Networking events", "career"),
		testPost(2, "Cover letters", "career"),
	}
	engine := NewEngine(posts)

	testCases := []struct {
		name            string
		query           string
		expectedApplied bool
		expectedIDs     []int
		expectedMessage string
	}{
		{name: "Empty", query: "", expectedApplied: true, expectedIDs: []int{1, 2}},
		{name: "Blank", query: "   ", expectedApplied: true, expectedIDs: []int{1, 2}},
		{name: "TooShort", query: "n", expectedApplied: false},
		{name: "TooShortMultibyte", query: "é", expectedApplied: false},
		{name: "OneResult", query: "network", expectedApplied: true, expectedIDs: []int{1}, expectedMessage: `Found 1 result for "network"`},
		{name: "NoResults", query: "zebra", expectedApplied: true, expectedIDs: []int{}, expectedMessage: `Found 0 results for "zebra"`},
		// both categories contain "er", only the second title does
		{name: "TwoResults", query: "er", expectedApplied: true, expectedIDs: []int{2, 1}, expectedMessage: `Found 2 results for "er"`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			outcome := engine.Query(testCase.query)
			assert.Equal(testCase.expectedApplied, outcome.Applied)
			assert.Equal(testCase.expectedMessage, outcome.Message)
			if !testCase.expectedApplied {
				assert.Nil(outcome.Posts)
				return
			}
			ids := []int{}
			for _, post := range outcome.Posts {
				ids = append(ids, post.ID)
			}
			assert.Equal(testCase.expectedIDs, ids)
		})
	}
}

func TestFilters(t *testing.T) {
	assert := require.New(t)

	engine := NewEngine([]db.Post{
		testPost(1, "One", "career", "Remote Work"),
		testPost(2, "Two", "money"),
		testPost(3, "Three", "career", "Tips", "Remote Work"),
	})

	byCategory := engine.FilterByCategory("career")
	assert.Len(byCategory, 2)
	assert.Equal(1, byCategory[0].ID)
	assert.Equal(3, byCategory[1].ID)
	assert.Empty(engine.FilterByCategory("Career"), "slugs match exactly")

	byTag, name := engine.FilterByTag("remote-work")
	assert.Len(byTag, 2)
	assert.Equal("Remote Work", name)

	none, name := engine.FilterByTag("unknown")
	assert.Empty(none)
	assert.Equal("unknown", name)
}

func TestRelated(t *testing.T) {
	engine := NewEngine([]db.Post{
		testPost(1, "One", "career"),
		testPost(2, "Two", "money"),
		testPost(3, "Three", "career"),
		testPost(4, "Four", "career"),
		testPost(5, "Five", "career"),
		testPost(6, "Six", "solo"),
	})

	testCases := []struct {
		name         string
		id           int
		categorySlug string
		limit        int
		expectedIDs  []int
	}{
		{name: "SameCategoryCapped", id: 1, categorySlug: "career", limit: 3, expectedIDs: []int{3, 4, 5}},
		{name: "DefaultLimit", id: 4, categorySlug: "career", limit: 0, expectedIDs: []int{1, 3, 5}},
		{name: "FallbackToFirstOthers", id: 6, categorySlug: "solo", limit: 3, expectedIDs: []int{1, 2, 3}},
		{name: "FallbackExcludesSelf", id: 1, categorySlug: "nothing", limit: 2, expectedIDs: []int{2, 3}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := require.New(t)
			ids := []int{}
			for _, post := range engine.Related(testCase.id, testCase.categorySlug, testCase.limit) {
				ids = append(ids, post.ID)
			}
			assert.Equal(testCase.expectedIDs, ids)
		})
	}
}

func TestEngineKeepsItsOwnCopy(t *testing.T) {
	assert := require.New(t)

	posts := []db.Post{testPost(1, "Original", "a")}
	engine := NewEngine(posts)
	posts[0].Title = "Changed"

	assert.Equal("Original", engine.All()[0].Title)
}
