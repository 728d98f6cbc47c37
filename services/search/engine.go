package search

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/meghashyamc/wpstatic/db"
)

const (
	DefaultMinQueryLength = 2
	DefaultRelatedLimit   = 3
)

// Score weights. A match on the whole query and a match on each of its terms
// are counted independently.
const (
	scoreTitleQuery    = 100
	scoreTitleTerm     = 50
	scoreExcerptQuery  = 50
	scoreExcerptTerm   = 25
	scoreContentQuery  = 40
	scoreContentTerm   = 20
	scoreKeywordQuery  = 60
	scoreKeywordTerm   = 30
	scoreCategoryQuery = 30
	scoreTagQuery      = 20
)

type Hit struct {
	Post  db.Post `json:"post"`
	Score int     `json:"score"`
}

// Outcome is the answer to a raw query as typed by a user.
type Outcome struct {
	// Applied is false when the query was too short to act on; the caller
	// should keep showing whatever it showed before.
	Applied bool
	Query   string
	Posts   []db.Post
	Hits    []Hit
	Message string
}

// Engine answers queries against one immutable copy of the search index.
type Engine struct {
	posts          []db.Post
	minQueryLength int
}

type Option func(*Engine)

func WithMinQueryLength(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.minQueryLength = n
		}
	}
}

func NewEngine(posts []db.Post, options ...Option) *Engine {
	engine := &Engine{
		posts:          append([]db.Post(nil), posts...),
		minQueryLength: DefaultMinQueryLength,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

func (e *Engine) Len() int {
	return len(e.posts)
}

// All returns every post in index order.
func (e *Engine) All() []db.Post {
	posts := make([]db.Post, len(e.posts))
	copy(posts, e.posts)
	return posts
}

func normalizeQuery(query string) (string, []string) {
	normalized := strings.ToLower(strings.TrimSpace(query))
	return normalized, strings.Fields(normalized)
}

// Score adds up the weights of every field of post that matches the query
// or one of its terms. Keywords are compared as stored.
func Score(post db.Post, query string) int {
	normalized, terms := normalizeQuery(query)
	return score(post, normalized, terms)
}

func score(post db.Post, query string, terms []string) int {
	total := 0

	total += fieldScore(strings.ToLower(post.Title), query, terms, scoreTitleQuery, scoreTitleTerm)
	total += fieldScore(strings.ToLower(post.Excerpt), query, terms, scoreExcerptQuery, scoreExcerptTerm)
	total += fieldScore(strings.ToLower(post.Content), query, terms, scoreContentQuery, scoreContentTerm)

	for _, keyword := range post.Keywords {
		total += fieldScore(keyword, query, terms, scoreKeywordQuery, scoreKeywordTerm)
	}

	if strings.Contains(strings.ToLower(post.Category), query) {
		total += scoreCategoryQuery
	}

	for _, tag := range post.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			total += scoreTagQuery
		}
	}

	return total
}

func fieldScore(field string, query string, terms []string, queryWeight int, termWeight int) int {
	total := 0
	if strings.Contains(field, query) {
		total += queryWeight
	}
	for _, term := range terms {
		if strings.Contains(field, term) {
			total += termWeight
		}
	}
	return total
}

// Search returns the posts with a positive score, best first. Posts with
// equal scores keep their index order.
func (e *Engine) Search(query string) []Hit {
	normalized, terms := normalizeQuery(query)

	hits := []Hit{}
	for _, post := range e.posts {
		if s := score(post, normalized, terms); s > 0 {
			hits = append(hits, Hit{Post: post, Score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

// Query applies the thresholds a search box uses: an empty or blank query
// lists everything and clears the message, a query shorter than the minimum
// length is ignored, anything else is searched.
func (e *Engine) Query(raw string) Outcome {
	if strings.TrimSpace(raw) == "" {
		return Outcome{Applied: true, Posts: e.All()}
	}
	if utf8.RuneCountInString(raw) < e.minQueryLength {
		return Outcome{Applied: false, Query: raw}
	}

	hits := e.Search(raw)
	posts := make([]db.Post, 0, len(hits))
	for _, hit := range hits {
		posts = append(posts, hit.Post)
	}

	return Outcome{
		Applied: true,
		Query:   raw,
		Posts:   posts,
		Hits:    hits,
		Message: ResultsMessage(len(posts), raw),
	}
}

// ResultsMessage is the banner shown above a filtered listing.
func ResultsMessage(count int, label string) string {
	plural := "s"
	if count == 1 {
		plural = ""
	}
	return fmt.Sprintf("Found %d result%s for \"%s\"", count, plural, label)
}

func (e *Engine) FilterByCategory(slug string) []db.Post {
	posts := []db.Post{}
	for _, post := range e.posts {
		if post.CategorySlug == slug {
			posts = append(posts, post)
		}
	}
	return posts
}

// FilterByTag also returns the display name of the tag, taken from the first
// match, or the slug itself when nothing matches.
func (e *Engine) FilterByTag(slug string) ([]db.Post, string) {
	posts := []db.Post{}
	name := slug
	for _, post := range e.posts {
		if !post.HasTag(slug) {
			continue
		}
		if len(posts) == 0 {
			for i, tagSlug := range post.TagSlugs {
				if tagSlug == slug && i < len(post.Tags) {
					name = post.Tags[i]
					break
				}
			}
		}
		posts = append(posts, post)
	}
	return posts, name
}

// Related returns up to limit other posts in the same category. When the
// category has no other post, it falls back to the first posts of the index.
func (e *Engine) Related(id int, categorySlug string, limit int) []db.Post {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	related := e.firstOthers(id, limit, func(post db.Post) bool {
		return post.CategorySlug == categorySlug
	})
	if len(related) > 0 {
		return related
	}

	return e.firstOthers(id, limit, func(db.Post) bool { return true })
}

func (e *Engine) firstOthers(id int, limit int, match func(db.Post) bool) []db.Post {
	posts := []db.Post{}
	for _, post := range e.posts {
		if len(posts) == limit {
			break
		}
		if post.ID != id && match(post) {
			posts = append(posts, post)
		}
	}
	return posts
}

// Post looks a record up by its index id.
func (e *Engine) Post(id int) (db.Post, bool) {
	for _, post := range e.posts {
		if post.ID == id {
			return post, true
		}
	}
	return db.Post{}, false
}
