// Package wordpresstest runs a fake WordPress REST API for tests.
package wordpresstest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
)

type Term struct {
	Name string
	Slug string
}

type Post struct {
	ID         int
	Slug       string
	Date       string
	Modified   string
	Title      string
	Excerpt    string
	Content    string
	Categories []Term
	Tags       []Term
	// ImagePath is served by the fake server; empty means no featured image.
	ImagePath string
	ImageAlt  string
}

type Server struct {
	*httptest.Server
	posts        []Post
	images       map[string][]byte
	postRequests atomic.Int32
	// FailPosts makes the posts endpoint answer with 500.
	FailPosts atomic.Bool
}

// NewServer serves posts at /wp-json/wp/v2/posts and any registered images.
func NewServer(posts []Post) *Server {
	s := &Server{posts: posts, images: map[string][]byte{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/wp-json/wp/v2/posts", s.handlePosts)
	mux.HandleFunc("/wp-json/yoast/v1/get_head", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/media/", s.handleMedia)
	s.Server = httptest.NewServer(mux)

	return s
}

// AddImage registers an image body served at /media/<name>.
func (s *Server) AddImage(name string, body []byte) string {
	s.images["/media/"+name] = body
	return "/media/" + name
}

// SetPosts replaces the served posts. Call it before the server is queried.
func (s *Server) SetPosts(posts []Post) {
	s.posts = posts
}

func (s *Server) PostRequests() int {
	return int(s.postRequests.Load())
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	s.postRequests.Add(1)
	if s.FailPosts.Load() {
		http.Error(w, `{"code":"internal_error"}`, http.StatusInternalServerError)
		return
	}

	perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
	if err != nil || perPage <= 0 {
		perPage = 10
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}

	totalPages := (len(s.posts) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		http.Error(w, `{"code":"rest_post_invalid_page_number"}`, http.StatusBadRequest)
		return
	}

	start := (page - 1) * perPage
	end := min(start+perPage, len(s.posts))

	body := make([]map[string]any, 0, end-start)
	for _, post := range s.posts[start:end] {
		body = append(body, s.render(post))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-WP-Total", strconv.Itoa(len(s.posts)))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	body, ok := s.images[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(body)
}

func (s *Server) render(post Post) map[string]any {
	categories := make([]map[string]any, 0, len(post.Categories))
	for i, term := range post.Categories {
		categories = append(categories, map[string]any{"id": i + 1, "name": term.Name, "slug": term.Slug, "taxonomy": "category"})
	}
	tags := make([]map[string]any, 0, len(post.Tags))
	for i, term := range post.Tags {
		tags = append(tags, map[string]any{"id": 100 + i, "name": term.Name, "slug": term.Slug, "taxonomy": "post_tag"})
	}

	embedded := map[string]any{
		"wp:term": []any{categories, tags},
	}
	if post.ImagePath != "" {
		embedded["wp:featuredmedia"] = []any{map[string]any{
			"source_url":    s.URL + post.ImagePath,
			"alt_text":      post.ImageAlt,
			"media_details": map[string]any{"width": 800, "height": 400},
		}}
	}

	date := post.Date
	if date == "" {
		date = "2024-01-15T09:30:00"
	}
	modified := post.Modified
	if modified == "" {
		modified = date
	}

	return map[string]any{
		"id":        post.ID,
		"date":      date,
		"modified":  modified,
		"slug":      post.Slug,
		"link":      fmt.Sprintf("%s/%s/", s.URL, post.Slug),
		"title":     map[string]any{"rendered": post.Title},
		"excerpt":   map[string]any{"rendered": post.Excerpt},
		"content":   map[string]any{"rendered": post.Content},
		"_embedded": embedded,
	}
}
