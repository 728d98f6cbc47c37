// Package site renders the static blog pages and the card fragments shown by search.
package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/meghashyamc/wpstatic/config"
	"github.com/meghashyamc/wpstatic/db"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	ListingFileName = "blog.html"

	listingExcerptLength = 150
	relatedExcerptLength = 100
	minHighlightLength   = 2
)

type Renderer struct {
	site      config.Site
	author    config.Author
	templates *template.Template
}

// PostPage is everything one post page needs. Content is trusted markup
// coming from the WordPress editor.
type PostPage struct {
	Number        int
	Title         string
	Excerpt       string
	Content       template.HTML
	Published     string
	Modified      string
	FormattedDate string
	Category      db.Term
	Tags          []db.Term
	ReadingTime   int
	Image         *db.Image
	SEO           db.SEO
	// StructuredData is emitted as JSON-LD.
	StructuredData any
}

type listingPage struct {
	Posts      []db.Post
	Categories []db.Term
}

type pageData struct {
	Site   config.Site
	Author config.Author
	Page   any
}

type cardsData struct {
	Author config.Author
	Posts  []db.Post
	Query  string
}

type cardData struct {
	Author  config.Author
	Post    db.Post
	Query   string
	Listing bool
}

func New(site config.Site, author config.Author) (*Renderer, error) {
	templates, err := template.New("site").Funcs(template.FuncMap{
		"join":           strings.Join,
		"highlight":      Highlight,
		"listingExcerpt": func(s string) string { return excerpt(s, listingExcerptLength) },
		"relatedExcerpt": func(s string) string { return excerpt(s, relatedExcerptLength) },
		"tagSlugs":       func(p db.Post) string { return strings.Join(p.TagSlugs, ",") },
		"card": func(author config.Author, post db.Post, query string, listing bool) cardData {
			return cardData{Author: author, Post: post, Query: query, Listing: listing}
		},
		"breadcrumb": func(s config.Site, title string, canonical string) any {
			return breadcrumb(s, title, canonical)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Renderer{site: site, author: author, templates: templates}, nil
}

func (r *Renderer) RenderPost(w io.Writer, page PostPage) error {
	return r.templates.ExecuteTemplate(w, "post.html", pageData{Site: r.site, Author: r.author, Page: page})
}

// RenderListing writes the blog listing page with one card per post and a
// filter link per category, both in index order.
func (r *Renderer) RenderListing(w io.Writer, posts []db.Post) error {
	page := listingPage{Posts: posts, Categories: categories(posts)}
	return r.templates.ExecuteTemplate(w, "listing.html", pageData{Site: r.site, Author: r.author, Page: page})
}

// RenderCards renders result cards. With a non-empty query, matching terms in
// titles and excerpts are wrapped in <mark>.
func (r *Renderer) RenderCards(posts []db.Post, query string) (string, error) {
	return r.fragment("cards", cardsData{Author: r.author, Posts: posts, Query: query})
}

func (r *Renderer) RenderNoResults(query string) (string, error) {
	return r.fragment("no-results", query)
}

func (r *Renderer) RenderRelated(posts []db.Post) (string, error) {
	return r.fragment("related", posts)
}

func (r *Renderer) fragment(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Highlight escapes text and wraps every case-insensitive occurrence of a
// query term of at least two characters in <mark>.
func Highlight(text string, query string) template.HTML {
	var terms []string
	for _, term := range strings.Fields(strings.ToLower(query)) {
		if utf8.RuneCountInString(term) >= minHighlightLength {
			terms = append(terms, regexp.QuoteMeta(term))
		}
	}
	if len(terms) == 0 {
		return template.HTML(template.HTMLEscapeString(text))
	}

	// Longer terms first so that the longest match wins.
	sort.SliceStable(terms, func(i, j int) bool { return len(terms[i]) > len(terms[j]) })
	pattern := regexp.MustCompile("(?i)" + strings.Join(terms, "|"))

	var out strings.Builder
	last := 0
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		out.WriteString(template.HTMLEscapeString(text[last:loc[0]]))
		out.WriteString("<mark>")
		out.WriteString(template.HTMLEscapeString(text[loc[0]:loc[1]]))
		out.WriteString("</mark>")
		last = loc[1]
	}
	out.WriteString(template.HTMLEscapeString(text[last:]))

	return template.HTML(out.String())
}

func excerpt(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text + "..."
	}
	return string([]rune(text)[:n]) + "..."
}

func categories(posts []db.Post) []db.Term {
	seen := map[string]struct{}{}
	var terms []db.Term
	for _, post := range posts {
		if _, ok := seen[post.CategorySlug]; ok {
			continue
		}
		seen[post.CategorySlug] = struct{}{}
		terms = append(terms, db.Term{Name: post.Category, Slug: post.CategorySlug})
	}
	return terms
}

type breadcrumbItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

type breadcrumbList struct {
	Context string           `json:"@context"`
	Type    string           `json:"@type"`
	Items   []breadcrumbItem `json:"itemListElement"`
}

func breadcrumb(s config.Site, title string, canonical string) breadcrumbList {
	return breadcrumbList{
		Context: "https://schema.org",
		Type:    "BreadcrumbList",
		Items: []breadcrumbItem{
			{Type: "ListItem", Position: 1, Name: "Home", Item: s.URL},
			{Type: "ListItem", Position: 2, Name: "Blog", Item: s.URL + "/" + ListingFileName},
			{Type: "ListItem", Position: 3, Name: title, Item: canonical},
		},
	}
}
