package searchdb

// Document is a post as stored in the full-text index. Unlike the JSON search
// index it carries the whole plain-text body rather than a preview.
type Document struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Excerpt      string   `json:"excerpt"`
	Content      string   `json:"content"`
	Category     string   `json:"category"`
	CategorySlug string   `json:"category_slug"`
	Tags         []string `json:"tags"`
	URL          string   `json:"url"`
	Date         string   `json:"date"`
}

type Result struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Category string  `json:"category"`
	Date     string  `json:"date"`
	Score    float64 `json:"score"`
	Snippet  string  `json:"snippet"`
}

type Response struct {
	Results    []Result `json:"results"`
	Total      uint64   `json:"total"`
	MaxScore   float64  `json:"max_score"`
	SearchTime string   `json:"search_time"`
}
