package wordpress

import (
	"encoding/json"
	"strings"
)

type Post struct {
	ID       int
	Slug     string
	Link     string
	Date     string
	Modified string
	// Title, Excerpt and Content are rendered HTML exactly as WordPress returns them.
	Title         string
	Excerpt       string
	Content       string
	FeaturedImage *Media
	Categories    []Term
	Tags          []Term
	Yoast         *YoastSEO
}

type Media struct {
	SourceURL string
	AltText   string
	Width     int
	Height    int
}

type Term struct {
	Name string
	Slug string
}

// YoastSEO holds the values the Yoast plugin exposes; empty fields mean the
// plugin did not set them.
type YoastSEO struct {
	Title       string
	Description string
	Keywords    []string
}

// apiPost is the raw post object returned by /wp-json/wp/v2/posts?_embed.
type apiPost struct {
	ID            int           `json:"id"`
	Date          string        `json:"date"`
	Modified      string        `json:"modified"`
	Slug          string        `json:"slug"`
	Link          string        `json:"link"`
	Title         apiRendered   `json:"title"`
	Excerpt       apiRendered   `json:"excerpt"`
	Content       apiRendered   `json:"content"`
	Embedded      *apiEmbedded  `json:"_embedded"`
	YoastHeadJSON *apiYoastHead `json:"yoast_head_json"`
	YoastMeta     *apiYoastMeta `json:"yoast_meta"`
}

type apiRendered struct {
	Rendered string `json:"rendered"`
}

type apiEmbedded struct {
	FeaturedMedia []apiMedia  `json:"wp:featuredmedia"`
	Terms         [][]apiTerm `json:"wp:term"`
}

type apiMedia struct {
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text"`
	// WordPress sends an empty array instead of an object when it has no details.
	MediaDetails json.RawMessage `json:"media_details"`
}

type apiMediaDetails struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type apiTerm struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}

type apiYoastHead struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Keywords    keywordList `json:"keywords"`
}

type apiYoastMeta struct {
	Title       string `json:"yoast_wpseo_title"`
	Description string `json:"yoast_wpseo_metadesc"`
	FocusKW     string `json:"yoast_wpseo_focuskw"`
}

// keywordList accepts either a JSON array of strings or a comma separated string.
type keywordList []string

func (k *keywordList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*k = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*k = splitKeywords(joined)
	return nil
}

func splitKeywords(joined string) []string {
	var keywords []string
	for _, keyword := range strings.Split(joined, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}
	return keywords
}
