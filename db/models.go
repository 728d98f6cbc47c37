package db

// Post is one record of the search index. Field names match the index file
// consumed by the blog pages, so they are camelCase rather than snake_case.
type Post struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Excerpt       string   `json:"excerpt"`
	Content       string   `json:"content"`
	URL           string   `json:"url"`
	Date          string   `json:"date"`
	FormattedDate string   `json:"formattedDate"`
	Category      string   `json:"category"`
	CategorySlug  string   `json:"categorySlug"`
	Tags          []string `json:"tags"`
	TagSlugs      []string `json:"tagSlugs"`
	Keywords      []string `json:"keywords"`
	Image         *string  `json:"image"`
	ReadingTime   int      `json:"readingTime"`
}

// HasTag reports whether slug is one of the post's tag slugs.
func (p Post) HasTag(slug string) bool {
	for _, tagSlug := range p.TagSlugs {
		if tagSlug == slug {
			return true
		}
	}
	return false
}

type Term struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type SEO struct {
	Title              string   `json:"title"`
	MetaDescription    string   `json:"metaDescription"`
	Keywords           []string `json:"keywords"`
	OGTitle            string   `json:"ogTitle"`
	OGDescription      string   `json:"ogDescription"`
	OGImage            string   `json:"ogImage"`
	OGURL              string   `json:"ogUrl"`
	TwitterTitle       string   `json:"twitterTitle"`
	TwitterDescription string   `json:"twitterDescription"`
	TwitterImage       string   `json:"twitterImage"`
	CanonicalURL       string   `json:"canonicalUrl"`
}

// PostMetadata is the superset of Post written next to the search index.
// ID here is the source WordPress id, not the index id.
type PostMetadata struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Slug          string   `json:"slug"`
	Date          string   `json:"date"`
	Modified      string   `json:"modified"`
	FormattedDate string   `json:"formattedDate"`
	Category      string   `json:"category"`
	CategorySlug  string   `json:"categorySlug"`
	AllCategories []Term   `json:"allCategories"`
	Tags          []Term   `json:"tags"`
	Excerpt       string   `json:"excerpt"`
	ImagePath     *string  `json:"imagePath"`
	ImageAlt      *string  `json:"imageAlt"`
	Filename      string   `json:"filename"`
	URL           string   `json:"url"`
	WordPressURL  string   `json:"wordpressUrl"`
	ReadingTime   int      `json:"readingTime"`
	SEO           SEO      `json:"seo"`
	Keywords      []string `json:"keywords"`
}

// Image is a featured image stored with the generated site.
type Image struct {
	// Local is relative to the output directory, with forward slashes.
	Local    string `json:"local"`
	Absolute string `json:"absolute"`
	Alt      string `json:"alt"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}
