package build

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/wordpress"
)

const contentPreviewLength = 500

const (
	metaDescriptionLength   = 160
	socialDescriptionLength = 200
)

// PostFileName is the page generated for the n-th post of a build.
func PostFileName(n int) string {
	return fmt.Sprintf("blog-post-%d.html", n)
}

// categoryInfo returns the primary category and every category of the post,
// falling back to the configured default when WordPress has none.
func (b *Builder) categoryInfo(post wordpress.Post) (db.Term, []db.Term) {
	if len(post.Categories) == 0 {
		fallback := db.Term{Name: b.opts.DefaultCategory.Name, Slug: b.opts.DefaultCategory.Slug}
		return fallback, []db.Term{fallback}
	}

	all := make([]db.Term, 0, len(post.Categories))
	for _, category := range post.Categories {
		all = append(all, db.Term{Name: category.Name, Slug: category.Slug})
	}
	return all[0], all
}

func tagsOf(post wordpress.Post) []db.Term {
	tags := make([]db.Term, 0, len(post.Tags))
	for _, tag := range post.Tags {
		tags = append(tags, db.Term{Name: tag.Name, Slug: tag.Slug})
	}
	return tags
}

// BuildIndex derives one index record per post. Records get ids 1..N in
// source order; images[i] belongs to posts[i] and may be nil.
func (b *Builder) BuildIndex(posts []wordpress.Post, images []*db.Image) []db.Post {
	records := make([]db.Post, 0, len(posts))
	for i, post := range posts {
		var image *db.Image
		if i < len(images) {
			image = images[i]
		}
		records = append(records, b.indexRecord(i+1, post, image))
	}
	return records
}

func (b *Builder) indexRecord(n int, post wordpress.Post, image *db.Image) db.Post {
	title := StripHTML(post.Title)
	content := StripHTML(post.Content)
	category, _ := b.categoryInfo(post)
	tags := tagsOf(post)

	record := db.Post{
		ID:            n,
		Title:         title,
		Excerpt:       StripHTML(post.Excerpt),
		Content:       truncate(content, contentPreviewLength),
		URL:           PostFileName(n),
		Date:          post.Date,
		FormattedDate: FormatDate(post.Date),
		Category:      category.Name,
		CategorySlug:  category.Slug,
		Tags:          make([]string, 0, len(tags)),
		TagSlugs:      make([]string, 0, len(tags)),
		Keywords:      ExtractKeywords(title, content, category.Name, b.opts.KeywordLimit),
		ReadingTime:   CalculateReadingTime(post.Content),
	}
	for _, tag := range tags {
		record.Tags = append(record.Tags, tag.Name)
		record.TagSlugs = append(record.TagSlugs, tag.Slug)
	}
	if image != nil {
		local := image.Local
		record.Image = &local
	}

	return record
}

func (b *Builder) postURL(n int) string {
	return b.opts.Site.URL + "/" + PostFileName(n)
}

func (b *Builder) defaultImageURL() string {
	return b.opts.Site.URL + "/" + defaultImagePath
}

// seoFor prefers the values set through Yoast and derives the rest from the post.
func (b *Builder) seoFor(post wordpress.Post, image *db.Image, postURL string) db.SEO {
	title := StripHTML(post.Title)
	excerpt := StripHTML(post.Excerpt)
	category, _ := b.categoryInfo(post)

	var yoast wordpress.YoastSEO
	if post.Yoast != nil {
		yoast = *post.Yoast
	}

	imageURL := b.defaultImageURL()
	if image != nil {
		imageURL = image.Absolute
	}

	seo := db.SEO{
		Title:              firstNonEmpty(yoast.Title, title+" - "+b.opts.Author.Name),
		MetaDescription:    firstNonEmpty(yoast.Description, truncate(excerpt, metaDescriptionLength)),
		Keywords:           yoast.Keywords,
		OGTitle:            firstNonEmpty(yoast.Title, title),
		OGDescription:      firstNonEmpty(yoast.Description, truncate(excerpt, socialDescriptionLength)),
		OGImage:            imageURL,
		OGURL:              postURL,
		TwitterTitle:       firstNonEmpty(yoast.Title, title),
		TwitterDescription: firstNonEmpty(yoast.Description, truncate(excerpt, socialDescriptionLength)),
		TwitterImage:       imageURL,
		CanonicalURL:       postURL,
	}
	if len(seo.Keywords) == 0 {
		seo.Keywords = ExtractKeywords(title, StripHTML(post.Content), category.Name, MetadataKeywordLimit)
	}

	return seo
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type schemaPerson struct {
	Type        string `json:"@type"`
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	Email       string `json:"email,omitempty"`
}

type schemaImageObject struct {
	Type string `json:"@type"`
	URL  string `json:"url"`
}

type schemaOrganization struct {
	Type string            `json:"@type"`
	Name string            `json:"name"`
	URL  string            `json:"url"`
	Logo schemaImageObject `json:"logo"`
}

type schemaWebPage struct {
	Type string `json:"@type"`
	ID   string `json:"@id"`
}

// blogPosting is the schema.org JSON-LD embedded in every post page.
type blogPosting struct {
	Context          string             `json:"@context"`
	Type             string             `json:"@type"`
	Headline         string             `json:"headline"`
	Description      string             `json:"description"`
	Image            string             `json:"image"`
	DatePublished    string             `json:"datePublished"`
	DateModified     string             `json:"dateModified"`
	Author           schemaPerson       `json:"author"`
	Publisher        schemaOrganization `json:"publisher"`
	MainEntityOfPage schemaWebPage      `json:"mainEntityOfPage"`
	ArticleSection   string             `json:"articleSection"`
	Keywords         string             `json:"keywords"`
	WordCount        int                `json:"wordCount"`
	InLanguage       string             `json:"inLanguage"`
}

func (b *Builder) structuredData(post wordpress.Post, image *db.Image, postURL string, category db.Term) blogPosting {
	title := StripHTML(post.Title)
	content := StripHTML(post.Content)

	imageURL := b.defaultImageURL()
	if image != nil {
		imageURL = image.Absolute
	}

	return blogPosting{
		Context:       "https://schema.org",
		Type:          "BlogPosting",
		Headline:      title,
		Description:   StripHTML(post.Excerpt),
		Image:         imageURL,
		DatePublished: formatISODate(post.Date),
		DateModified:  formatISODate(post.Modified),
		Author: schemaPerson{
			Type:        "Person",
			Name:        b.opts.Author.Name,
			URL:         b.opts.Author.URL,
			Description: b.opts.Author.Description,
			Email:       b.opts.Author.Email,
		},
		Publisher: schemaOrganization{
			Type: "Organization",
			Name: b.opts.Site.Name,
			URL:  b.opts.Site.URL,
			Logo: schemaImageObject{Type: "ImageObject", URL: b.opts.Site.URL + "/assets/images/logo.png"},
		},
		MainEntityOfPage: schemaWebPage{Type: "WebPage", ID: postURL},
		ArticleSection:   category.Name,
		Keywords:         strings.Join(ExtractKeywords(title, content, category.Name, MetadataKeywordLimit), ", "),
		WordCount:        len(strings.Fields(content)),
		InLanguage:       "en-US",
	}
}

func (b *Builder) metadataRecord(n int, post wordpress.Post, image *db.Image, seo db.SEO) db.PostMetadata {
	title := StripHTML(post.Title)
	category, all := b.categoryInfo(post)

	metadata := db.PostMetadata{
		ID:            post.ID,
		Title:         title,
		Slug:          post.Slug,
		Date:          post.Date,
		Modified:      post.Modified,
		FormattedDate: FormatDate(post.Date),
		Category:      category.Name,
		CategorySlug:  category.Slug,
		AllCategories: all,
		Tags:          tagsOf(post),
		Excerpt:       StripHTML(post.Excerpt),
		Filename:      PostFileName(n),
		URL:           b.postURL(n),
		WordPressURL:  post.Link,
		ReadingTime:   CalculateReadingTime(post.Content),
		SEO:           seo,
		Keywords:      ExtractKeywords(title, StripHTML(post.Content), category.Name, MetadataKeywordLimit),
	}
	if image != nil {
		local, alt := image.Local, image.Alt
		metadata.ImagePath = &local
		metadata.ImageAlt = &alt
	}

	return metadata
}

// searchDocument is the full-text form of a record; unlike the JSON index it
// carries the whole body.
func searchDocument(record db.Post, post wordpress.Post) searchdb.Document {
	return searchdb.Document{
		ID:           strconv.Itoa(record.ID),
		Title:        record.Title,
		Excerpt:      record.Excerpt,
		Content:      StripHTML(post.Content),
		Category:     record.Category,
		CategorySlug: record.CategorySlug,
		Tags:         record.Tags,
		URL:          record.URL,
		Date:         record.Date,
	}
}
