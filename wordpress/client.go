package wordpress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meghashyamc/wpstatic/logger"
)

const (
	postsPath = "/wp-json/wp/v2/posts"
	yoastPath = "/wp-json/yoast/v1/get_head"

	headerTotalPages = "X-WP-TotalPages"
	maxErrorBody     = 512
)

// StatusError is returned when WordPress answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

type Client struct {
	baseURL    string
	perPage    int
	maxPages   int
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(logger logger.Logger, baseURL string, perPage int, maxPages int, timeout time.Duration) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		perPage:  perPage,
		maxPages: max(1, maxPages),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchPosts fetches up to maxPages pages of posts with embedded media and terms.
// Any failure aborts the whole fetch.
func (c *Client) FetchPosts(ctx context.Context) ([]Post, error) {
	var all []Post

	for page := 1; page <= c.maxPages; page++ {
		endpoint := c.postsURL(c.perPage, page, true)
		c.logger.Info("fetching posts", "page", page, "url", endpoint)

		var raw []apiPost
		header, err := c.getJSON(ctx, endpoint, &raw)
		if err != nil {
			return nil, fmt.Errorf("fetch posts page %d: %w", page, err)
		}

		for _, ap := range raw {
			all = append(all, convertPost(ap))
		}
		c.logger.Info("fetched posts", "page", page, "count", len(raw), "total", len(all))

		if len(raw) < c.perPage {
			break
		}
		if totalPages, err := strconv.Atoi(header.Get(headerTotalPages)); err == nil && page >= totalPages {
			break
		}
	}

	return all, nil
}

// CheckConnection asks for a single post to confirm the REST API is reachable.
func (c *Client) CheckConnection(ctx context.Context) error {
	var raw []json.RawMessage
	if _, err := c.getJSON(ctx, c.postsURL(1, 1, false), &raw); err != nil {
		return fmt.Errorf("check connection: %w", err)
	}
	return nil
}

// HasYoast probes the Yoast SEO head endpoint. Posts carry Yoast values either
// way; this only tells the operator whether to expect them.
func (c *Client) HasYoast(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s%s?url=%s", c.baseURL, yoastPath, url.QueryEscape(c.baseURL))
	var ignored json.RawMessage
	if _, err := c.getJSON(ctx, endpoint, &ignored); err != nil {
		c.logger.Debug("yoast probe failed", "err", err.Error())
		return false
	}
	return true
}

func (c *Client) postsURL(perPage int, page int, embed bool) string {
	query := url.Values{}
	query.Set("per_page", strconv.Itoa(perPage))
	query.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, postsPath, query.Encode())
	if embed {
		endpoint += "&_embed"
	}
	return endpoint
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) (http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{URL: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return resp.Header, nil
}

func convertPost(ap apiPost) Post {
	p := Post{
		ID:       ap.ID,
		Slug:     ap.Slug,
		Link:     ap.Link,
		Date:     ap.Date,
		Modified: ap.Modified,
		Title:    ap.Title.Rendered,
		Excerpt:  ap.Excerpt.Rendered,
		Content:  ap.Content.Rendered,
	}

	if ap.Embedded != nil {
		if len(ap.Embedded.FeaturedMedia) > 0 && ap.Embedded.FeaturedMedia[0].SourceURL != "" {
			p.FeaturedImage = convertMedia(ap.Embedded.FeaturedMedia[0])
		}
		p.Categories, p.Tags = convertTerms(ap.Embedded.Terms)
	}

	p.Yoast = convertYoast(ap.YoastHeadJSON, ap.YoastMeta)

	return p
}

func convertMedia(am apiMedia) *Media {
	media := &Media{
		SourceURL: am.SourceURL,
		AltText:   am.AltText,
	}

	var details apiMediaDetails
	if len(am.MediaDetails) > 0 && json.Unmarshal(am.MediaDetails, &details) == nil {
		media.Width = details.Width
		media.Height = details.Height
	}

	return media
}

// convertTerms splits the embedded term groups into categories and tags. Groups
// are identified by taxonomy when WordPress reports it, otherwise by position.
func convertTerms(groups [][]apiTerm) ([]Term, []Term) {
	var categories, tags []Term

	for i, group := range groups {
		for _, at := range group {
			term := Term{Name: at.Name, Slug: at.Slug}
			switch {
			case at.Taxonomy == "category", at.Taxonomy == "" && i == 0:
				categories = append(categories, term)
			case at.Taxonomy == "post_tag", at.Taxonomy == "" && i == 1:
				tags = append(tags, term)
			}
		}
	}

	return categories, tags
}

func convertYoast(head *apiYoastHead, meta *apiYoastMeta) *YoastSEO {
	seo := &YoastSEO{}
	if head != nil {
		seo.Title = head.Title
		seo.Description = head.Description
		seo.Keywords = head.Keywords
	}
	if meta != nil {
		if seo.Title == "" {
			seo.Title = meta.Title
		}
		if seo.Description == "" {
			seo.Description = meta.Description
		}
		if len(seo.Keywords) == 0 {
			seo.Keywords = splitKeywords(meta.FocusKW)
		}
	}

	if seo.Title == "" && seo.Description == "" && len(seo.Keywords) == 0 {
		return nil
	}
	return seo
}
