package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meghashyamc/wpstatic/config"
	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/db/kvdb"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/site"
	"github.com/meghashyamc/wpstatic/wordpress"
)

const (
	ProgressStatusStarted      = 0
	ProgressStatusFetched      = 10
	ProgressStatusPagesWritten = 80
	ProgressStatusIndexWritten = 90
	ProgressStatusComplete     = 100
	ProgressStatusFailed       = -1
)

type Options struct {
	OutputDir       string
	ImagesDir       string
	Site            config.Site
	Author          config.Author
	DefaultCategory config.Category
	KeywordLimit    int
	// Limit caps the number of posts processed; 0 means no cap.
	Limit           int
	DownloadTimeout time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		OutputDir:       cfg.GetOutputDir(),
		ImagesDir:       cfg.GetImagesDir(),
		Site:            cfg.GetSite(),
		Author:          cfg.GetAuthor(),
		DefaultCategory: cfg.GetDefaultCategory(),
		KeywordLimit:    cfg.GetKeywordLimit(),
		DownloadTimeout: cfg.GetFetchTimeout(),
	}
}

// Result summarises a finished build.
type Result struct {
	RequestID    string
	Posts        int
	Images       int
	OutputDir    string
	IndexPath    string
	MetadataPath string
}

type Builder struct {
	logger     logger.Logger
	source     PostSource
	store      StateStore
	indexer    Indexer
	renderer   *site.Renderer
	downloader *Downloader
	opts       Options
}

// NewBuilder wires a build pipeline. indexer may be nil, in which case the
// full-text index is left untouched.
func NewBuilder(logger logger.Logger, source PostSource, store StateStore, indexer Indexer, renderer *site.Renderer, opts Options) *Builder {
	if opts.KeywordLimit <= 0 {
		opts.KeywordLimit = IndexKeywordLimit
	}
	if opts.ImagesDir == "" {
		opts.ImagesDir = "assets/images/blog"
	}

	return &Builder{
		logger:     logger,
		source:     source,
		store:      store,
		indexer:    indexer,
		renderer:   renderer,
		downloader: NewDownloader(logger, opts.DownloadTimeout),
		opts:       opts,
	}
}

// Run fetches every post and regenerates the site. Posts are handled one at a
// time in source order. A failed fetch or write aborts the run; a failed image
// download only leaves that post without an image.
func (b *Builder) Run(ctx context.Context, requestID string) (*Result, error) {
	b.setRequestStatus(requestID, ProgressStatusStarted)

	result, err := b.run(ctx, requestID)
	if err != nil {
		b.logger.Error("build failed", "request_id", requestID, "err", err.Error())
		b.setRequestStatus(requestID, ProgressStatusFailed)
		return nil, err
	}

	b.setRequestStatus(requestID, ProgressStatusComplete)
	b.logger.Info("build complete", "request_id", requestID, "posts", result.Posts, "images", result.Images, "output_dir", result.OutputDir)
	return result, nil
}

func (b *Builder) run(ctx context.Context, requestID string) (*Result, error) {
	posts, err := b.source.FetchPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	if b.opts.Limit > 0 && len(posts) > b.opts.Limit {
		b.logger.Info("limiting posts", "fetched", len(posts), "limit", b.opts.Limit)
		posts = posts[:b.opts.Limit]
	}
	b.logger.Info("fetched posts", "request_id", requestID, "count", len(posts))

	if b.source.HasYoast(ctx) {
		b.logger.Info("yoast seo plugin detected")
	} else {
		b.logger.Info("yoast seo plugin not detected, using derived meta tags")
	}
	b.setRequestStatus(requestID, ProgressStatusFetched)

	// Post pages are staged and only moved into the output directory once
	// every page has rendered, so an aborted run leaves the previous site whole.
	if err := os.MkdirAll(b.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	stagingDir, err := os.MkdirTemp(b.opts.OutputDir, ".staging-")
	if err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(stagingDir); err != nil {
			b.logger.Warn("could not remove staging directory", "path", stagingDir, "err", err.Error())
		}
	}()

	images := make([]*db.Image, len(posts))
	metadata := make([]db.PostMetadata, 0, len(posts))
	imageCount := 0

	for i, post := range posts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("build cancelled: %w", err)
		}

		n := i + 1
		b.logger.Info("processing post", "number", n, "post_id", post.ID)

		images[i] = b.processFeaturedImage(ctx, post)
		if images[i] != nil {
			imageCount++
		}

		seo := b.seoFor(post, images[i], b.postURL(n))
		if err := b.writePostPage(stagingDir, n, post, images[i], seo); err != nil {
			return nil, err
		}
		metadata = append(metadata, b.metadataRecord(n, post, images[i], seo))

		b.setRequestStatus(requestID, getProgressPercentage(n, len(posts), ProgressStatusFetched, ProgressStatusPagesWritten))
	}

	if err := b.publishPages(stagingDir, len(posts)); err != nil {
		return nil, err
	}

	records := b.BuildIndex(posts, images)

	indexPath := filepath.Join(b.opts.OutputDir, db.IndexFileName)
	if err := db.WriteIndex(indexPath, records); err != nil {
		return nil, fmt.Errorf("write search index: %w", err)
	}
	metadataPath := filepath.Join(b.opts.OutputDir, db.MetadataFileName)
	if err := db.WriteMetadata(metadataPath, metadata); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}
	if err := b.writeListingPage(records); err != nil {
		return nil, err
	}
	b.setRequestStatus(requestID, ProgressStatusIndexWritten)

	if err := b.updateFullTextIndex(records, posts); err != nil {
		return nil, err
	}
	b.setMeta(kvdb.KeyLastBuildID, requestID)
	b.setMeta(kvdb.KeyLastBuildCount, strconv.Itoa(len(records)))

	return &Result{
		RequestID:    requestID,
		Posts:        len(records),
		Images:       imageCount,
		OutputDir:    b.opts.OutputDir,
		IndexPath:    indexPath,
		MetadataPath: metadataPath,
	}, nil
}

func (b *Builder) writePostPage(dir string, n int, post wordpress.Post, image *db.Image, seo db.SEO) error {
	category, _ := b.categoryInfo(post)

	page := site.PostPage{
		Number:         n,
		Title:          StripHTML(post.Title),
		Excerpt:        StripHTML(post.Excerpt),
		Content:        template.HTML(ConvertContent(post.Content)),
		Published:      formatISODate(post.Date),
		Modified:       formatISODate(post.Modified),
		FormattedDate:  FormatDate(post.Date),
		Category:       category,
		Tags:           tagsOf(post),
		ReadingTime:    CalculateReadingTime(post.Content),
		Image:          image,
		SEO:            seo,
		StructuredData: b.structuredData(post, image, b.postURL(n), category),
	}

	var buf bytes.Buffer
	if err := b.renderer.RenderPost(&buf, page); err != nil {
		return fmt.Errorf("render %s: %w", PostFileName(n), err)
	}
	if err := db.WriteFileAtomic(filepath.Join(dir, PostFileName(n)), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", PostFileName(n), err)
	}
	return nil
}

// publishPages moves the staged post pages into the output directory.
func (b *Builder) publishPages(stagingDir string, count int) error {
	for n := 1; n <= count; n++ {
		name := PostFileName(n)
		if err := os.Rename(filepath.Join(stagingDir, name), filepath.Join(b.opts.OutputDir, name)); err != nil {
			return fmt.Errorf("publish %s: %w", name, err)
		}
	}
	return nil
}

func (b *Builder) writeListingPage(records []db.Post) error {
	var buf bytes.Buffer
	if err := b.renderer.RenderListing(&buf, records); err != nil {
		return fmt.Errorf("render %s: %w", site.ListingFileName, err)
	}
	if err := db.WriteFileAtomic(filepath.Join(b.opts.OutputDir, site.ListingFileName), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", site.ListingFileName, err)
	}
	return nil
}

// updateFullTextIndex replaces the documents of the previous build. Ids are
// 1..N, so anything above the new count is left over from a larger build.
func (b *Builder) updateFullTextIndex(records []db.Post, posts []wordpress.Post) error {
	if b.indexer == nil {
		return nil
	}

	documents := make([]searchdb.Document, 0, len(records))
	for i, record := range records {
		documents = append(documents, searchDocument(record, posts[i]))
	}
	if err := b.indexer.BuildIndex(documents); err != nil {
		return fmt.Errorf("update full-text index: %w", err)
	}

	previousCount := b.previousBuildCount()
	if previousCount <= len(records) {
		return nil
	}

	stale := make([]string, 0, previousCount-len(records))
	for id := len(records) + 1; id <= previousCount; id++ {
		stale = append(stale, strconv.Itoa(id))
	}
	b.logger.Info("removing stale documents from full-text index", "count", len(stale))
	if err := b.indexer.DeleteDocuments(stale); err != nil {
		return fmt.Errorf("remove stale documents: %w", err)
	}
	return nil
}

func (b *Builder) previousBuildCount() int {
	value, err := b.store.Get(kvdb.MetaBucket, kvdb.KeyLastBuildCount)
	if err != nil {
		if !errors.Is(err, kvdb.ErrNotFound) {
			b.logger.Error("failed to read previous build count", "err", err.Error())
		}
		return 0
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		b.logger.Error("invalid previous build count", "value", value, "err", err.Error())
		return 0
	}
	return count
}

func (b *Builder) setMeta(key string, value string) {
	if err := b.store.Set(kvdb.MetaBucket, key, value); err != nil {
		b.logger.Error("failed to update build metadata", "key", key, "err", err.Error())
	}
}

func (b *Builder) setRequestStatus(requestID string, status int) {
	if requestID == "" {
		return
	}
	if err := b.store.Set(kvdb.RequestsBucket, requestID, strconv.Itoa(status)); err != nil {
		b.logger.Error("failed to update request status", "request_id", requestID, "progress", status, "err", err.Error())
	}
}

func getProgressPercentage(done int, total int, initial int, final int) int {
	if done == 0 || total == 0 {
		return initial
	}

	if done >= total {
		return final
	}

	progress := float64(done) / float64(total)
	result := float64(initial) + progress*float64(final-initial)

	return int(result)
}
