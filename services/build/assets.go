package build

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/db/kvdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/wordpress"
)

const (
	maxRedirects        = 10
	defaultImageExt     = ".jpg"
	defaultImageWidth   = 1200
	defaultImageHeight  = 630
	defaultImagePath    = "assets/images/default-blog.jpg"
	defaultDownloadTime = 60 * time.Second
)

var ErrTooManyRedirects = errors.New("too many redirects")

type Downloader struct {
	logger     logger.Logger
	httpClient *http.Client
}

func NewDownloader(logger logger.Logger, timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = defaultDownloadTime
	}
	return &Downloader{
		logger: logger,
		httpClient: &http.Client{
			Timeout: timeout,
			// Redirects are followed by hand so every hop is logged and bounded.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// DownloadAsset fetches sourceURL into dest. The body is written to a
// temporary file next to dest and renamed into place, so dest is either
// absent or complete. Any failure leaves no file behind.
func (d *Downloader) DownloadAsset(ctx context.Context, sourceURL string, dest string) error {
	return d.download(ctx, sourceURL, dest, 0)
}

func (d *Downloader) download(ctx context.Context, sourceURL string, dest string, hops int) error {
	if hops > maxRedirects {
		return fmt.Errorf("download %s: %w", sourceURL, ErrTooManyRedirects)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("download %s: %w", sourceURL, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", sourceURL, err)
	}

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		location := resp.Header.Get("Location")
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if location == "" {
			return fmt.Errorf("download %s: HTTP %d without Location header", sourceURL, resp.StatusCode)
		}
		target, err := resp.Request.URL.Parse(location)
		if err != nil {
			return fmt.Errorf("download %s: invalid redirect %q: %w", sourceURL, location, err)
		}
		d.logger.Debug("following redirect", "from", sourceURL, "to", target.String(), "status", resp.StatusCode)
		return d.download(ctx, target.String(), dest, hops+1)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download %s: HTTP %d", sourceURL, resp.StatusCode)
	}

	if err := writeStream(dest, resp.Body); err != nil {
		return fmt.Errorf("download %s: %w", sourceURL, err)
	}
	return nil
}

func writeStream(dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_"+filepath.Base(dest)+"_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	return os.Rename(tmpName, dest)
}

// processFeaturedImage stores the post's featured image under the images
// directory. It returns nil when the post has no image or the download fails;
// either way the build goes on.
func (b *Builder) processFeaturedImage(ctx context.Context, post wordpress.Post) *db.Image {
	if post.FeaturedImage == nil || post.FeaturedImage.SourceURL == "" {
		b.logger.Info("no featured image", "post_id", post.ID)
		return nil
	}
	media := post.FeaturedImage
	title := StripHTML(post.Title)

	filename := imageFileName(post, media.SourceURL)
	local := path.Join(b.opts.ImagesDir, filename)
	dest := filepath.Join(b.opts.OutputDir, filepath.FromSlash(local))

	if b.shouldDownload(media.SourceURL, local, dest) {
		if err := b.downloader.DownloadAsset(ctx, media.SourceURL, dest); err != nil {
			b.logger.Warn("could not download featured image", "post_id", post.ID, "url", media.SourceURL, "err", err.Error())
			return nil
		}
		b.setAssetMetadata(media.SourceURL, kvdb.AssetMetadata{
			LocalPath:    local,
			Width:        media.Width,
			Height:       media.Height,
			DownloadedAt: time.Now().UTC(),
		})
		b.logger.Info("downloaded featured image", "post_id", post.ID, "path", local)
	}

	image := &db.Image{
		Local:    local,
		Absolute: b.opts.Site.URL + "/" + local,
		Alt:      media.AltText,
		Width:    media.Width,
		Height:   media.Height,
	}
	if image.Alt == "" {
		image.Alt = title
	}
	if image.Width == 0 {
		image.Width = defaultImageWidth
	}
	if image.Height == 0 {
		image.Height = defaultImageHeight
	}

	return image
}

func imageFileName(post wordpress.Post, sourceURL string) string {
	ext := defaultImageExt
	if parsed, err := url.Parse(sourceURL); err == nil {
		if e := path.Ext(parsed.Path); e != "" {
			ext = e
		}
	}

	name := Slugify(StripHTML(post.Title))
	if name == "" {
		name = "post-" + strconv.Itoa(post.ID)
	}
	return name + ext
}

// shouldDownload skips images fetched by an earlier build that are still on disk.
func (b *Builder) shouldDownload(sourceURL string, local string, dest string) bool {
	value, err := b.store.Get(kvdb.AssetsBucket, sourceURL)
	if err != nil {
		var notFoundErr *kvdb.NotFoundError
		if !errors.As(err, &notFoundErr) {
			b.logger.Error("failed to get asset metadata", "url", sourceURL, "err", err.Error())
		}
		return true
	}

	var metadata kvdb.AssetMetadata
	if err := json.Unmarshal([]byte(value), &metadata); err != nil {
		b.logger.Error("failed to unmarshal asset metadata", "url", sourceURL, "err", err.Error())
		return true
	}

	if metadata.LocalPath != local {
		return true
	}
	if _, err := os.Stat(dest); err != nil {
		return true
	}

	b.logger.Debug("featured image already downloaded", "url", sourceURL, "path", local)
	return false
}

func (b *Builder) setAssetMetadata(sourceURL string, metadata kvdb.AssetMetadata) {
	data, err := json.Marshal(metadata)
	if err != nil {
		b.logger.Error("failed to marshal asset metadata", "url", sourceURL, "err", err.Error())
		return
	}
	if err := b.store.Set(kvdb.AssetsBucket, sourceURL, string(data)); err != nil {
		b.logger.Error("failed to set asset metadata", "url", sourceURL, "err", err.Error())
	}
}
