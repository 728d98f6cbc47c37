package db

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const (
	IndexFileName    = "blog-search-index.json"
	MetadataFileName = "blog-metadata.json"
)

// IndexSource is where a search index is loaded from: a file written by the
// builder or the same file served over HTTP.
type IndexSource interface {
	Load(ctx context.Context) ([]Post, error)
	String() string
}

type FileSource struct {
	Path string
}

func (f FileSource) Load(ctx context.Context) ([]Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadIndex(f.Path)
}

func (f FileSource) String() string {
	return f.Path
}

type HTTPSource struct {
	URL    string
	Client *http.Client
}

func (h HTTPSource) Load(ctx context.Context) ([]Post, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build index request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch index: HTTP %d", resp.StatusCode)
	}

	return decodeIndex(resp.Body)
}

func (h HTTPSource) String() string {
	return h.URL
}

// NewSource picks an HTTP source for http(s) locations and a file source otherwise.
func NewSource(location string) IndexSource {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return HTTPSource{URL: location}
	}
	return FileSource{Path: location}
}

func ReadIndex(path string) ([]Post, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer file.Close()

	return decodeIndex(file)
}

func decodeIndex(r io.Reader) ([]Post, error) {
	var posts []Post
	if err := json.NewDecoder(r).Decode(&posts); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	return posts, nil
}

func WriteIndex(path string, posts []Post) error {
	if posts == nil {
		posts = []Post{}
	}
	return WriteJSONFileAtomic(path, posts)
}

func ReadMetadata(path string) ([]PostMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}

	var metadata []PostMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return metadata, nil
}

func WriteMetadata(path string, metadata []PostMetadata) error {
	if metadata == nil {
		metadata = []PostMetadata{}
	}
	return WriteJSONFileAtomic(path, metadata)
}

// WriteJSONFileAtomic writes indented JSON so that readers never see a partial file.
func WriteJSONFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if err := WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}

func WriteFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp_"+filepath.Base(path)+"_*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
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

	return os.Rename(tmpName, path)
}
