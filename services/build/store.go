package build

import (
	"context"

	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/wordpress"
)

// StateStore keeps build progress and the asset cache between runs.
type StateStore interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
}

// Indexer is the full-text index fed at the end of every build.
type Indexer interface {
	BuildIndex(documents []searchdb.Document) error
	DeleteDocuments(documentIDs []string) error
}

type PostSource interface {
	FetchPosts(ctx context.Context) ([]wordpress.Post, error)
	HasYoast(ctx context.Context) bool
}
