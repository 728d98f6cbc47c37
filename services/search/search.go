package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/logger"
)

var (
	ErrIndexUnavailable = errors.New("search index unavailable")
	ErrPostNotFound     = errors.New("post not found")
)

// FullTextSearcher runs ranked queries over whole post bodies.
type FullTextSearcher interface {
	Search(queryString string, limit int, offset int) (*searchdb.Response, error)
}

type Options struct {
	MinQueryLength int
	RelatedLimit   int
}

// Service answers queries for the HTTP API from the last index it loaded.
type Service struct {
	logger   logger.Logger
	source   db.IndexSource
	fulltext FullTextSearcher
	opts     Options

	mu         sync.RWMutex
	engine     *Engine
	generation atomic.Uint64
}

func New(logger logger.Logger, source db.IndexSource, fulltext FullTextSearcher, opts Options) *Service {
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = DefaultRelatedLimit
	}
	return &Service{
		logger:   logger,
		source:   source,
		fulltext: fulltext,
		opts:     opts,
	}
}

// Reload reads the index again. When two reloads overlap, the one started
// last wins and the other returns ErrStaleLoad. A failed reload keeps the
// previous index.
func (s *Service) Reload(ctx context.Context) error {
	generation := s.generation.Add(1)

	posts, err := s.source.Load(ctx)
	if err != nil {
		s.logger.Error("could not load search index", "source", s.source.String(), "err", err.Error())
		return fmt.Errorf("load search index: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation.Load() {
		s.logger.Debug("discarding stale index load", "source", s.source.String())
		return ErrStaleLoad
	}

	s.engine = NewEngine(posts, WithMinQueryLength(s.opts.MinQueryLength))
	s.logger.Info("search index loaded", "source", s.source.String(), "posts", len(posts))
	return nil
}

func (s *Service) getEngine() (*Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.engine == nil {
		return nil, ErrIndexUnavailable
	}
	return s.engine, nil
}

func (s *Service) Search(query string) (Outcome, error) {
	engine, err := s.getEngine()
	if err != nil {
		return Outcome{}, err
	}
	return engine.Query(query), nil
}

// Posts lists posts in index order, filtered by category or tag when given.
// The returned label names the filter for a results message.
func (s *Service) Posts(categorySlug string, tagSlug string) ([]db.Post, string, error) {
	engine, err := s.getEngine()
	if err != nil {
		return nil, "", err
	}

	switch {
	case categorySlug != "":
		return engine.FilterByCategory(categorySlug), "Category: " + categorySlug, nil
	case tagSlug != "":
		posts, name := engine.FilterByTag(tagSlug)
		return posts, "Tag: " + name, nil
	default:
		return engine.All(), "", nil
	}
}

// Related returns posts related to the post with the given index id.
func (s *Service) Related(id int, limit int) ([]db.Post, error) {
	engine, err := s.getEngine()
	if err != nil {
		return nil, err
	}

	post, ok := engine.Post(id)
	if !ok {
		return nil, ErrPostNotFound
	}
	if limit <= 0 {
		limit = s.opts.RelatedLimit
	}
	return engine.Related(post.ID, post.CategorySlug, limit), nil
}

func (s *Service) FullText(query string, perPage int, page int) (*searchdb.Response, error) {
	if s.fulltext == nil {
		return nil, ErrIndexUnavailable
	}
	return s.fulltext.Search(query, perPage, (page-1)*perPage)
}
