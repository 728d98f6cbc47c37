package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/site"
)

// ErrStaleLoad is returned by a load that finished after a newer one started.
var ErrStaleLoad = errors.New("index load superseded by a newer load")

// View is what a search widget shows. Every render replaces it entirely.
type View struct {
	Query string
	// Filter labels an active category or tag filter, e.g. "Tag: Remote Work".
	Filter  string
	Posts   []db.Post
	Message string
	HTML    string
}

// Controller holds the state of one search widget: the loaded index, the
// current view and the pending debounced search.
type Controller struct {
	logger         logger.Logger
	renderer       *site.Renderer
	debouncer      *Debouncer
	minQueryLength int

	mu         sync.Mutex
	engine     *Engine
	view       View
	generation uint64
	closed     bool
	onRender   func(View)
}

func NewController(logger logger.Logger, renderer *site.Renderer, debounce time.Duration, minQueryLength int) *Controller {
	return &Controller{
		logger:         logger,
		renderer:       renderer,
		debouncer:      NewDebouncer(debounce),
		minQueryLength: minQueryLength,
	}
}

// OnRender registers fn to receive a copy of every new view.
func (c *Controller) OnRender(fn func(View)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRender = fn
}

// Load reads the index from source and shows every post. Only the most
// recently started load may install its index; an older one that finishes
// later gets ErrStaleLoad. A failed load disables search without touching
// the current view.
func (c *Controller) Load(ctx context.Context, source db.IndexSource) error {
	c.mu.Lock()
	c.generation++
	generation := c.generation
	c.mu.Unlock()

	posts, err := source.Load(ctx)

	c.mu.Lock()
	if generation != c.generation || c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding stale index load", "source", source.String())
		return ErrStaleLoad
	}
	if err != nil {
		c.engine = nil
		c.mu.Unlock()
		c.logger.Warn("could not load search index, search disabled", "source", source.String(), "err", err.Error())
		return err
	}

	c.engine = NewEngine(posts, WithMinQueryLength(c.minQueryLength))
	c.logger.Info("search index loaded", "source", source.String(), "posts", len(posts))
	view := c.setView(View{Posts: c.engine.All()})
	c.mu.Unlock()

	c.notify(view)
	return nil
}

// Enabled reports whether an index is loaded.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine != nil
}

func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyView(c.view)
}

// Input schedules a search for query; a later Input replaces it.
func (c *Controller) Input(query string) {
	c.debouncer.Schedule(func() {
		c.Search(query)
	})
}

// Search evaluates query right away. Queries that are too short leave the
// view as it is.
func (c *Controller) Search(query string) {
	c.update(func(engine *Engine) (View, bool) {
		outcome := engine.Query(query)
		if !outcome.Applied {
			return View{}, false
		}
		return View{Query: outcome.Query, Posts: outcome.Posts, Message: outcome.Message}, true
	})
}

// Flush runs a pending Input right away.
func (c *Controller) Flush() {
	c.debouncer.Flush()
}

// Clear drops any pending search and shows every post.
func (c *Controller) Clear() {
	c.debouncer.Cancel()
	c.ShowAll()
}

func (c *Controller) ShowAll() {
	c.update(func(engine *Engine) (View, bool) {
		return View{Posts: engine.All()}, true
	})
}

func (c *Controller) FilterByCategory(slug string) {
	c.update(func(engine *Engine) (View, bool) {
		posts := engine.FilterByCategory(slug)
		label := "Category: " + slug
		return View{Filter: label, Posts: posts, Message: ResultsMessage(len(posts), label)}, true
	})
}

func (c *Controller) FilterByTag(slug string) {
	c.update(func(engine *Engine) (View, bool) {
		posts, name := engine.FilterByTag(slug)
		label := "Tag: " + name
		return View{Filter: label, Posts: posts, Message: ResultsMessage(len(posts), label)}, true
	})
}

// Post looks a post up by its index id.
func (c *Controller) Post(id int) (db.Post, bool) {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()

	if engine == nil {
		return db.Post{}, false
	}
	return engine.Post(id)
}

// Related renders the related posts of the post with the given id. It does
// not change the view.
func (c *Controller) Related(id int, categorySlug string, limit int) ([]db.Post, string, error) {
	c.mu.Lock()
	engine := c.engine
	c.mu.Unlock()

	if engine == nil {
		return nil, "", ErrIndexUnavailable
	}

	posts := engine.Related(id, categorySlug, limit)
	html, err := c.renderer.RenderRelated(posts)
	if err != nil {
		return nil, "", err
	}
	return posts, html, nil
}

// Close cancels any pending search and drops the index.
func (c *Controller) Close() {
	c.debouncer.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.engine = nil
	c.onRender = nil
}

func (c *Controller) update(next func(*Engine) (View, bool)) {
	c.mu.Lock()
	if c.engine == nil || c.closed {
		c.mu.Unlock()
		return
	}
	view, ok := next(c.engine)
	if !ok {
		c.mu.Unlock()
		return
	}
	view = c.setView(view)
	c.mu.Unlock()

	c.notify(view)
}

// setView renders view and installs it. c.mu must be held.
func (c *Controller) setView(view View) View {
	var (
		html string
		err  error
	)
	if len(view.Posts) == 0 && view.Message != "" {
		label := view.Query
		if label == "" {
			label = view.Filter
		}
		html, err = c.renderer.RenderNoResults(label)
	} else {
		html, err = c.renderer.RenderCards(view.Posts, view.Query)
	}
	if err != nil {
		c.logger.Error("could not render results", "err", err.Error())
	}
	view.HTML = html

	c.view = view
	return copyView(view)
}

func (c *Controller) notify(view View) {
	c.mu.Lock()
	onRender := c.onRender
	c.mu.Unlock()

	if onRender != nil {
		onRender(view)
	}
}

func copyView(view View) View {
	view.Posts = append([]db.Post(nil), view.Posts...)
	return view
}

