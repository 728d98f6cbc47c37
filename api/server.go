package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/meghashyamc/wpstatic/config"
	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/db/kvdb"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/build"
	"github.com/meghashyamc/wpstatic/services/search"
	"github.com/meghashyamc/wpstatic/site"
	"github.com/meghashyamc/wpstatic/validation"
	"github.com/meghashyamc/wpstatic/wordpress"
)

type server struct {
	config       *config.Config
	router       *gin.Engine
	httpServer   *http.Server
	kvdb         kvdb.DB
	searchdb     searchdb.DB
	validator    *validation.Validator
	buildService *build.Service
	search       *search.Service
	logger       logger.Logger
}

func Run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt)

	defer cancel()

	s := &server{
		config: cfg,
		logger: logger.NewWithOptions(os.Stderr, cfg.GetLogLevel(), cfg.GetLogFormat()),
	}
	if err := s.setupDependencies(ctx); err != nil {
		return err
	}
	s.setupRouter()
	s.setupHTTPServer()
	s.setupGracefulShutdown(ctx)

	return nil
}

func (s *server) setupDependencies(ctx context.Context) error {
	var err error
	kvDB, err := kvdb.New(s.logger, s.config)
	if err != nil {
		s.logger.Error("error creating kvDB", "err", err.Error())
		return err
	}
	s.kvdb = kvDB

	searchDB, err := searchdb.New(s.logger, s.config)
	if err != nil {
		s.logger.Error("error creating searchDB", "err", err.Error())
		return err
	}
	s.searchdb = searchDB

	s.validator, err = validation.New(s.logger)
	if err != nil {
		s.logger.Error("error creating validator", "err", err.Error())
		return err
	}

	renderer, err := site.New(s.config.GetSite(), s.config.GetAuthor())
	if err != nil {
		s.logger.Error("error creating renderer", "err", err.Error())
		return err
	}

	client := wordpress.NewClient(s.logger, s.config.GetWordPressURL(), s.config.GetPostsPerPage(), s.config.GetMaxPages(), s.config.GetFetchTimeout())
	builder := build.NewBuilder(s.logger, client, kvDB, searchDB, renderer, build.OptionsFromConfig(s.config))

	s.search = search.New(s.logger, s.indexSource(), searchDB, search.Options{
		MinQueryLength: s.config.GetMinQueryLength(),
		RelatedLimit:   s.config.GetRelatedLimit(),
	})
	if err := s.search.Reload(ctx); err != nil {
		s.logger.Warn("search is unavailable until the first build completes", "err", err.Error())
	}

	s.buildService = build.New(ctx, s.logger, builder, kvDB)
	s.buildService.OnComplete(func(ctx context.Context, result *build.Result) {
		if err := s.search.Reload(ctx); err != nil {
			s.logger.Error("could not reload search index after build", "request_id", result.RequestID, "err", err.Error())
		}
	})

	return nil

}

// indexSource defaults to the index written into the output directory.
func (s *server) indexSource() db.IndexSource {
	if location := s.config.GetSearchIndexSource(); location != "" {
		return db.NewSource(location)
	}
	return db.FileSource{Path: filepath.Join(s.config.GetOutputDir(), db.IndexFileName)}
}

func (s *server) setupRouter() {
	router := newRouter()

	router.Use(loggingMiddleware(s.logger))

	setupRoutes(router, s.logger, s.config.GetOutputDir(), s.search, s.buildService, s.validator)

	s.router = router
}

func (s *server) setupHTTPServer() {

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", s.config.GetPort()),
		Handler: s.router.Handler(),
	}
	s.httpServer = httpServer
	go func() {
		s.logger.Info("starting http server", "addr", httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
}

func (s *server) setupGracefulShutdown(ctx context.Context) {

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		s.logger.Info("starting to shut down http server")
		shutdownCtx := context.Background()
		shutdownCtx, cancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error shutting down http server", "err", err)
		}
		if err := s.kvdb.Close(); err != nil {
			s.logger.Error("error closing kvDB", "err", err.Error())
		}
		if err := s.searchdb.Close(); err != nil {
			s.logger.Error("error closing searchDB", "err", err.Error())
		}
		s.logger.Info("shut down http server successfully")
	}()

	wg.Wait()
}
