package build

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/meghashyamc/wpstatic/db/kvdb"
	"github.com/meghashyamc/wpstatic/logger"
)

const maxBuildTime = 30 * time.Minute

var ErrBuildInProgress = errors.New("build already in progress")

// Runner runs one build. *Builder is the production implementation.
type Runner interface {
	Run(ctx context.Context, requestID string) (*Result, error)
}

// CompletionHook is called after every successful build.
type CompletionHook func(ctx context.Context, result *Result)

type Service struct {
	logger logger.Logger
	runner Runner
	store  StateStore
	buildC chan buildRequest
	// running is set from the moment a request is accepted until its build returns.
	running atomic.Bool

	mu    sync.RWMutex
	hooks []CompletionHook
}

type buildRequest struct {
	requestID string
}

// New starts the build loop; it stops when ctx is cancelled.
func New(ctx context.Context, logger logger.Logger, runner Runner, store StateStore) *Service {
	buildService := &Service{
		logger: logger,
		runner: runner,
		store:  store,
		buildC: make(chan buildRequest, 1),
	}

	go buildService.loop(ctx)
	return buildService
}

// OnComplete registers a hook run after each successful build.
func (s *Service) OnComplete(hook CompletionHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Build hands the request to the build loop. Only one build runs at a time:
// while one is running, further requests fail with ErrBuildInProgress.
func (s *Service) Build(requestID string) error {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("request to build while a build is already in progress", "request_id", requestID)
		return ErrBuildInProgress
	}

	s.setRequestStatus(requestID, ProgressStatusStarted)
	s.buildC <- buildRequest{requestID: requestID}
	return nil
}

// GetStatus returns the progress of a build in percent, or ProgressStatusFailed.
func (s *Service) GetStatus(requestID string) (int, error) {
	value, err := s.store.Get(kvdb.RequestsBucket, requestID)
	if err != nil {
		return 0, fmt.Errorf("request not found: %w", err)
	}

	status, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid status value: %w", err)
	}

	return status, nil
}

func (s *Service) loop(ctx context.Context) {
	for {
		select {
		case req := <-s.buildC:
			s.run(ctx, req)
			s.running.Store(false)
		case <-ctx.Done():
			s.logger.Info("build service stopped", "reason", ctx.Err())
			return
		}
	}
}

func (s *Service) run(ctx context.Context, req buildRequest) {
	buildCtx, cancel := context.WithTimeout(ctx, maxBuildTime)
	defer cancel()

	result, err := s.runner.Run(buildCtx, req.requestID)
	if err != nil {
		// The runner has already logged and recorded the failure.
		return
	}

	s.mu.RLock()
	hooks := append([]CompletionHook(nil), s.hooks...)
	s.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, result)
	}
}

func (s *Service) setRequestStatus(requestID string, status int) {
	if err := s.store.Set(kvdb.RequestsBucket, requestID, strconv.Itoa(status)); err != nil {
		s.logger.Error("failed to update request status", "request_id", requestID, "progress", status, "err", err.Error())
	}
}
