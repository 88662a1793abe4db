package fetch

import (
	"context"
	"sync"

	"github.com/cpressland/playlist/cache"
	"github.com/cpressland/playlist/errors"
	"github.com/cpressland/playlist/models"
	"github.com/sirupsen/logrus"
)

// Downloader produces a finished audio payload at outputTemplate+ext.
// Production shells out to yt-dlp; tests substitute fakes.
type Downloader interface {
	Download(ctx context.Context, sourceURL, outputTemplate string) error
}

// call is one in-flight fetch. The owner closes done after recording err;
// waiters block on done without holding any write handle of their own.
type call struct {
	done chan struct{}
	err  error
}

// Coordinator guarantees at most one in-flight download per video id and
// bounds the total number of concurrent downloads. The in-flight registry
// uses register-if-absent under a single mutex, so two callers can never
// both observe "not fetching" and both start downloads.
type Coordinator struct {
	store  *cache.Store
	dl     Downloader
	slots  chan struct{}
	logger *logrus.Logger

	mu       sync.Mutex
	inflight map[string]*call
	failed   map[string]error
}

func NewCoordinator(store *cache.Store, dl Downloader, maxConcurrent int) *Coordinator {
	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	return &Coordinator{
		store:    store,
		dl:       dl,
		slots:    make(chan struct{}, maxConcurrent),
		logger:   logrus.StandardLogger(),
		inflight: make(map[string]*call),
		failed:   make(map[string]error),
	}
}

// EnsureFetched returns once the audio for id is committed to the cache
// store, joining an in-flight fetch for the same id when one exists.
// Failures are broadcast to every waiter and are not retried; a later call
// for the same id starts a fresh fetch. Cancelling a waiter never cancels
// the underlying fetch.
func (c *Coordinator) EnsureFetched(ctx context.Context, id, sourceURL string) error {
	if c.store.Has(id) {
		return nil
	}

	c.mu.Lock()
	if existing, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		select {
		case <-existing.done:
			return existing.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	cl := &call{done: make(chan struct{})}
	c.inflight[id] = cl
	delete(c.failed, id)
	c.mu.Unlock()

	cl.err = c.fetch(ctx, id, sourceURL)

	c.mu.Lock()
	delete(c.inflight, id)
	if cl.err != nil {
		c.failed[id] = cl.err
	}
	c.mu.Unlock()

	close(cl.done)
	return cl.err
}

// State reports the cache lifecycle state for id.
func (c *Coordinator) State(id string) models.FetchState {
	c.mu.Lock()
	_, fetching := c.inflight[id]
	_, failed := c.failed[id]
	c.mu.Unlock()

	switch {
	case fetching:
		return models.FetchInProgress
	case c.store.Has(id):
		return models.FetchReady
	case failed:
		return models.FetchFailed
	default:
		return models.FetchAbsent
	}
}

func (c *Coordinator) fetch(ctx context.Context, id, sourceURL string) error {
	const op = "fetch.Coordinator.fetch"
	logger := c.logger.WithFields(logrus.Fields{
		"operation": op,
		"id":        id,
	})

	// Acquire a download slot before touching the filesystem or the
	// external tool. Cancellation here leaves no state behind.
	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		logger.WithError(ctx.Err()).Info("Cancelled while waiting for download slot")
		return ctx.Err()
	}
	defer func() { <-c.slots }()

	// A fetch registered between our Has check and registration may have
	// completed already.
	if c.store.Has(id) {
		return nil
	}

	handle, err := c.store.BeginWrite(id)
	if err != nil {
		return err
	}

	if err := c.dl.Download(ctx, sourceURL, handle.OutputTemplate()); err != nil {
		handle.Abort()
		logger.WithError(err).Error("Download failed")
		return err
	}

	if err := handle.Commit(); err != nil {
		handle.Abort()
		logger.WithError(err).Error("Failed to publish downloaded audio")
		return errors.Internal(op, err, "Failed to publish audio file")
	}

	logger.Info("Audio committed to cache")
	return nil
}
