package fetch

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cpressland/playlist/cache"
	"github.com/cpressland/playlist/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDownloader stands in for yt-dlp. It writes a payload file the way
// the real tool does, and can be gated open to keep a download in flight.
type fakeDownloader struct {
	mu         sync.Mutex
	calls      map[string]int
	inFlight   int
	maxSeen    int
	gate       chan struct{}
	started    chan struct{}
	failOnce   bool
	failedOnce bool
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{calls: make(map[string]int)}
}

func (d *fakeDownloader) Download(ctx context.Context, sourceURL, outputTemplate string) error {
	d.mu.Lock()
	d.calls[sourceURL]++
	d.inFlight++
	if d.inFlight > d.maxSeen {
		d.maxSeen = d.inFlight
	}
	started := d.started
	gate := d.gate
	fail := d.failOnce && !d.failedOnce
	if fail {
		d.failedOnce = true
	}
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.inFlight--
		d.mu.Unlock()
	}()

	if started != nil {
		close(started)
		d.mu.Lock()
		d.started = nil
		d.mu.Unlock()
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if fail {
		return assert.AnError
	}

	return os.WriteFile(outputTemplate+".opus", []byte("audio"), 0644)
}

func (d *fakeDownloader) totalCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := 0
	for _, n := range d.calls {
		total += n
	}
	return total
}

func newTestCoordinator(t *testing.T, dl Downloader, maxConcurrent int) (*Coordinator, *cache.Store) {
	t.Helper()
	store, err := cache.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewCoordinator(store, dl, maxConcurrent), store
}

func TestEnsureFetchedDeduplicates(t *testing.T) {
	dl := newFakeDownloader()
	dl.gate = make(chan struct{})
	dl.started = make(chan struct{})
	c, store := newTestCoordinator(t, dl, 2)

	started := dl.started

	const callers = 8
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.EnsureFetched(context.Background(), "dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ")
		}()
	}

	<-started
	close(dl.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, dl.totalCalls(), "concurrent callers must share one download")
	assert.True(t, store.Has("dQw4w9WgXcQ"))
	assert.Equal(t, models.FetchReady, c.State("dQw4w9WgXcQ"))
}

func TestEnsureFetchedCachedShortCircuit(t *testing.T) {
	dl := newFakeDownloader()
	c, store := newTestCoordinator(t, dl, 2)

	handle, err := store.BeginWrite("cached")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(handle.PayloadPath(), []byte("audio"), 0644))
	require.NoError(t, handle.Commit())

	require.NoError(t, c.EnsureFetched(context.Background(), "cached", "https://youtu.be/cached"))
	assert.Equal(t, 0, dl.totalCalls(), "cached entries must not trigger external calls")
}

func TestEnsureFetchedFailureBroadcastAndRetry(t *testing.T) {
	dl := newFakeDownloader()
	dl.failOnce = true
	dl.gate = make(chan struct{})
	dl.started = make(chan struct{})
	c, store := newTestCoordinator(t, dl, 2)

	started := dl.started

	const callers = 4
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- c.EnsureFetched(context.Background(), "bad", "https://youtu.be/bad")
		}()
	}

	<-started
	close(dl.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.Error(t, err, "a failed fetch is broadcast to every waiter")
	}
	assert.False(t, store.Has("bad"))
	assert.Equal(t, models.FetchFailed, c.State("bad"))

	// An explicit retry starts a fresh fetch and succeeds.
	require.NoError(t, c.EnsureFetched(context.Background(), "bad", "https://youtu.be/bad"))
	assert.True(t, store.Has("bad"))
	assert.Equal(t, models.FetchReady, c.State("bad"))
}

func TestWaiterCancellationDoesNotCancelFetch(t *testing.T) {
	dl := newFakeDownloader()
	dl.gate = make(chan struct{})
	dl.started = make(chan struct{})
	c, store := newTestCoordinator(t, dl, 2)

	started := dl.started

	ownerDone := make(chan error, 1)
	go func() {
		ownerDone <- c.EnsureFetched(context.Background(), "vid", "https://youtu.be/vid")
	}()
	<-started

	waiterCtx, cancelWaiter := context.WithCancel(context.Background())
	waiterDone := make(chan error, 1)
	go func() {
		waiterDone <- c.EnsureFetched(waiterCtx, "vid", "https://youtu.be/vid")
	}()

	// Give the waiter time to join the in-flight call, then cancel it.
	time.Sleep(20 * time.Millisecond)
	cancelWaiter()

	select {
	case err := <-waiterDone:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled waiter did not return")
	}

	close(dl.gate)
	require.NoError(t, <-ownerDone)
	assert.True(t, store.Has("vid"))
	assert.Equal(t, 1, dl.totalCalls())
}

func TestConcurrencyBound(t *testing.T) {
	dl := newFakeDownloader()
	c, _ := newTestCoordinator(t, dl, 2)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		id := string(rune('a' + i))
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			assert.NoError(t, c.EnsureFetched(context.Background(), id, "https://youtu.be/"+id))
		}(id)
	}
	wg.Wait()

	dl.mu.Lock()
	maxSeen := dl.maxSeen
	dl.mu.Unlock()
	assert.LessOrEqual(t, maxSeen, 2, "global download bound exceeded")
	assert.Equal(t, 10, dl.totalCalls())
}

func TestSlotWaitCancellation(t *testing.T) {
	dl := newFakeDownloader()
	dl.gate = make(chan struct{})
	dl.started = make(chan struct{})
	c, store := newTestCoordinator(t, dl, 1)

	started := dl.started

	ownerDone := make(chan error, 1)
	go func() {
		ownerDone <- c.EnsureFetched(context.Background(), "busy", "https://youtu.be/busy")
	}()
	<-started

	// The only slot is held; a second id times out waiting for it without
	// any external work having started.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.EnsureFetched(ctx, "starved", "https://youtu.be/starved")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	dl.mu.Lock()
	starvedCalls := dl.calls["https://youtu.be/starved"]
	dl.mu.Unlock()
	assert.Zero(t, starvedCalls, "no external work may start for a cancelled slot wait")
	assert.False(t, store.Has("starved"))

	close(dl.gate)
	require.NoError(t, <-ownerDone)
}
