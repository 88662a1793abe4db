package queue

import (
	"sync"
	"time"

	"github.com/cpressland/playlist/models"
)

// Queue is the strict-FIFO playback queue. A single mutex linearizes
// concurrent enqueues and pops; order is the acquisition order of that
// lock.
type Queue struct {
	mu    sync.Mutex
	items []models.QueueItem
}

func New() *Queue {
	return &Queue{}
}

// Enqueue appends a track to the tail and returns the created item.
func (q *Queue) Enqueue(meta models.TrackMetadata) models.QueueItem {
	item := models.QueueItem{
		ID:         meta.ID,
		Metadata:   meta,
		EnqueuedAt: time.Now(),
	}

	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()

	return item
}

// Next removes and returns the head of the queue.
func (q *Queue) Next() (models.QueueItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return models.QueueItem{}, false
	}

	item := q.items[0]
	q.items = q.items[1:]
	return item, true
}

// Items returns a snapshot of the queue in playback order.
func (q *Queue) Items() []models.QueueItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]models.QueueItem, len(q.items))
	copy(items, q.items)
	return items
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
