package models

import (
	"time"
)

// FetchState tracks the lifecycle of a cache entry for one video id.
type FetchState string

const (
	FetchAbsent     FetchState = "absent"
	FetchInProgress FetchState = "in_progress"
	FetchReady      FetchState = "ready"
	FetchFailed     FetchState = "failed"
)

// TrackMetadata is the resolved description of one video. Immutable once
// resolved; the id is the key for all caching and de-duplication.
type TrackMetadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AltTitle    string `json:"alt_title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Track       string `json:"track,omitempty"`
	Uploader    string `json:"uploader,omitempty"`
	Description string `json:"description,omitempty"`
	SourceURL   string `json:"webpage_url"`
	ViewCount   int64  `json:"view_count,omitempty"`
	Duration    int    `json:"duration"`
}

// QueueItem is one entry in the playback queue.
type QueueItem struct {
	ID         string        `json:"id"`
	Metadata   TrackMetadata `json:"metadata"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}
