package models

// VideoInfo is the lookup response payload describing one video.
type VideoInfo struct {
	AltTitle    string `json:"alt_title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Creator     string `json:"creator,omitempty"`
	Description string `json:"description,omitempty"`
	Title       string `json:"title"`
	Track       string `json:"track,omitempty"`
	Uploader    string `json:"uploader,omitempty"`
	WebpageURL  string `json:"webpage_url"`
	ViewCount   int64  `json:"view_count"`
	Duration    int    `json:"duration"`
}

// NewVideoInfo creates a response payload from track metadata.
func NewVideoInfo(m *TrackMetadata) *VideoInfo {
	return &VideoInfo{
		AltTitle:    m.AltTitle,
		Artist:      m.Artist,
		Creator:     m.Creator,
		Description: m.Description,
		Title:       m.Title,
		Track:       m.Track,
		Uploader:    m.Uploader,
		WebpageURL:  m.SourceURL,
		ViewCount:   m.ViewCount,
		Duration:    m.Duration,
	}
}
