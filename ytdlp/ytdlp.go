package ytdlp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"

	"github.com/cpressland/playlist/errors"
	"github.com/cpressland/playlist/models"
	"github.com/sirupsen/logrus"
)

// Client shells out to yt-dlp for metadata extraction and for
// download+transcode. Both calls treat the tool as a black box: the only
// contract is its JSON output and the audio file it leaves at the output
// template.
type Client struct {
	path   string
	logger *logrus.Logger
}

func NewClient(path string) *Client {
	if path == "" {
		path = "yt-dlp"
	}
	return &Client{
		path:   path,
		logger: logrus.StandardLogger(),
	}
}

// extractInfo mirrors the subset of yt-dlp's -J output this service reads.
// A search yields a playlist wrapper with entries; a direct URL yields a
// single object.
type extractInfo struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	AltTitle    string        `json:"alt_title"`
	Artist      string        `json:"artist"`
	Creator     string        `json:"creator"`
	Track       string        `json:"track"`
	Uploader    string        `json:"uploader"`
	Description string        `json:"description"`
	WebpageURL  string        `json:"webpage_url"`
	ViewCount   int64         `json:"view_count"`
	Duration    float64       `json:"duration"`
	Entries     []extractInfo `json:"entries"`
}

// Resolve looks up a search term or direct video reference and returns the
// first result's metadata. Read-only; callers bound it with a context
// timeout.
func (c *Client) Resolve(ctx context.Context, term string) (models.TrackMetadata, error) {
	const op = "ytdlp.Client.Resolve"
	logger := c.logger.WithFields(logrus.Fields{
		"operation": op,
		"term":      term,
	})

	args := []string{
		"-J",
		"--no-playlist",
		"--no-warnings",
		"--default-search", "ytsearch",
		term,
	}

	output, err := c.run(ctx, args)
	if err != nil {
		logger.WithError(err).Error("Metadata extraction failed")
		return models.TrackMetadata{}, errors.Unavailable(op, err, "Video lookup failed")
	}

	var info extractInfo
	if err := json.Unmarshal(output, &info); err != nil {
		logger.WithError(err).Error("Failed to parse extraction output")
		return models.TrackMetadata{}, errors.Unavailable(op, err, "Video lookup failed")
	}

	if len(info.Entries) > 0 {
		info = info.Entries[0]
	}
	if info.ID == "" {
		logger.Info("No results for term")
		// The lookup contract surfaces "nothing found" as a 400 with
		// this exact reason string.
		return models.TrackMetadata{}, errors.E(
			op, nil,
			fmt.Sprintf("Nothing found for search term '%s", term),
			http.StatusBadRequest,
		)
	}

	logger.WithFields(logrus.Fields{
		"id":       info.ID,
		"title":    info.Title,
		"duration": int(info.Duration),
	}).Info("Resolved track metadata")

	return models.TrackMetadata{
		ID:          info.ID,
		Title:       info.Title,
		AltTitle:    info.AltTitle,
		Artist:      info.Artist,
		Creator:     info.Creator,
		Track:       info.Track,
		Uploader:    info.Uploader,
		Description: info.Description,
		SourceURL:   info.WebpageURL,
		ViewCount:   info.ViewCount,
		Duration:    int(info.Duration),
	}, nil
}

// Download fetches sourceURL and extracts an opus audio file. The output
// template is extension-less; yt-dlp's post-processor writes the payload
// at template+".opus".
func (c *Client) Download(ctx context.Context, sourceURL, outputTemplate string) error {
	const op = "ytdlp.Client.Download"
	logger := c.logger.WithFields(logrus.Fields{
		"operation": op,
		"url":       sourceURL,
	})

	args := []string{
		"--no-playlist",
		"--no-warnings",
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", "opus",
		"-o", outputTemplate + ".%(ext)s",
		sourceURL,
	}

	logger.Info("Starting download")
	if _, err := c.run(ctx, args); err != nil {
		logger.WithError(err).Error("Download failed")
		return errors.Unavailable(op, err, "Audio download failed")
	}

	logger.Info("Download completed")
	return nil
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp: %v (stderr: %s)", err, stderr.String())
	}

	return stdout.Bytes(), nil
}
