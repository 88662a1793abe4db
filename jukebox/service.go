package jukebox

import (
	"context"
	"time"

	"github.com/cpressland/playlist/cache"
	"github.com/cpressland/playlist/errors"
	"github.com/cpressland/playlist/models"
	"github.com/cpressland/playlist/queue"
	"github.com/cpressland/playlist/repository"
	"github.com/cpressland/playlist/validation"
	"github.com/sirupsen/logrus"
)

// Resolver looks up a search term or video reference with the external
// extraction tool. Read-only; no side effects.
type Resolver interface {
	Resolve(ctx context.Context, term string) (models.TrackMetadata, error)
}

// Fetcher ensures the audio for a video id is committed to the cache.
type Fetcher interface {
	EnsureFetched(ctx context.Context, id, sourceURL string) error
}

// Archiver mirrors committed audio to long-term storage. Optional.
type Archiver interface {
	ArchiveAudio(ctx context.Context, id, filePath string) error
}

type Config struct {
	MaxDuration     time.Duration
	LookupTimeout   time.Duration
	DownloadTimeout time.Duration
}

// Service wires the resolver, duration policy, fetch coordinator, cache
// store, track catalog, and playback queue behind the API layer.
type Service struct {
	repo      repository.TrackRepository
	resolver  Resolver
	fetcher   Fetcher
	store     *cache.Store
	queue     *queue.Queue
	archiver  Archiver
	validator *validation.Validator
	config    Config
	logger    *logrus.Logger
}

func NewService(
	repo repository.TrackRepository,
	resolver Resolver,
	fetcher Fetcher,
	store *cache.Store,
	q *queue.Queue,
	archiver Archiver,
	validator *validation.Validator,
	config Config,
) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		fetcher:   fetcher,
		store:     store,
		queue:     q,
		archiver:  archiver,
		validator: validator,
		config:    config,
		logger:    logrus.StandardLogger(),
	}
}

// MaxDurationSeconds returns the duration cap in whole seconds.
func (s *Service) MaxDurationSeconds() int {
	return int(s.config.MaxDuration.Seconds())
}

// CheckDuration applies the duration policy to a resolved track.
func (s *Service) CheckDuration(seconds int) error {
	return CheckDuration(seconds, s.MaxDurationSeconds())
}

// Lookup resolves a search term and records the result in the track
// catalog. The duration policy is not applied here; lookup reports
// oversized videos to the caller rather than hiding them.
func (s *Service) Lookup(ctx context.Context, term string) (*models.TrackMetadata, error) {
	const op = "JukeboxService.Lookup"
	logger := s.logger.WithFields(logrus.Fields{
		"operation": op,
		"term":      term,
	})

	if err := s.validator.ValidateSearchTerm(term); err != nil {
		logger.WithError(err).Info("Search term validation failed")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.LookupTimeout)
	defer cancel()

	meta, err := s.resolver.Resolve(ctx, term)
	if err != nil {
		return nil, err
	}

	// Catalog write is best effort: the lookup result stands on its own.
	if err := s.repo.Save(ctx, &meta); err != nil {
		logger.WithError(err).Warn("Failed to save track to catalog")
	}

	return &meta, nil
}

// Enqueue fetches the audio for a video id (sharing any in-flight fetch)
// and appends the track to the playback queue. Already-cached tracks skip
// the external tool entirely.
func (s *Service) Enqueue(ctx context.Context, id string) (*models.QueueItem, error) {
	const op = "JukeboxService.Enqueue"
	logger := s.logger.WithFields(logrus.Fields{
		"operation": op,
		"id":        id,
	})

	if err := s.validator.ValidateVideoID(id); err != nil {
		logger.WithError(err).Info("Video ID validation failed")
		return nil, err
	}

	meta, err := s.resolveForEnqueue(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.CheckDuration(meta.Duration); err != nil {
		logger.WithField("duration", meta.Duration).Info("Duration policy rejected track")
		return nil, err
	}

	wasCached := s.store.Has(meta.ID)

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.DownloadTimeout)
	defer cancel()
	if err := s.fetcher.EnsureFetched(fetchCtx, meta.ID, sourceURL(meta)); err != nil {
		return nil, err
	}

	if !wasCached && s.archiver != nil {
		go s.archive(meta.ID)
	}

	item := s.queue.Enqueue(*meta)
	logger.WithFields(logrus.Fields{
		"title":        meta.Title,
		"queue_length": s.queue.Len(),
	}).Info("Track enqueued")

	return &item, nil
}

// QueueItems returns the playback queue in order.
func (s *Service) QueueItems() []models.QueueItem {
	return s.queue.Items()
}

// NextTrack pops the head of the playback queue.
func (s *Service) NextTrack() (models.QueueItem, bool) {
	return s.queue.Next()
}

// resolveForEnqueue reads the catalog first and only calls the external
// tool on a miss, unlike the original flow which re-extracted metadata on
// every enqueue.
func (s *Service) resolveForEnqueue(ctx context.Context, id string) (*models.TrackMetadata, error) {
	meta, err := s.repo.Find(ctx, id)
	if err == nil {
		return meta, nil
	}
	if !errors.IsNotFound(err) {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.config.LookupTimeout)
	defer cancel()

	resolved, err := s.resolver.Resolve(lookupCtx, "https://youtu.be/"+id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, &resolved); err != nil {
		s.logger.WithError(err).Warn("Failed to save track to catalog")
	}

	return &resolved, nil
}

func (s *Service) archive(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := s.archiver.ArchiveAudio(ctx, id, s.store.Path(id)); err != nil {
		s.logger.WithError(err).WithField("id", id).Warn("Failed to archive audio")
		return
	}
	s.logger.WithField("id", id).Info("Audio archived")
}

func sourceURL(meta *models.TrackMetadata) string {
	if meta.SourceURL != "" {
		return meta.SourceURL
	}
	return "https://youtu.be/" + meta.ID
}
