package repository

import (
	"context"

	"github.com/cpressland/playlist/models"
)

// TrackRepository is the resolved-metadata catalog. Lookup writes through;
// enqueue reads it first and only re-resolves on a miss.
type TrackRepository interface {
	Save(ctx context.Context, track *models.TrackMetadata) error
	Find(ctx context.Context, id string) (*models.TrackMetadata, error)
}
