package sqlite

import (
	"context"
	"database/sql"
	"time"

	apperrors "github.com/cpressland/playlist/errors"
	"github.com/cpressland/playlist/models"
	"github.com/pkg/errors"
)

const (
	insertTrack = `
		INSERT OR REPLACE INTO tracks (
			id, title, alt_title, artist, creator, track, uploader,
			description, source_url, view_count, duration, resolved_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	findTrack = `
		SELECT id, title, alt_title, artist, creator, track, uploader,
		       description, source_url, view_count, duration
		FROM tracks WHERE id = ?`
)

type Repository struct {
	db     *sql.DB
	insert *sql.Stmt
	find   *sql.Stmt
}

func NewRepository(db *sql.DB) (*Repository, error) {
	insert, err := db.Prepare(insertTrack)
	if err != nil {
		return nil, errors.Wrap(err, "prepare insert statement")
	}

	find, err := db.Prepare(findTrack)
	if err != nil {
		insert.Close()
		return nil, errors.Wrap(err, "prepare find statement")
	}

	return &Repository{db: db, insert: insert, find: find}, nil
}

func (r *Repository) Save(ctx context.Context, track *models.TrackMetadata) error {
	const op = "SQLiteRepository.Save"

	_, err := r.insert.ExecContext(ctx,
		track.ID,
		track.Title,
		track.AltTitle,
		track.Artist,
		track.Creator,
		track.Track,
		track.Uploader,
		track.Description,
		track.SourceURL,
		track.ViewCount,
		track.Duration,
		time.Now().UTC(),
	)
	if err != nil {
		return apperrors.Internal(op, errors.Wrap(err, "insert track"), "Failed to save track")
	}

	return nil
}

func (r *Repository) Find(ctx context.Context, id string) (*models.TrackMetadata, error) {
	const op = "SQLiteRepository.Find"

	var track models.TrackMetadata
	err := r.find.QueryRowContext(ctx, id).Scan(
		&track.ID,
		&track.Title,
		&track.AltTitle,
		&track.Artist,
		&track.Creator,
		&track.Track,
		&track.Uploader,
		&track.Description,
		&track.SourceURL,
		&track.ViewCount,
		&track.Duration,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(op, err, "Track not found")
	}
	if err != nil {
		return nil, apperrors.Internal(op, errors.Wrap(err, "query track"), "Failed to load track")
	}

	return &track, nil
}

func (r *Repository) Close() error {
	r.insert.Close()
	r.find.Close()
	return nil
}
