package validation

import (
	"strings"
	"unicode"

	"github.com/cpressland/playlist/config"
	"github.com/cpressland/playlist/errors"
)

const (
	maxSearchTermLength = 200
	maxVideoIDLength    = 64
)

type Validator struct {
	cfg *config.Config
}

func NewValidator(cfg *config.Config) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) ValidateSearchTerm(term string) error {
	const op = "Validator.ValidateSearchTerm"

	term = strings.TrimSpace(term)
	if term == "" {
		return errors.InvalidInput(op, nil, "Search term is required")
	}
	if len(term) > maxSearchTermLength {
		return errors.InvalidInput(op, nil, "Search term is too long")
	}
	for _, r := range term {
		if unicode.IsControl(r) {
			return errors.InvalidInput(op, nil, "Search term contains invalid characters")
		}
	}

	return nil
}

func (v *Validator) ValidateVideoID(id string) error {
	const op = "Validator.ValidateVideoID"

	if id == "" {
		return errors.InvalidInput(op, nil, "Video ID is required")
	}
	if len(id) > maxVideoIDLength {
		return errors.InvalidInput(op, nil, "Video ID is too long")
	}
	if !isVideoID(id) {
		return errors.InvalidInput(op, nil, "Video ID contains invalid characters")
	}

	return nil
}

// isVideoID reports whether s uses only the URL-safe id alphabet. Cache
// filenames are derived from the id, so anything else is rejected before
// it can reach the filesystem.
func isVideoID(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
