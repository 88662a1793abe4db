package jukebox

import (
	"fmt"

	"github.com/cpressland/playlist/errors"
)

// FormatDuration renders a duration in seconds as minutes:seconds.
func FormatDuration(seconds int) string {
	minutes := seconds / 60
	return fmt.Sprintf("%d:%02d", minutes, seconds-minutes*60)
}

// CheckDuration enforces the maximum video duration. Pure policy, no I/O.
func CheckDuration(duration, max int) error {
	const op = "jukebox.CheckDuration"

	if duration > max {
		return errors.InvalidInput(op, nil, fmt.Sprintf(
			"Video is too long at %ds (%s). Maximum duration is %ds (%s).",
			duration, FormatDuration(duration),
			max, FormatDuration(max),
		))
	}

	return nil
}
