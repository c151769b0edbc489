// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package store

import (
	"errors"
	"fmt"

	"github.com/tomtom215/shelfwise/internal/models"
)

// Storage errors. Each wraps the matching taxonomy error so that
// errors.Is(err, models.ErrNotFound) also holds for ErrNotFound.
var (
	ErrNotFound    = fmt.Errorf("store: record %w", models.ErrNotFound)
	ErrDuplicate   = fmt.Errorf("store: duplicate key: %w", models.ErrAlreadyExists)
	ErrConflict    = fmt.Errorf("store: transaction conflict: %w", models.ErrTransient)
	ErrUnavailable = fmt.Errorf("store: unavailable: %w", models.ErrTransient)
	ErrClosed      = errors.New("store: closed")
)

// IsRetryable reports whether re-running the transaction may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrUnavailable)
}
