// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tomtom215/shelfwise/internal/logging"
	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

// closeQuietly closes a resource and explicitly ignores any error.
// Use this in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// closeWithLog closes a resource and logs any error.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

func rollbackQuietly(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Debug().Err(err).Msg("rollback failed")
	}
}

// mapError translates DuckDB errors into store sentinels. Errors that
// already carry a store or taxonomy sentinel pass through.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case models.KindOf(err) != models.KindInternal:
		return err
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case isConstraintViolation(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	case isTransactionConflict(err):
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	case isConnectionError(err):
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	default:
		return err
	}
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict
func isTransactionConflict(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "Conflict on tuple") ||
		strings.Contains(errStr, "write-write conflict") ||
		strings.Contains(errStr, "cannot update a table that has been altered")
}

// isConstraintViolation matches primary key and unique violations, both
// at statement time and when a racing insert is detected at commit.
func isConstraintViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "Duplicate key") ||
		strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "PRIMARY KEY or UNIQUE constraint violated")
}

// isConnectionError checks if an error indicates database connection loss
func isConnectionError(err error) bool {
	errMsg := err.Error()
	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "bad connection") ||
		strings.Contains(errMsg, "database is closed")
}
