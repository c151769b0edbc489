// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import "errors"

// Error taxonomy shared by every core operation. Callers match with
// errors.Is; operations wrap these with context via %w.
var (
	// ErrInvalidOperation is a caller bug such as self-follow or self-block.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrBlocked is a policy denial caused by a block in either direction.
	ErrBlocked = errors.New("blocked")

	// ErrAlreadyExists reports a duplicate follow edge or handle.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound reports a missing profile, edge, block or notification.
	ErrNotFound = errors.New("not found")

	// ErrTransient reports a store conflict or outage. Safe to retry.
	ErrTransient = errors.New("transient failure")
)

// ErrorKind is the taxonomy bucket of an error.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindInvalidOperation ErrorKind = "invalid_operation"
	KindBlocked          ErrorKind = "blocked"
	KindAlreadyExists    ErrorKind = "already_exists"
	KindNotFound         ErrorKind = "not_found"
	KindTransient        ErrorKind = "transient"
	KindInternal         ErrorKind = "internal"
)

// KindOf classifies err. Unclassified non-nil errors are KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrInvalidOperation):
		return KindInvalidOperation
	case errors.Is(err, ErrBlocked):
		return KindBlocked
	case errors.Is(err, ErrAlreadyExists):
		return KindAlreadyExists
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindInternal
	}
}
