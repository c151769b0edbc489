// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package models

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	handlePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)
)

// ValidateUserID checks the stable user id format. Ids become part of
// storage keys, so separators are not allowed.
func ValidateUserID(id string) error {
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("%w: malformed user id %q", ErrInvalidOperation, id)
	}
	return nil
}

// NormalizeHandle trims a leading '@' and whitespace and lowercases.
// Handle uniqueness is enforced on this form.
func NormalizeHandle(handle string) string {
	h := strings.TrimSpace(handle)
	h = strings.TrimPrefix(h, "@")
	return strings.ToLower(h)
}

// ValidateHandle checks the normalized handle.
func ValidateHandle(handle string) error {
	if !handlePattern.MatchString(NormalizeHandle(handle)) {
		return fmt.Errorf("%w: handle must be 3-30 characters of a-z, 0-9, '_' or '.'", ErrInvalidOperation)
	}
	return nil
}
