// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package badgerstore

import (
	"encoding/binary"
	"fmt"

	"github.com/tomtom215/shelfwise/internal/models"
)

// Key layout. User ids, handles and external ids never contain '/'.
//
//	p/{user}                      profile JSON (counters zeroed)
//	h/{handle}                    user id
//	c/{user}                      counter base (4 x int64)
//	cd/{user}/{uuid}              counter delta (4 x int64), folded into c/ by compaction
//	eo/{follower}/{following}     edge JSON, outgoing view
//	ei/{following}/{follower}     edge JSON, incoming view
//	b/{blocker}/{blocked}         block JSON
//	n/{recipient}/{uuidv7}        notification JSON
//	nu/{recipient}/{uuidv7}       unread marker
//	s/{user}                      search entry JSON
//	m/{owner}/{category}/{seq}    media item JSON, seq as 16 hex digits
//	mx/{owner}/{category}/{ext}   seq of an external id
const (
	prefixProfile      = "p/"
	prefixHandle       = "h/"
	prefixCounter      = "c/"
	prefixCounterDelta = "cd/"
	prefixEdgeOut      = "eo/"
	prefixEdgeIn       = "ei/"
	prefixBlock        = "b/"
	prefixNotification = "n/"
	prefixUnread       = "nu/"
	prefixSearch       = "s/"
	prefixMedia        = "m/"
	prefixMediaIndex   = "mx/"

	mediaSequenceKey = "seq/media"
)

func profileKey(id string) []byte { return []byte(prefixProfile + id) }

func handleKey(handle string) []byte { return []byte(prefixHandle + handle) }

func counterKey(id string) []byte { return []byte(prefixCounter + id) }

func counterDeltaPrefix(id string) []byte { return []byte(prefixCounterDelta + id + "/") }

func edgeOutKey(follower, following string) []byte {
	return []byte(prefixEdgeOut + follower + "/" + following)
}

func edgeInKey(following, follower string) []byte {
	return []byte(prefixEdgeIn + following + "/" + follower)
}

func blockKey(blocker, blocked string) []byte {
	return []byte(prefixBlock + blocker + "/" + blocked)
}

func notificationKey(recipient, id string) []byte {
	return []byte(prefixNotification + recipient + "/" + id)
}

func unreadKey(recipient, id string) []byte {
	return []byte(prefixUnread + recipient + "/" + id)
}

func searchKey(id string) []byte { return []byte(prefixSearch + id) }

func mediaPrefix(owner string, c models.Category) []byte {
	return []byte(prefixMedia + owner + "/" + string(c) + "/")
}

func mediaKey(owner string, c models.Category, seq uint64) []byte {
	return append(mediaPrefix(owner, c), []byte(fmt.Sprintf("%016x", seq))...)
}

func mediaIndexKey(owner string, c models.Category, externalID string) []byte {
	return []byte(prefixMediaIndex + owner + "/" + string(c) + "/" + externalID)
}

// seekPastPrefix returns a key that sorts after every key with prefix,
// used to start reverse iteration.
func seekPastPrefix(prefix []byte) []byte {
	return append(append([]byte{}, prefix...), 0xFF)
}

const counterWidth = 32

func encodeCounters(c models.Counters) []byte {
	buf := make([]byte, counterWidth)
	binary.BigEndian.PutUint64(buf[0:], uint64(c.FollowersCount))
	binary.BigEndian.PutUint64(buf[8:], uint64(c.FollowingCount))
	binary.BigEndian.PutUint64(buf[16:], uint64(c.PostsCount))
	binary.BigEndian.PutUint64(buf[24:], uint64(c.ReviewsCount))
	return buf
}

func decodeCounters(b []byte) (models.Counters, error) {
	if len(b) != counterWidth {
		return models.Counters{}, fmt.Errorf("counter value has %d bytes, want %d", len(b), counterWidth)
	}
	return models.Counters{
		FollowersCount: int64(binary.BigEndian.Uint64(b[0:])),
		FollowingCount: int64(binary.BigEndian.Uint64(b[8:])),
		PostsCount:     int64(binary.BigEndian.Uint64(b[16:])),
		ReviewsCount:   int64(binary.BigEndian.Uint64(b[24:])),
	}, nil
}

func deltaAsCounters(d models.CounterDelta) models.Counters {
	return models.Counters{
		FollowersCount: d.Followers,
		FollowingCount: d.Following,
		PostsCount:     d.Posts,
		ReviewsCount:   d.Reviews,
	}
}

func addCounters(a, b models.Counters) models.Counters {
	return models.Counters{
		FollowersCount: a.FollowersCount + b.FollowersCount,
		FollowingCount: a.FollowingCount + b.FollowingCount,
		PostsCount:     a.PostsCount + b.PostsCount,
		ReviewsCount:   a.ReviewsCount + b.ReviewsCount,
	}
}
