// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package badgerstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

type tx struct {
	txn      *badger.Txn
	s        *Store
	writable bool
}

var _ store.Tx = (*tx)(nil)

// getJSON decodes the value at key into v. Missing keys return
// store.ErrNotFound.
func (t *tx) getJSON(key []byte, v interface{}) error {
	item, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func (t *tx) setJSON(key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return t.txn.Set(key, data)
}

func (t *tx) exists(key []byte) (bool, error) {
	_, err := t.txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	return true, nil
}

func (t *tx) mustWrite() error {
	if !t.writable {
		return errors.New("badgerstore: write in read-only transaction")
	}
	return nil
}

// scan visits values under prefix in key order (or reverse), starting at
// seek. fn returns false to stop.
func (t *tx) scan(prefix, seek []byte, reverse bool, fn func(key, val []byte) (bool, error)) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.Reverse = reverse
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var cont bool
		err := item.Value(func(val []byte) error {
			var err error
			cont, err = fn(item.KeyCopy(nil), val)
			return err
		})
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Profiles

func (t *tx) GetProfile(id string) (*models.Profile, error) {
	var p models.Profile
	if err := t.getJSON(profileKey(id), &p); err != nil {
		return nil, err
	}
	c, err := t.counters(id)
	if err != nil {
		return nil, err
	}
	p.Counters = c
	return &p, nil
}

func (t *tx) GetProfileIDByHandle(handle string) (string, error) {
	item, err := t.txn.Get(handleKey(models.NormalizeHandle(handle)))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get handle: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (t *tx) ListProfileIDs(after string, limit int) ([]string, error) {
	prefix := []byte(prefixProfile)
	seek := profileKey(after)
	var ids []string

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := t.txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
		id := string(it.Item().Key()[len(prefix):])
		if after != "" && id == after {
			continue
		}
		ids = append(ids, id)
		if limit > 0 && len(ids) >= limit {
			break
		}
	}
	return ids, nil
}

func (t *tx) CreateProfile(p *models.Profile) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	handle := models.NormalizeHandle(p.Handle)
	for _, key := range [][]byte{profileKey(p.ID), handleKey(handle)} {
		ok, err := t.exists(key)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%w: %s", store.ErrDuplicate, key)
		}
	}

	stored := *p
	stored.Handle = handle
	stored.Counters = models.Counters{}
	if err := t.setJSON(profileKey(p.ID), &stored); err != nil {
		return err
	}
	if err := t.txn.Set(handleKey(handle), []byte(p.ID)); err != nil {
		return err
	}
	return t.txn.Set(counterKey(p.ID), encodeCounters(p.Counters))
}

func (t *tx) UpdateProfile(p *models.Profile) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	var current models.Profile
	if err := t.getJSON(profileKey(p.ID), &current); err != nil {
		return err
	}

	handle := models.NormalizeHandle(p.Handle)
	if handle != current.Handle {
		owner, err := t.GetProfileIDByHandle(handle)
		switch {
		case err == nil && owner != p.ID:
			return fmt.Errorf("%w: handle %s", store.ErrDuplicate, handle)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}
		if err := t.txn.Delete(handleKey(current.Handle)); err != nil {
			return err
		}
		if err := t.txn.Set(handleKey(handle), []byte(p.ID)); err != nil {
			return err
		}
	}

	stored := *p
	stored.Handle = handle
	stored.Counters = models.Counters{}
	stored.CreatedAt = current.CreatedAt
	return t.setJSON(profileKey(p.ID), &stored)
}

// counters returns base plus every pending delta.
func (t *tx) counters(id string) (models.Counters, error) {
	item, err := t.txn.Get(counterKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.Counters{}, store.ErrNotFound
	}
	if err != nil {
		return models.Counters{}, fmt.Errorf("get counters: %w", err)
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return models.Counters{}, err
	}
	total, err := decodeCounters(raw)
	if err != nil {
		return models.Counters{}, err
	}

	prefix := counterDeltaPrefix(id)
	err = t.scan(prefix, prefix, false, func(_, val []byte) (bool, error) {
		d, err := decodeCounters(val)
		if err != nil {
			return false, err
		}
		total = addCounters(total, d)
		return true, nil
	})
	return total, err
}

func (t *tx) AdjustCounters(userID string, d models.CounterDelta) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if d.IsZero() {
		return nil
	}
	current, err := t.counters(userID)
	if err != nil {
		return err
	}
	if _, err := current.Apply(d); err != nil {
		return err
	}
	key := append(counterDeltaPrefix(userID), []byte(uuid.NewString())...)
	return t.txn.Set(key, encodeCounters(deltaAsCounters(d)))
}

// Edges

func (t *tx) GetEdge(followerID, followingID string) (*models.FollowEdge, error) {
	var e models.FollowEdge
	if err := t.getJSON(edgeOutKey(followerID, followingID), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *tx) listEdges(prefix []byte, opts store.ListOptions) ([]*models.FollowEdge, error) {
	seek := append(append([]byte{}, prefix...), []byte(opts.After)...)
	var edges []*models.FollowEdge
	err := t.scan(prefix, seek, false, func(key, val []byte) (bool, error) {
		if opts.After != "" && string(key[len(prefix):]) == opts.After {
			return true, nil
		}
		var e models.FollowEdge
		if err := json.Unmarshal(val, &e); err != nil {
			return false, err
		}
		if opts.Status != "" && e.Status != opts.Status {
			return true, nil
		}
		edges = append(edges, &e)
		return opts.Limit <= 0 || len(edges) < opts.Limit, nil
	})
	return edges, err
}

func (t *tx) ListFollowing(followerID string, opts store.ListOptions) ([]*models.FollowEdge, error) {
	return t.listEdges([]byte(prefixEdgeOut+followerID+"/"), opts)
}

func (t *tx) ListFollowers(followingID string, opts store.ListOptions) ([]*models.FollowEdge, error) {
	return t.listEdges([]byte(prefixEdgeIn+followingID+"/"), opts)
}

func (t *tx) InsertEdge(e *models.FollowEdge) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	ok, err := t.exists(edgeOutKey(e.FollowerID, e.FollowingID))
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: edge %s->%s", store.ErrDuplicate, e.FollowerID, e.FollowingID)
	}
	return t.putEdge(e)
}

func (t *tx) UpdateEdge(e *models.FollowEdge) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	ok, err := t.exists(edgeOutKey(e.FollowerID, e.FollowingID))
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return t.putEdge(e)
}

func (t *tx) putEdge(e *models.FollowEdge) error {
	if err := t.setJSON(edgeOutKey(e.FollowerID, e.FollowingID), e); err != nil {
		return err
	}
	return t.setJSON(edgeInKey(e.FollowingID, e.FollowerID), e)
}

func (t *tx) DeleteEdge(followerID, followingID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	ok, err := t.exists(edgeOutKey(followerID, followingID))
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	if err := t.txn.Delete(edgeOutKey(followerID, followingID)); err != nil {
		return err
	}
	return t.txn.Delete(edgeInKey(followingID, followerID))
}

// Blocks

func (t *tx) GetBlock(blockerID, blockedID string) (*models.Block, error) {
	var b models.Block
	if err := t.getJSON(blockKey(blockerID, blockedID), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *tx) ListBlocksBy(blockerID string) ([]*models.Block, error) {
	prefix := []byte(prefixBlock + blockerID + "/")
	var blocks []*models.Block
	err := t.scan(prefix, prefix, false, func(_, val []byte) (bool, error) {
		var b models.Block
		if err := json.Unmarshal(val, &b); err != nil {
			return false, err
		}
		blocks = append(blocks, &b)
		return true, nil
	})
	return blocks, err
}

func (t *tx) PutBlock(b *models.Block) (bool, error) {
	if err := t.mustWrite(); err != nil {
		return false, err
	}
	ok, err := t.exists(blockKey(b.BlockerID, b.BlockedID))
	if err != nil || ok {
		return false, err
	}
	return true, t.setJSON(blockKey(b.BlockerID, b.BlockedID), b)
}

func (t *tx) DeleteBlock(blockerID, blockedID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	ok, err := t.exists(blockKey(blockerID, blockedID))
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrNotFound
	}
	return t.txn.Delete(blockKey(blockerID, blockedID))
}

// Notifications

func (t *tx) GetNotification(recipientID, id string) (*models.Notification, error) {
	var n models.Notification
	if err := t.getJSON(notificationKey(recipientID, id), &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (t *tx) ListNotifications(recipientID string, q store.NotificationQuery) ([]*models.Notification, error) {
	prefix := []byte(prefixNotification + recipientID + "/")
	if q.UnreadOnly {
		prefix = []byte(prefixUnread + recipientID + "/")
	}
	seek := seekPastPrefix(prefix)
	if q.Before != "" {
		seek = append(append([]byte{}, prefix...), []byte(q.Before)...)
	}

	var out []*models.Notification
	err := t.scan(prefix, seek, true, func(key, val []byte) (bool, error) {
		id := string(key[len(prefix):])
		if id == q.Before {
			return true, nil
		}
		var n models.Notification
		if q.UnreadOnly {
			if err := t.getJSON(notificationKey(recipientID, id), &n); err != nil {
				return false, err
			}
		} else if err := json.Unmarshal(val, &n); err != nil {
			return false, err
		}
		out = append(out, &n)
		return q.Limit <= 0 || len(out) < q.Limit, nil
	})
	return out, err
}

func (t *tx) CountUnread(recipientID string) (int64, error) {
	prefix := []byte(prefixUnread + recipientID + "/")
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := t.txn.NewIterator(opts)
	defer it.Close()

	var n int64
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		n++
	}
	return n, nil
}

func (t *tx) AppendNotification(n *models.Notification) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if err := t.setJSON(notificationKey(n.RecipientID, n.ID), n); err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	return t.txn.Set(unreadKey(n.RecipientID, n.ID), nil)
}

func (t *tx) MarkNotificationRead(recipientID, id string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	n, err := t.GetNotification(recipientID, id)
	if err != nil {
		return err
	}
	if n.Read {
		return nil
	}
	n.Read = true
	if err := t.setJSON(notificationKey(recipientID, id), n); err != nil {
		return err
	}
	return t.txn.Delete(unreadKey(recipientID, id))
}

// Search entries

func (t *tx) GetSearchEntry(userID string) (*models.SearchIndexEntry, error) {
	var e models.SearchIndexEntry
	if err := t.getJSON(searchKey(userID), &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *tx) ListSearchEntries() ([]*models.SearchIndexEntry, error) {
	prefix := []byte(prefixSearch)
	var out []*models.SearchIndexEntry
	err := t.scan(prefix, prefix, false, func(_, val []byte) (bool, error) {
		var e models.SearchIndexEntry
		if err := json.Unmarshal(val, &e); err != nil {
			return false, err
		}
		out = append(out, &e)
		return true, nil
	})
	return out, err
}

func (t *tx) PutSearchEntry(e *models.SearchIndexEntry) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	return t.setJSON(searchKey(e.UserID), e)
}

func (t *tx) DeleteSearchEntry(userID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	return t.txn.Delete(searchKey(userID))
}

// Media items

func (t *tx) ListMediaItems(ownerID string, category models.Category, limit int) ([]*models.MediaItem, error) {
	prefix := mediaPrefix(ownerID, category)
	var out []*models.MediaItem
	// Newest first, so that a limit keeps the most recent items.
	err := t.scan(prefix, seekPastPrefix(prefix), true, func(_, val []byte) (bool, error) {
		var m models.MediaItem
		if err := json.Unmarshal(val, &m); err != nil {
			return false, err
		}
		out = append(out, &m)
		return limit <= 0 || len(out) < limit, nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (t *tx) PutMediaItem(item *models.MediaItem) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	idx := mediaIndexKey(item.OwnerID, item.Category, item.ExternalID)
	existing, err := t.txn.Get(idx)
	switch {
	case err == nil:
		raw, err := existing.ValueCopy(nil)
		if err != nil {
			return err
		}
		item.Seq = binary.BigEndian.Uint64(raw)
		var prev models.MediaItem
		if err := t.getJSON(mediaKey(item.OwnerID, item.Category, item.Seq), &prev); err == nil {
			item.AddedAt = prev.AddedAt
		}
	case errors.Is(err, badger.ErrKeyNotFound):
		seq, err := t.s.nextSeq()
		if err != nil {
			return err
		}
		item.Seq = seq
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, seq)
		if err := t.txn.Set(idx, buf); err != nil {
			return err
		}
	default:
		return err
	}
	return t.setJSON(mediaKey(item.OwnerID, item.Category, item.Seq), item)
}

func (t *tx) DeleteMediaItem(ownerID string, category models.Category, externalID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	idx := mediaIndexKey(ownerID, category, externalID)
	item, err := t.txn.Get(idx)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	if err := t.txn.Delete(mediaKey(ownerID, category, binary.BigEndian.Uint64(raw))); err != nil {
		return err
	}
	return t.txn.Delete(idx)
}

// isPrefix is used by compaction to split delta keys.
func isPrefix(key, prefix []byte) bool { return bytes.HasPrefix(key, prefix) }
