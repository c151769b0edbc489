// Shelfwise - Social Graph and Recommendations for Media Trackers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwise

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfwise/internal/models"
	"github.com/tomtom215/shelfwise/internal/store"
)

type tx struct {
	ctx      context.Context
	tx       *sql.Tx
	writable bool
}

var _ store.Tx = (*tx)(nil)

func (t *tx) mustWrite() error {
	if !t.writable {
		return errors.New("database: write in read-only transaction")
	}
	return nil
}

func (t *tx) exec(query string, args ...interface{}) (sql.Result, error) {
	res, err := t.tx.ExecContext(t.ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return res, nil
}

// execOne runs a statement that must touch exactly one row.
func (t *tx) execOne(query string, args ...interface{}) error {
	res, err := t.exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *tx) exists(query string, args ...interface{}) (bool, error) {
	var one int
	err := t.tx.QueryRowContext(t.ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, mapError(err)
	}
	return true, nil
}

func encodeJSON(v interface{}) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(s string, v interface{}) error {
	if s == "" {
		return nil
	}
	return json.Unmarshal([]byte(s), v)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// Profiles

const profileColumns = `p.id, p.handle, p.display_name, p.bio, p.location, p.tags, p.avatar_url,
	p.cover_url, p.social_links, p.verified, p.featured, p.privacy, p.disabled, p.created_at,
	p.updated_at, c.followers_count, c.following_count, c.posts_count, c.reviews_count`

func scanProfile(row scanner) (*models.Profile, error) {
	var (
		p                    models.Profile
		tags, links, privacy string
	)
	err := row.Scan(&p.ID, &p.Handle, &p.DisplayName, &p.Bio, &p.Location, &tags, &p.AvatarURL,
		&p.CoverURL, &links, &p.Verified, &p.Featured, &privacy, &p.Disabled, &p.CreatedAt,
		&p.UpdatedAt, &p.FollowersCount, &p.FollowingCount, &p.PostsCount, &p.ReviewsCount)
	if err != nil {
		return nil, err
	}
	if err := decodeJSON(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	if err := decodeJSON(links, &p.SocialLinks); err != nil {
		return nil, fmt.Errorf("decode social links: %w", err)
	}
	if err := decodeJSON(privacy, &p.Privacy); err != nil {
		return nil, fmt.Errorf("decode privacy: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

func (t *tx) GetProfile(id string) (*models.Profile, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+profileColumns+`
		FROM profiles p JOIN profile_counters c ON c.user_id = p.id
		WHERE p.id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (t *tx) GetProfileIDByHandle(handle string) (string, error) {
	var id string
	err := t.tx.QueryRowContext(t.ctx, `SELECT user_id FROM profile_handles WHERE handle = ?`,
		models.NormalizeHandle(handle)).Scan(&id)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func (t *tx) ListProfileIDs(after string, limit int) ([]string, error) {
	query := `SELECT id FROM profiles WHERE id > ? ORDER BY id`
	args := []interface{}{after}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer closeWithLog(rows, "rows")

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *tx) CreateProfile(p *models.Profile) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	handle := models.NormalizeHandle(p.Handle)
	taken, err := t.exists(`SELECT 1 FROM profiles WHERE id = ?`, p.ID)
	if err != nil {
		return err
	}
	if !taken {
		taken, err = t.exists(`SELECT 1 FROM profile_handles WHERE handle = ?`, handle)
		if err != nil {
			return err
		}
	}
	if taken {
		return fmt.Errorf("%w: profile %s or handle %s", store.ErrDuplicate, p.ID, handle)
	}

	tags, links, privacy, err := profileJSON(p)
	if err != nil {
		return err
	}
	if _, err := t.exec(`INSERT INTO profiles (id, handle, display_name, bio, location, tags,
		avatar_url, cover_url, social_links, verified, featured, privacy, disabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, handle, p.DisplayName, p.Bio, p.Location, tags, p.AvatarURL, p.CoverURL, links,
		p.Verified, p.Featured, privacy, p.Disabled, p.CreatedAt.UTC(), p.UpdatedAt.UTC()); err != nil {
		return err
	}
	if _, err := t.exec(`INSERT INTO profile_handles (handle, user_id) VALUES (?, ?)`, handle, p.ID); err != nil {
		return err
	}
	_, err = t.exec(`INSERT INTO profile_counters (user_id, followers_count, following_count,
		posts_count, reviews_count) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.FollowersCount, p.FollowingCount, p.PostsCount, p.ReviewsCount)
	return err
}

func profileJSON(p *models.Profile) (tags, links, privacy string, err error) {
	if tags, err = encodeJSON(p.Tags); err != nil {
		return
	}
	if links, err = encodeJSON(p.SocialLinks); err != nil {
		return
	}
	privacy, err = encodeJSON(p.Privacy)
	return
}

func (t *tx) UpdateProfile(p *models.Profile) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	var current string
	err := t.tx.QueryRowContext(t.ctx, `SELECT handle FROM profiles WHERE id = ?`, p.ID).Scan(&current)
	if err != nil {
		return mapError(err)
	}

	handle := models.NormalizeHandle(p.Handle)
	if handle != current {
		owner, err := t.GetProfileIDByHandle(handle)
		switch {
		case err == nil && owner != p.ID:
			return fmt.Errorf("%w: handle %s", store.ErrDuplicate, handle)
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return err
		}
		if _, err := t.exec(`DELETE FROM profile_handles WHERE handle = ?`, current); err != nil {
			return err
		}
		if _, err := t.exec(`INSERT INTO profile_handles (handle, user_id) VALUES (?, ?)`, handle, p.ID); err != nil {
			return err
		}
	}

	tags, links, privacy, err := profileJSON(p)
	if err != nil {
		return err
	}
	return t.execOne(`UPDATE profiles SET handle = ?, display_name = ?, bio = ?, location = ?,
		tags = ?, avatar_url = ?, cover_url = ?, social_links = ?, verified = ?, featured = ?,
		privacy = ?, disabled = ?, updated_at = ? WHERE id = ?`,
		handle, p.DisplayName, p.Bio, p.Location, tags, p.AvatarURL, p.CoverURL, links,
		p.Verified, p.Featured, privacy, p.Disabled, p.UpdatedAt.UTC(), p.ID)
}

func (t *tx) AdjustCounters(userID string, d models.CounterDelta) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if d.IsZero() {
		return nil
	}
	var c models.Counters
	err := t.tx.QueryRowContext(t.ctx, `SELECT followers_count, following_count, posts_count,
		reviews_count FROM profile_counters WHERE user_id = ?`, userID).
		Scan(&c.FollowersCount, &c.FollowingCount, &c.PostsCount, &c.ReviewsCount)
	if err != nil {
		return mapError(err)
	}
	if _, err := c.Apply(d); err != nil {
		return err
	}
	return t.execOne(`UPDATE profile_counters SET
		followers_count = followers_count + ?,
		following_count = following_count + ?,
		posts_count = posts_count + ?,
		reviews_count = reviews_count + ?
		WHERE user_id = ?`, d.Followers, d.Following, d.Posts, d.Reviews, userID)
}

// Edges

const edgeColumns = `follower_id, following_id, status, created_at, accepted_at, follower_party, following_party`

func scanEdge(row scanner) (*models.FollowEdge, error) {
	var (
		e                   models.FollowEdge
		status              string
		acceptedAt          sql.NullTime
		follower, following string
	)
	if err := row.Scan(&e.FollowerID, &e.FollowingID, &status, &e.CreatedAt, &acceptedAt, &follower, &following); err != nil {
		return nil, err
	}
	e.Status = models.EdgeStatus(status)
	e.CreatedAt = e.CreatedAt.UTC()
	if acceptedAt.Valid {
		at := acceptedAt.Time.UTC()
		e.AcceptedAt = &at
	}
	if err := decodeJSON(follower, &e.Follower); err != nil {
		return nil, err
	}
	if err := decodeJSON(following, &e.Following); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *tx) GetEdge(followerID, followingID string) (*models.FollowEdge, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+edgeColumns+` FROM follow_edges
		WHERE follower_id = ? AND following_id = ?`, followerID, followingID)
	e, err := scanEdge(row)
	if err != nil {
		return nil, mapError(err)
	}
	return e, nil
}

// listEdges pages edges where keyCol = id, ordered by the other column.
func (t *tx) listEdges(keyCol, otherCol, id string, opts store.ListOptions) ([]*models.FollowEdge, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + edgeColumns + ` FROM follow_edges WHERE ` + keyCol + ` = ? AND ` + otherCol + ` > ?`)
	args := []interface{}{id, opts.After}
	if opts.Status != "" {
		b.WriteString(` AND status = ?`)
		args = append(args, string(opts.Status))
	}
	b.WriteString(` ORDER BY ` + otherCol)
	if opts.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := t.tx.QueryContext(t.ctx, b.String(), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer closeWithLog(rows, "rows")

	var edges []*models.FollowEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func (t *tx) ListFollowing(followerID string, opts store.ListOptions) ([]*models.FollowEdge, error) {
	return t.listEdges("follower_id", "following_id", followerID, opts)
}

func (t *tx) ListFollowers(followingID string, opts store.ListOptions) ([]*models.FollowEdge, error) {
	return t.listEdges("following_id", "follower_id", followingID, opts)
}

func (t *tx) InsertEdge(e *models.FollowEdge) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	found, err := t.exists(`SELECT 1 FROM follow_edges WHERE follower_id = ? AND following_id = ?`,
		e.FollowerID, e.FollowingID)
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("%w: edge %s->%s", store.ErrDuplicate, e.FollowerID, e.FollowingID)
	}
	if err := t.guardPair(e.FollowerID, e.FollowingID, e.CreatedAt); err != nil {
		return err
	}
	follower, err := encodeJSON(e.Follower)
	if err != nil {
		return err
	}
	following, err := encodeJSON(e.Following)
	if err != nil {
		return err
	}
	_, err = t.exec(`INSERT INTO follow_edges (`+edgeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.FollowerID, e.FollowingID, string(e.Status), e.CreatedAt.UTC(), nullTime(e), follower, following)
	return err
}

func nullTime(e *models.FollowEdge) sql.NullTime {
	if e.AcceptedAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: e.AcceptedAt.UTC(), Valid: true}
}

func (t *tx) UpdateEdge(e *models.FollowEdge) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	return t.execOne(`UPDATE follow_edges SET status = ?, accepted_at = ?
		WHERE follower_id = ? AND following_id = ?`,
		string(e.Status), nullTime(e), e.FollowerID, e.FollowingID)
}

func (t *tx) DeleteEdge(followerID, followingID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	return t.execOne(`DELETE FROM follow_edges WHERE follower_id = ? AND following_id = ?`,
		followerID, followingID)
}

// guardPair rewrites the pair_guards row of the unordered pair {a, b}.
// DuckDB only reports write-write conflicts, so an edge insert and a
// block on the same pair must touch a common row to be serialized. A
// racing first insert of the row surfaces as a key violation, which is
// reported as a conflict so the caller retries against committed state.
func (t *tx) guardPair(a, b string, at time.Time) error {
	lo, hi := a, b
	if hi < lo {
		lo, hi = hi, lo
	}
	_, err := t.exec(`INSERT INTO pair_guards (lo, hi, touched_at) VALUES (?, ?, ?)
		ON CONFLICT (lo, hi) DO UPDATE SET touched_at = excluded.touched_at`, lo, hi, at.UTC())
	if errors.Is(err, store.ErrDuplicate) {
		return fmt.Errorf("%w: pair %s/%s: %v", store.ErrConflict, lo, hi, err)
	}
	return err
}

// Blocks

func (t *tx) GetBlock(blockerID, blockedID string) (*models.Block, error) {
	b := models.Block{BlockerID: blockerID, BlockedID: blockedID}
	err := t.tx.QueryRowContext(t.ctx, `SELECT created_at FROM blocks WHERE blocker_id = ? AND blocked_id = ?`,
		blockerID, blockedID).Scan(&b.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}

func (t *tx) ListBlocksBy(blockerID string) ([]*models.Block, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT blocked_id, created_at FROM blocks
		WHERE blocker_id = ? ORDER BY blocked_id`, blockerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer closeWithLog(rows, "rows")

	var blocks []*models.Block
	for rows.Next() {
		b := models.Block{BlockerID: blockerID}
		if err := rows.Scan(&b.BlockedID, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.CreatedAt = b.CreatedAt.UTC()
		blocks = append(blocks, &b)
	}
	return blocks, rows.Err()
}

func (t *tx) PutBlock(b *models.Block) (bool, error) {
	if err := t.mustWrite(); err != nil {
		return false, err
	}
	if err := t.guardPair(b.BlockerID, b.BlockedID, b.CreatedAt); err != nil {
		return false, err
	}
	res, err := t.exec(`INSERT INTO blocks (blocker_id, blocked_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`, b.BlockerID, b.BlockedID, b.CreatedAt.UTC())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *tx) DeleteBlock(blockerID, blockedID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	return t.execOne(`DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?`, blockerID, blockedID)
}

// Notifications

const notificationColumns = `id, recipient_id, notification_type, actor_id, actor, is_read, created_at, deep_link`

func scanNotification(row scanner) (*models.Notification, error) {
	var (
		n          models.Notification
		typ, actor string
	)
	if err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.ActorID, &actor, &n.Read, &n.CreatedAt, &n.DeepLink); err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(typ)
	n.CreatedAt = n.CreatedAt.UTC()
	if err := decodeJSON(actor, &n.Actor); err != nil {
		return nil, err
	}
	return &n, nil
}

func (t *tx) GetNotification(recipientID, id string) (*models.Notification, error) {
	row := t.tx.QueryRowContext(t.ctx, `SELECT `+notificationColumns+` FROM notifications
		WHERE recipient_id = ? AND id = ?`, recipientID, id)
	n, err := scanNotification(row)
	if err != nil {
		return nil, mapError(err)
	}
	return n, nil
}

// ListNotifications orders by id: UUIDv7 strings sort by creation time.
func (t *tx) ListNotifications(recipientID string, q store.NotificationQuery) ([]*models.Notification, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + notificationColumns + ` FROM notifications WHERE recipient_id = ?`)
	args := []interface{}{recipientID}
	if q.UnreadOnly {
		b.WriteString(` AND NOT is_read`)
	}
	if q.Before != "" {
		b.WriteString(` AND id < ?`)
		args = append(args, q.Before)
	}
	b.WriteString(` ORDER BY id DESC`)
	if q.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	rows, err := t.tx.QueryContext(t.ctx, b.String(), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer closeWithLog(rows, "rows")

	var out []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (t *tx) CountUnread(recipientID string) (int64, error) {
	var n int64
	err := t.tx.QueryRowContext(t.ctx, `SELECT count(*) FROM notifications
		WHERE recipient_id = ? AND NOT is_read`, recipientID).Scan(&n)
	return n, mapError(err)
}

func (t *tx) AppendNotification(n *models.Notification) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	actor, err := encodeJSON(n.Actor)
	if err != nil {
		return err
	}
	_, err = t.exec(`INSERT INTO notifications (`+notificationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, string(n.Type), n.ActorID, actor, n.Read, n.CreatedAt.UTC(), n.DeepLink)
	return err
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
	return t.execOne(`UPDATE notifications SET is_read = true WHERE id = ?`, id)
}

// Search entries

func (t *tx) GetSearchEntry(userID string) (*models.SearchIndexEntry, error) {
	var raw string
	err := t.tx.QueryRowContext(t.ctx, `SELECT entry FROM search_entries WHERE user_id = ?`, userID).Scan(&raw)
	if err != nil {
		return nil, mapError(err)
	}
	var e models.SearchIndexEntry
	if err := decodeJSON(raw, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (t *tx) ListSearchEntries() ([]*models.SearchIndexEntry, error) {
	rows, err := t.tx.QueryContext(t.ctx, `SELECT entry FROM search_entries ORDER BY user_id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer closeWithLog(rows, "rows")

	var out []*models.SearchIndexEntry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e models.SearchIndexEntry
		if err := decodeJSON(raw, &e); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (t *tx) PutSearchEntry(e *models.SearchIndexEntry) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	found, err := t.exists(`SELECT 1 FROM search_entries WHERE user_id = ?`, e.UserID)
	if err != nil {
		return err
	}
	if found {
		_, err = t.exec(`UPDATE search_entries SET entry = ? WHERE user_id = ?`, string(raw), e.UserID)
		return err
	}
	_, err = t.exec(`INSERT INTO search_entries (user_id, entry) VALUES (?, ?)`, e.UserID, string(raw))
	return err
}

func (t *tx) DeleteSearchEntry(userID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	_, err := t.exec(`DELETE FROM search_entries WHERE user_id = ?`, userID)
	return err
}

// Media items

const mediaColumns = `owner_id, category, external_id, seq, title, cover_url, release_year, collections, added_at`

func scanMedia(row scanner) (*models.MediaItem, error) {
	var (
		m                     models.MediaItem
		category, collections string
		seq                   int64
	)
	if err := row.Scan(&m.OwnerID, &category, &m.ExternalID, &seq, &m.Title, &m.CoverURL,
		&m.Year, &collections, &m.AddedAt); err != nil {
		return nil, err
	}
	m.Category = models.Category(category)
	m.Seq = uint64(seq)
	m.AddedAt = m.AddedAt.UTC()
	if err := decodeJSON(collections, &m.Collections); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMediaItems takes the newest rows when limited, then returns them
// in insertion order.
func (t *tx) ListMediaItems(ownerID string, category models.Category, limit int) ([]*models.MediaItem, error) {
	query := `SELECT ` + mediaColumns + ` FROM media_items WHERE owner_id = ? AND category = ? ORDER BY seq`
	args := []interface{}{ownerID, string(category)}
	if limit > 0 {
		query = `SELECT * FROM (SELECT ` + mediaColumns + ` FROM media_items
			WHERE owner_id = ? AND category = ? ORDER BY seq DESC LIMIT ?) ORDER BY seq`
		args = append(args, limit)
	}
	rows, err := t.tx.QueryContext(t.ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer closeWithLog(rows, "rows")

	var out []*models.MediaItem
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *tx) PutMediaItem(item *models.MediaItem) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return err
	}
	collections, err := encodeJSON(item.Collections)
	if err != nil {
		return err
	}

	row := t.tx.QueryRowContext(t.ctx, `SELECT `+mediaColumns+` FROM media_items
		WHERE owner_id = ? AND category = ? AND external_id = ?`,
		item.OwnerID, string(item.Category), item.ExternalID)
	prev, err := scanMedia(row)
	switch {
	case err == nil:
		item.Seq = prev.Seq
		item.AddedAt = prev.AddedAt
		return t.execOne(`UPDATE media_items SET title = ?, cover_url = ?, release_year = ?, collections = ?
			WHERE owner_id = ? AND category = ? AND external_id = ?`,
			item.Title, item.CoverURL, item.Year, collections,
			item.OwnerID, string(item.Category), item.ExternalID)
	case !errors.Is(err, sql.ErrNoRows):
		return mapError(err)
	}

	var seq int64
	if err := t.tx.QueryRowContext(t.ctx, `SELECT nextval('media_seq')`).Scan(&seq); err != nil {
		return mapError(err)
	}
	item.Seq = uint64(seq)
	_, err = t.exec(`INSERT INTO media_items (`+mediaColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.OwnerID, string(item.Category), item.ExternalID, seq, item.Title, item.CoverURL,
		item.Year, collections, item.AddedAt.UTC())
	return err
}

func (t *tx) DeleteMediaItem(ownerID string, category models.Category, externalID string) error {
	if err := t.mustWrite(); err != nil {
		return err
	}
	return t.execOne(`DELETE FROM media_items WHERE owner_id = ? AND category = ? AND external_id = ?`,
		ownerID, string(category), externalID)
}
