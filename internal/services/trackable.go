package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrTrackableNotFound = errors.New("trackable not found")

var rawURLRe = regexp.MustCompile(`https?://[^\s"'<>{}]+`)

// TrackableService turns links in message content into click-tracked
// redirects served under /r/<redirectId>.
type TrackableService struct {
	db            *database.DB
	baseURL       string
	newRedirectID func() string
}

func NewTrackableService(db *database.DB, baseURL string) *TrackableService {
	return &TrackableService{
		db:            db,
		baseURL:       strings.TrimRight(baseURL, "/"),
		newRedirectID: randomRedirectID,
	}
}

func randomRedirectID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func trackablePlaceholder(redirectID string) string {
	return "{trackable=" + redirectID + "}"
}

// ParseContentForTrackables rewrites raw URLs to {trackable=<id>} placeholders.
// Tokens whose value is a URL keep their key and map to a trackable too.
func (s *TrackableService) ParseContentForTrackables(ctx context.Context, content string, found map[string]string, channel string, channelID uuid.UUID) (string, map[string]*models.Trackable, error) {
	out := map[string]*models.Trackable{}

	var urls []string
	seen := map[string]bool{}
	for _, u := range rawURLRe.FindAllString(content, -1) {
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	// Longer URLs first so a URL that prefixes another is not split.
	sort.SliceStable(urls, func(i, j int) bool { return len(urls[i]) > len(urls[j]) })

	pairs := make([]string, 0, len(urls)*2)
	for _, u := range urls {
		t, err := s.bind(ctx, u, channel, channelID)
		if err != nil {
			return "", nil, err
		}
		placeholder := trackablePlaceholder(t.RedirectID)
		out[placeholder] = t
		pairs = append(pairs, u, placeholder)
	}
	if len(pairs) > 0 {
		content = strings.NewReplacer(pairs...).Replace(content)
	}

	keys := make([]string, 0, len(found))
	for k := range found {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, token := range keys {
		value := found[token]
		if value == "" || rawURLRe.FindString(value) != value {
			continue
		}
		t, err := s.bind(ctx, value, channel, channelID)
		if err != nil {
			return "", nil, err
		}
		out[token] = t
	}

	return content, out, nil
}

func (s *TrackableService) bind(ctx context.Context, url, channel string, channelID uuid.UUID) (*models.Trackable, error) {
	t := &models.Trackable{Channel: channel, ChannelID: channelID}
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO page_redirects (redirect_id, url) VALUES ($1, $2)
		ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
		RETURNING id, redirect_id, url, hits, unique_hits, date_added
	`, s.newRedirectID(), url).Scan(&t.ID, &t.RedirectID, &t.URL, &t.Hits, &t.UniqueHits, &t.DateAdded)
	if err != nil {
		return nil, fmt.Errorf("upsert redirect: %w", err)
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO channel_url_trackables (redirect_id, channel, channel_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, t.ID, channel, channelID)
	if err != nil {
		return nil, fmt.Errorf("bind trackable: %w", err)
	}
	return t, nil
}

func (s *TrackableService) GenerateTrackableURL(t *models.Trackable, ct tokens.Clickthrough) string {
	return s.baseURL + "/r/" + t.RedirectID + "?ct=" + ct.Encode()
}

func (s *TrackableService) GetByRedirectID(ctx context.Context, redirectID string) (*models.Redirect, error) {
	var r models.Redirect
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, redirect_id, url, hits, unique_hits, date_added
		FROM page_redirects WHERE redirect_id = $1
	`, redirectID).Scan(&r.ID, &r.RedirectID, &r.URL, &r.Hits, &r.UniqueHits, &r.DateAdded)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrackableNotFound
		}
		return nil, err
	}
	return &r, nil
}

// RecordHit stores a page hit and bumps the redirect and channel counters.
// A hit is unique when the contact has not clicked this redirect before;
// anonymous hits always count as unique.
func (s *TrackableService) RecordHit(ctx context.Context, r *models.Redirect, ct tokens.Clickthrough) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var contactID *int64
	unique := 1
	if ct.ContactID > 0 {
		contactID = &ct.ContactID
		var seen bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM page_hits WHERE redirect_id = $1 AND contact_id = $2)
		`, r.ID, ct.ContactID).Scan(&seen); err != nil {
			return err
		}
		if seen {
			unique = 0
		}
	}

	var sourceID *uuid.UUID
	if ct.ChannelID != uuid.Nil {
		sourceID = &ct.ChannelID
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO page_hits (redirect_id, contact_id, source, source_id, tracking_hash, url)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, contactID, ct.Channel, sourceID, ct.TrackingHash, r.URL); err != nil {
		return fmt.Errorf("insert hit: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE page_redirects SET hits = hits + 1, unique_hits = unique_hits + $2 WHERE id = $1
	`, r.ID, unique); err != nil {
		return err
	}

	if ct.Channel != "" && sourceID != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE channel_url_trackables SET hits = hits + 1, unique_hits = unique_hits + $4
			WHERE redirect_id = $1 AND channel = $2 AND channel_id = $3
		`, r.ID, ct.Channel, ct.ChannelID, unique); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	r.Hits++
	r.UniqueHits += unique
	return nil
}
