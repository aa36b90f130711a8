package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/listquery"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/google/uuid"
)

// ContactSortColumns maps accepted contact sub-listing sort keys to SQL columns.
var ContactSortColumns = map[string]string{
	"contact_id": "c.id",
	"firstname":  "c.first_name",
	"lastname":   "c.last_name",
	"mobile":     "c.mobile",
	"date_sent":  "st.date_sent",
}

type StatsService struct {
	db  *database.DB
	now func() time.Time
}

func NewStatsService(db *database.DB) *StatsService {
	return &StatsService{db: db, now: time.Now}
}

// ClickStats lists the tracked links of a message with their hit counts.
func (s *StatsService) ClickStats(ctx context.Context, smsID uuid.UUID) ([]models.Trackable, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT r.id, r.redirect_id, r.url, r.hits, r.unique_hits, r.date_added,
			t.channel, t.channel_id, t.hits, t.unique_hits
		FROM channel_url_trackables t
		JOIN page_redirects r ON r.id = t.redirect_id
		WHERE t.channel = 'sms' AND t.channel_id = $1
		ORDER BY t.hits DESC, r.url
	`, smsID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Trackable{}
	for rows.Next() {
		var tr models.Trackable
		if err := rows.Scan(
			&tr.ID, &tr.RedirectID, &tr.URL, &tr.Hits, &tr.UniqueHits, &tr.DateAdded,
			&tr.Channel, &tr.ChannelID, &tr.ChanHits, &tr.ChanUnique,
		); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

// SentPerDay counts successful sends per UTC day in [from, to], filling empty days with zero.
func (s *StatsService) SentPerDay(ctx context.Context, smsID uuid.UUID, from, to time.Time) ([]models.DailyCount, error) {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		from, to = to, from
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT date_trunc('day', date_sent AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM sms_message_stats
		WHERE sms_id = $1 AND NOT is_failed AND date_sent >= $2 AND date_sent < $3
		GROUP BY day
		ORDER BY day
	`, smsID, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[time.Time]int{}
	for rows.Next() {
		var day time.Time
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[truncateDay(day)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []models.DailyCount
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, models.DailyCount{Day: d, Count: counts[d]})
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Contacts lists contacts a message was sent to, one row per send.
func (s *StatsService) Contacts(ctx context.Context, smsID uuid.UUID, q listquery.Query) ([]models.SmsContact, int, error) {
	clauses := []string{"st.sms_id = $1"}
	args := []any{smsID}
	if q.SearchTerm != "" {
		args = append(args, "%"+q.SearchTerm+"%")
		n := "$" + strconv.Itoa(len(args))
		clauses = append(clauses, "(c.first_name ILIKE "+n+" OR c.last_name ILIKE "+n+" OR c.mobile ILIKE "+n+")")
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int
	if err := s.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM sms_message_stats st JOIN contacts c ON c.id = st.contact_id`+where,
		args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	sortColumn, ok := ContactSortColumns[q.SortColumn]
	if !ok {
		sortColumn = ContactSortColumns["contact_id"]
	}
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.Pool.Query(ctx, `
		SELECT c.id, c.first_name, c.last_name, c.email, c.mobile, st.date_sent, st.is_failed
		FROM sms_message_stats st JOIN contacts c ON c.id = st.contact_id`+where+`
		ORDER BY `+sortColumn+` `+listquery.NormalizeDirection(q.SortDirection)+`, st.id
		LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	out := []models.SmsContact{}
	for rows.Next() {
		var c models.SmsContact
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Mobile, &c.DateSent, &c.IsFailed); err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *StatsService) RecordSend(ctx context.Context, stat *models.SmsStat) error {
	return s.db.Pool.QueryRow(ctx, `
		INSERT INTO sms_message_stats (sms_id, contact_id, date_sent, is_failed, tracking_hash, source, source_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, stat.SmsID, stat.ContactID, stat.DateSent, stat.IsFailed, stat.TrackingHash, stat.Source, stat.SourceID,
	).Scan(&stat.ID)
}

// PendingContacts returns reachable contacts of listIDs that have no send
// recorded for smsID yet.
func (s *StatsService) PendingContacts(ctx context.Context, smsID uuid.UUID, listIDs []int64, limit int) ([]models.Contact, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT DISTINCT c.id, c.first_name, c.last_name, c.email, c.mobile, c.fields, c.do_not_contact, c.owner_id, c.date_added
		FROM contacts c
		JOIN contact_list_xref l ON l.contact_id = c.id
		WHERE l.list_id = ANY($2) AND c.mobile <> '' AND NOT c.do_not_contact
			AND NOT EXISTS (SELECT 1 FROM sms_message_stats st WHERE st.sms_id = $1 AND st.contact_id = c.id)
		ORDER BY c.id
		LIMIT $3
	`, smsID, listIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
