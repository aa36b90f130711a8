package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/listquery"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStatsService(t *testing.T) (*StatsService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewStatsService(&database.DB{Pool: mock}), mock
}

func TestStatsService_SentPerDay_FillsEmptyDays(t *testing.T) {
	svc, mock := setupStatsService(t)
	smsID := uuid.New()
	from := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM sms_message_stats`).
		WithArgs(smsID, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(pgxmock.NewRows([]string{"day", "count"}).
			AddRow(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 4).
			AddRow(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC), 1))

	points, err := svc.SentPerDay(context.Background(), smsID, from, to)

	require.NoError(t, err)
	require.Len(t, points, 4)
	counts := make([]int, len(points))
	for i, p := range points {
		counts[i] = p.Count
	}
	assert.Equal(t, []int{0, 4, 0, 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsService_ClickStats(t *testing.T) {
	svc, mock := setupStatsService(t)
	smsID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM channel_url_trackables t\s+JOIN page_redirects`).
		WithArgs(smsID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "redirect_id", "url", "hits", "unique_hits", "date_added",
			"channel", "channel_id", "chan_hits", "chan_unique",
		}).AddRow(int64(3), "abc", "https://example.com", 9, 5, now, "sms", smsID, 4, 2))

	stats, err := svc.ClickStats(context.Background(), smsID)

	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "abc", stats[0].RedirectID)
	assert.Equal(t, 4, stats[0].ChanHits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsService_Contacts(t *testing.T) {
	svc, mock := setupStatsService(t)
	smsID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sms_message_stats st JOIN contacts c .+ILIKE \$2`).
		WithArgs(smsID, "%dana%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY c.first_name ASC, st.id\s+LIMIT \$3 OFFSET \$4`).
		WithArgs(smsID, "%dana%", 10, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "mobile", "date_sent", "is_failed",
		}).AddRow(int64(11), "Dana", "Scully", "dana@example.com", "+100", now, false))

	contacts, total, err := svc.Contacts(context.Background(), smsID, listquery.Query{
		SearchTerm:    "dana",
		SortColumn:    "firstname",
		SortDirection: listquery.SortAsc,
		Limit:         10,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Dana", contacts[0].FirstName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsService_RecordSend(t *testing.T) {
	svc, mock := setupStatsService(t)
	stat := &models.SmsStat{SmsID: uuid.New(), ContactID: 5, DateSent: time.Now(), TrackingHash: "h"}

	mock.ExpectQuery(`INSERT INTO sms_message_stats`).
		WithArgs(stat.SmsID, int64(5), stat.DateSent, false, "h", "", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	err := svc.RecordSend(context.Background(), stat)

	require.NoError(t, err)
	assert.Equal(t, int64(42), stat.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsService_PendingContacts(t *testing.T) {
	svc, mock := setupStatsService(t)
	smsID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`FROM contacts c\s+JOIN contact_list_xref`).
		WithArgs(smsID, []int64{1, 2}, 50).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "first_name", "last_name", "email", "mobile", "fields", "do_not_contact", "owner_id", "date_added",
		}).AddRow(int64(8), "Fox", "Mulder", "", "+200", []byte(`{"city":"DC"}`), false, (*uuid.UUID)(nil), now))

	contacts, err := svc.PendingContacts(context.Background(), smsID, []int64{1, 2}, 50)

	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "DC", contacts[0].Fields["city"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
