package workflow

import (
	"context"
	"time"

	"github.com/dimitrije/smsdesk/internal/listquery"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fakeStore struct {
	items   map[uuid.UUID]*models.Sms
	total   int
	queries []listquery.Query

	saved      []*models.Sms
	deleted    []uuid.UUID
	batchCalls int
	locks      []uuid.UUID
	unlocks    []uuid.UUID
}

func newFakeStore(items ...*models.Sms) *fakeStore {
	s := &fakeStore{items: map[uuid.UUID]*models.Sms{}}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Sms, error) {
	it, ok := s.items[id]
	if !ok {
		return nil, services.ErrSmsNotFound
	}
	return snapshot(it), nil
}

func (s *fakeStore) List(_ context.Context, q listquery.Query) ([]models.Sms, int, error) {
	s.queries = append(s.queries, q)
	var out []models.Sms
	for _, it := range s.items {
		out = append(out, *it)
	}
	total := s.total
	if total == 0 {
		total = len(out)
	}
	return out, total, nil
}

func (s *fakeStore) Save(_ context.Context, sms *models.Sms, unlock bool) error {
	if sms.IsNew() {
		sms.ID = uuid.New()
		sms.DateAdded = time.Now()
	}
	if unlock {
		sms.CheckedOut = nil
		sms.CheckedOutBy = nil
	}
	s.items[sms.ID] = snapshot(sms)
	s.saved = append(s.saved, snapshot(sms))
	return nil
}

func (s *fakeStore) Delete(_ context.Context, sms *models.Sms) error {
	if _, ok := s.items[sms.ID]; !ok {
		return services.ErrSmsNotFound
	}
	delete(s.items, sms.ID)
	s.deleted = append(s.deleted, sms.ID)
	return nil
}

func (s *fakeStore) DeleteMany(_ context.Context, ids []uuid.UUID) ([]models.Sms, error) {
	s.batchCalls++
	var out []models.Sms
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, *it)
			delete(s.items, id)
			s.deleted = append(s.deleted, id)
		}
	}
	return out, nil
}

func (s *fakeStore) Lock(_ context.Context, sms *models.Sms, userID uuid.UUID) error {
	stored := s.items[sms.ID]
	if stored.LockedFor(userID) {
		return services.ErrSmsLocked
	}
	now := time.Now()
	stored.CheckedOut = &now
	stored.CheckedOutBy = &userID
	sms.CheckedOut = &now
	sms.CheckedOutBy = &userID
	s.locks = append(s.locks, sms.ID)
	return nil
}

func (s *fakeStore) Unlock(_ context.Context, sms *models.Sms) error {
	if stored, ok := s.items[sms.ID]; ok {
		stored.CheckedOut = nil
		stored.CheckedOutBy = nil
	}
	sms.CheckedOut = nil
	sms.CheckedOutBy = nil
	s.unlocks = append(s.unlocks, sms.ID)
	return nil
}

type fakeAudit struct{}

func (fakeAudit) SmsLog(context.Context, uuid.UUID, int) ([]models.AuditLogEntry, error) {
	return []models.AuditLogEntry{}, nil
}

type fakeStats struct {
	contacts []models.SmsContact
	total    int
	queries  []listquery.Query
	ranges   [][2]time.Time
}

func (s *fakeStats) ClickStats(context.Context, uuid.UUID) ([]models.Trackable, error) {
	return []models.Trackable{}, nil
}

func (s *fakeStats) SentPerDay(_ context.Context, _ uuid.UUID, from, to time.Time) ([]models.DailyCount, error) {
	s.ranges = append(s.ranges, [2]time.Time{from, to})
	return []models.DailyCount{}, nil
}

func (s *fakeStats) Contacts(_ context.Context, _ uuid.UUID, q listquery.Query) ([]models.SmsContact, int, error) {
	s.queries = append(s.queries, q)
	return s.contacts, s.total, nil
}

type fakeLookups struct{}

func (fakeLookups) Categories(context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 2, Title: "Promos"}}, nil
}

func (fakeLookups) Lists(context.Context) ([]models.LeadList, error) {
	return []models.LeadList{{ID: 4, Name: "VIP"}, {ID: 7, Name: "Newsletter"}}, nil
}

type fixture struct {
	wf    *Workflow
	store *fakeStore
	stats *fakeStats
}

func newFixture(hooks Hooks, items ...*models.Sms) *fixture {
	store := newFakeStore(items...)
	stats := &fakeStats{}
	wf := New(Config{
		Store:        store,
		AuditLog:     fakeAudit{},
		Stats:        stats,
		Lookups:      fakeLookups{},
		Hooks:        hooks,
		Logger:       zerolog.Nop(),
		DefaultLimit: 10,
	})
	return &fixture{wf: wf, store: store, stats: stats}
}

func newRequest(subject uuid.UUID, method string, perms ...string) *Request {
	set := permissions.Set{}
	for _, p := range perms {
		set[p] = true
	}
	return &Request{
		Subject:     subject,
		SubjectName: "Tester",
		Gate:        permissions.NewGate(subject, set),
		Session:     session.NewMemoryStore(),
		Method:      method,
	}
}

func ownedSms(owner uuid.UUID, name string) *models.Sms {
	return &models.Sms{
		ID:        uuid.New(),
		Name:      name,
		Message:   "Hello {contactfield=firstname}",
		SmsType:   models.SmsTypeTemplate,
		Language:  "en",
		ListIDs:   []int64{},
		CreatedBy: owner,
	}
}

func strPtr(s string) *string { return &s }
