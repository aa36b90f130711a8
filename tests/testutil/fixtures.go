package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
		Role:  models.RoleUser,
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, user.Email, user.Name, user.Role).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

func WithRole(role string) UserOption {
	return func(u *models.User) {
		u.Role = role
	}
}

// GrantRole grants permissions to role
func (f *Fixtures) GrantRole(t *testing.T, role string, perms ...string) {
	t.Helper()
	for _, p := range perms {
		_, err := f.db.Pool.Exec(context.Background(), `
			INSERT INTO role_permissions (role, permission) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, role, p)
		if err != nil {
			t.Fatalf("failed to grant %s to %s: %v", p, role, err)
		}
	}
}

func (f *Fixtures) CreateList(t *testing.T, name string) *models.LeadList {
	t.Helper()
	f.counter++

	list := &models.LeadList{Name: name, Alias: fmt.Sprintf("list-%d", f.counter)}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO lead_lists (name, alias) VALUES ($1, $2) RETURNING id
	`, list.Name, list.Alias).Scan(&list.ID)
	if err != nil {
		t.Fatalf("failed to create list: %v", err)
	}
	return list
}

func (f *Fixtures) CreateCategory(t *testing.T, title string) *models.Category {
	t.Helper()
	f.counter++

	cat := &models.Category{Title: title, Alias: fmt.Sprintf("category-%d", f.counter)}
	err := f.db.Pool.QueryRow(context.Background(), `
		INSERT INTO categories (title, alias, bundle) VALUES ($1, $2, 'sms') RETURNING id
	`, cat.Title, cat.Alias).Scan(&cat.ID)
	if err != nil {
		t.Fatalf("failed to create category: %v", err)
	}
	return cat
}

// CreateContact creates a reachable contact that belongs to lists
func (f *Fixtures) CreateContact(t *testing.T, lists []*models.LeadList, opts ...ContactOption) *models.Contact {
	t.Helper()
	f.counter++

	contact := &models.Contact{
		FirstName: fmt.Sprintf("First%d", f.counter),
		LastName:  fmt.Sprintf("Last%d", f.counter),
		Email:     fmt.Sprintf("contact%d@example.com", f.counter),
		Mobile:    fmt.Sprintf("+1555000%04d", f.counter),
	}
	for _, opt := range opts {
		opt(contact)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO contacts (first_name, last_name, email, mobile, do_not_contact)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, date_added
	`, contact.FirstName, contact.LastName, contact.Email, contact.Mobile, contact.DoNotContact,
	).Scan(&contact.ID, &contact.DateAdded)
	if err != nil {
		t.Fatalf("failed to create contact: %v", err)
	}

	for _, l := range lists {
		if _, err := f.db.Pool.Exec(ctx, `
			INSERT INTO contact_list_xref (list_id, contact_id) VALUES ($1, $2)
		`, l.ID, contact.ID); err != nil {
			t.Fatalf("failed to add contact to list: %v", err)
		}
	}
	return contact
}

// ContactOption configures a test contact
type ContactOption func(*models.Contact)

func WithMobile(mobile string) ContactOption {
	return func(c *models.Contact) {
		c.Mobile = mobile
	}
}

func WithDoNotContact() ContactOption {
	return func(c *models.Contact) {
		c.DoNotContact = true
	}
}

// CreateSms creates a published template message owned by owner
func (f *Fixtures) CreateSms(t *testing.T, owner *models.User, opts ...SmsOption) *models.Sms {
	t.Helper()
	f.counter++

	sms := &models.Sms{
		Name:          fmt.Sprintf("Message %d", f.counter),
		Language:      "en",
		Message:       "Hi {contactfield=firstname}",
		SmsType:       models.SmsTypeTemplate,
		ListIDs:       []int64{},
		IsPublished:   true,
		CreatedBy:     owner.ID,
		CreatedByUser: owner.Name,
	}
	for _, opt := range opts {
		opt(sms)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO sms_messages (name, language, message, sms_type, category_id, is_published, created_by, created_by_user)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, date_added, date_modified
	`, sms.Name, sms.Language, sms.Message, sms.SmsType, sms.CategoryID, sms.IsPublished, sms.CreatedBy, sms.CreatedByUser,
	).Scan(&sms.ID, &sms.DateAdded, &sms.DateModified)
	if err != nil {
		t.Fatalf("failed to create sms: %v", err)
	}

	for _, listID := range sms.ListIDs {
		if _, err := f.db.Pool.Exec(ctx, `
			INSERT INTO sms_message_list_xref (sms_id, list_id) VALUES ($1, $2)
		`, sms.ID, listID); err != nil {
			t.Fatalf("failed to bind sms to list: %v", err)
		}
	}
	return sms
}

// SmsOption configures a test message
type SmsOption func(*models.Sms)

func WithSmsName(name string) SmsOption {
	return func(s *models.Sms) {
		s.Name = name
	}
}

func WithMessage(message string) SmsOption {
	return func(s *models.Sms) {
		s.Message = message
	}
}

func WithLists(lists ...*models.LeadList) SmsOption {
	return func(s *models.Sms) {
		s.SmsType = models.SmsTypeList
		for _, l := range lists {
			s.ListIDs = append(s.ListIDs, l.ID)
		}
	}
}

func WithCategory(cat *models.Category) SmsOption {
	return func(s *models.Sms) {
		s.CategoryID = &cat.ID
	}
}

func Unpublished() SmsOption {
	return func(s *models.Sms) {
		s.IsPublished = false
	}
}
