package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	SmsTypeTemplate = "template"
	SmsTypeList     = "list"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Change holds the previous and new value of a field, serialized as [old, new].
type Change [2]any

type Sms struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Language      string     `json:"language"`
	Message       string     `json:"message"`
	SmsType       string     `json:"sms_type"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	ListIDs       []int64    `json:"list_ids"`
	IsPublished   bool       `json:"is_published"`
	PublishUp     *time.Time `json:"publish_up,omitempty"`
	PublishDown   *time.Time `json:"publish_down,omitempty"`
	SentCount     int        `json:"sent_count"`
	CreatedBy     uuid.UUID  `json:"created_by"`
	CreatedByUser string     `json:"created_by_user"`
	CheckedOut    *time.Time `json:"checked_out,omitempty"`
	CheckedOutBy  *uuid.UUID `json:"checked_out_by,omitempty"`
	DateAdded     time.Time  `json:"date_added"`
	DateModified  time.Time  `json:"date_modified"`

	// SessionID keys unsaved state of an entity that has no ID yet.
	SessionID string `json:"-"`
}

// NewSms returns a blank template message.
func NewSms() *Sms {
	return &Sms{
		SmsType:   SmsTypeTemplate,
		Language:  "en",
		ListIDs:   []int64{},
		SessionID: "new_" + uuid.NewString(),
	}
}

func (s *Sms) IsNew() bool {
	return s.ID == uuid.Nil
}

func (s *Sms) Status() string {
	if s.IsPublished {
		return StatusPublished
	}
	return StatusDraft
}

// IsPublishedAt reports whether the message is published and inside its publish window.
func (s *Sms) IsPublishedAt(now time.Time) bool {
	if !s.IsPublished {
		return false
	}
	if s.PublishUp != nil && now.Before(*s.PublishUp) {
		return false
	}
	if s.PublishDown != nil && !now.Before(*s.PublishDown) {
		return false
	}
	return true
}

// LockedFor reports whether someone other than userID holds the edit lock.
func (s *Sms) LockedFor(userID uuid.UUID) bool {
	return s.CheckedOutBy != nil && *s.CheckedOutBy != uuid.Nil && *s.CheckedOutBy != userID
}

func (s *Sms) GetSessionID() string {
	if !s.IsNew() {
		return s.ID.String()
	}
	if s.SessionID == "" {
		s.SessionID = "new_" + uuid.NewString()
	}
	return s.SessionID
}

// Clone returns a deep copy with a fresh identity, no lock and no send history.
func (s *Sms) Clone() *Sms {
	c := *s
	c.ID = uuid.Nil
	c.SessionID = "new_" + uuid.NewString()
	c.IsPublished = false
	c.SentCount = 0
	c.CheckedOut = nil
	c.CheckedOutBy = nil
	c.DateAdded = time.Time{}
	c.DateModified = time.Time{}
	c.ListIDs = slices.Clone(s.ListIDs)
	if c.ListIDs == nil {
		c.ListIDs = []int64{}
	}
	if s.CategoryID != nil {
		v := *s.CategoryID
		c.CategoryID = &v
	}
	if s.PublishUp != nil {
		v := *s.PublishUp
		c.PublishUp = &v
	}
	if s.PublishDown != nil {
		v := *s.PublishDown
		c.PublishDown = &v
	}
	return &c
}

// Diff lists the tracked fields that differ between before and after.
// A nil before is treated as a blank message.
func Diff(before, after *Sms) map[string]Change {
	if before == nil {
		before = &Sms{}
	}
	changes := map[string]Change{}
	add := func(field string, old, cur any, equal bool) {
		if !equal {
			changes[field] = Change{old, cur}
		}
	}

	add("name", before.Name, after.Name, before.Name == after.Name)
	add("description", before.Description, after.Description, before.Description == after.Description)
	add("language", before.Language, after.Language, before.Language == after.Language)
	add("message", before.Message, after.Message, before.Message == after.Message)
	add("smsType", before.SmsType, after.SmsType, before.SmsType == after.SmsType)
	add("category", int64PtrValue(before.CategoryID), int64PtrValue(after.CategoryID), equalInt64Ptr(before.CategoryID, after.CategoryID))
	add("lists", listValue(before.ListIDs), listValue(after.ListIDs), slices.Equal(sortedIDs(before.ListIDs), sortedIDs(after.ListIDs)))
	add("isPublished", before.IsPublished, after.IsPublished, before.IsPublished == after.IsPublished)
	add("publishUp", timePtrValue(before.PublishUp), timePtrValue(after.PublishUp), equalTimePtr(before.PublishUp, after.PublishUp))
	add("publishDown", timePtrValue(before.PublishDown), timePtrValue(after.PublishDown), equalTimePtr(before.PublishDown, after.PublishDown))

	return changes
}

func int64PtrValue(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func equalInt64Ptr(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrValue(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(time.RFC3339)
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func listValue(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

func sortedIDs(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return out
}
