package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Contact struct {
	ID           int64             `json:"id"`
	FirstName    string            `json:"firstname"`
	LastName     string            `json:"lastname"`
	Email        string            `json:"email"`
	Mobile       string            `json:"mobile"`
	Fields       map[string]string `json:"fields,omitempty"`
	DoNotContact bool              `json:"do_not_contact"`
	OwnerID      *uuid.UUID        `json:"owner_id,omitempty"`
	DateAdded    time.Time         `json:"date_added"`
}

// FieldValue resolves a contact field by alias. Core fields win over custom fields.
func (c *Contact) FieldValue(alias string) (string, bool) {
	switch strings.ToLower(alias) {
	case "id":
		if c.ID == 0 {
			return "", false
		}
		return int64String(c.ID), true
	case "firstname":
		return c.FirstName, c.FirstName != ""
	case "lastname":
		return c.LastName, c.LastName != ""
	case "email":
		return c.Email, c.Email != ""
	case "mobile":
		return c.Mobile, c.Mobile != ""
	}
	v, ok := c.Fields[alias]
	return v, ok && v != ""
}

// SmsContact is a contact row of a message's contacts sub-listing.
type SmsContact struct {
	Contact
	DateSent time.Time `json:"date_sent"`
	IsFailed bool      `json:"is_failed"`
}
