// Package forms binds submitted editor fields onto a message and validates them.
package forms

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

const (
	ButtonSave   = "save"
	ButtonApply  = "apply"
	ButtonCancel = "cancel"
)

const maxNameLength = 190

// Fields are the editable message fields. Nil pointers leave the entity value untouched.
type Fields struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Language    *string    `json:"language,omitempty"`
	Message     *string    `json:"message,omitempty"`
	SmsType     *string    `json:"sms_type,omitempty"`
	CategoryID  *int64     `json:"category_id,omitempty"`
	ListIDs     []int64    `json:"list_ids,omitempty"`
	IsPublished *bool      `json:"is_published,omitempty"`
	PublishUp   *time.Time `json:"publish_up,omitempty"`
	PublishDown *time.Time `json:"publish_down,omitempty"`
}

// Submission is a posted form. Button names the submit control used.
type Submission struct {
	Button string `json:"button"`
	Fields Fields `json:"fields"`
}

type Form struct {
	Action    string            `json:"action"`
	Entity    *models.Sms       `json:"entity"`
	Submitted bool              `json:"submitted"`
	Cancelled bool              `json:"cancelled"`
	Valid     bool              `json:"valid"`
	Button    string            `json:"button,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// SaveClicked reports whether the "save and close" control was used.
func (f *Form) SaveClicked() bool {
	return f.Button == ButtonSave
}

type Binder interface {
	Bind(entity *models.Sms, action string, sub *Submission) *Form
	Sanitize(s string) string
}

type SmsBinder struct {
	policy *bluemonday.Policy
}

func NewSmsBinder() *SmsBinder {
	return &SmsBinder{policy: bluemonday.StrictPolicy()}
}

// Sanitize strips markup from plain text values.
func (b *SmsBinder) Sanitize(s string) string {
	return strings.TrimSpace(b.policy.Sanitize(s))
}

// Bind applies sub onto entity. A nil submission yields an unsubmitted form.
func (b *SmsBinder) Bind(entity *models.Sms, action string, sub *Submission) *Form {
	form := &Form{Action: action, Entity: entity}
	if sub == nil {
		return form
	}

	form.Submitted = true
	form.Button = sub.Button
	if sub.Button == ButtonCancel {
		form.Cancelled = true
		return form
	}

	f := sub.Fields
	if f.Name != nil {
		entity.Name = b.Sanitize(*f.Name)
	}
	if f.Description != nil {
		entity.Description = b.Sanitize(*f.Description)
	}
	if f.Language != nil {
		entity.Language = strings.TrimSpace(*f.Language)
	}
	if f.Message != nil {
		entity.Message = *f.Message
	}
	if f.SmsType != nil {
		entity.SmsType = *f.SmsType
	}
	if f.CategoryID != nil {
		if *f.CategoryID == 0 {
			entity.CategoryID = nil
		} else {
			id := *f.CategoryID
			entity.CategoryID = &id
		}
	}
	if f.ListIDs != nil {
		entity.ListIDs = append([]int64(nil), f.ListIDs...)
	}
	if f.IsPublished != nil {
		entity.IsPublished = *f.IsPublished
	}
	if f.PublishUp != nil {
		entity.PublishUp = f.PublishUp
	}
	if f.PublishDown != nil {
		entity.PublishDown = f.PublishDown
	}
	if entity.SmsType == models.SmsTypeTemplate {
		entity.ListIDs = []int64{}
	}

	form.Errors = validate(entity)
	form.Valid = len(form.Errors) == 0
	return form
}

func validate(s *models.Sms) map[string]string {
	errs := map[string]string{}

	switch {
	case s.Name == "":
		errs["name"] = "A name is required."
	case utf8.RuneCountInString(s.Name) > maxNameLength:
		errs["name"] = "The name is too long."
	}

	if strings.TrimSpace(s.Message) == "" {
		errs["message"] = "A message is required."
	}

	switch s.SmsType {
	case models.SmsTypeTemplate:
	case models.SmsTypeList:
		if len(s.ListIDs) == 0 {
			errs["list_ids"] = "At least one segment is required."
		}
	default:
		errs["sms_type"] = "Unknown message type."
	}

	if s.PublishUp != nil && s.PublishDown != nil && !s.PublishDown.After(*s.PublishUp) {
		errs["publish_down"] = "Unpublish date must be after the publish date."
	}

	return errs
}
