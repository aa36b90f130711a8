package dto

import (
	"encoding/json"

	"github.com/dimitrije/smsdesk/internal/forms"
	"github.com/google/uuid"
)

// SmsFormRequest is the body of a posted editor form.
type SmsFormRequest struct {
	Button       string       `json:"button"`
	Fields       forms.Fields `json:"fields"`
	UpdateSelect string       `json:"update_select,omitempty"`
}

// BatchDeleteRequest carries the selected ids, either as a JSON array or as
// a string holding one.
type BatchDeleteRequest struct {
	IDs json.RawMessage `json:"ids"`
}

type FlashResponse struct {
	Type    string            `json:"type"`
	Key     string            `json:"key"`
	Message string            `json:"message"`
	Vars    map[string]string `json:"vars,omitempty"`
}

// WorkflowResponse is the JSON form of a view or redirect descriptor.
type WorkflowResponse struct {
	Outcome         string          `json:"outcome"`
	ReturnURL       string          `json:"returnUrl,omitempty"`
	ContentTemplate string          `json:"contentTemplate,omitempty"`
	ViewParameters  map[string]any  `json:"viewParameters,omitempty"`
	PassthroughVars map[string]any  `json:"passthroughVars,omitempty"`
	Flashes         []FlashResponse `json:"flashes"`
}

type SendRequest struct {
	ContactID int64 `json:"contact_id"`
}

type SendResponse struct {
	SmsID     uuid.UUID     `json:"sms_id"`
	ContactID int64         `json:"contact_id"`
	MessageID string        `json:"message_id,omitempty"`
	Success   bool          `json:"success"`
	Flash     FlashResponse `json:"flash"`
}
