package tokens

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Clickthrough identifies who clicked a tracked link and from which channel.
type Clickthrough struct {
	Channel      string    `json:"channel"`
	ChannelID    uuid.UUID `json:"channel_id"`
	ContactID    int64     `json:"contact_id,omitempty"`
	TrackingHash string    `json:"stat,omitempty"`
}

func NewClickthrough(tc *Context) Clickthrough {
	ct := Clickthrough{Channel: tc.Channel, ChannelID: tc.ChannelID, TrackingHash: tc.TrackingHash}
	if tc.Contact != nil {
		ct.ContactID = tc.Contact.ID
	}
	return ct
}

func (c Clickthrough) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

func DecodeClickthrough(s string) (Clickthrough, error) {
	var ct Clickthrough
	if s == "" {
		return ct, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return ct, fmt.Errorf("decode clickthrough: %w", err)
	}
	if err := json.Unmarshal(data, &ct); err != nil {
		return ct, fmt.Errorf("decode clickthrough: %w", err)
	}
	return ct, nil
}
