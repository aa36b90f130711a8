package models

import (
	"time"

	"github.com/google/uuid"
)

// Redirect is a tracked URL reachable at /r/<RedirectID>.
type Redirect struct {
	ID         int64     `json:"id"`
	RedirectID string    `json:"redirect_id"`
	URL        string    `json:"url"`
	Hits       int       `json:"hits"`
	UniqueHits int       `json:"unique_hits"`
	DateAdded  time.Time `json:"date_added"`
}

// Trackable binds a Redirect to the channel entity whose content carries it.
type Trackable struct {
	Redirect
	Channel    string    `json:"channel"`
	ChannelID  uuid.UUID `json:"channel_id"`
	ChanHits   int       `json:"channel_hits"`
	ChanUnique int       `json:"channel_unique_hits"`
}

// SmsStat records one send of one message to one contact.
type SmsStat struct {
	ID           int64     `json:"id"`
	SmsID        uuid.UUID `json:"sms_id"`
	ContactID    int64     `json:"contact_id"`
	DateSent     time.Time `json:"date_sent"`
	IsFailed     bool      `json:"is_failed"`
	TrackingHash string    `json:"tracking_hash"`
	Source       string    `json:"source,omitempty"`
	SourceID     string    `json:"source_id,omitempty"`
}

// DailyCount is one point of a per-day line chart.
type DailyCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}
