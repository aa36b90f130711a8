package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimitrije/smsdesk/internal/channel"
	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/metrics"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/dimitrije/smsdesk/internal/transport"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrSmsNotPublished = errors.New("sms is not published")
	ErrNoMobile        = errors.New("contact has no mobile number")
	ErrDoNotContact    = errors.New("contact does not want to be contacted")
)

const defaultBroadcastLimit = 100

type sendStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sms, error)
	ListForBroadcast(ctx context.Context, id *uuid.UUID) ([]models.Sms, error)
	IncrementSentCount(ctx context.Context, id uuid.UUID, n int) error
}

type sendStats interface {
	RecordSend(ctx context.Context, stat *models.SmsStat) error
	PendingContacts(ctx context.Context, smsID uuid.UUID, listIDs []int64, limit int) ([]models.Contact, error)
}

type SendResult struct {
	SmsID     uuid.UUID `json:"sms_id"`
	ContactID int64     `json:"contact_id"`
	MessageID string    `json:"message_id,omitempty"`
	Content   string    `json:"content"`
	Failed    bool      `json:"failed"`
	Error     string    `json:"error,omitempty"`
}

// SenderService delivers messages to contacts through the gateway after
// running the pre-send hooks, and records a stat for every attempt.
type SenderService struct {
	store   sendStore
	stats   sendStats
	gateway transport.Gateway
	preSend []events.SendHook
	log     zerolog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewSenderService(store sendStore, stats sendStats, gateway transport.Gateway, log zerolog.Logger, m *metrics.Metrics, preSend ...events.SendHook) *SenderService {
	return &SenderService{
		store:   store,
		stats:   stats,
		gateway: gateway,
		preSend: preSend,
		log:     log.With().Str("component", "sender").Logger(),
		metrics: m,
		now:     time.Now,
	}
}

// Send delivers smsID to contact. Gateway failures are recorded and reported
// in the result, not as an error.
func (s *SenderService) Send(ctx context.Context, smsID uuid.UUID, contact *models.Contact, source string) (*SendResult, error) {
	sms, err := s.store.GetByID(ctx, smsID)
	if err != nil {
		return nil, err
	}
	if !sms.IsPublishedAt(s.now()) {
		return nil, ErrSmsNotPublished
	}

	result, err := s.deliver(ctx, sms, contact, source)
	if err != nil {
		return nil, err
	}
	if !result.Failed {
		if err := s.store.IncrementSentCount(ctx, sms.ID, 1); err != nil {
			return nil, fmt.Errorf("increment sent count: %w", err)
		}
	}
	return result, nil
}

func (s *SenderService) deliver(ctx context.Context, sms *models.Sms, contact *models.Contact, source string) (*SendResult, error) {
	if contact.Mobile == "" {
		return nil, ErrNoMobile
	}
	if contact.DoNotContact {
		return nil, ErrDoNotContact
	}

	hash := newTrackingHash()
	e := &events.SendEvent{
		Sms:     sms,
		Contact: contact,
		Content: sms.Message,
		TokenContext: &tokens.Context{
			Contact:      contact,
			Channel:      channel.ChannelSms,
			ChannelID:    sms.ID,
			TrackingHash: hash,
		},
	}
	if err := events.RunSend(ctx, s.preSend, e); err != nil {
		return nil, fmt.Errorf("pre-send: %w", err)
	}

	result := &SendResult{SmsID: sms.ID, ContactID: contact.ID, Content: e.Content}
	msgID, sendErr := s.gateway.Send(ctx, contact.Mobile, e.Content)
	if sendErr != nil {
		result.Failed = true
		result.Error = sendErr.Error()
		s.log.Warn().Err(sendErr).Str("sms_id", sms.ID.String()).Int64("contact_id", contact.ID).Msg("send failed")
	}
	result.MessageID = msgID

	stat := &models.SmsStat{
		SmsID:        sms.ID,
		ContactID:    contact.ID,
		DateSent:     s.now(),
		IsFailed:     result.Failed,
		TrackingHash: hash,
		Source:       source,
		SourceID:     msgID,
	}
	if err := s.stats.RecordSend(ctx, stat); err != nil {
		return nil, fmt.Errorf("record send: %w", err)
	}

	if result.Failed {
		s.metrics.ObserveSend("failed")
	} else {
		s.metrics.ObserveSend("sent")
	}
	return result, nil
}

// Broadcast sends every published list message (or only req.ID) to the
// pending contacts of its lists, req.Limit contacts per batch.
func (s *SenderService) Broadcast(ctx context.Context, req channel.BroadcastRequest) (channel.BroadcastResult, error) {
	res := channel.BroadcastResult{Channel: channel.ChannelSms}
	if req.Channel != "" && req.Channel != channel.ChannelSms {
		return res, nil
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultBroadcastLimit
	}

	items, err := s.store.ListForBroadcast(ctx, req.ID)
	if err != nil {
		return res, fmt.Errorf("list broadcast messages: %w", err)
	}

	for i := range items {
		sms := &items[i]
		if len(sms.ListIDs) == 0 {
			continue
		}
		for batch := 0; req.MaxBatches == 0 || batch < req.MaxBatches; batch++ {
			contacts, err := s.stats.PendingContacts(ctx, sms.ID, sms.ListIDs, limit)
			if err != nil {
				return res, fmt.Errorf("pending contacts: %w", err)
			}
			if len(contacts) == 0 {
				break
			}

			sent, failed := 0, 0
			for j := range contacts {
				if err := ctx.Err(); err != nil {
					return res, err
				}
				result, err := s.deliver(ctx, sms, &contacts[j], "broadcast")
				if err != nil {
					return res, err
				}
				if result.Failed {
					failed++
				} else {
					sent++
				}
			}
			if sent > 0 {
				if err := s.store.IncrementSentCount(ctx, sms.ID, sent); err != nil {
					return res, fmt.Errorf("increment sent count: %w", err)
				}
			}
			res.Sent += sent
			res.Failed += failed
			s.metrics.ObserveBroadcast(channel.ChannelSms, sent, failed)
			s.log.Info().Str("sms_id", sms.ID.String()).Int("sent", sent).Int("failed", failed).Msg("broadcast batch")

			if len(contacts) < limit {
				break
			}
		}
	}
	return res, nil
}

func newTrackingHash() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}
