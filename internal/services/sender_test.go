package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dimitrije/smsdesk/internal/channel"
	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSendStore struct {
	mock.Mock
}

func (m *mockSendStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Sms, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Sms), args.Error(1)
}

func (m *mockSendStore) ListForBroadcast(ctx context.Context, id *uuid.UUID) ([]models.Sms, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Sms), args.Error(1)
}

func (m *mockSendStore) IncrementSentCount(ctx context.Context, id uuid.UUID, n int) error {
	args := m.Called(ctx, id, n)
	return args.Error(0)
}

type mockSendStats struct {
	mock.Mock
}

func (m *mockSendStats) RecordSend(ctx context.Context, stat *models.SmsStat) error {
	args := m.Called(ctx, stat)
	return args.Error(0)
}

func (m *mockSendStats) PendingContacts(ctx context.Context, smsID uuid.UUID, listIDs []int64, limit int) ([]models.Contact, error) {
	args := m.Called(ctx, smsID, listIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Contact), args.Error(1)
}

type recordingGateway struct {
	sent []string
	fail map[string]error
}

func (g *recordingGateway) Send(_ context.Context, to, body string) (string, error) {
	if err := g.fail[to]; err != nil {
		return "", err
	}
	g.sent = append(g.sent, to+":"+body)
	return "msg-" + to, nil
}

func newTestSender(store *mockSendStore, stats *mockSendStats, gw *recordingGateway) *SenderService {
	pass := tokens.NewPass(nil, tokens.ContactProvider{})
	return NewSenderService(store, stats, gw, zerolog.Nop(), nil, events.TokenReplacement(pass))
}

func publishedSms() *models.Sms {
	return &models.Sms{
		ID:          uuid.New(),
		Name:        "Promo",
		Message:     "Hi {contactfield=firstname|there}",
		SmsType:     models.SmsTypeList,
		ListIDs:     []int64{1},
		IsPublished: true,
	}
}

func TestSenderService_Send(t *testing.T) {
	store := new(mockSendStore)
	stats := new(mockSendStats)
	gw := &recordingGateway{}
	svc := newTestSender(store, stats, gw)
	sms := publishedSms()
	contact := &models.Contact{ID: 5, FirstName: "Dana", Mobile: "+100"}

	store.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)
	stats.On("RecordSend", mock.Anything, mock.MatchedBy(func(s *models.SmsStat) bool {
		return s.SmsID == sms.ID && s.ContactID == 5 && !s.IsFailed && s.SourceID == "msg-+100" && s.TrackingHash != ""
	})).Return(nil)
	store.On("IncrementSentCount", mock.Anything, sms.ID, 1).Return(nil)

	result, err := svc.Send(context.Background(), sms.ID, contact, "api")

	require.NoError(t, err)
	assert.False(t, result.Failed)
	assert.Equal(t, "Hi Dana", result.Content)
	assert.Equal(t, []string{"+100:Hi Dana"}, gw.sent)
	store.AssertExpectations(t)
	stats.AssertExpectations(t)
}

func TestSenderService_Send_GatewayFailureIsRecorded(t *testing.T) {
	store := new(mockSendStore)
	stats := new(mockSendStats)
	gw := &recordingGateway{fail: map[string]error{"+100": errors.New("rejected")}}
	svc := newTestSender(store, stats, gw)
	sms := publishedSms()

	store.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)
	stats.On("RecordSend", mock.Anything, mock.MatchedBy(func(s *models.SmsStat) bool { return s.IsFailed })).Return(nil)

	result, err := svc.Send(context.Background(), sms.ID, &models.Contact{ID: 5, Mobile: "+100"}, "api")

	require.NoError(t, err)
	assert.True(t, result.Failed)
	assert.Equal(t, "rejected", result.Error)
	store.AssertNotCalled(t, "IncrementSentCount", mock.Anything, mock.Anything, mock.Anything)
}

func TestSenderService_Send_Unpublished(t *testing.T) {
	store := new(mockSendStore)
	svc := newTestSender(store, new(mockSendStats), &recordingGateway{})
	sms := publishedSms()
	sms.IsPublished = false

	store.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)

	_, err := svc.Send(context.Background(), sms.ID, &models.Contact{ID: 5, Mobile: "+100"}, "api")

	assert.ErrorIs(t, err, ErrSmsNotPublished)
}

func TestSenderService_Send_Unreachable(t *testing.T) {
	store := new(mockSendStore)
	svc := newTestSender(store, new(mockSendStats), &recordingGateway{})
	sms := publishedSms()
	store.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)

	_, err := svc.Send(context.Background(), sms.ID, &models.Contact{ID: 5}, "api")
	assert.ErrorIs(t, err, ErrNoMobile)

	_, err = svc.Send(context.Background(), sms.ID, &models.Contact{ID: 5, Mobile: "+1", DoNotContact: true}, "api")
	assert.ErrorIs(t, err, ErrDoNotContact)
}

func TestSenderService_Broadcast_Batches(t *testing.T) {
	store := new(mockSendStore)
	stats := new(mockSendStats)
	gw := &recordingGateway{fail: map[string]error{"+300": errors.New("rejected")}}
	svc := newTestSender(store, stats, gw)
	sms := publishedSms()

	store.On("ListForBroadcast", mock.Anything, (*uuid.UUID)(nil)).Return([]models.Sms{*sms}, nil)
	stats.On("PendingContacts", mock.Anything, sms.ID, []int64{1}, 2).
		Return([]models.Contact{{ID: 1, Mobile: "+100"}, {ID: 2, Mobile: "+200"}}, nil).Once()
	stats.On("PendingContacts", mock.Anything, sms.ID, []int64{1}, 2).
		Return([]models.Contact{{ID: 3, Mobile: "+300"}}, nil).Once()
	stats.On("RecordSend", mock.Anything, mock.Anything).Return(nil)
	store.On("IncrementSentCount", mock.Anything, sms.ID, 2).Return(nil)

	res, err := svc.Broadcast(context.Background(), channel.BroadcastRequest{Limit: 2})

	require.NoError(t, err)
	assert.Equal(t, channel.BroadcastResult{Channel: channel.ChannelSms, Sent: 2, Failed: 1}, res)
	assert.Len(t, gw.sent, 2)
	stats.AssertNumberOfCalls(t, "RecordSend", 3)
	store.AssertExpectations(t)
}

func TestSenderService_Broadcast_OtherChannelIsIgnored(t *testing.T) {
	store := new(mockSendStore)
	svc := newTestSender(store, new(mockSendStats), &recordingGateway{})

	res, err := svc.Broadcast(context.Background(), channel.BroadcastRequest{Channel: "email"})

	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	store.AssertNotCalled(t, "ListForBroadcast", mock.Anything, mock.Anything)
}

func TestSenderService_Broadcast_StopsOnCancel(t *testing.T) {
	store := new(mockSendStore)
	stats := new(mockSendStats)
	gw := &recordingGateway{}
	svc := newTestSender(store, stats, gw)
	sms := publishedSms()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store.On("ListForBroadcast", mock.Anything, (*uuid.UUID)(nil)).Return([]models.Sms{*sms}, nil)
	stats.On("PendingContacts", mock.Anything, sms.ID, []int64{1}, defaultBroadcastLimit).
		Return([]models.Contact{{ID: 1, Mobile: "+100"}}, nil)

	_, err := svc.Broadcast(ctx, channel.BroadcastRequest{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gw.sent)
}

func TestSenderService_Send_UsesClock(t *testing.T) {
	store := new(mockSendStore)
	svc := newTestSender(store, new(mockSendStats), &recordingGateway{})
	sms := publishedSms()
	up := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	sms.PublishUp = &up
	svc.now = func() time.Time { return up.Add(-time.Hour) }

	store.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)

	_, err := svc.Send(context.Background(), sms.ID, &models.Contact{ID: 5, Mobile: "+100"}, "api")

	assert.ErrorIs(t, err, ErrSmsNotPublished)
}
