package testutil

import (
	"context"

	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/sse"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/dimitrije/smsdesk/internal/workflow"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockSmsWorkflow mocks the sms workflow
type MockSmsWorkflow struct {
	mock.Mock
}

func (m *MockSmsWorkflow) result(args mock.Arguments) (*workflow.Result, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*workflow.Result), args.Error(1)
}

func (m *MockSmsWorkflow) List(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockSmsWorkflow) Contacts(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req, objectID))
}

func (m *MockSmsWorkflow) View(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req, objectID))
}

func (m *MockSmsWorkflow) Preview(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req, objectID))
}

func (m *MockSmsWorkflow) New(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockSmsWorkflow) Edit(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req, objectID))
}

func (m *MockSmsWorkflow) Clone(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req, objectID))
}

func (m *MockSmsWorkflow) Delete(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req, objectID))
}

func (m *MockSmsWorkflow) BatchDelete(ctx context.Context, req *workflow.Request) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockSmsWorkflow) Unlock(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error) {
	return m.result(m.Called(ctx, req, objectID))
}

// MockSmsService mocks the SmsService
type MockSmsService struct {
	mock.Mock
}

func (m *MockSmsService) GetByID(ctx context.Context, id uuid.UUID) (*models.Sms, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Sms), args.Error(1)
}

// MockContactService mocks the ContactService
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) GetByID(ctx context.Context, id int64) (*models.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Contact), args.Error(1)
}

// MockSenderService mocks the SenderService
type MockSenderService struct {
	mock.Mock
}

func (m *MockSenderService) Send(ctx context.Context, smsID uuid.UUID, contact *models.Contact, source string) (*services.SendResult, error) {
	args := m.Called(ctx, smsID, contact, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SendResult), args.Error(1)
}

// MockTrackableService mocks the TrackableService
type MockTrackableService struct {
	mock.Mock
}

func (m *MockTrackableService) GetByRedirectID(ctx context.Context, redirectID string) (*models.Redirect, error) {
	args := m.Called(ctx, redirectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Redirect), args.Error(1)
}

func (m *MockTrackableService) RecordHit(ctx context.Context, r *models.Redirect, ct tokens.Clickthrough) error {
	args := m.Called(ctx, r, ct)
	return args.Error(0)
}

// MockSSEHub mocks the sse.Hub
type MockSSEHub struct {
	mock.Mock
}

func (m *MockSSEHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockSSEHub) Unregister(client *sse.Client) {
	m.Called(client)
}
