package handlers

import (
	"context"

	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/sse"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/dimitrije/smsdesk/internal/workflow"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SmsWorkflowInterface defines the methods used by handlers from workflow.Workflow
type SmsWorkflowInterface interface {
	List(ctx context.Context, req *workflow.Request) (*workflow.Result, error)
	Contacts(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error)
	View(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error)
	Preview(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error)
	New(ctx context.Context, req *workflow.Request) (*workflow.Result, error)
	Edit(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error)
	Clone(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error)
	Delete(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error)
	BatchDelete(ctx context.Context, req *workflow.Request) (*workflow.Result, error)
	Unlock(ctx context.Context, req *workflow.Request, objectID string) (*workflow.Result, error)
}

// SmsServiceInterface defines the methods used by handlers from SmsService
type SmsServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Sms, error)
}

// ContactServiceInterface defines the methods used by handlers from ContactService
type ContactServiceInterface interface {
	GetByID(ctx context.Context, id int64) (*models.Contact, error)
}

// SenderServiceInterface defines the methods used by handlers from SenderService
type SenderServiceInterface interface {
	Send(ctx context.Context, smsID uuid.UUID, contact *models.Contact, source string) (*services.SendResult, error)
}

// TrackableServiceInterface defines the methods used by handlers from TrackableService
type TrackableServiceInterface interface {
	GetByRedirectID(ctx context.Context, redirectID string) (*models.Redirect, error)
	RecordHit(ctx context.Context, r *models.Redirect, ct tokens.Clickthrough) error
}

// SSEHubInterface defines the methods used by handlers from sse.Hub
type SSEHubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
}
