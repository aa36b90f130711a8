// Package events defines the extension points invoked around message
// persistence and delivery. Hooks run in registration order.
package events

import (
	"context"
	"errors"

	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/google/uuid"
)

type SaveEvent struct {
	Sms      *models.Sms
	Before   *models.Sms
	IsNew    bool
	Changes  map[string]models.Change
	UserID   uuid.UUID
	UserName string
	Gate     *permissions.Gate

	// Flashes collects notices hooks want shown to the user.
	Flashes []flash.Message
}

type DeleteEvent struct {
	Sms      *models.Sms
	UserID   uuid.UUID
	UserName string
}

// SendEvent carries the content about to be delivered. Hooks may rewrite Content.
type SendEvent struct {
	Sms          *models.Sms
	Contact      *models.Contact
	Content      string
	TokenContext *tokens.Context
}

type (
	SaveHook   func(ctx context.Context, e *SaveEvent) error
	DeleteHook func(ctx context.Context, e *DeleteEvent) error
	SendHook   func(ctx context.Context, e *SendEvent) error
)

// RunSave stops at the first failing hook.
func RunSave(ctx context.Context, hooks []SaveHook, e *SaveEvent) error {
	for _, h := range hooks {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func RunDelete(ctx context.Context, hooks []DeleteHook, e *DeleteEvent) error {
	for _, h := range hooks {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// NotifySave runs every hook even when earlier ones fail and joins the errors.
func NotifySave(ctx context.Context, hooks []SaveHook, e *SaveEvent) error {
	var errs []error
	for _, h := range hooks {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func NotifyDelete(ctx context.Context, hooks []DeleteHook, e *DeleteEvent) error {
	var errs []error
	for _, h := range hooks {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func RunSend(ctx context.Context, hooks []SendHook, e *SendEvent) error {
	for _, h := range hooks {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// TokenReplacement rewrites the send content through a token pass.
func TokenReplacement(pass *tokens.Pass) SendHook {
	return func(ctx context.Context, e *SendEvent) error {
		content, err := pass.Replace(ctx, e.Content, e.TokenContext)
		if err != nil {
			return err
		}
		e.Content = content
		return nil
	}
}
