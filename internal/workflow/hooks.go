package workflow

import (
	"context"

	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/permissions"
)

// RequirePublishPermission reverts a change of the published flag the
// subject may not make and adds a warning.
func RequirePublishPermission(_ context.Context, e *events.SaveEvent) error {
	wasPublished := false
	if e.Before != nil {
		wasPublished = e.Before.IsPublished
	}
	if e.Sms.IsPublished == wasPublished {
		return nil
	}
	if e.Gate.CanAccess(permissions.SmsPublishOwn, permissions.SmsPublishOther, e.Sms.CreatedBy) {
		return nil
	}
	e.Sms.IsPublished = wasPublished
	e.Flashes = append(e.Flashes, flash.Message{
		Type: flash.TypeWarning,
		Key:  flash.KeyPublishDenied,
		Vars: map[string]string{"name": e.Sms.Name},
	})
	return nil
}

// DefaultHooks holds the pre-save hooks every workflow runs.
func DefaultHooks() Hooks {
	return Hooks{PreSave: []events.SaveHook{RequirePublishPermission}}
}

func (w *Workflow) runPostSave(ctx context.Context, e *events.SaveEvent) {
	if err := events.NotifySave(ctx, w.hooks.PostSave, e); err != nil {
		w.log.Error().Err(err).Str("sms_id", e.Sms.ID.String()).Msg("post-save hook failed")
	}
}

func (w *Workflow) runPostDelete(ctx context.Context, e *events.DeleteEvent) {
	if err := events.NotifyDelete(ctx, w.hooks.PostDelete, e); err != nil {
		w.log.Error().Err(err).Str("sms_id", e.Sms.ID.String()).Msg("post-delete hook failed")
	}
}
