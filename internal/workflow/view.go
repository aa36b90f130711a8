package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
)

// load fetches objectID. A nil entity with a nil error means it does not exist.
func (w *Workflow) load(ctx context.Context, objectID string) (*models.Sms, error) {
	id, ok := parseID(objectID)
	if !ok {
		return nil, nil
	}
	sms, err := w.store.GetByID(ctx, id)
	if errors.Is(err, services.ErrSmsNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sms %s: %w", id, err)
	}
	return sms, nil
}

// View renders a message with its audit trail, click stats, send chart and
// first page of contacts.
func (w *Workflow) View(ctx context.Context, req *Request, objectID string) (*Result, error) {
	sms, err := w.load(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if sms == nil {
		res := w.redirectToIndex(req, notFoundFlash(objectID))
		res.Reason = ErrNotFound
		return w.finish("view", res), nil
	}
	if !req.Gate.CanAccess(permissions.SmsViewOwn, permissions.SmsViewOther, sms.CreatedBy) {
		return w.finish("view", accessDenied()), nil
	}

	logs, err := w.audit.SmsLog(ctx, sms.ID, auditLogLimit)
	if err != nil {
		return nil, fmt.Errorf("load audit log: %w", err)
	}

	to := w.now()
	if req.DateRange.To != nil {
		to = *req.DateRange.To
	}
	from := to.AddDate(0, 0, -chartDays)
	if req.DateRange.From != nil {
		from = *req.DateRange.From
	}
	chart, err := w.stats.SentPerDay(ctx, sms.ID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load send chart: %w", err)
	}

	trackables, err := w.stats.ClickStats(ctx, sms.ID)
	if err != nil {
		return nil, fmt.Errorf("load click stats: %w", err)
	}

	contacts, err := w.contactsPage(ctx, req, sms.ID, ListParams{}, true)
	if err != nil {
		return nil, err
	}

	return w.finish("view", &Result{
		Outcome:   OutcomeView,
		ReturnURL: w.actionURL("view", sms.ID),
		ViewParameters: map[string]any{
			"sms":         sms,
			"trackables":  trackables,
			"logs":        logs,
			"permissions": req.Gate.Permissions(),
			"entityViews": chart,
			"contacts":    contacts.viewParameters(sms.ID),
			"dateRange":   map[string]any{"from": from, "to": to},
		},
		ContentTemplate: "sms/details",
		PassthroughVars: passthrough(nil),
	}), nil
}

// Preview renders the message body alone. Anything the subject may not see
// is reported as not found.
func (w *Workflow) Preview(ctx context.Context, req *Request, objectID string) (*Result, error) {
	sms, err := w.load(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if sms == nil || !req.Gate.CanAccess(permissions.SmsViewOwn, permissions.SmsViewOther, sms.CreatedBy) {
		return w.finish("preview", &Result{Outcome: OutcomeNotFound, Reason: ErrNotFound}), nil
	}
	return w.finish("preview", &Result{
		Outcome:         OutcomeView,
		ViewParameters:  map[string]any{"sms": sms},
		ContentTemplate: "sms/preview",
	}), nil
}
