package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/google/uuid"
)

// Delete removes one message on POST. Other methods only redirect.
func (w *Workflow) Delete(ctx context.Context, req *Request, objectID string) (*Result, error) {
	if !req.isPost() {
		return w.finish("delete", w.redirectToIndex(req)), nil
	}

	sms, err := w.load(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if sms == nil {
		res := w.redirectToIndex(req, notFoundFlash(objectID))
		res.Reason = ErrNotFound
		return w.finish("delete", res), nil
	}
	if !req.Gate.CanAccess(permissions.SmsDeleteOwn, permissions.SmsDeleteOther, sms.CreatedBy) {
		return w.finish("delete", accessDenied()), nil
	}
	if sms.LockedFor(req.Subject) {
		res := w.redirectToIndex(req, lockedFlash(sms))
		res.Reason = ErrLocked
		return w.finish("delete", res), nil
	}

	if err := w.store.Delete(ctx, sms); err != nil {
		if errors.Is(err, services.ErrSmsNotFound) {
			res := w.redirectToIndex(req, notFoundFlash(objectID))
			res.Reason = ErrNotFound
			return w.finish("delete", res), nil
		}
		return nil, fmt.Errorf("delete sms: %w", err)
	}
	w.metrics.ObserveDeleted(1)
	w.runPostDelete(ctx, &events.DeleteEvent{Sms: sms, UserID: req.Subject, UserName: req.SubjectName})

	return w.finish("delete", w.redirectToIndex(req, flash.Notice(flash.KeyItemDeleted, map[string]string{
		"name": sms.Name,
		"id":   objectID,
	}))), nil
}

// BatchDelete checks every id like Delete does, skips the ones that fail
// with a flash each, and deletes the rest in one store call.
func (w *Workflow) BatchDelete(ctx context.Context, req *Request) (*Result, error) {
	if !req.isPost() {
		return w.finish("batch_delete", w.redirectToIndex(req)), nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(req.IDs), &raw); err != nil {
		return w.finish("batch_delete", w.redirectToIndex(req, flash.Error(flash.KeyInvalidBatchIDs, nil))), nil
	}

	var flashes []flash.Message
	var deleteIDs []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, r := range raw {
		objectID := batchID(r)
		sms, err := w.load(ctx, objectID)
		if err != nil {
			return nil, err
		}
		switch {
		case sms == nil:
			flashes = append(flashes, notFoundFlash(objectID))
		case !req.Gate.CanAccess(permissions.SmsDeleteOwn, permissions.SmsDeleteOther, sms.CreatedBy):
			flashes = append(flashes, flash.Error(flash.KeyAccessDenied, map[string]string{"name": sms.Name}))
		case sms.LockedFor(req.Subject):
			flashes = append(flashes, lockedFlash(sms))
		case !seen[sms.ID]:
			seen[sms.ID] = true
			deleteIDs = append(deleteIDs, sms.ID)
		}
	}

	if len(deleteIDs) > 0 {
		deleted, err := w.store.DeleteMany(ctx, deleteIDs)
		if err != nil {
			return nil, fmt.Errorf("delete sms batch: %w", err)
		}
		w.metrics.ObserveDeleted(len(deleted))
		for i := range deleted {
			w.runPostDelete(ctx, &events.DeleteEvent{Sms: &deleted[i], UserID: req.Subject, UserName: req.SubjectName})
		}
		flashes = append(flashes, flash.Notice(flash.KeyBatchDeleted, map[string]string{
			"count": strconv.Itoa(len(deleted)),
		}))
	}

	return w.finish("batch_delete", w.redirectToIndex(req, flashes...)), nil
}

// batchID accepts ids sent as JSON strings or bare values.
func batchID(r json.RawMessage) string {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s
	}
	return string(r)
}
