package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/smsdesk/internal/events"
	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/forms"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/session"
)

// New renders or processes the form of a new message.
func (w *Workflow) New(ctx context.Context, req *Request) (*Result, error) {
	return w.create(ctx, req, models.NewSms(), "new")
}

// Clone copies a message into a new, unsaved one and continues as New.
// An unknown source id falls through to a blank form.
func (w *Workflow) Clone(ctx context.Context, req *Request, objectID string) (*Result, error) {
	source, err := w.load(ctx, objectID)
	if err != nil {
		return nil, err
	}
	entity := models.NewSms()
	if source != nil {
		if !req.Gate.IsGranted(permissions.SmsCreate) ||
			!req.Gate.CanAccess(permissions.SmsEditOwn, permissions.SmsEditOther, source.CreatedBy) {
			return w.finish("clone", accessDenied()), nil
		}
		entity = source.Clone()
	}
	return w.create(ctx, req, entity, "clone")
}

func (w *Workflow) create(ctx context.Context, req *Request, entity *models.Sms, action string) (*Result, error) {
	if !req.Gate.IsGranted(permissions.SmsCreate) {
		return w.finish(action, accessDenied()), nil
	}

	updateSelect := w.binder.Sanitize(req.UpdateSelect)
	if updateSelect != "" {
		entity.SmsType = models.SmsTypeTemplate
	}

	if !req.isPost() || req.Submission == nil {
		return w.finish(action, w.formView(entity, w.basePath+"/new", updateSelect, nil)), nil
	}

	form := w.binder.Bind(entity, action, req.Submission)
	if form.Cancelled {
		req.Session.Remove(session.ContentKey(entity.GetSessionID()))
		res := w.redirectToIndex(req)
		w.popup(res, entity, updateSelect)
		return w.finish(action, res), nil
	}
	if !form.Valid {
		res := w.formView(entity, w.basePath+"/new", updateSelect, form)
		return w.finish(action, res), nil
	}

	entity.CreatedBy = req.Subject
	entity.CreatedByUser = req.SubjectName
	if entity.Language == "" {
		entity.Language = "en"
	}
	sessionID := entity.GetSessionID()
	flashes, err := w.save(ctx, req, entity, nil, false)
	if err != nil {
		return nil, err
	}
	req.Session.Remove(session.ContentKey(sessionID))
	flashes = append(flashes, flash.Notice(flash.KeyItemCreated, map[string]string{
		"name": entity.Name,
		"url":  w.actionURL("edit", entity.ID),
	}))

	if !form.SaveClicked() && req.Gate.CanAccess(permissions.SmsEditOwn, permissions.SmsEditOther, entity.CreatedBy) {
		// Apply keeps editing; the edit path takes the lock. Without edit
		// rights the subject lands on the view like Save.
		res, err := w.edit(ctx, req, entity.ID.String(), true)
		if err != nil {
			return nil, err
		}
		res.Flashes = append(flashes, res.Flashes...)
		return w.finish(action, res), nil
	}

	res := &Result{
		Outcome:         OutcomeRedirect,
		ReturnURL:       w.actionURL("view", entity.ID),
		ViewParameters:  map[string]any{"objectAction": "view", "objectId": entity.ID},
		ContentTemplate: "sms/view",
		PassthroughVars: passthrough(nil),
		Flashes:         flashes,
	}
	w.popup(res, entity, updateSelect)
	return w.finish(action, res), nil
}

// Edit renders or processes the form of an existing message, holding the
// edit lock while the form is open.
func (w *Workflow) Edit(ctx context.Context, req *Request, objectID string) (*Result, error) {
	res, err := w.edit(ctx, req, objectID, false)
	if err != nil {
		return nil, err
	}
	return w.finish("edit", res), nil
}

func (w *Workflow) edit(ctx context.Context, req *Request, objectID string, ignorePost bool) (*Result, error) {
	sms, err := w.load(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if sms == nil {
		res := w.redirectToIndex(req, notFoundFlash(objectID))
		res.Reason = ErrNotFound
		return res, nil
	}
	if !req.Gate.CanAccess(permissions.SmsEditOwn, permissions.SmsEditOther, sms.CreatedBy) {
		return accessDenied(), nil
	}
	if sms.LockedFor(req.Subject) {
		res := w.redirectToIndex(req, lockedFlash(sms))
		res.Reason = ErrLocked
		return res, nil
	}

	updateSelect := w.binder.Sanitize(req.UpdateSelect)
	formAction := w.actionURL("edit", sms.ID)

	if ignorePost || !req.isPost() || req.Submission == nil {
		if err := w.store.Lock(ctx, sms, req.Subject); err != nil {
			if errors.Is(err, services.ErrSmsLocked) {
				res := w.redirectToIndex(req, lockedFlash(sms))
				res.Reason = ErrLocked
				return res, nil
			}
			return nil, fmt.Errorf("lock sms: %w", err)
		}
		return w.formView(sms, formAction, updateSelect, nil), nil
	}

	before := snapshot(sms)
	form := w.binder.Bind(sms, "edit", req.Submission)
	if form.Cancelled {
		req.Session.Remove(session.ContentKey(sms.ID.String()))
		if err := w.store.Unlock(ctx, sms); err != nil {
			return nil, fmt.Errorf("unlock sms: %w", err)
		}
		return w.viewRedirect(sms, updateSelect, nil), nil
	}
	if !form.Valid {
		return w.formView(sms, formAction, updateSelect, form), nil
	}

	flashes, err := w.save(ctx, req, sms, before, form.SaveClicked())
	if errors.Is(err, services.ErrSmsNotFound) {
		res := w.redirectToIndex(req, notFoundFlash(objectID))
		res.Reason = ErrNotFound
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	flashes = append(flashes, flash.Message{
		Type: flash.TypeWarning,
		Key:  flash.KeyItemUpdated,
		Vars: map[string]string{"name": sms.Name, "url": formAction},
	})

	if form.SaveClicked() {
		req.Session.Remove(session.ContentKey(sms.ID.String()))
		return w.viewRedirect(sms, updateSelect, flashes), nil
	}
	res := w.formView(sms, formAction, updateSelect, form)
	res.Flashes = flashes
	return res, nil
}

// save runs the pre-save hooks, persists sms and runs the post-save hooks.
// It returns the flashes the hooks produced.
func (w *Workflow) save(ctx context.Context, req *Request, sms, before *models.Sms, unlock bool) ([]flash.Message, error) {
	e := &events.SaveEvent{
		Sms:      sms,
		Before:   before,
		IsNew:    sms.IsNew(),
		UserID:   req.Subject,
		UserName: req.SubjectName,
		Gate:     req.Gate,
	}
	if err := events.RunSave(ctx, w.hooks.PreSave, e); err != nil {
		return nil, fmt.Errorf("pre-save: %w", err)
	}
	if err := w.store.Save(ctx, sms, unlock); err != nil {
		if errors.Is(err, services.ErrSmsNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("save sms: %w", err)
	}
	e.Changes = models.Diff(before, sms)
	w.runPostSave(ctx, e)
	return e.Flashes, nil
}

func (w *Workflow) formView(sms *models.Sms, action, updateSelect string, form *forms.Form) *Result {
	if form == nil {
		form = &forms.Form{Action: action, Entity: sms}
	}
	form.Action = action
	res := &Result{
		Outcome: OutcomeView,
		ViewParameters: map[string]any{
			"form": form,
			"sms":  sms,
		},
		ContentTemplate: "sms/form",
		PassthroughVars: passthrough(map[string]any{
			"updateSelect": updateSelect,
			"route":        action,
		}),
	}
	if form.Submitted && !form.Valid {
		res.Reason = ErrValidationFailed
		res.Flashes = []flash.Message{flash.Error(flash.KeyValidationFailed, nil)}
	}
	return res
}

func (w *Workflow) viewRedirect(sms *models.Sms, updateSelect string, flashes []flash.Message) *Result {
	res := &Result{
		Outcome:         OutcomeRedirect,
		ReturnURL:       w.actionURL("view", sms.ID),
		ViewParameters:  map[string]any{"objectAction": "view", "objectId": sms.ID},
		ContentTemplate: "sms/view",
		PassthroughVars: passthrough(nil),
		Flashes:         flashes,
	}
	w.popup(res, sms, updateSelect)
	return res
}

// popup hands the saved message back to the opener of a popup editor.
func (w *Workflow) popup(res *Result, sms *models.Sms, updateSelect string) {
	if updateSelect == "" {
		return
	}
	res.ContentTemplate = ""
	res.PassthroughVars["updateSelect"] = updateSelect
	res.PassthroughVars["smsId"] = sms.ID
	res.PassthroughVars["smsName"] = sms.Name
	res.PassthroughVars["smsLang"] = sms.Language
}

// Unlock releases an edit lock. The lock holder and subjects allowed to edit
// other users' messages may unlock.
func (w *Workflow) Unlock(ctx context.Context, req *Request, objectID string) (*Result, error) {
	if !req.isPost() {
		return w.finish("unlock", w.redirectToIndex(req)), nil
	}
	sms, err := w.load(ctx, objectID)
	if err != nil {
		return nil, err
	}
	if sms == nil {
		res := w.redirectToIndex(req, notFoundFlash(objectID))
		res.Reason = ErrNotFound
		return w.finish("unlock", res), nil
	}
	if sms.CheckedOutBy == nil {
		return w.finish("unlock", w.redirectToIndex(req)), nil
	}
	if *sms.CheckedOutBy != req.Subject && !req.Gate.IsGranted(permissions.SmsEditOther) {
		return w.finish("unlock", accessDenied()), nil
	}
	if err := w.store.Unlock(ctx, sms); err != nil {
		return nil, fmt.Errorf("unlock sms: %w", err)
	}
	return w.finish("unlock", w.redirectToIndex(req, flash.Notice(flash.KeyItemUnlocked, map[string]string{"name": sms.Name}))), nil
}
