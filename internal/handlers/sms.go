package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/forms"
	"github.com/dimitrije/smsdesk/internal/middleware"
	"github.com/dimitrije/smsdesk/internal/session"
	"github.com/dimitrije/smsdesk/internal/workflow"
	"github.com/dimitrije/smsdesk/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

const dateLayout = "2006-01-02"

// SessionFunc returns the session of the request that ctx belongs to.
type SessionFunc func(ctx context.Context) session.Store

type SmsHandler struct {
	workflow   SmsWorkflowInterface
	sessions   SessionFunc
	translator *flash.Translator
	log        zerolog.Logger
}

func NewSmsHandler(wf SmsWorkflowInterface, sessions SessionFunc, translator *flash.Translator, log zerolog.Logger) *SmsHandler {
	return &SmsHandler{
		workflow:   wf,
		sessions:   sessions,
		translator: translator,
		log:        log.With().Str("component", "sms_handler").Logger(),
	}
}

func (h *SmsHandler) List(c *drift.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	res, err := h.workflow.List(c.Request.Context(), req)
	h.render(c, res, err)
}

func (h *SmsHandler) Contacts(c *drift.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	res, err := h.workflow.Contacts(c.Request.Context(), req, c.Param("id"))
	h.render(c, res, err)
}

func (h *SmsHandler) View(c *drift.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	q := c.Request.URL.Query()
	from, err := parseDate(q, "date_from")
	if err != nil {
		c.BadRequest("invalid date_from")
		return
	}
	to, err := parseDate(q, "date_to")
	if err != nil {
		c.BadRequest("invalid date_to")
		return
	}
	req.DateRange = workflow.DateRange{From: from, To: to}

	res, err := h.workflow.View(c.Request.Context(), req, c.Param("id"))
	h.render(c, res, err)
}

func (h *SmsHandler) Preview(c *drift.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	res, err := h.workflow.Preview(c.Request.Context(), req, c.Param("id"))
	h.render(c, res, err)
}

func (h *SmsHandler) New(c *drift.Context) {
	req, ok := h.formRequest(c)
	if !ok {
		return
	}
	res, err := h.workflow.New(c.Request.Context(), req)
	h.render(c, res, err)
}

func (h *SmsHandler) Edit(c *drift.Context) {
	req, ok := h.formRequest(c)
	if !ok {
		return
	}
	res, err := h.workflow.Edit(c.Request.Context(), req, c.Param("id"))
	h.render(c, res, err)
}

func (h *SmsHandler) Clone(c *drift.Context) {
	req, ok := h.formRequest(c)
	if !ok {
		return
	}
	res, err := h.workflow.Clone(c.Request.Context(), req, c.Param("id"))
	h.render(c, res, err)
}

func (h *SmsHandler) Delete(c *drift.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	res, err := h.workflow.Delete(c.Request.Context(), req, c.Param("id"))
	h.render(c, res, err)
}

func (h *SmsHandler) BatchDelete(c *drift.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	if req.Method == http.MethodPost {
		ids := c.QueryParam("ids")
		if ids == "" {
			var body dto.BatchDeleteRequest
			if err := c.BindJSON(&body); err != nil {
				c.BadRequest("invalid request body")
				return
			}
			ids = batchIDs(body.IDs)
		}
		req.IDs = ids
	}
	res, err := h.workflow.BatchDelete(c.Request.Context(), req)
	h.render(c, res, err)
}

func (h *SmsHandler) Unlock(c *drift.Context) {
	req, ok := h.request(c)
	if !ok {
		return
	}
	res, err := h.workflow.Unlock(c.Request.Context(), req, c.Param("id"))
	h.render(c, res, err)
}

// request builds the workflow request shared by every action.
func (h *SmsHandler) request(c *drift.Context) (*workflow.Request, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return nil, false
	}

	q := c.Request.URL.Query()
	params, err := listParams(q)
	if err != nil {
		c.BadRequest(err.Error())
		return nil, false
	}

	return &workflow.Request{
		Subject:      userID,
		SubjectName:  middleware.GetUserName(c),
		Gate:         middleware.GetGate(c),
		Session:      h.sessions(c.Request.Context()),
		Method:       c.Request.Method,
		List:         params,
		UpdateSelect: q.Get("updateSelect"),
	}, true
}

// formRequest adds the posted editor form to the request.
func (h *SmsHandler) formRequest(c *drift.Context) (*workflow.Request, bool) {
	req, ok := h.request(c)
	if !ok || req.Method != http.MethodPost {
		return req, ok
	}

	var body dto.SmsFormRequest
	if err := c.BindJSON(&body); err != nil {
		c.BadRequest("invalid request body")
		return nil, false
	}
	if body.Button == "" {
		body.Button = forms.ButtonSave
	}
	req.Submission = &forms.Submission{Button: body.Button, Fields: body.Fields}
	if body.UpdateSelect != "" {
		req.UpdateSelect = body.UpdateSelect
	}
	return req, true
}

func (h *SmsHandler) render(c *drift.Context, res *workflow.Result, err error) {
	if err != nil {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("sms action failed")
		c.InternalServerError("internal server error")
		return
	}

	switch res.Outcome {
	case workflow.OutcomeAccessDenied:
		c.Forbidden("access denied")
	case workflow.OutcomeNotFound:
		c.NotFound("text message not found")
	default:
		_ = c.JSON(200, dto.WorkflowResponse{
			Outcome:         string(res.Outcome),
			ReturnURL:       res.ReturnURL,
			ContentTemplate: res.ContentTemplate,
			ViewParameters:  res.ViewParameters,
			PassthroughVars: res.PassthroughVars,
			Flashes:         translateFlashes(h.translator, res.Flashes),
		})
	}
}

func translateFlashes(t *flash.Translator, messages []flash.Message) []dto.FlashResponse {
	out := make([]dto.FlashResponse, len(messages))
	for i, m := range messages {
		out[i] = dto.FlashResponse{
			Type:    string(m.Type),
			Key:     m.Key,
			Message: t.Translate(m),
			Vars:    m.Vars,
		}
	}
	return out
}

func listParams(q url.Values) (workflow.ListParams, error) {
	var p workflow.ListParams
	var err error
	if p.Page, err = intParam(q, "page"); err != nil {
		return p, err
	}
	if p.Limit, err = intParam(q, "limit"); err != nil {
		return p, err
	}
	if q.Has("search") {
		v := q.Get("search")
		p.Search = &v
	}
	if q.Has("filters") {
		v := q.Get("filters")
		p.Filters = &v
	}
	p.OrderBy = q.Get("orderby")
	p.OrderByDir = q.Get("orderbydir")
	return p, nil
}

type paramError string

func (e paramError) Error() string { return "invalid " + string(e) }

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, paramError(name)
	}
	return n, nil
}

func parseDate(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// batchIDs unwraps ids sent as a JSON string holding the array.
func batchIDs(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
