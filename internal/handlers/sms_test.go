package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/forms"
	"github.com/dimitrije/smsdesk/internal/middleware"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/session"
	"github.com/dimitrije/smsdesk/internal/workflow"
	"github.com/dimitrije/smsdesk/pkg/dto"
	"github.com/dimitrije/smsdesk/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func setupSmsTest(t *testing.T) (*testutil.MockSmsWorkflow, http.Handler, string) {
	t.Helper()
	mockWorkflow := new(testutil.MockSmsWorkflow)
	translator, err := flash.NewTranslator(language.English, nil)
	require.NoError(t, err)

	store := session.NewMemoryStore()
	handler := NewSmsHandler(mockWorkflow, func(context.Context) session.Store { return store }, translator, zerolog.Nop())
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Use(middleware.Permissions(grant(permissions.SmsViewOwn)))
	app.Get("/sms", handler.List)
	app.Get("/sms/view/:id", handler.View)
	app.Get("/sms/preview/:id", handler.Preview)
	app.Get("/sms/edit/:id", handler.Edit)
	app.Post("/sms/edit/:id", handler.Edit)
	app.Post("/sms/delete/:id", handler.Delete)
	app.Post("/sms/batchDelete", handler.BatchDelete)

	token := generateTestToken(t, jwtSvc, uuid.New(), "test@example.com")
	return mockWorkflow, app, token
}

func doRequest(app http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func TestSmsHandler_List_PassesListParams(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	mockWorkflow.On("List", mock.Anything, mock.MatchedBy(func(req *workflow.Request) bool {
		return req.List.Page == 2 &&
			req.List.Search != nil && *req.List.Search == "promo" &&
			req.List.Filters == nil &&
			req.List.OrderBy == "name" &&
			req.Method == http.MethodGet &&
			req.Gate.IsGranted(permissions.SmsViewOwn)
	})).Return(&workflow.Result{
		Outcome:         workflow.OutcomeView,
		ContentTemplate: "sms/list",
		ViewParameters:  map[string]any{"page": 2},
	}, nil)

	rec := doRequest(app, http.MethodGet, "/sms?page=2&search=promo&orderby=name", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.WorkflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "view", response.Outcome)
	assert.Equal(t, "sms/list", response.ContentTemplate)
	assert.Empty(t, response.Flashes)

	mockWorkflow.AssertExpectations(t)
}

func TestSmsHandler_List_InvalidPage(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	rec := doRequest(app, http.MethodGet, "/sms?page=abc", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid page")
	mockWorkflow.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestSmsHandler_Unauthenticated(t *testing.T) {
	_, app, _ := setupSmsTest(t)

	rec := doRequest(app, http.MethodGet, "/sms", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSmsHandler_AccessDeniedIsForbidden(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	id := uuid.NewString()
	mockWorkflow.On("View", mock.Anything, mock.Anything, id).
		Return(&workflow.Result{Outcome: workflow.OutcomeAccessDenied, Reason: workflow.ErrAccessDenied}, nil)

	rec := doRequest(app, http.MethodGet, "/sms/view/"+id, token, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSmsHandler_View_DateRange(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	id := uuid.NewString()
	from := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	mockWorkflow.On("View", mock.Anything, mock.MatchedBy(func(req *workflow.Request) bool {
		return req.DateRange.From != nil && req.DateRange.From.Equal(from) && req.DateRange.To == nil
	}), id).Return(&workflow.Result{Outcome: workflow.OutcomeView, ContentTemplate: "sms/details"}, nil)

	rec := doRequest(app, http.MethodGet, "/sms/view/"+id+"?date_from=2026-01-02", token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockWorkflow.AssertExpectations(t)
}

func TestSmsHandler_View_InvalidDate(t *testing.T) {
	_, app, token := setupSmsTest(t)

	rec := doRequest(app, http.MethodGet, "/sms/view/"+uuid.NewString()+"?date_to=yesterday", token, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid date_to")
}

func TestSmsHandler_Preview_NotFound(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	mockWorkflow.On("Preview", mock.Anything, mock.Anything, "missing").
		Return(&workflow.Result{Outcome: workflow.OutcomeNotFound, Reason: workflow.ErrNotFound}, nil)

	rec := doRequest(app, http.MethodGet, "/sms/preview/missing", token, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSmsHandler_Edit_BindsSubmission(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	id := uuid.NewString()
	mockWorkflow.On("Edit", mock.Anything, mock.MatchedBy(func(req *workflow.Request) bool {
		return req.Method == http.MethodPost &&
			req.Submission != nil &&
			req.Submission.Button == forms.ButtonApply &&
			req.Submission.Fields.Name != nil && *req.Submission.Fields.Name == "Renamed" &&
			req.UpdateSelect == "campaign_sms"
	}), id).Return(&workflow.Result{Outcome: workflow.OutcomeView, ContentTemplate: "sms/form"}, nil)

	name := "Renamed"
	body := dto.SmsFormRequest{
		Button:       forms.ButtonApply,
		Fields:       forms.Fields{Name: &name},
		UpdateSelect: "campaign_sms",
	}
	rec := doRequest(app, http.MethodPost, "/sms/edit/"+id, token, body)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockWorkflow.AssertExpectations(t)
}

func TestSmsHandler_Edit_GetHasNoSubmission(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	id := uuid.NewString()
	mockWorkflow.On("Edit", mock.Anything, mock.MatchedBy(func(req *workflow.Request) bool {
		return req.Submission == nil
	}), id).Return(&workflow.Result{Outcome: workflow.OutcomeView}, nil)

	rec := doRequest(app, http.MethodGet, "/sms/edit/"+id, token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockWorkflow.AssertExpectations(t)
}

func TestSmsHandler_Delete_TranslatesFlashes(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	id := uuid.NewString()
	mockWorkflow.On("Delete", mock.Anything, mock.Anything, id).Return(&workflow.Result{
		Outcome:   workflow.OutcomeRedirect,
		ReturnURL: "/api/v1/sms?page=1",
		Flashes:   []flash.Message{flash.Notice(flash.KeyItemDeleted, map[string]string{"name": "Promo"})},
	}, nil)

	rec := doRequest(app, http.MethodPost, "/sms/delete/"+id, token, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.WorkflowResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "redirect", response.Outcome)
	assert.Equal(t, "/api/v1/sms?page=1", response.ReturnURL)
	require.Len(t, response.Flashes, 1)
	assert.Equal(t, "notice", response.Flashes[0].Type)
	assert.Equal(t, "Promo has been deleted!", response.Flashes[0].Message)
}

func TestSmsHandler_BatchDelete_AcceptsArrayOrString(t *testing.T) {
	id1, id2 := uuid.NewString(), uuid.NewString()
	expected := `["` + id1 + `","` + id2 + `"]`

	tests := []struct {
		name string
		body any
	}{
		{"array", map[string]any{"ids": []string{id1, id2}}},
		{"string", map[string]any{"ids": expected}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockWorkflow, app, token := setupSmsTest(t)
			mockWorkflow.On("BatchDelete", mock.Anything, mock.MatchedBy(func(req *workflow.Request) bool {
				return req.IDs == expected
			})).Return(&workflow.Result{Outcome: workflow.OutcomeRedirect}, nil)

			rec := doRequest(app, http.MethodPost, "/sms/batchDelete", token, tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			mockWorkflow.AssertExpectations(t)
		})
	}
}

func TestSmsHandler_WorkflowErrorIsInternal(t *testing.T) {
	mockWorkflow, app, token := setupSmsTest(t)

	mockWorkflow.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	rec := doRequest(app, http.MethodGet, "/sms", token, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}
