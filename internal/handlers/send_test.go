package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/middleware"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
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

type sendFixture struct {
	sms      *testutil.MockSmsService
	contacts *testutil.MockContactService
	sender   *testutil.MockSenderService
	app      http.Handler
	token    string
	userID   uuid.UUID
}

func setupSendTest(t *testing.T, perms ...string) *sendFixture {
	t.Helper()
	f := &sendFixture{
		sms:      new(testutil.MockSmsService),
		contacts: new(testutil.MockContactService),
		sender:   new(testutil.MockSenderService),
		userID:   uuid.New(),
	}
	translator, err := flash.NewTranslator(language.English, nil)
	require.NoError(t, err)
	handler := NewSendHandler(f.sms, f.contacts, f.sender, translator, zerolog.Nop())
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(middleware.Auth(jwtSvc))
	app.Use(middleware.Permissions(grant(perms...)))
	app.Post("/sms/send/:id", handler.Send)

	f.app = app
	f.token = generateTestToken(t, jwtSvc, f.userID, "test@example.com")
	return f
}

func TestSendHandler_Send_Success(t *testing.T) {
	f := setupSendTest(t, permissions.SmsViewOwn)

	sms := &models.Sms{ID: uuid.New(), Name: "Promo", CreatedBy: f.userID}
	contact := &models.Contact{ID: 42, FirstName: "Ada", LastName: "Lovelace", Mobile: "+15550001"}
	f.sms.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)
	f.contacts.On("GetByID", mock.Anything, int64(42)).Return(contact, nil)
	f.sender.On("Send", mock.Anything, sms.ID, contact, "api").
		Return(&services.SendResult{SmsID: sms.ID, ContactID: 42, MessageID: "msg-1"}, nil)

	rec := doRequest(f.app, http.MethodPost, "/sms/send/"+sms.ID.String(), f.token, dto.SendRequest{ContactID: 42})

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.SendResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, "msg-1", response.MessageID)
	assert.Equal(t, "Text message sent to Ada Lovelace.", response.Flash.Message)

	f.sender.AssertExpectations(t)
}

func TestSendHandler_Send_DeniedForOthersMessage(t *testing.T) {
	f := setupSendTest(t, permissions.SmsViewOwn)

	sms := &models.Sms{ID: uuid.New(), CreatedBy: uuid.New()}
	f.sms.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)

	rec := doRequest(f.app, http.MethodPost, "/sms/send/"+sms.ID.String(), f.token, dto.SendRequest{ContactID: 1})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendHandler_Send_Validation(t *testing.T) {
	f := setupSendTest(t, permissions.SmsViewOther)

	rec := doRequest(f.app, http.MethodPost, "/sms/send/not-a-uuid", f.token, dto.SendRequest{ContactID: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(f.app, http.MethodPost, "/sms/send/"+uuid.NewString(), f.token, dto.SendRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "contact_id is required")
}

func TestSendHandler_Send_NotFound(t *testing.T) {
	f := setupSendTest(t, permissions.SmsViewOther)

	id := uuid.New()
	f.sms.On("GetByID", mock.Anything, id).Return(nil, services.ErrSmsNotFound)

	rec := doRequest(f.app, http.MethodPost, "/sms/send/"+id.String(), f.token, dto.SendRequest{ContactID: 1})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendHandler_Send_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		result  *services.SendResult
		err     error
		key     string
		message string
	}{
		{"not published", nil, services.ErrSmsNotPublished, flash.KeyMessageNotPublished, "Promo is not published."},
		{"no mobile", nil, services.ErrNoMobile, flash.KeyContactNotReachable, "Contact Ada cannot receive text messages."},
		{"do not contact", nil, services.ErrDoNotContact, flash.KeyContactNotReachable, "Contact Ada cannot receive text messages."},
		{"gateway failure", &services.SendResult{Failed: true, Error: "rejected"}, nil, flash.KeyMessageSendFailed, "Text message could not be sent: rejected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupSendTest(t, permissions.SmsViewOther)

			sms := &models.Sms{ID: uuid.New(), Name: "Promo", CreatedBy: uuid.New()}
			contact := &models.Contact{ID: 7, FirstName: "Ada"}
			f.sms.On("GetByID", mock.Anything, sms.ID).Return(sms, nil)
			f.contacts.On("GetByID", mock.Anything, int64(7)).Return(contact, nil)
			if tt.result != nil {
				f.sender.On("Send", mock.Anything, sms.ID, contact, "api").Return(tt.result, nil)
			} else {
				f.sender.On("Send", mock.Anything, sms.ID, contact, "api").Return(nil, tt.err)
			}

			rec := doRequest(f.app, http.MethodPost, "/sms/send/"+sms.ID.String(), f.token, dto.SendRequest{ContactID: 7})

			assert.Equal(t, http.StatusOK, rec.Code)
			var response dto.SendResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.False(t, response.Success)
			assert.Equal(t, tt.key, response.Flash.Key)
			assert.Equal(t, "error", response.Flash.Type)
			assert.Equal(t, tt.message, response.Flash.Message)
		})
	}
}
