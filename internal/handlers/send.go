package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/middleware"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

const sendSource = "api"

// SendHandler sends one message to one contact on demand.
type SendHandler struct {
	smsService     SmsServiceInterface
	contactService ContactServiceInterface
	sender         SenderServiceInterface
	translator     *flash.Translator
	log            zerolog.Logger
}

func NewSendHandler(smsService SmsServiceInterface, contactService ContactServiceInterface, sender SenderServiceInterface, translator *flash.Translator, log zerolog.Logger) *SendHandler {
	return &SendHandler{
		smsService:     smsService,
		contactService: contactService,
		sender:         sender,
		translator:     translator,
		log:            log.With().Str("component", "send_handler").Logger(),
	}
}

func (h *SendHandler) Send(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	smsID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid sms id")
		return
	}

	var req dto.SendRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.ContactID <= 0 {
		c.BadRequest("contact_id is required")
		return
	}

	ctx := c.Request.Context()

	sms, err := h.smsService.GetByID(ctx, smsID)
	if errors.Is(err, services.ErrSmsNotFound) {
		c.NotFound("text message not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load sms")
		c.InternalServerError("failed to load text message")
		return
	}
	if !middleware.GetGate(c).CanAccess(permissions.SmsViewOwn, permissions.SmsViewOther, sms.CreatedBy) {
		c.Forbidden("access denied")
		return
	}

	contact, err := h.contactService.GetByID(ctx, req.ContactID)
	if errors.Is(err, services.ErrContactNotFound) {
		c.NotFound("contact not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load contact")
		c.InternalServerError("failed to load contact")
		return
	}

	response := dto.SendResponse{SmsID: sms.ID, ContactID: contact.ID}
	contactName := displayName(contact)

	result, err := h.sender.Send(ctx, sms.ID, contact, sendSource)
	switch {
	case errors.Is(err, services.ErrSmsNotPublished):
		response.Flash = h.flash(flash.Error(flash.KeyMessageNotPublished, map[string]string{"name": sms.Name}))
	case errors.Is(err, services.ErrNoMobile), errors.Is(err, services.ErrDoNotContact):
		response.Flash = h.flash(flash.Error(flash.KeyContactNotReachable, map[string]string{"contact": contactName}))
	case err != nil:
		h.log.Error().Err(err).Str("sms_id", sms.ID.String()).Int64("contact_id", contact.ID).Msg("send failed")
		c.InternalServerError("failed to send text message")
		return
	case result.Failed:
		response.Flash = h.flash(flash.Error(flash.KeyMessageSendFailed, map[string]string{"reason": result.Error}))
	default:
		response.Success = true
		response.MessageID = result.MessageID
		response.Flash = h.flash(flash.Notice(flash.KeyMessageSent, map[string]string{"contact": contactName}))
	}

	_ = c.JSON(200, response)
}

func (h *SendHandler) flash(m flash.Message) dto.FlashResponse {
	return translateFlashes(h.translator, []flash.Message{m})[0]
}

func displayName(c *models.Contact) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name != "" {
		return name
	}
	if c.Mobile != "" {
		return c.Mobile
	}
	return "#" + strconv.FormatInt(c.ID, 10)
}
