package handlers

import (
	"errors"
	"fmt"
	"html"

	"github.com/dimitrije/smsdesk/internal/metrics"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/tokens"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rs/zerolog"
)

const redirectPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="refresh" content="0;url=%[1]s">
<title>Redirecting</title>
</head>
<body>
<p>Redirecting to <a href="%[1]s">%[1]s</a></p>
</body>
</html>`

// TrackableHandler serves tracked links sent in text messages.
type TrackableHandler struct {
	trackableService TrackableServiceInterface
	metrics          *metrics.Metrics
	log              zerolog.Logger
}

func NewTrackableHandler(trackableService TrackableServiceInterface, m *metrics.Metrics, log zerolog.Logger) *TrackableHandler {
	return &TrackableHandler{
		trackableService: trackableService,
		metrics:          m,
		log:              log.With().Str("component", "trackable_handler").Logger(),
	}
}

// Redirect records the hit and serves a page that forwards to the target.
// A broken clickthrough still redirects, the hit is just anonymous.
func (h *TrackableHandler) Redirect(c *drift.Context) {
	ctx := c.Request.Context()

	redirect, err := h.trackableService.GetByRedirectID(ctx, c.Param("redirectId"))
	if errors.Is(err, services.ErrTrackableNotFound) {
		c.NotFound("link not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load redirect")
		c.InternalServerError("failed to load link")
		return
	}

	ct, err := tokens.DecodeClickthrough(c.QueryParam("ct"))
	if err != nil {
		h.log.Debug().Err(err).Str("redirect_id", redirect.RedirectID).Msg("ignoring clickthrough")
		ct = tokens.Clickthrough{}
	}

	if err := h.trackableService.RecordHit(ctx, redirect, ct); err != nil {
		h.log.Error().Err(err).Str("redirect_id", redirect.RedirectID).Msg("failed to record hit")
	} else {
		h.metrics.ObserveHit()
	}

	_ = c.HTML(200, fmt.Sprintf(redirectPage, html.EscapeString(redirect.URL)))
}
