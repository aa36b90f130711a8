package handlers

import (
	"github.com/dimitrije/smsdesk/internal/channel"
	"github.com/m1z23r/drift/pkg/drift"
)

type ChannelHandler struct {
	registry *channel.Registry
}

func NewChannelHandler(registry *channel.Registry) *ChannelHandler {
	return &ChannelHandler{registry: registry}
}

// List returns every registered channel, or with ?feature= the channels
// supporting that feature keyed by name.
func (h *ChannelHandler) List(c *drift.Context) {
	if feature := c.QueryParam("feature"); feature != "" {
		_ = c.JSON(200, h.registry.FeatureChannels(feature))
		return
	}
	_ = c.JSON(200, h.registry.Channels())
}
