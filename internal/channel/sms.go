package channel

const (
	ChannelSms = "sms"

	FeatureMarketingMessages = "marketing_messages"
)

// RegisterSms adds the text message channel.
func RegisterSms(r *Registry) {
	r.AddChannel(ChannelSms, map[string]FeatureConfig{
		FeatureMarketingMessages: {
			CampaignAction: "sms.send_text_sms",
			LookupType:     "sms_list",
			GoalsSupported: []string{"page.pagehit", "asset.download", "form.submit"},
		},
	})
}
