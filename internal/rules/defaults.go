package rules

import "github.com/paridu/ai-outreach-optimizer/internal/domain"

const builtinVersion = "builtin"

// Builtin returns the rule table the service starts with when no rule file is configured
func Builtin() *Table {
	t, err := NewTable(builtinVersion,
		domain.CampaignRule{
			Name:     "Generic-Engagement",
			Channel:  domain.ChannelEmail,
			Template: "Hello! Check out our new arrivals.",
		},
		[]Entry{
			{
				EventType: "cart_abandoned",
				Rule: domain.CampaignRule{
					Name:     "Recovery-v1",
					Channel:  domain.ChannelPush,
					Template: "Hey {name}, your items are waiting!{recommendations}",
				},
			},
			{
				EventType: "location_entry",
				Rule: domain.CampaignRule{
					Name:     "Geofence-Offer",
					Channel:  domain.ChannelSMS,
					Template: "Welcome! Use code NEARBY for 10% off.",
				},
			},
		},
	)
	if err != nil {
		panic(err)
	}
	return t
}
