package domain

// Channel is the delivery channel a campaign targets
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// DefaultRuleKey is the sentinel key of the fallback campaign rule
const DefaultRuleKey = "default"

// CampaignRule describes the campaign fired for an event category.
// Conditions optionally narrow the rule to events whose platform or metadata
// match every listed key; a rule without conditions matches the whole category.
type CampaignRule struct {
	Name       string
	Channel    Channel
	Template   string
	Conditions map[string]string
}

// RecommendationResult is a scorer answer for one customer
type RecommendationResult struct {
	Items         []string
	KnownCustomer bool
}

// ActionPlan is the resolved output of matching and personalization
type ActionPlan struct {
	CampaignName string
	Channel      Channel
	Content      string
	Personalized bool
}
