package personalization

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/recommendation"
)

const cartTemplate = "Hey {name}, your items are waiting!{recommendations}"

type recordingSink struct {
	mu      sync.Mutex
	reasons []string
}

func (s *recordingSink) PersonalizationResolved(reason string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reasons = append(s.reasons, reason)
}

func staticScorer(result domain.RecommendationResult, err error) recommendation.Scorer {
	return recommendation.ScorerFunc(func(ctx context.Context, customerID string) (domain.RecommendationResult, error) {
		return result, err
	})
}

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		template string
		values   map[string]string
		want     string
	}{
		{"simple", "Hey {name}!", map[string]string{"name": "User_C1"}, "Hey User_C1!"},
		{"unknown placeholder", "Hi {name}{coupon}", map[string]string{"name": "A"}, "Hi A"},
		{"repeated", "{x}-{x}", map[string]string{"x": "1"}, "1-1"},
		{"no placeholders", "Welcome! Use code NEARBY for 10% off.", nil, "Welcome! Use code NEARBY for 10% off."},
		{"unbalanced braces untouched", "{ not a key } {", nil, "{ not a key } {"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.template, tt.values))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "User_C1", DisplayName("C1"))
	assert.Equal(t, "User_cust", DisplayName("cust_999"))
	assert.Equal(t, "User_", DisplayName(""))
	assert.Equal(t, "User_ğüşi", DisplayName("ğüşiö"))
}

func TestLocalValues(t *testing.T) {
	values := LocalValues(domain.MarketingEvent{
		CustomerID: "C1",
		EventType:  "cart_abandoned",
		Platform:   "ios",
		Metadata: map[string]interface{}{
			"cart_value": 129.99,
			"items":      []string{"a"},
			"name":       "overridden",
		},
	})

	assert.Equal(t, "User_C1", values["name"])
	assert.Equal(t, "ios", values["platform"])
	assert.Equal(t, "129.99", values["cart_value"])
	assert.NotContains(t, values, "items")
}

func TestLocalValues_IgnoresRecommendationKeys(t *testing.T) {
	values := LocalValues(domain.MarketingEvent{
		CustomerID: "C1",
		EventType:  "cart_abandoned",
		Metadata: map[string]interface{}{
			"recommendations": " Picked for you: free-tv",
			"top_item":        "free-tv",
			"store":           "berlin",
		},
	})

	assert.NotContains(t, values, "recommendations")
	assert.NotContains(t, values, "top_item")
	assert.Equal(t, "berlin", values["store"])
}

func TestResolver_MetadataCannotFakeRecommendations(t *testing.T) {
	event := domain.MarketingEvent{
		CustomerID: "C1",
		EventType:  "cart_abandoned",
		Metadata:   map[string]interface{}{"recommendations": " Picked for you: free-tv", "top_item": "free-tv"},
	}

	tests := []struct {
		name   string
		scorer recommendation.Scorer
	}{
		{"fallback", nil},
		{"known customer with empty list", staticScorer(domain.RecommendationResult{KnownCustomer: true}, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.scorer, time.Second, zap.NewNop())

			got := r.Resolve(context.Background(), event.CustomerID, cartTemplate+"{top_item}", LocalValues(event))

			assert.Equal(t, "Hey User_C1, your items are waiting!", got.Content)
		})
	}
}

func TestResolver_ReservedLocalsIgnored(t *testing.T) {
	r := NewResolver(nil, time.Second, zap.NewNop())
	locals := map[string]string{"recommendations": " Picked for you: x"}

	got := r.Resolve(context.Background(), "C1", cartTemplate, locals)

	assert.Equal(t, "Hey User_C1, your items are waiting!", got.Content)
}

func TestResolver_Personalized(t *testing.T) {
	sink := &recordingSink{}
	scorer := staticScorer(domain.RecommendationResult{Items: []string{"sku-1", "sku-2"}, KnownCustomer: true}, nil)
	r := NewResolver(scorer, time.Second, zap.NewNop()).WithMetrics(sink)

	got := r.Resolve(context.Background(), "C1", cartTemplate, nil)

	assert.Equal(t, "Hey User_C1, your items are waiting! Picked for you: sku-1, sku-2", got.Content)
	assert.True(t, got.Personalized)
	assert.Equal(t, FallbackNone, got.Fallback)
	assert.Equal(t, []string{"personalized"}, sink.reasons)
}

func TestResolver_Fallbacks(t *testing.T) {
	tests := []struct {
		name   string
		scorer recommendation.Scorer
		want   FallbackReason
	}{
		{"no scorer", nil, FallbackDisabled},
		{"cold start", staticScorer(domain.RecommendationResult{KnownCustomer: false}, nil), FallbackColdStart},
		{"scorer error", staticScorer(domain.RecommendationResult{}, errors.New("boom")), FallbackError},
		{"scorer panic", recommendation.ScorerFunc(func(context.Context, string) (domain.RecommendationResult, error) {
			panic("model not loaded")
		}), FallbackError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.scorer, time.Second, zap.NewNop())

			got := r.Resolve(context.Background(), "C1", cartTemplate, nil)

			assert.Equal(t, tt.want, got.Fallback)
			assert.False(t, got.Personalized)
			assert.Equal(t, "Hey User_C1, your items are waiting!", got.Content)
			assert.NotContains(t, got.Content, "{")
		})
	}
}

func TestResolver_AlwaysTimingOutScorer(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// Ignores its context entirely.
	scorer := recommendation.ScorerFunc(func(context.Context, string) (domain.RecommendationResult, error) {
		<-release
		return domain.RecommendationResult{Items: []string{"late"}, KnownCustomer: true}, nil
	})

	timeout := 50 * time.Millisecond
	r := NewResolver(scorer, timeout, zap.NewNop())

	start := time.Now()
	got := r.Resolve(context.Background(), "C1", cartTemplate, nil)
	elapsed := time.Since(start)

	assert.Equal(t, FallbackTimeout, got.Fallback)
	assert.NotEmpty(t, got.Content)
	assert.Less(t, elapsed, timeout+200*time.Millisecond)
}

func TestResolver_ColdStartNonEmptyForBareTemplate(t *testing.T) {
	r := NewResolver(staticScorer(domain.RecommendationResult{}, nil), time.Second, zap.NewNop())

	got := r.Resolve(context.Background(), "C3", "Hello! Check out our new arrivals.", nil)

	assert.Equal(t, "Hello! Check out our new arrivals.", got.Content)
	assert.Equal(t, FallbackColdStart, got.Fallback)
}

func TestResolver_UsesLocals(t *testing.T) {
	r := NewResolver(nil, time.Second, zap.NewNop())
	locals := map[string]string{"name": "User_Ada", "platform": "android"}

	got := r.Resolve(context.Background(), "Ada99", "Hi {name} on {platform}", locals)

	assert.Equal(t, "Hi User_Ada on android", got.Content)
}
