package recommendation

import (
	"context"
	"errors"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// ErrUnavailable wraps transport failures talking to a scorer backend
var ErrUnavailable = errors.New("recommendation scorer unavailable")

// Scorer returns ranked item recommendations for a customer.
// An unknown customer is not an error: implementations return a result with
// KnownCustomer set to false.
type Scorer interface {
	Score(ctx context.Context, customerID string) (domain.RecommendationResult, error)
}

// ScorerFunc adapts a plain function to Scorer
type ScorerFunc func(ctx context.Context, customerID string) (domain.RecommendationResult, error)

func (f ScorerFunc) Score(ctx context.Context, customerID string) (domain.RecommendationResult, error) {
	return f(ctx, customerID)
}

func truncate(items []string, limit int) []string {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
