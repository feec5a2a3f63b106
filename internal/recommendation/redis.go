package recommendation

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// KeyPrefix prefixes the precomputed recommendation list of each customer
const KeyPrefix = "recs:"

// RedisScorer reads ranked item lists written by the offline model job.
// Each customer has a list at recs:<customer_id>, best item first; a missing
// or empty list is a cold start.
type RedisScorer struct {
	client *redis.Client
	limit  int
}

func NewRedisScorer(client *redis.Client, limit int) *RedisScorer {
	return &RedisScorer{client: client, limit: limit}
}

func (s *RedisScorer) Score(ctx context.Context, customerID string) (domain.RecommendationResult, error) {
	stop := int64(-1)
	if s.limit > 0 {
		stop = int64(s.limit - 1)
	}

	items, err := s.client.LRange(ctx, KeyPrefix+customerID, 0, stop).Result()
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(items) == 0 {
		return domain.RecommendationResult{KnownCustomer: false}, nil
	}

	return domain.RecommendationResult{Items: items, KnownCustomer: true}, nil
}
