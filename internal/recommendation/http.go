package recommendation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
)

// HTTPScorer queries a model inference service over HTTP.
//
// Request:  GET {baseURL}/recommendations/{customer_id}?limit=N
// Response: {"customer_id": "...", "items": ["..."], "known_customer": true}
// A 404 is read as a cold start.
type HTTPScorer struct {
	baseURL string
	limit   int
	client  *http.Client
	log     *zap.Logger
}

type scoreResponse struct {
	CustomerID    string   `json:"customer_id"`
	Items         []string `json:"items"`
	KnownCustomer bool     `json:"known_customer"`
}

// NewHTTPScorer creates a scorer for the inference service at baseURL
func NewHTTPScorer(baseURL string, limit int, log *zap.Logger) *HTTPScorer {
	return &HTTPScorer{
		baseURL: baseURL,
		limit:   limit,
		client:  &http.Client{},
		log:     log,
	}
}

// Score fetches recommendations; the deadline comes from ctx
func (s *HTTPScorer) Score(ctx context.Context, customerID string) (domain.RecommendationResult, error) {
	endpoint := fmt.Sprintf("%s/recommendations/%s?limit=%s",
		s.baseURL, url.PathEscape(customerID), strconv.Itoa(s.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.RecommendationResult{KnownCustomer: false}, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return domain.RecommendationResult{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("decode response: %w", err)
	}

	s.log.Debug("Scorer answered",
		zap.String("customer_id", customerID),
		zap.Int("items", len(body.Items)),
		zap.Bool("known_customer", body.KnownCustomer))

	return domain.RecommendationResult{
		Items:         truncate(body.Items, s.limit),
		KnownCustomer: body.KnownCustomer,
	}, nil
}
