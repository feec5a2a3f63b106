package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/dto"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// maxHourlyRange bounds hourly grouping
const maxHourlyRange = 90 * 24 * 3600

// ReportService represents delivery report service
type ReportService struct {
	repository repository.AuditRepository // nil = reporting disabled
	log        *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(repo repository.AuditRepository, log *zap.Logger) *ReportService {
	return &ReportService{
		repository: repo,
		log:        log,
	}
}

// GetDeliveryReport retrieves aggregated delivery counts from the audit store
func (s *ReportService) GetDeliveryReport(ctx context.Context, req *dto.GetDeliveryReportRequest) (*dto.GetDeliveryReportResponse, error) {
	if s.repository == nil {
		return nil, ErrReportingDisabled
	}

	if req.From > req.To {
		s.log.Warn("Invalid time range for delivery report",
			zap.Int64("from", req.From),
			zap.Int64("to", req.To))
		return nil, &ValidationError{Field: "from", Message: "must be less than or equal to to"}
	}

	if req.GroupBy != "" {
		validGroupBy := map[string]bool{"campaign": true, "channel": true, "outcome": true, "hour": true, "day": true}
		if !validGroupBy[req.GroupBy] {
			s.log.Warn("Invalid group_by value",
				zap.String("group_by", req.GroupBy))
			return nil, &ValidationError{
				Field:   "group_by",
				Message: fmt.Sprintf("invalid value %q (supported: campaign, channel, outcome, hour, day)", req.GroupBy),
			}
		}

		rangeSeconds := req.To - req.From
		if req.GroupBy == "hour" && rangeSeconds > maxHourlyRange {
			return nil, &ValidationError{
				Field:   "group_by",
				Message: fmt.Sprintf("time range too large for hourly grouping (max 90 days, got %d days)", rangeSeconds/(24*3600)),
			}
		}
	}

	query := repository.DeliveryQuery{
		From:    time.Unix(req.From, 0).UTC(),
		To:      time.Unix(req.To, 0).UTC(),
		GroupBy: req.GroupBy,
	}

	s.log.Info("Querying delivery report",
		zap.Int64("from", req.From),
		zap.Int64("to", req.To),
		zap.String("group_by", req.GroupBy))

	result, err := s.repository.GetDeliveryReport(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get delivery report from repository: %w", err)
	}

	response := &dto.GetDeliveryReportResponse{
		From:            req.From,
		To:              req.To,
		TotalCount:      result.TotalCount,
		SuccessCount:    result.SuccessCount,
		UniqueCustomers: result.UniqueCustomers,
		GroupBy:         req.GroupBy,
		Groups:          make([]dto.DeliveryGroupData, 0, len(result.Groups)),
	}

	for _, group := range result.Groups {
		response.Groups = append(response.Groups, dto.DeliveryGroupData{
			GroupValue:   group.GroupValue,
			TotalCount:   group.TotalCount,
			SuccessCount: group.SuccessCount,
		})
	}

	return response, nil
}
