package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/paridu/ai-outreach-optimizer/internal/domain"
	"github.com/paridu/ai-outreach-optimizer/internal/dto"
	"github.com/paridu/ai-outreach-optimizer/internal/repository"
)

// MockAuditRepository is a mock implementation of repository.AuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) InsertBatch(ctx context.Context, records []*domain.ExecutionRecord) (int, error) {
	args := m.Called(ctx, records)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditRepository) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuditRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAuditRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockAuditRepository) GetDeliveryReport(ctx context.Context, query repository.DeliveryQuery) (*repository.DeliveryReport, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.DeliveryReport), args.Error(1)
}

func TestReportService_GetDeliveryReport_Success(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewReportService(mockRepo, zap.NewNop())

	req := &dto.GetDeliveryReportRequest{From: 1723475612, To: 1723562012, GroupBy: "campaign"}
	expectedQuery := repository.DeliveryQuery{
		From:    time.Unix(1723475612, 0).UTC(),
		To:      time.Unix(1723562012, 0).UTC(),
		GroupBy: "campaign",
	}

	mockRepo.On("GetDeliveryReport", mock.Anything, expectedQuery).Return(&repository.DeliveryReport{
		TotalCount:      10,
		SuccessCount:    8,
		UniqueCustomers: 6,
		Groups: []repository.DeliveryGroupResult{
			{GroupValue: "Recovery-v1", TotalCount: 7, SuccessCount: 6},
			{GroupValue: "Geofence-Offer", TotalCount: 3, SuccessCount: 2},
		},
	}, nil)

	resp, err := service.GetDeliveryReport(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, uint64(10), resp.TotalCount)
	assert.Equal(t, uint64(8), resp.SuccessCount)
	assert.Equal(t, uint64(6), resp.UniqueCustomers)
	assert.Equal(t, "campaign", resp.GroupBy)
	require.Len(t, resp.Groups, 2)
	assert.Equal(t, "Recovery-v1", resp.Groups[0].GroupValue)
	assert.Equal(t, uint64(6), resp.Groups[0].SuccessCount)
	mockRepo.AssertExpectations(t)
}

func TestReportService_GetDeliveryReport_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  dto.GetDeliveryReportRequest
	}{
		{"from after to", dto.GetDeliveryReportRequest{From: 200, To: 100}},
		{"unknown group_by", dto.GetDeliveryReportRequest{From: 100, To: 200, GroupBy: "customer"}},
		{"hourly range too large", dto.GetDeliveryReportRequest{From: 0, To: 91 * 24 * 3600, GroupBy: "hour"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockAuditRepository)
			service := NewReportService(mockRepo, zap.NewNop())

			resp, err := service.GetDeliveryReport(context.Background(), &tt.req)

			assert.Nil(t, resp)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
			mockRepo.AssertNotCalled(t, "GetDeliveryReport", mock.Anything, mock.Anything)
		})
	}
}

func TestReportService_GetDeliveryReport_RepositoryError(t *testing.T) {
	mockRepo := new(MockAuditRepository)
	service := NewReportService(mockRepo, zap.NewNop())

	mockRepo.On("GetDeliveryReport", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	resp, err := service.GetDeliveryReport(context.Background(), &dto.GetDeliveryReportRequest{From: 1, To: 2})

	assert.Nil(t, resp)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get delivery report from repository")
}

func TestReportService_GetDeliveryReport_Disabled(t *testing.T) {
	service := NewReportService(nil, zap.NewNop())

	_, err := service.GetDeliveryReport(context.Background(), &dto.GetDeliveryReportRequest{From: 1, To: 2})

	assert.ErrorIs(t, err, ErrReportingDisabled)
}
