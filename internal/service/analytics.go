package service

import (
	"context"
	"time"

	"github.com/getOrdira/ordira-voting/internal/admission"
	"github.com/getOrdira/ordira-voting/internal/repository"
)

type AnalyticsService struct {
	logs *repository.RequestLogRepository
}

func NewAnalyticsService(logs *repository.RequestLogRepository) *AnalyticsService {
	return &AnalyticsService{logs: logs}
}

// Holds analytics summary data
type AnalyticsSummary struct {
	TotalRequests      int64   `json:"total_requests"`
	AvgResponseTime    float64 `json:"avg_response_time_ms"`
	ErrorRate          float64 `json:"error_rate"`
	SuccessRate        float64 `json:"success_rate"`
	RateLimited        int64   `json:"rate_limited"`
	CooldownRejections int64   `json:"cooldown_rejections"`
	WindowRejections   int64   `json:"window_rejections"`
	DuplicateConflicts int64   `json:"duplicate_conflicts"`
}

// GetSummary aggregates request logs for a time range.
func (s *AnalyticsService) GetSummary(ctx context.Context, from, to time.Time) (*AnalyticsSummary, error) {
	summary := &AnalyticsSummary{}

	total, err := s.logs.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.TotalRequests = total

	if total == 0 {
		return summary, nil
	}

	avg, err := s.logs.GetAverageResponseTime(ctx, from, to)
	if err != nil {
		return nil, err
	}
	summary.AvgResponseTime = avg

	clientErrors, err := s.logs.CountByStatusCodeRange(ctx, 400, 499, from, to)
	if err != nil {
		return nil, err
	}

	serverErrors, err := s.logs.CountByStatusCodeRange(ctx, 500, 599, from, to)
	if err != nil {
		return nil, err
	}

	totalErrors := clientErrors + serverErrors
	summary.ErrorRate = (float64(totalErrors) / float64(total)) * 100
	summary.SuccessRate = 100 - summary.ErrorRate

	cooldowns, _ := s.logs.CountByAdmissionCode(ctx, admission.CodeCooldown, from, to)
	windows, _ := s.logs.CountByAdmissionCode(ctx, admission.CodeWindowLimit, from, to)
	summary.CooldownRejections = cooldowns
	summary.WindowRejections = windows
	summary.RateLimited = cooldowns + windows

	duplicates, _ := s.logs.CountByStatusCodeRange(ctx, 409, 409, from, to)
	summary.DuplicateConflicts = duplicates

	return summary, nil
}
