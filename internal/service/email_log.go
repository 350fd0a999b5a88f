package service

import (
	"context"

	"arriendo-cajas-backend/internal/domain"
	"arriendo-cajas-backend/internal/repository"
)

type emailLogService struct {
	logs repository.EmailLogRepository
}

func NewEmailLogService(logs repository.EmailLogRepository) EmailLogService {
	return &emailLogService{logs: logs}
}

func (s *emailLogService) ListEmailLogs(ctx context.Context, filter domain.EmailLogFilter) ([]domain.EmailLog, int32, error) {
	if filter.Status != "" && filter.Status != domain.EmailStatusSent && filter.Status != domain.EmailStatusFailed {
		return nil, 0, domain.NewValidationError("status", "must be sent or failed")
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	logs, count, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	// listings omit bodies; GetEmailLog returns the full HTML
	for i := range logs {
		logs[i].HTMLBody = ""
	}
	return logs, count, nil
}

func (s *emailLogService) GetEmailLog(ctx context.Context, id int64) (*domain.EmailLog, error) {
	return s.logs.GetByID(ctx, id)
}
