package service

import (
	"context"

	"github.com/Skotchmaster/agency_site/internal/models"
	"github.com/Skotchmaster/agency_site/internal/repo"
)

type AuditService struct {
	Store repo.Store
}

// List pages through audit entries newest first.
func (s *AuditService) List(ctx context.Context, userID uint, offset, limit int) (int64, []models.AuditLog, error) {
	logs, total, err := s.Store.ListAuditLogs(ctx, repo.AuditFilter{UserID: userID, Offset: offset, Limit: limit})
	if err != nil {
		return 0, nil, err
	}
	return total, logs, nil
}
