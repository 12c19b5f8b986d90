package repo

import (
	"context"

	"github.com/useradmin/useradmin/internal/models"
)

func (r *AuditRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.DB.WithContext(ctx).Create(entry).Error
}

// List returns entries ordered oldest first, plus the total count.
func (r *AuditRepo) List(ctx context.Context, page, limit int) ([]models.AuditLog, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.AuditLog
	if err := r.DB.WithContext(ctx).Model(&models.AuditLog{}).
		Order("created_at ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
