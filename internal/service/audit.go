package service

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/useradmin/useradmin/internal/apperr"
	"github.com/useradmin/useradmin/internal/models"
	"github.com/useradmin/useradmin/internal/validation"
)

type AuditStore interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, page, limit int) ([]models.AuditLog, int64, error)
}

// AuditService is a one-way sink for mutating actions. Entries are never
// updated or removed after Record.
type AuditService struct {
	Store AuditStore
}

type AuditPage struct {
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	Total      int64             `json:"total"`
	TotalPages int64             `json:"totalPages"`
	Data       []models.AuditLog `json:"data"`
}

func (s *AuditService) Record(ctx context.Context, actorID uint, entity string, entityID uint, action string, before, after any) error {
	beforeJSON, err := snapshot(before)
	if err != nil {
		return err
	}
	afterJSON, err := snapshot(after)
	if err != nil {
		return err
	}

	return s.Store.Append(ctx, &models.AuditLog{
		ActorID:  actorID,
		Entity:   entity,
		EntityID: entityID,
		Action:   action,
		Before:   beforeJSON,
		After:    afterJSON,
	})
}

func (s *AuditService) List(ctx context.Context, q *validation.AuditQuery) (*AuditPage, error) {
	logs, total, err := s.Store.List(ctx, q.Page, q.Limit)
	if err != nil {
		return nil, apperr.Internal("internal server error")
	}

	return &AuditPage{
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + int64(q.Limit) - 1) / int64(q.Limit),
		Data:       logs,
	}, nil
}

func snapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("audit snapshot: %w", err)
	}
	return datatypes.JSON(data), nil
}
