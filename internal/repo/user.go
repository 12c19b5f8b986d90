package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/useradmin/useradmin/internal/models"
	"github.com/useradmin/useradmin/internal/validation"
)

// sortColumn maps the API sort names onto the real columns so user input
// never reaches the ORDER BY clause directly.
var sortColumn = map[string]string{
	"username":  "username",
	"name":      "name",
	"role":      "role",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

func (r *UserRepo) active(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("deleted_at IS NULL")
}

func (r *UserRepo) FindActiveByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.active(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindActiveByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.active(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UsernameTaken only looks at live rows, so a soft-deleted user's name can
// be claimed again.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.active(ctx).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Create(user).Error
}

func (r *UserRepo) Update(ctx context.Context, id uint, updates map[string]any) (*models.User, error) {
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return r.FindActiveByID(ctx, id)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *UserRepo) SoftDelete(ctx context.Context, id uint) error {
	now := time.Now()
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("deleted_at", &now).Error
}

func (r *UserRepo) List(ctx context.Context, q *validation.ListQuery) ([]models.User, int64, error) {
	tx := r.active(ctx)

	if q.Q != "" {
		// LOWER+LIKE instead of ILIKE so the query also runs on the sqlite
		// test driver.
		like := "%" + strings.ToLower(q.Q) + "%"
		tx = tx.Where("LOWER(username) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	if q.Role != "" {
		tx = tx.Where("role = ?", q.Role)
	}
	if q.CreatedFrom != nil {
		tx = tx.Where("created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		tx = tx.Where("created_at <= ?", *q.CreatedTo)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	col, dir := sortColumn["createdAt"], "desc"
	if q.SortBy != "" {
		col = sortColumn[q.SortBy]
	}
	if q.SortDir != "" {
		dir = q.SortDir
	}

	var users []models.User
	if err := tx.Order(fmt.Sprintf("%s %s", col, dir)).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
