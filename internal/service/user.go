package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/useradmin/useradmin/internal/apperr"
	"github.com/useradmin/useradmin/internal/cache"
	"github.com/useradmin/useradmin/internal/events"
	"github.com/useradmin/useradmin/internal/hash"
	"github.com/useradmin/useradmin/internal/logging"
	"github.com/useradmin/useradmin/internal/models"
	"github.com/useradmin/useradmin/internal/validation"
)

const auditEntityUsers = "users"

type UserStore interface {
	List(ctx context.Context, q *validation.ListQuery) ([]models.User, int64, error)
	FindActiveByID(ctx context.Context, id uint) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id uint, updates map[string]any) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	SoftDelete(ctx context.Context, id uint) error
}

type AuditSink interface {
	Record(ctx context.Context, actorID uint, entity string, entityID uint, action string, before, after any) error
}

type UserService struct {
	Store  UserStore
	Cache  *cache.Cache
	Audit  AuditSink
	Events events.Publisher
}

// Requester identifies the authenticated caller of a user operation.
type Requester struct {
	ID   uint
	Role string
}

func (r Requester) isAdmin() bool { return r.Role == models.RoleAdmin }

type ListMetadata struct {
	TotalData   int64 `json:"totalData"`
	TotalPage   int64 `json:"totalPage"`
	CurrentPage int   `json:"currentPage"`
	PerPage     int   `json:"perPage"`
}

type UserList struct {
	Metadata ListMetadata  `json:"metadata"`
	Data     []models.User `json:"data"`
}

// ListUsers validates the raw query, then serves the page cache-first. The
// JSON encoding of the validated query is the cache key, so two requests
// that normalize to the same query share an entry.
func (s *UserService) ListUsers(ctx context.Context, rawQuery url.Values) (*UserList, error) {
	l := logging.FromContext(ctx).With("svc", "user.list")

	q, fieldErrs := validation.ValidateListQuery(rawQuery)
	if fieldErrs != nil {
		return nil, apperr.Validation(fieldErrs)
	}

	canonical, err := json.Marshal(q)
	if err != nil {
		return nil, apperr.Internal("internal server error")
	}
	key := cache.ListKey(canonical)

	if cached, err := s.Cache.Get(ctx, key); err != nil {
		l.Warn("cache_get_failed", "error", err)
	} else if cached != nil {
		var list UserList
		if err := json.Unmarshal(cached, &list); err == nil {
			return &list, nil
		}
		l.Warn("cache_decode_failed", "key", key)
	}

	users, total, err := s.Store.List(ctx, q)
	if err != nil {
		l.Error("list_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	list := &UserList{
		Metadata: ListMetadata{
			TotalData:   total,
			TotalPage:   (total + int64(q.Limit) - 1) / int64(q.Limit),
			CurrentPage: q.Page,
			PerPage:     q.Limit,
		},
		Data: users,
	}

	if len(list.Data) > 0 {
		if data, err := json.Marshal(list); err == nil {
			if err := s.Cache.SetNX(ctx, key, data); err != nil {
				l.Warn("cache_set_failed", "error", err)
			}
		}
	}

	return list, nil
}

func (s *UserService) GetUserDetail(ctx context.Context, id uint) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.detail", "user_id", id)

	key := cache.UserKey(id)
	if cached, err := s.Cache.Get(ctx, key); err != nil {
		l.Warn("cache_get_failed", "error", err)
	} else if cached != nil {
		var user models.User
		if err := json.Unmarshal(cached, &user); err == nil {
			return &user, nil
		}
		l.Warn("cache_decode_failed", "key", key)
	}

	user, err := s.Store.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		l.Error("detail_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	if data, err := json.Marshal(user); err == nil {
		if err := s.Cache.Set(ctx, key, data); err != nil {
			l.Warn("cache_set_failed", "error", err)
		}
	}

	return user, nil
}

func (s *UserService) CreateUser(ctx context.Context, in *validation.CreateUserInput, createdBy uint) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.create")

	if fieldErrs := validation.ValidateCreateUser(in); fieldErrs != nil {
		return nil, apperr.Validation(fieldErrs)
	}

	taken, err := s.Store.UsernameTaken(ctx, in.Username)
	if err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}
	if taken {
		return nil, &apperr.Error{
			Kind:    apperr.KindConflict,
			Message: "Invalid input",
			Fields:  map[string]string{"username": "Username is already taken"},
		}
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	user := &models.User{
		Name:         in.Name,
		Username:     in.Username,
		PasswordHash: pwHash,
		Role:         in.Role,
		CreatedBy:    createdBy,
	}
	if err := s.Store.Create(ctx, user); err != nil {
		l.Error("create_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	if err := s.Audit.Record(ctx, createdBy, auditEntityUsers, user.ID, "create", nil, user); err != nil {
		l.Error("audit_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	s.publish(ctx, map[string]any{"type": "user_created", "user_id": user.ID, "username": user.Username})
	l.Info("create_successful", "user_id", user.ID)
	return user, nil
}

// UpdateUser applies the authorization policy in a fixed order: schema,
// ownership, role-field restriction, existence, username uniqueness. The
// first failed check decides the error kind.
func (s *UserService) UpdateUser(ctx context.Context, targetID uint, requester Requester, in *validation.UpdateUserInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.update", "target_id", targetID)

	if fieldErrs := validation.ValidateUpdateUser(in); fieldErrs != nil {
		return nil, apperr.Validation(fieldErrs)
	}

	if !requester.isAdmin() && requester.ID != targetID {
		return nil, apperr.Forbidden("Forbidden: You can only update your own profile")
	}

	if !requester.isAdmin() && in.Role != nil {
		return nil, apperr.ValidationField("role", "Only admin can change role")
	}

	target, err := s.Store.FindActiveByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found or deleted")
		}
		l.Error("update_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	if in.Username != nil && *in.Username != target.Username {
		taken, err := s.Store.UsernameTaken(ctx, *in.Username)
		if err != nil {
			l.Error("update_failed", "status", 500, "error", err)
			return nil, apperr.Internal("internal server error")
		}
		if taken {
			return nil, &apperr.Error{
				Kind:    apperr.KindConflict,
				Message: "Invalid input",
				Fields:  map[string]string{"username": "Username is already taken"},
			}
		}
	}

	updates := map[string]any{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Username != nil {
		updates["username"] = *in.Username
	}
	if in.Role != nil {
		updates["role"] = *in.Role
	}

	updated, err := s.Store.Update(ctx, targetID, updates)
	if err != nil {
		l.Error("update_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	if err := s.Audit.Record(ctx, requester.ID, auditEntityUsers, targetID, "update", target, updated); err != nil {
		l.Error("audit_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	s.publish(ctx, map[string]any{"type": "user_updated", "user_id": targetID})
	l.Info("update_successful")
	return updated, nil
}

func (s *UserService) UpdateUserPassword(ctx context.Context, targetID uint, requester Requester, in *validation.UpdatePasswordInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.update_password", "target_id", targetID)

	if fieldErrs := validation.ValidateUpdatePassword(in); fieldErrs != nil {
		return nil, apperr.Validation(fieldErrs)
	}

	if !requester.isAdmin() && requester.ID != targetID {
		return nil, apperr.Forbidden("Forbidden: You can only update your own password")
	}

	target, err := s.Store.FindActiveByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found or deleted")
		}
		l.Error("update_password_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("update_password_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}
	if err := s.Store.UpdatePassword(ctx, targetID, pwHash); err != nil {
		l.Error("update_password_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	// The snapshot never carries hashes, only a marker that the password
	// changed.
	if err := s.Audit.Record(ctx, requester.ID, auditEntityUsers, targetID, "update", nil, map[string]any{"passwordHash": true}); err != nil {
		l.Error("audit_failed", "status", 500, "error", err)
		return nil, apperr.Internal("internal server error")
	}

	s.publish(ctx, map[string]any{"type": "user_password_updated", "user_id": targetID})
	l.Info("update_password_successful")
	return target, nil
}

// DeleteUser soft-deletes. The requester must be an admin, must not target
// themselves, and has to re-confirm with their own current password.
func (s *UserService) DeleteUser(ctx context.Context, targetID uint, requester *models.User, in *validation.DeleteUserInput) error {
	l := logging.FromContext(ctx).With("svc", "user.delete", "target_id", targetID)

	if fieldErrs := validation.ValidateDeleteUser(in); fieldErrs != nil {
		return apperr.Validation(fieldErrs)
	}

	if requester.Role != models.RoleAdmin {
		return apperr.Forbidden("Forbidden: Only admin can delete users")
	}
	if requester.ID == targetID {
		return apperr.Forbidden("You cannot delete yourself")
	}

	target, err := s.Store.FindActiveByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("User not found or already deleted")
		}
		l.Error("delete_failed", "status", 500, "error", err)
		return apperr.Internal("internal server error")
	}

	if !hash.CheckPassword(requester.PasswordHash, in.ConfirmPassword) {
		return apperr.ValidationField("confirm_password", "Incorrect admin password")
	}

	if err := s.Store.SoftDelete(ctx, targetID); err != nil {
		l.Error("delete_failed", "status", 500, "error", err)
		return apperr.Internal("internal server error")
	}

	if err := s.Audit.Record(ctx, requester.ID, auditEntityUsers, targetID, "delete",
		target, map[string]any{"deletedAt": time.Now()}); err != nil {
		l.Error("audit_failed", "status", 500, "error", err)
		return apperr.Internal("internal server error")
	}

	s.publish(ctx, map[string]any{"type": "user_deleted", "user_id": targetID})
	l.Info("delete_successful")
	return nil
}

// ExportUsersCSV fetches one page per the given filters and renders the
// selected columns. Validation failures surface as a single generic message
// rather than a field map.
func (s *UserService) ExportUsersCSV(ctx context.Context, rawQuery url.Values) ([]byte, error) {
	q, fieldErrs := validation.ValidateListQuery(rawQuery)
	if fieldErrs != nil {
		return nil, &apperr.Error{Kind: apperr.KindValidation, Message: "Invalid input"}
	}

	users, _, err := s.Store.List(ctx, q)
	if err != nil {
		return nil, apperr.Internal("internal server error")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "username", "name", "role", "createdAt"}); err != nil {
		return nil, apperr.Internal("internal server error")
	}
	for _, u := range users {
		row := []string{
			strconv.FormatUint(uint64(u.ID), 10),
			u.Username,
			u.Name,
			u.Role,
			u.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, apperr.Internal("internal server error")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperr.Internal("internal server error")
	}

	return buf.Bytes(), nil
}

func (s *UserService) publish(ctx context.Context, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, events.TopicUserEvents, auditEntityUsers, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "error", err)
	}
}
