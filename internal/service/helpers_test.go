package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/useradmin/useradmin/internal/cache"
	"github.com/useradmin/useradmin/internal/hash"
	"github.com/useradmin/useradmin/internal/models"
	"github.com/useradmin/useradmin/internal/repo"
	"github.com/useradmin/useradmin/internal/session"
	"github.com/useradmin/useradmin/internal/validation"
)

// countingStore wraps the real repository and counts List calls so the
// cache tests can prove the second read never hit the database.
type countingStore struct {
	*repo.UserRepo
	listCalls int
}

func (s *countingStore) List(ctx context.Context, q *validation.ListQuery) ([]models.User, int64, error) {
	s.listCalls++
	return s.UserRepo.List(ctx, q)
}

type recordedEvent struct {
	Topic string
	Key   string
	Event any
}

type eventRecorder struct {
	published []recordedEvent
}

func (r *eventRecorder) PublishEvent(_ context.Context, topic, key string, event any) error {
	r.published = append(r.published, recordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

type testEnv struct {
	DB     *gorm.DB
	Redis  *miniredis.Miniredis
	Store  *countingStore
	Tokens *TokenService
	Auth   *AuthService
	Users  *UserService
	Audit  *AuditService
	Events *eventRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AuditLog{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &countingStore{UserRepo: &repo.UserRepo{DB: db}}
	tokenSvc := &TokenService{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Sessions:      session.NewStore(client),
	}
	auditSvc := &AuditService{Store: &repo.AuditRepo{DB: db}}
	rec := &eventRecorder{}

	return &testEnv{
		DB:     db,
		Redis:  mr,
		Store:  store,
		Tokens: tokenSvc,
		Auth:   &AuthService{Users: store, Tokens: tokenSvc, Events: rec},
		Users:  &UserService{Store: store, Cache: cache.New(client), Audit: auditSvc, Events: rec},
		Audit:  auditSvc,
		Events: rec,
	}
}

func (env *testEnv) createUser(t *testing.T, username, password, role string) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Name:         username,
		PasswordHash: pwHash,
		Role:         role,
	}
	require.NoError(t, env.DB.Create(user).Error)
	return user
}
