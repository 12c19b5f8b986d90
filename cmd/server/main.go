package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/useradmin/useradmin/internal/cache"
	"github.com/useradmin/useradmin/internal/config"
	"github.com/useradmin/useradmin/internal/events"
	"github.com/useradmin/useradmin/internal/httpserver"
	"github.com/useradmin/useradmin/internal/logging"
	"github.com/useradmin/useradmin/internal/middleware"
	"github.com/useradmin/useradmin/internal/repo"
	"github.com/useradmin/useradmin/internal/service"
	"github.com/useradmin/useradmin/internal/session"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.JWTSecret, "JWT_SECRET")
	config.MustNonEmpty(configuration.RefreshSecret, "REFRESH_SECRET")

	logger := logging.New(configuration.LogLevel)

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	redisOpts, err := redis.ParseURL(configuration.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	{
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("redis ping error: %v", err)
		}
	}

	var producer *events.Producer
	if configuration.KafkaAddress != "" {
		producer = events.NewProducer([]string{configuration.KafkaAddress})
	}

	jwtSecret := []byte(configuration.JWTSecret)
	refreshSecret := []byte(configuration.RefreshSecret)

	userRepo := &repo.UserRepo{DB: db}
	auditRepo := &repo.AuditRepo{DB: db}

	tokenSvc := &service.TokenService{
		AccessSecret:  jwtSecret,
		RefreshSecret: refreshSecret,
		Sessions:      session.NewStore(redisClient),
	}
	auditSvc := &service.AuditService{Store: auditRepo}
	authSvc := &service.AuthService{Users: userRepo, Tokens: tokenSvc}
	userSvc := &service.UserService{
		Store: userRepo,
		Cache: cache.New(redisClient),
		Audit: auditSvc,
	}
	if producer != nil {
		authSvc.Events = producer
		userSvc.Events = producer
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover(), echomw.RequestID(), middleware.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:  &httpserver.AuthHTTP{Svc: authSvc},
		UserHandler:  &httpserver.UserHTTP{Svc: userSvc, Requesters: userRepo},
		AuditHandler: &httpserver.AuditHTTP{Svc: auditSvc},
		JWTSecret:    jwtSecret,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("redis close error: %v", err)
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("shutdown complete")
}
