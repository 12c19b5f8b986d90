package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/useradmin/useradmin/internal/models"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string

	JWTSecret     string
	RefreshSecret string

	KafkaAddress string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		ServerPort: envIntDefault("SERVER_PORT", 8080),
		LogLevel:   envDefault("LOG_LEVEL", "info"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisURL: envDefault("REDIS_URL", "redis://localhost:6379"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		RefreshSecret: os.Getenv("REFRESH_SECRET"),

		KafkaAddress: os.Getenv("KAFKA_ADDRESS"),
	}

	return config, nil
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func InitDB() (*gorm.DB, error) {
	configuration, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		configuration.DBUser, configuration.DBPassword,
		configuration.DBHost, configuration.DBPort, configuration.DBName,
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("cannot connect to database: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.AuditLog{}); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
