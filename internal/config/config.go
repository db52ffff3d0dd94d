// Package config loads runtime settings from .env and the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	DBPath   string
	SeedPath string
	GRPCAddr string
	AppEnv   string

	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	CORSOrigin string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioPublicURL string

	RedisAddr       string
	ViewDedupWindow time.Duration

	AMQPURL   string
	AMQPQueue string
}

func (c Config) DevMode() bool { return c.AppEnv == "development" }

func (c Config) MediaEnabled() bool { return c.MinioEndpoint != "" }

func (c Config) ViewDedupEnabled() bool { return c.RedisAddr != "" && c.ViewDedupWindow > 0 }

// Load reads an optional .env file, then the environment. A missing .env
// is not an error.
func Load(files ...string) Config {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		log.Printf("warn: load env file: %v", err)
	}

	c := Config{
		Port:     getenv("PORT", "8000"),
		DBPath:   getenv("DB_PATH", "./data/vidhub.db"),
		SeedPath: os.Getenv("SEED_PATH"),
		GRPCAddr: getenv("GRPC_ADDR", ":50051"),
		AppEnv:   getenv("APP_ENV", "production"),

		AccessSecret:  secret("ACCESS_TOKEN_SECRET"),
		RefreshSecret: secret("REFRESH_TOKEN_SECRET"),
		AccessTTL:     duration("ACCESS_TOKEN_TTL", 24*time.Hour),
		RefreshTTL:    duration("REFRESH_TOKEN_TTL", 10*24*time.Hour),

		CORSOrigin: os.Getenv("CORS_ORIGIN"),

		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "vidhub"),
		MinioUseSSL:    boolean("MINIO_USE_SSL"),
		MinioPublicURL: os.Getenv("MINIO_PUBLIC_URL"),

		RedisAddr:       os.Getenv("REDIS_ADDR"),
		ViewDedupWindow: duration("VIEW_DEDUP_WINDOW", 0),

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: getenv("AMQP_QUEUE", "engagement_events"),
	}
	return c
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// duration accepts Go durations ("15m") or plain seconds.
func duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("warn: invalid %s=%q, using %s", key, v, def)
	return def
}

func boolean(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}

func secret(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("generate %s: %v", key, err)
	}
	log.Printf("warn: %s not set, using a random secret; tokens will not survive a restart", key)
	return hex.EncodeToString(buf)
}
