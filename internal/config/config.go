package config

import (
	"log/slog"
	"os"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Identity provider (Firebase phone auth)
	FirebaseProjectID string

	// JWT (password-credential sessions)
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Object storage
	S3Bucket string
	S3Region string

	// Listing cache (optional; disabled when REDIS_ADDR is empty)
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Admin
	AdminToken string

	// Server
	Port        string
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "nivaasa_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		FirebaseProjectID: getEnv("FIREBASE_PROJECT_ID", ""),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  durationEnv("JWT_ACCESS_EXPIRY", "15m"),
		JWTRefreshExpiry: durationEnv("JWT_REFRESH_EXPIRY", "168h"),

		S3Bucket: getEnv("S3_BUCKET", ""),
		S3Region: getEnv("S3_REGION", "ap-south-1"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		CacheTTL:      durationEnv("CACHE_TTL", "2m"),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// durationEnv reads a duration env var, falling back to the key's default
// on a malformed value. The fall-back is logged so a typo in deployment
// config does not silently shorten token lifetimes.
func durationEnv(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration value, using default", "key", key, "value", raw, "default", fallback)
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
