package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	PostgresURI        string
	RedisURI           string
	GatewayBaseURL     string
	GatewayToken       string
	ContentBaseURL     string
	ContentToken       string
	FrontendURL        string
	R2                 R2
	SecretKey          string
	CookieName         string
	MetricsCacheTTLSec int
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:    getEnv("POSTGRES_URI", ""),
		RedisURI:       getEnv("REDIS_URI", ""),
		GatewayBaseURL: getEnv("GATEWAY_BASE_URL", ""),
		GatewayToken:   getEnv("GATEWAY_TOKEN", ""),
		ContentBaseURL: getEnv("CONTENT_BASE_URL", ""),
		ContentToken:   getEnv("CONTENT_TOKEN", ""),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:          getEnv("SECRET_KEY", ""),
		CookieName:         getEnv("COOKIE_NAME", ""),
		MetricsCacheTTLSec: getEnvInt("METRICS_CACHE_TTL", 25),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
