package config

import (
	"os"
	"strconv"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	ThreadsAppID        string
	ThreadsAppSecret    string
	ThreadsRedirectURI  string
	ThreadsAccessToken  string
	ThreadsUsername     string
	ThreadsPassword     string
	LinkedinAccessToken string
	LinkedinPersonURN   string
	PostgresURI         string
	RedisURI            string
	FrontendURL         string
	R2                  R2
	EncryptionKey       string
	Environment         string
	SessionDir          string
	DispatchInterval    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		ThreadsAppID:        getEnv("THREADS_APP_ID", ""),
		ThreadsAppSecret:    getEnv("THREADS_APP_SECRET", ""),
		ThreadsRedirectURI:  getEnv("THREADS_REDIRECT_URI", "http://localhost:3000/api/auth/threads/callback"),
		ThreadsAccessToken:  getEnv("THREADS_ACCESS_TOKEN", ""),
		ThreadsUsername:     getEnv("THREADS_USERNAME", ""),
		ThreadsPassword:     getEnv("THREADS_PASSWORD", ""),
		LinkedinAccessToken: getEnv("LINKEDIN_ACCESS_TOKEN", ""),
		LinkedinPersonURN:   getEnv("LINKEDIN_PERSON_URN", ""),
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		RedisURI:            getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		EncryptionKey:    getEnv("ENCRYPTION_KEY", ""),
		Environment:      getEnv("ENVIRONMENT", "development"),
		SessionDir:       getEnv("SESSION_DIR", "./sessions"),
		DispatchInterval: getDurationEnv("DISPATCH_INTERVAL_SECONDS", 10*time.Second),
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
