package config

import (
	"os"
	"strconv"
	"time"
)

type S3 struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Scheduler struct {
	Interval        time.Duration
	Buffer          time.Duration
	PlatformTimeout time.Duration
	PublishTimeout  time.Duration
	AnalyticsDelay  time.Duration
	RefreshInterval time.Duration
	RefreshWindow   time.Duration
}

type Config struct {
	LinkedInClientID     string
	LinkedInClientSecret string
	TwitterAPIKey        string
	TwitterAPISecret     string
	InstagramAppID       string
	InstagramAppSecret   string
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURI    string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	APIBaseURL           string
	ListenAddr           string
	AWSRegion            string
	SecretsBackend       string
	SecretsPrefix        string
	BedrockRegion        string
	BedrockTextModelID   string
	BedrockImageModelID  string
	S3                   S3
	Scheduler            Scheduler
	QueueConcurrency     int
	SecretKey            string
	CookieName           string
	OAuthStateTTL        time.Duration
	SessionTokenDuration time.Duration
}

func LoadConfig() *Config {
	return &Config{
		LinkedInClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedInClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		TwitterAPIKey:        getEnv("X_API_KEY", ""),
		TwitterAPISecret:     getEnv("X_API_KEY_SECRET", ""),
		InstagramAppID:       getEnv("INSTAGRAM_APP_ID", ""),
		InstagramAppSecret:   getEnv("INSTAGRAM_APP_SECRET", ""),
		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:    getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		PostgresURI:          getEnv("POSTGRES_URI", ""),
		RedisURI:             getEnv("REDIS_URI", "localhost:6379"),
		FrontendURL:          getEnv("FRONTEND_URL", "http://localhost:5173"),
		APIBaseURL:           getEnv("API_BASE_URL", "http://localhost:3000"),
		ListenAddr:           getEnv("LISTEN_ADDR", ":3000"),
		AWSRegion:            getEnv("AWS_REGION", "us-east-2"),
		SecretsBackend:       getEnv("SECRETS_BACKEND", "aws"),
		SecretsPrefix:        getEnv("SECRETS_PREFIX", "social-tokens"),
		BedrockRegion:        getEnv("AWS_BEDROCK_REGION", "us-east-1"),
		BedrockTextModelID:   getEnv("BEDROCK_TEXT_MODEL_ID", "amazon.nova-pro-v1:0"),
		BedrockImageModelID:  getEnv("BEDROCK_IMAGE_MODEL_ID", "amazon.nova-canvas-v1:0"),
		S3: S3{
			Region:        getEnv("S3_REGION", getEnv("AWS_REGION", "us-east-2")),
			Endpoint:      getEnv("S3_ENDPOINT", ""),
			AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("S3_SECRET_KEY", ""),
			BucketName:    getEnv("S3_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		Scheduler: Scheduler{
			Interval:        getEnvDuration("SCHEDULER_INTERVAL", 5*time.Minute),
			Buffer:          getEnvDuration("SCHEDULER_BUFFER", 5*time.Minute),
			PlatformTimeout: getEnvDuration("PLATFORM_TIMEOUT", 30*time.Second),
			PublishTimeout:  getEnvDuration("PUBLISH_TIMEOUT", 5*time.Minute),
			AnalyticsDelay:  getEnvDuration("ANALYTICS_DELAY", time.Hour),
			RefreshInterval: getEnvDuration("TOKEN_REFRESH_INTERVAL", 6*time.Hour),
			RefreshWindow:   getEnvDuration("TOKEN_REFRESH_WINDOW", 7*24*time.Hour),
		},
		QueueConcurrency:     getEnvInt("QUEUE_CONCURRENCY", 10),
		SecretKey:            getEnv("SECRET_KEY", ""),
		CookieName:           getEnv("COOKIE_NAME", "socialflow_session"),
		OAuthStateTTL:        getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		SessionTokenDuration: getEnvDuration("SESSION_TOKEN_DURATION", 24*time.Hour),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
