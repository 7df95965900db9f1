package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StorageProviderFirebase = "firebase"
	StorageProviderLocal    = "local"
)

type Config struct {
	App       AppConfig
	CourseAPI CourseAPIConfig
	Storage   StorageConfig
	Otel      OtelConfig
}

type AppConfig struct {
	Port               string `validate:"required,numeric"`
	BaseURL            string `validate:"required,url"`
	Environment        string
	LogFilePath        string `validate:"required"`
	HubLogFilePath     string `validate:"required"`
	CorsAllowedOrigins string
	NatsURL            string // empty disables note events
	RedisURL           string // empty disables cross-instance progress fan-out
	DraftTTL           time.Duration `validate:"gt=0"`
}

type CourseAPIConfig struct {
	BaseURL string `validate:"required,url"`
	// Zero means no timeout; failures surface only through the transport.
	Timeout time.Duration `validate:"gte=0"`
}

type StorageConfig struct {
	Provider        string `validate:"oneof=firebase local"`
	Bucket          string `validate:"required_if=Provider firebase"`
	CredentialsFile string
	ChunkSize       int    `validate:"gte=0"`
	LocalDir        string `validate:"required_if=Provider local"`
	PublicBaseURL   string `validate:"required_if=Provider local"`
}

type OtelConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	baseURL := getEnv("APP_BASE_URL", "http://localhost:3000")

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            baseURL,
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			HubLogFilePath:     getEnv("HUB_LOG_FILE_PATH", "logs/progress.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			DraftTTL:           getEnvAsDuration("DRAFT_TTL", time.Hour),
		},
		CourseAPI: CourseAPIConfig{
			BaseURL: strings.TrimRight(getEnv("COURSE_API_BASE_URL", "http://localhost:8080"), "/"),
			Timeout: getEnvAsDuration("COURSE_API_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			Provider:        getEnv("STORAGE_PROVIDER", StorageProviderLocal),
			Bucket:          getEnv("FIREBASE_STORAGE_BUCKET", ""),
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			ChunkSize:       getEnvAsInt("STORAGE_CHUNK_SIZE", 256*1024),
			LocalDir:        getEnv("STORAGE_LOCAL_DIR", "./uploads"),
			PublicBaseURL:   strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE_URL", baseURL+"/uploads"), "/"),
		},
		Otel: OtelConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "course-notes-admin"),
		},
	}
}

// Validate checks the groups in order and stops at the first invalid one.
func (c *Config) Validate() error {
	v := validator.New()
	groups := []struct {
		name  string
		value interface{}
	}{
		{"app", c.App},
		{"course_api", c.CourseAPI},
		{"storage", c.Storage},
	}
	for _, g := range groups {
		if err := v.Struct(g.value); err != nil {
			return fmt.Errorf("invalid %s config: %w", g.name, err)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
