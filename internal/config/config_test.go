package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("APP_BASE_URL", "http://admin.local:3000")
	t.Setenv("COURSE_API_BASE_URL", "http://api.local/")

	cfg := Load()

	assert.Equal(t, "http://api.local", cfg.CourseAPI.BaseURL)
	assert.Zero(t, cfg.CourseAPI.Timeout)
	assert.Equal(t, time.Hour, cfg.App.DraftTTL)
	assert.Equal(t, "http://admin.local:3000/uploads", cfg.Storage.PublicBaseURL)
	assert.Equal(t, 256*1024, cfg.Storage.ChunkSize)
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("COURSE_API_TIMEOUT", "15s")
	t.Setenv("DRAFT_TTL", "10m")
	t.Setenv("STORAGE_CHUNK_SIZE", "not-a-number")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 15*time.Second, cfg.CourseAPI.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.App.DraftTTL)
	assert.Equal(t, 256*1024, cfg.Storage.ChunkSize)
	assert.True(t, cfg.IsProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "firebase needs a bucket",
			mutate:  func(c *Config) { c.Storage.Provider = StorageProviderFirebase; c.Storage.Bucket = "" },
			wantErr: "invalid storage config",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Storage.Provider = "s3" },
			wantErr: "invalid storage config",
		},
		{
			name:    "course api url",
			mutate:  func(c *Config) { c.CourseAPI.BaseURL = "" },
			wantErr: "invalid course_api config",
		},
		{
			name:    "app checked first",
			mutate:  func(c *Config) { c.App.Port = "http"; c.Storage.Provider = "s3" },
			wantErr: "invalid app config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Port:           "3000",
			BaseURL:        "http://localhost:3000",
			LogFilePath:    "logs/app.log",
			HubLogFilePath: "logs/progress.log",
			DraftTTL:       time.Hour,
		},
		CourseAPI: CourseAPIConfig{BaseURL: "http://localhost:8080"},
		Storage: StorageConfig{
			Provider:      StorageProviderLocal,
			LocalDir:      "./uploads",
			PublicBaseURL: "http://localhost:3000/uploads",
		},
	}
}
