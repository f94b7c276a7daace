package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/nconklindev/sheetsync/internal/bitable"
	"github.com/nconklindev/sheetsync/internal/ingest"
	"github.com/nconklindev/sheetsync/internal/logging"

	"github.com/joho/godotenv"
)

var envVars = []string{
	"BITABLE_BASE_URL",
	"BITABLE_APP_TOKEN",
	"BITABLE_TABLE_ID",
	"BITABLE_TOKEN",
	"BITABLE_TIMEOUT",
	"BITABLE_PAGE_SIZE",
	"INGEST_CONCURRENCY",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"LOG_FILE",
	"AWS_REGION",
}

// Config is the resolved application configuration.
type Config struct {
	Bitable     bitable.Config
	Log         logging.Config
	Concurrency int
	AWSRegion   string
}

type values map[string]string

// Load reads envFile (if it exists) into the process environment and then
// builds a Config from the environment. A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v := make(values)
	for _, k := range envVars {
		if val := os.Getenv(k); val != "" {
			v[k] = val
		}
	}

	return &Config{
		Bitable: bitable.Config{
			BaseURL:  v.getString("BITABLE_BASE_URL", bitable.DefaultBaseURL),
			AppToken: v.getString("BITABLE_APP_TOKEN", ""),
			TableID:  v.getString("BITABLE_TABLE_ID", ""),
			Token:    v.getString("BITABLE_TOKEN", ""),
			Timeout:  v.getDuration("BITABLE_TIMEOUT", bitable.DefaultTimeout),
			PageSize: v.getInt("BITABLE_PAGE_SIZE", bitable.DefaultPageSize),
		},
		Log: logging.Config{
			Level:      v.getString("LOG_LEVEL", "info"),
			Format:     v.getString("LOG_FORMAT", "console"),
			OutputPath: v.getString("LOG_FILE", ""),
		},
		Concurrency: v.getInt("INGEST_CONCURRENCY", ingest.DefaultConcurrency),
		AWSRegion:   v.getString("AWS_REGION", ""),
	}, nil
}

func (v values) getString(key, defaultValue string) string {
	if value, ok := v[key]; ok {
		return value
	}
	return defaultValue
}

func (v values) getInt(key string, defaultValue int) int {
	if value, ok := v[key]; ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func (v values) getDuration(key string, defaultValue time.Duration) time.Duration {
	if value, ok := v[key]; ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
