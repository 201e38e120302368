package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultClasses is used when no vocabulary file is present.
var DefaultClasses = []string{"walnut", "almond", "cashew", "hazelnut", "peanut"}

type Config struct {
	Port              int
	InferenceURL      string
	InferenceAPIKey   string
	InferenceTimeout  time.Duration
	SheetID           string
	SheetRange        string
	GoogleCredentials []byte // service account JSON
	StoreTimeout      time.Duration
	ClassesFile       string
	Classes           []string
	DatabasePath      string
	LogDirectory      string
	MaxUploadSize     int64 // bytes
}

// Load reads the optional .env file, then the environment, then the class
// vocabulary file. It is called once at process start.
func Load() (*Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	cfg := &Config{
		Port:              getEnvAsInt("PORT", 8080),
		InferenceURL:      getEnv("INFERENCE_URL", "https://serverless.roboflow.com/infer/workflows/nuts/count-nuts"),
		InferenceAPIKey:   strings.TrimSpace(os.Getenv("INFERENCE_API_KEY")),
		InferenceTimeout:  time.Duration(getEnvAsInt("INFERENCE_TIMEOUT_SECONDS", 30)) * time.Second,
		SheetID:           strings.TrimSpace(os.Getenv("SHEET_ID")),
		SheetRange:        getEnv("SHEET_RANGE", "Sheet1!A1"),
		GoogleCredentials: []byte(strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_JSON"))),
		StoreTimeout:      time.Duration(getEnvAsInt("STORE_TIMEOUT_SECONDS", 15)) * time.Second,
		ClassesFile:       getEnv("CLASSES_FILE", "classes.yaml"),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(".", "data", "submissions.db")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		MaxUploadSize:     getEnvAsInt64("MAX_UPLOAD_MB", 20) << 20,
	}

	classes, err := LoadClasses(cfg.ClassesFile)
	if err != nil {
		return nil, err
	}
	cfg.Classes = classes

	return cfg, nil
}

// StoreConfigured reports whether both the sheet and its credentials are set.
func (c *Config) StoreConfigured() bool {
	return c.SheetID != "" && len(c.GoogleCredentials) > 0
}

type classesFile struct {
	Classes []string `yaml:"classes"`
}

// LoadClasses reads the ordered vocabulary from a YAML file of the form
// "classes: [walnut, almond]". A missing file yields DefaultClasses.
func LoadClasses(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return append([]string(nil), DefaultClasses...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read classes file: %w", err)
	}

	var file classesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse classes file %s: %w", path, err)
	}
	if len(file.Classes) == 0 {
		return nil, fmt.Errorf("classes file %s defines no classes", path)
	}

	seen := make(map[string]bool, len(file.Classes))
	classes := make([]string, 0, len(file.Classes))
	for _, c := range file.Classes {
		c = strings.TrimSpace(c)
		if c == "" {
			return nil, fmt.Errorf("classes file %s contains an empty class", path)
		}
		if seen[c] {
			return nil, fmt.Errorf("classes file %s lists %q twice", path, c)
		}
		seen[c] = true
		classes = append(classes, c)
	}
	return classes, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}
