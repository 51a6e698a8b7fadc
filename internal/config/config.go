package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed calibration.yaml
var calibrationYAML []byte

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Extractor   ExtractorConfig
	Gallery     GalleryConfig
	Matching    MatchingConfig
	Calibration CalibrationConfig
}

type ServerConfig struct {
	Port           int // defaults to 8080
	RequestTimeout int // per-request timeout in seconds (default 60)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type ExtractorConfig struct {
	URL     string        // defaults to http://localhost:8000
	Model   string        // embedding model name (default vgg-face)
	Timeout time.Duration // per-request timeout (default 30s)
}

type GalleryConfig struct {
	Backend string // "fs" (default) or "postgres"
	Dir     string // filesystem gallery root (default ./galleries)
}

type MatchingConfig struct {
	Threshold float64 // cosine distance match threshold
}

type CalibrationConfig struct {
	Models map[string]ModelCalibration `yaml:"models"`
}

type ModelCalibration struct {
	Threshold float64 `yaml:"threshold"`
}

const defaultThreshold = 0.35

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var calibration CalibrationConfig
	if err := yaml.Unmarshal(calibrationYAML, &calibration); err != nil {
		// Embedded file, should never happen in practice
		panic("failed to unmarshal embedded calibration.yaml: " + err.Error())
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("PORT", 8080),
			RequestTimeout: envInt("REQUEST_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Extractor: ExtractorConfig{
			URL:     envString("EXTRACTOR_URL", "http://localhost:8000"),
			Model:   envString("EXTRACTOR_MODEL", "vgg-face"),
			Timeout: time.Duration(envInt("EXTRACTOR_TIMEOUT", 30)) * time.Second,
		},
		Gallery: GalleryConfig{
			Backend: envString("GALLERY_BACKEND", "fs"),
			Dir:     envString("GALLERY_DIR", "./galleries"),
		},
		Calibration: calibration,
	}
	cfg.Matching.Threshold = envFloat("FACE_MATCH_THRESHOLD", cfg.ModelThreshold(cfg.Extractor.Model))
	return cfg
}

// ModelThreshold returns the calibrated match threshold for a model,
// falling back to the default when the model is not calibrated.
func (c *Config) ModelThreshold(modelName string) float64 {
	if cal, ok := c.Calibration.Models[modelName]; ok && cal.Threshold > 0 {
		return cal.Threshold
	}
	return defaultThreshold
}
