// Package config loads batch settings from the environment (.env supported)
// and an optional yaml file, and hands them to components as an explicit
// struct. Nothing here is a process global.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nrgdoc/edo-repacker/pkg/logger"
)

// Backend names for the text-extraction boundary.
const (
	BackendLocal    = "local"    // in-process PDF text extraction
	BackendTextract = "textract" // remote AWS Textract service
)

// ExtractorConfig selects and parameterizes the text-extraction backend.
type ExtractorConfig struct {
	Backend string `yaml:"backend"`

	// AWS settings, used by the textract backend only.
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// Config is the full batch configuration.
type Config struct {
	// DocRoot is the canonical document hierarchy root; the processing
	// buffer lives at {DocRoot}/Буфер.
	DocRoot string `yaml:"docRoot"`

	LogDir    string          `yaml:"logDir"`
	Logger    logger.Config   `yaml:"logger"`
	Extractor ExtractorConfig `yaml:"extractor"`
}

// BufferDir is the supplier-folder buffer under the document root.
func (c *Config) BufferDir() string {
	return filepath.Join(c.DocRoot, "Буфер")
}

// Load reads the optional yaml file at path (skipped when empty or absent),
// then .env, then environment variables. Environment always wins.
func Load(path string) (*Config, error) {
	cfg := &Config{
		LogDir: "LOG",
		Logger: logger.Config{
			Level:    "info",
			Encoding: "console",
		},
		Extractor: ExtractorConfig{Backend: BackendLocal},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env-only configuration
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	// .env sits next to the binary's working directory; absence is fine.
	_ = godotenv.Load()

	if v := os.Getenv("MAIN_DOC_DIR"); v != "" {
		cfg.DocRoot = filepath.Clean(v)
	}
	if v := os.Getenv("EXTRACTOR_BACKEND"); v != "" {
		cfg.Extractor.Backend = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Extractor.Region = v
	}
	if v := os.Getenv("AWS_ENDPOINT"); v != "" {
		cfg.Extractor.Endpoint = v
	}
	if v := os.Getenv("AWS_ACCESS_KEY"); v != "" {
		cfg.Extractor.AccessKey = v
	}
	if v := os.Getenv("AWS_SECRET_KEY"); v != "" {
		cfg.Extractor.SecretKey = v
	}

	if cfg.DocRoot == "" {
		return nil, fmt.Errorf("MAIN_DOC_DIR is not set")
	}
	switch cfg.Extractor.Backend {
	case BackendLocal, BackendTextract:
	default:
		return nil, fmt.Errorf("unknown extractor backend %q", cfg.Extractor.Backend)
	}
	return cfg, nil
}
