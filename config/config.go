package config

// Service Configuration
//
// Configuration comes from three layers, lowest precedence first:
//
//   1. compiled defaults
//   2. an optional YAML file (CONFIG_PATH or the -config flag)
//   3. environment variables
//
// Environment variables win so existing .env deployments keep working
// unchanged whether or not a config file is present.

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"voice-detection/utils"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Detection DetectionConfig `yaml:"detection"`
	KeyStore  KeyStoreConfig  `yaml:"keystore"`
	Explain   ExplainConfig   `yaml:"explain"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Protocol string `yaml:"protocol"`
	Port     string `yaml:"port"`
	CertFile string `yaml:"cert_file"`
	CertKey  string `yaml:"cert_key"`
}

type DetectionConfig struct {
	// BatteryProfile selects the check battery: full, reduced or minimal.
	BatteryProfile string `yaml:"battery_profile"`
	// MFCCCount is the cepstral coefficient count of the feature set.
	MFCCCount int `yaml:"mfcc_count"`
	// TargetSampleRate resamples converted audio. Zero keeps native rates.
	TargetSampleRate int `yaml:"target_sample_rate"`
	// MaxDurationSeconds bounds the analysis window.
	MaxDurationSeconds float64 `yaml:"max_duration_seconds"`
	// MaxConcurrent caps in-flight feature extractions.
	MaxConcurrent int `yaml:"max_concurrent"`
	// TempDir stages ffmpeg conversion inputs.
	TempDir string `yaml:"temp_dir"`
}

type KeyStoreConfig struct {
	Type       string `yaml:"type"`
	SQLitePath string `yaml:"sqlite_path"`
	MongoURI   string `yaml:"mongo_uri"`
	MongoDB    string `yaml:"mongo_db"`
}

type ExplainConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the compiled configuration baseline.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Protocol: "http",
			Port:     "5000",
		},
		Detection: DetectionConfig{
			BatteryProfile:     "full",
			MFCCCount:          20,
			TargetSampleRate:   22050,
			MaxDurationSeconds: 30,
			MaxConcurrent:      4,
			TempDir:            "tmp",
		},
		KeyStore: KeyStoreConfig{
			Type:       "sqlite",
			SQLitePath: "db/voice-detection.db",
			MongoURI:   "mongodb://localhost:27017",
			MongoDB:    "voice-detection",
		},
		Explain: ExplainConfig{
			Enabled:        true,
			Model:          "gemini-1.5-flash",
			TimeoutSeconds: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the effective configuration. An empty path skips the file
// layer; a named file that cannot be read or parsed is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Protocol = utils.GetEnv("SERVER_PROTOCOL", c.Server.Protocol)
	c.Server.Port = utils.GetEnv("PORT", c.Server.Port)
	c.Server.CertFile = utils.GetEnv("CERT_FILE", c.Server.CertFile)
	c.Server.CertKey = utils.GetEnv("CERT_KEY", c.Server.CertKey)

	c.Detection.BatteryProfile = utils.GetEnv("BATTERY_PROFILE", c.Detection.BatteryProfile)
	c.Detection.MFCCCount = envInt("MFCC_COUNT", c.Detection.MFCCCount)
	c.Detection.TargetSampleRate = envInt("TARGET_SAMPLE_RATE", c.Detection.TargetSampleRate)
	c.Detection.MaxDurationSeconds = envFloat("MAX_DURATION_SECONDS", c.Detection.MaxDurationSeconds)
	c.Detection.MaxConcurrent = envInt("MAX_CONCURRENT_DETECTIONS", c.Detection.MaxConcurrent)
	c.Detection.TempDir = utils.GetEnv("TEMP_DIR", c.Detection.TempDir)

	c.KeyStore.Type = utils.GetEnv("DB_TYPE", c.KeyStore.Type)
	c.KeyStore.SQLitePath = utils.GetEnv("SQLITE_DB_PATH", c.KeyStore.SQLitePath)
	c.KeyStore.MongoURI = utils.GetEnv("DB_URI", c.KeyStore.MongoURI)
	c.KeyStore.MongoDB = utils.GetEnv("DB_NAME", c.KeyStore.MongoDB)

	c.Explain.Model = utils.GetEnv("GEMINI_MODEL", c.Explain.Model)
	if utils.GetEnv("GEMINI_API_KEY", "") == "" {
		c.Explain.Enabled = false
	}

	c.Logging.Level = utils.GetEnv("LOG_LEVEL", c.Logging.Level)
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Detection.Validate(); err != nil {
		return err
	}
	if err := c.KeyStore.Validate(); err != nil {
		return err
	}
	if err := c.Explain.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

func (s ServerConfig) Validate() error {
	if s.Protocol != "http" && s.Protocol != "https" {
		return fmt.Errorf("server.protocol must be http or https, got %q", s.Protocol)
	}
	if s.Port == "" {
		return fmt.Errorf("server.port must not be empty")
	}
	if s.Protocol == "https" && (s.CertFile == "" || s.CertKey == "") {
		return fmt.Errorf("server.cert_file and server.cert_key are required for https")
	}
	return nil
}

func (d DetectionConfig) Validate() error {
	switch d.BatteryProfile {
	case "full", "reduced", "minimal":
	default:
		return fmt.Errorf("detection.battery_profile must be full, reduced or minimal, got %q", d.BatteryProfile)
	}
	if d.MFCCCount <= 0 {
		return fmt.Errorf("detection.mfcc_count must be positive, got %d", d.MFCCCount)
	}
	if d.TargetSampleRate < 0 {
		return fmt.Errorf("detection.target_sample_rate must not be negative, got %d", d.TargetSampleRate)
	}
	if d.MaxDurationSeconds <= 0 {
		return fmt.Errorf("detection.max_duration_seconds must be positive, got %v", d.MaxDurationSeconds)
	}
	if d.MaxConcurrent < 1 {
		return fmt.Errorf("detection.max_concurrent must be at least 1, got %d", d.MaxConcurrent)
	}
	return nil
}

func (k KeyStoreConfig) Validate() error {
	switch k.Type {
	case "sqlite":
		if k.SQLitePath == "" {
			return fmt.Errorf("keystore.sqlite_path must not be empty")
		}
	case "mongo":
		if k.MongoURI == "" || k.MongoDB == "" {
			return fmt.Errorf("keystore.mongo_uri and keystore.mongo_db must not be empty")
		}
	default:
		return fmt.Errorf("keystore.type must be sqlite or mongo, got %q", k.Type)
	}
	return nil
}

func (e ExplainConfig) Validate() error {
	if !e.Enabled {
		return nil
	}
	if e.Model == "" {
		return fmt.Errorf("explain.model must not be empty")
	}
	if e.TimeoutSeconds <= 0 {
		return fmt.Errorf("explain.timeout_seconds must be positive, got %d", e.TimeoutSeconds)
	}
	return nil
}

func (l LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", l.Level)
	}
}

func envInt(key string, fallback int) int {
	raw := utils.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envFloat(key string, fallback float64) float64 {
	raw := utils.GetEnv(key, "")
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
