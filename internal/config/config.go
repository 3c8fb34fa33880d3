package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Vision   VisionConfig   `yaml:"vision"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// VisionConfig tunes the face pipeline. Thresholds are percentages as
// the provider reports them (0–100); MinFaceRatio is a fraction of the
// image dimension.
type VisionConfig struct {
	Region              string  `yaml:"region"`
	CollectionPrefix    string  `yaml:"collection_prefix"`
	MaxFacesPerPhoto    int     `yaml:"max_faces_per_photo"`
	MinFaceRatio        float64 `yaml:"min_face_ratio"`
	MatchFloor          float64 `yaml:"match_floor"`
	AutoAssignThreshold float64 `yaml:"auto_assign_threshold"`
	MaxMatches          int     `yaml:"max_matches"`
	MaxSuggestions      int     `yaml:"max_suggestions"`
}

type OpenAIConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Vision.Region == "" {
		cfg.Vision.Region = "us-east-1"
	}
	if cfg.Vision.CollectionPrefix == "" {
		cfg.Vision.CollectionPrefix = "memorybook-user-"
	}
	if cfg.Vision.MaxFacesPerPhoto == 0 {
		cfg.Vision.MaxFacesPerPhoto = 10
	}
	if cfg.Vision.MinFaceRatio == 0 {
		cfg.Vision.MinFaceRatio = 0.03
	}
	if cfg.Vision.MatchFloor == 0 {
		cfg.Vision.MatchFloor = 80
	}
	if cfg.Vision.AutoAssignThreshold == 0 {
		cfg.Vision.AutoAssignThreshold = 95
	}
	if cfg.Vision.MaxMatches == 0 {
		cfg.Vision.MaxMatches = 5
	}
	if cfg.Vision.MaxSuggestions == 0 {
		cfg.Vision.MaxSuggestions = 3
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = "gpt-4.1-mini"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MB_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MB_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("MB_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("MB_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("MB_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("MB_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("MB_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MB_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("MB_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("MB_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("MB_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("MB_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("MB_AWS_REGION"); v != "" {
		cfg.Vision.Region = v
	}
	if v := os.Getenv("MB_COLLECTION_PREFIX"); v != "" {
		cfg.Vision.CollectionPrefix = v
	}
	if v := os.Getenv("MB_OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
}
