package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Chat      ChatConfig      `yaml:"chat"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	Env            string   `yaml:"env"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // postgres, mysql, memory
	DSN         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	TTL    int    `yaml:"ttl"` // minutes
}

type WebSocketConfig struct {
	AuthTimeout     Duration `yaml:"auth_timeout"`
	PingInterval    Duration `yaml:"ping_interval"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	MaxMessageBytes int64    `yaml:"max_message_bytes"`
	SendBuffer      int      `yaml:"send_buffer"`
	AuthMode        string   `yaml:"auth_mode"` // jwt, trust
}

type ChatConfig struct {
	EditWindow       Duration `yaml:"edit_window"`
	DeleteWindow     Duration `yaml:"delete_window"`
	HistoryLimit     int      `yaml:"history_limit"`
	MaxContentLength int      `yaml:"max_content_length"`
}

type StorageConfig struct {
	Type          string `yaml:"type"` // local, s3
	BasePath      string `yaml:"base_path"`
	BaseURL       string `yaml:"base_url"`
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	AccessKey     string `yaml:"access_key"`
	SecretKey     string `yaml:"secret_key"`
	MaxVoiceBytes int64  `yaml:"max_voice_bytes"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Duration reads "30s" style strings from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default is a runnable development setup backed by the in-memory store.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           5000,
			Env:            "development",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{Driver: "memory"},
		JWT:      JWTConfig{Secret: "dev-secret", TTL: 60 * 24},
		WebSocket: WebSocketConfig{
			AuthTimeout:     Duration(5 * time.Second),
			PingInterval:    Duration(30 * time.Second),
			WriteTimeout:    Duration(10 * time.Second),
			MaxMessageBytes: 64 * 1024,
			SendBuffer:      256,
			AuthMode:        "jwt",
		},
		Chat: ChatConfig{
			EditWindow:       Duration(30 * time.Minute),
			DeleteWindow:     Duration(10 * time.Minute),
			HistoryLimit:     50,
			MaxContentLength: 4000,
		},
		Storage: StorageConfig{
			Type:          "local",
			BasePath:      "./uploads",
			BaseURL:       "/api/media",
			MaxVoiceBytes: 5 * 1024 * 1024,
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Tracing: TracingConfig{ServiceName: "talkio"},
	}
}

// Load reads the YAML file at CONFIG_PATH (config/config.yaml by default) on
// top of Default, then applies environment overrides. A missing file is fine
// when DATABASE_URL is set.
func Load() (*Config, error) {
	cfg := Default()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	f, err := os.Open(configPath)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file at %s: %w", configPath, err)
		}
	case errors.Is(err, os.ErrNotExist) && os.Getenv("DATABASE_URL") != "":
		log.Printf("config file %s not found, using environment", configPath)
	case errors.Is(err, os.ErrNotExist) && os.Getenv("CONFIG_PATH") == "":
		log.Printf("config file %s not found, using defaults", configPath)
	default:
		return nil, fmt.Errorf("failed to open config file at %s: %w", configPath, err)
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
		if cfg.Database.Driver == "memory" {
			cfg.Database.Driver = "postgres"
		}
	}
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("SERVER_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "" || c.Server.Env == "development"
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var problems []string

	switch c.Database.Driver {
	case "memory":
	case "postgres", "mysql":
		if c.Database.DSN == "" {
			problems = append(problems, "database.url is required for driver "+c.Database.Driver)
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown database.driver %q", c.Database.Driver))
	}

	if c.JWT.Secret == "" && !c.IsDevelopment() {
		problems = append(problems, "jwt.secret is required outside development")
	}
	if c.JWT.TTL <= 0 {
		problems = append(problems, "jwt.ttl must be positive")
	}

	ws := c.WebSocket
	if ws.AuthTimeout <= 0 || ws.PingInterval <= 0 || ws.WriteTimeout <= 0 {
		problems = append(problems, "websocket timeouts must be positive")
	}
	if ws.SendBuffer <= 0 {
		problems = append(problems, "websocket.send_buffer must be positive")
	}
	if ws.AuthMode != "jwt" && ws.AuthMode != "trust" {
		problems = append(problems, fmt.Sprintf("unknown websocket.auth_mode %q", ws.AuthMode))
	}
	if ws.AuthMode == "trust" && !c.IsDevelopment() {
		problems = append(problems, "websocket.auth_mode trust is only allowed in development")
	}

	if c.Chat.EditWindow <= 0 || c.Chat.DeleteWindow <= 0 {
		problems = append(problems, "chat windows must be positive")
	}

	switch c.Storage.Type {
	case "local":
	case "s3", "cloudflare_r2":
		if c.Storage.Bucket == "" {
			problems = append(problems, "storage.bucket is required for s3")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.type %q", c.Storage.Type))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
