package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`
	LogLevel  string `yaml:"log_level"`

	StoreDriver string `yaml:"store_driver"` // sqlite|postgres|fs
	DBDSN       string `yaml:"db_dsn"`
	DataDir     string `yaml:"data_dir"` // for the fs store

	AuthSecret    string `yaml:"auth_secret"`
	TokenTTL      string `yaml:"token_ttl"`
	AdminUser     string `yaml:"admin_user"`
	AdminPassHash string `yaml:"admin_pass_hash"` // bcrypt

	CORSOrigins []string `yaml:"cors_origins"`

	// AI quiz generation (OpenRouter-compatible chat completions).
	AIBaseURL string `yaml:"ai_base_url"`
	AIAPIKey  string `yaml:"ai_api_key"`
	AIModel   string `yaml:"ai_model"`
}

// Load reads the optional YAML file at path, then applies environment
// overrides. A missing file is not an error; env alone is a full config.
func Load(path string) (Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		} else if !os.IsNotExist(err) {
			return cfg, err
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func FromEnv() Config {
	cfg := Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	setIf(&c.HTTPAddr, "HTTP_ADDR")
	setIf(&c.PublicURL, "PUBLIC_URL")
	setIf(&c.LogLevel, "LOG_LEVEL")
	setIf(&c.StoreDriver, "STORE_DRIVER")
	setIf(&c.DBDSN, "DB_DSN")
	setIf(&c.DataDir, "DATA_DIR")
	setIf(&c.AuthSecret, "AUTH_HMAC_SECRET")
	setIf(&c.TokenTTL, "TOKEN_TTL")
	setIf(&c.AdminUser, "ADMIN_USER")
	setIf(&c.AdminPassHash, "ADMIN_PASS_HASH")
	setIf(&c.AIBaseURL, "AI_BASE_URL")
	setIf(&c.AIAPIKey, "OPENROUTER_API_KEY")
	setIf(&c.AIModel, "AI_MODEL")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitCSV(v)
	}
}

func (c *Config) applyDefaults() {
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.StoreDriver == "" {
		c.StoreDriver = "sqlite"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.AuthSecret == "" {
		c.AuthSecret = "supersecret-dev-key"
	}
	if c.TokenTTL == "" {
		c.TokenTTL = "8h"
	}
	if c.AdminUser == "" {
		c.AdminUser = "admin"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"http://localhost:4200", "http://localhost:5173"}
	}
	if c.AIBaseURL == "" {
		c.AIBaseURL = "https://openrouter.ai/api/v1"
	}
	if c.AIModel == "" {
		c.AIModel = "deepseek/deepseek-r1-0528-qwen3-8b:free"
	}
}

// TokenDuration parses TokenTTL, falling back to 8h on bad input.
func (c Config) TokenDuration() time.Duration {
	if d, err := time.ParseDuration(c.TokenTTL); err == nil && d > 0 {
		return d
	}
	return 8 * time.Hour
}

func setIf(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
