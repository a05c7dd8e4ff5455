package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret        string `yaml:"secret"`
		ExpiryMinutes int    `yaml:"expiryMinutes"`
	} `yaml:"jwt"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
	} `yaml:"gemini"`

	Generation struct {
		ImageBaseURL string `yaml:"imageBaseUrl"`
		AudioBaseURL string `yaml:"audioBaseUrl"`
	} `yaml:"generation"`

	Auth struct {
		DisposableDomains []string `yaml:"disposableDomains"`
	} `yaml:"auth"`
}

// Domains of throwaway email providers rejected at signup. Overridable via
// auth.disposableDomains in the config file.
var defaultDisposableDomains = []string{
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"tempmail.com",
	"temp-mail.org",
	"yopmail.com",
	"trashmail.com",
	"getnada.com",
	"sharklasers.com",
	"dispostable.com",
	"maildrop.cc",
	"fakeinbox.com",
}

// LoadConfig reads the YAML configuration file and applies environment
// overrides. A missing file is not an error; defaults plus environment
// variables are enough to boot a dev instance.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.Server.Port = 8080
	cfg.Server.Env = "dev"
	cfg.Database.URI = "mongodb://localhost:27017/promptarena"
	cfg.Redis.Addr = "localhost:6379"
	cfg.JWT.Secret = "dev-secret-change-me"
	cfg.JWT.ExpiryMinutes = 1440
	cfg.Generation.ImageBaseURL = "https://image.pollinations.ai/prompt"
	cfg.Generation.AudioBaseURL = "https://text.pollinations.ai"

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Server.Env = v
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Database.URI = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.ApiKey = v
	}

	if len(cfg.Auth.DisposableDomains) == 0 {
		cfg.Auth.DisposableDomains = defaultDisposableDomains
	}

	return cfg, nil
}
