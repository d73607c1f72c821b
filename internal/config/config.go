package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "PORTFOLIO"

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
	EnvironmentTest        = "test"
)

type Config struct {
	Host string `yaml:"host" envconfig:"LISTEN_HOST"`
	Port int    `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`

	Environment string `yaml:"environment" envconfig:"ENVIRONMENT" validate:"oneof=production development test"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	APIBaseURL string        `yaml:"api_base_url" envconfig:"API_BASE" validate:"required,url"`
	APITimeout time.Duration `yaml:"api_timeout" envconfig:"API_TIMEOUT" validate:"gt=0"`

	SiteName string `yaml:"site_name" envconfig:"SITE_NAME" validate:"required"`
	SiteURL  string `yaml:"site_url" envconfig:"SITE_URL" validate:"omitempty,url"`

	StaticDir    string `yaml:"static_dir" envconfig:"STATIC_DIR"`
	StaticPrefix string `yaml:"static_prefix" envconfig:"STATIC_PREFIX"`
	MetricsPath  string `yaml:"metrics_path" envconfig:"METRICS_PATH"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" envconfig:"MAX_BODY_BYTES" validate:"gt=0"`

	// Peers whose X-Forwarded-For / X-Real-IP headers are believed. Empty
	// means clients are identified by the connection address only.
	TrustedProxies []string `yaml:"trusted_proxies" envconfig:"TRUSTED_PROXIES" validate:"omitempty,dive,cidr|ip"`

	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests" envconfig:"REQUESTS" validate:"gt=0"`
	Window   time.Duration `yaml:"window" envconfig:"WINDOW" validate:"gt=0"`
}

type ServerConfig struct {
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

func Defaults() Config {
	return Config{
		Port:         3000,
		Environment:  EnvironmentProduction,
		LogLevel:     "info",
		APIBaseURL:   "http://localhost:8000",
		APITimeout:   10 * time.Second,
		SiteName:     "Portfolio",
		StaticDir:    "internal/web/static",
		StaticPrefix: "/static/",
		MetricsPath:  "/metrics",
		MaxBodyBytes: 1 << 20,
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   15 * time.Minute,
		},
		Server: ServerConfig{
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
	}
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE and the
// environment, in that order. Environment keys are read as PORTFOLIO_<NAME>
// with a fallback to the bare name, so PORT and API_BASE work as-is.
// DJANGO_API_BASE and NODE_ENV are honoured when neither form is set.
func Load() (Config, error) {
	return LoadFile(getEnv(envPrefix+"_CONFIG_FILE", os.Getenv("CONFIG_FILE")))
}

func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from env: %w", err)
	}
	if value, ok := legacyEnv("API_BASE", "DJANGO_API_BASE"); ok {
		cfg.APIBaseURL = value
	}
	if value, ok := legacyEnv("ENVIRONMENT", "NODE_ENV"); ok {
		cfg.Environment = value
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Normalize canonicalises values that may arrive in any case or with
// stray whitespace. Call it again after overriding fields by hand.
func (c *Config) Normalize() {
	c.Environment = strings.ToLower(strings.TrimSpace(c.Environment))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
}

func (c Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	problems := make([]string, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q (value %v)", fieldErr.Namespace(), fieldErr.Tag(), fieldErr.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

// legacyEnv reads name only when key is unset both with and without the
// PORTFOLIO_ prefix.
func legacyEnv(key string, name string) (string, bool) {
	if _, ok := os.LookupEnv(envPrefix + "_" + key); ok {
		return "", false
	}
	if _, ok := os.LookupEnv(key); ok {
		return "", false
	}
	return os.LookupEnv(name)
}

func getEnv(key string, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	return value
}
