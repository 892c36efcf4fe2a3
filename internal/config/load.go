package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	ModeMock = "mock"
	ModeReal = "real"

	ValidationLenient = "lenient"
	ValidationStrict  = "strict"
)

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		d.Duration = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		u, err := strconv.Unquote(s)
		if err != nil {
			return err
		}
		if strings.TrimSpace(u) == "" {
			d.Duration = 0
			return nil
		}
		dd, err := time.ParseDuration(u)
		if err != nil {
			return err
		}
		d.Duration = dd
		return nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a JSON string like \"30s\" or an int nanoseconds: %w", err)
	}
	d.Duration = time.Duration(n)
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: Duration{Duration: 5 * time.Second},
			IdleTimeout:       Duration{Duration: 2 * time.Minute},
			ShutdownTimeout:   Duration{Duration: 15 * time.Second},
			MaxRequestBytes:   1 << 20,
		},
		Gateway: GatewayConfig{
			ChatCompletionsPath: "/v1/chat/completions",
			ModelsPath:          "/v1/models",
		},
		Generation: GenerationConfig{
			Mode:            ModeMock,
			Temperature:     0.7,
			MaxOutputTokens: 1024,
			RequestTimeout:  Duration{Duration: 60 * time.Second},
			MaxRetries:      0,
			Validation:      ValidationLenient,
		},
		Pricing: PricingConfig{
			TTL: Duration{Duration: time.Hour},
		},
	}
}

func Load() (*Config, error) {
	cfg := defaultConfig()

	cfgPath := strings.TrimSpace(os.Getenv("KP_CONFIG_PATH"))
	if cfgPath == "" {
		if wd, err := os.Getwd(); err == nil {
			p := filepath.Join(wd, "config", "config.json")
			if _, err := os.Stat(p); err == nil {
				cfgPath = p
			}
		}
	}

	if cfgPath != "" {
		b, err := os.ReadFile(cfgPath)
		if err != nil {
			return nil, err
		}
		loaded := defaultConfig()
		if err := json.Unmarshal(b, loaded); err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LOG_MODE")); v != "" {
		cfg.Env = v
	}
	if v := strings.TrimSpace(os.Getenv("KP_HTTP_ADDR")); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("KP_POSTGRES_DSN")); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("KP_GATEWAY_BASE_URL")); v != "" {
		cfg.Gateway.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("KP_GATEWAY_API_KEY")); v != "" {
		cfg.Gateway.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("KP_GENERATION_MODE")); v != "" {
		cfg.Generation.Mode = v
	}
	if v := strings.TrimSpace(os.Getenv("KP_GENERATION_MODEL")); v != "" {
		cfg.Generation.Model = v
	}
}

func validate(cfg *Config) error {
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.MaxRequestBytes <= 0 {
		cfg.HTTP.MaxRequestBytes = 1 << 20
	}

	cfg.Generation.Mode = strings.ToLower(strings.TrimSpace(cfg.Generation.Mode))
	switch cfg.Generation.Mode {
	case "":
		cfg.Generation.Mode = ModeMock
	case ModeMock, ModeReal:
	default:
		return fmt.Errorf("invalid generation.mode %q (want %q or %q)", cfg.Generation.Mode, ModeMock, ModeReal)
	}

	cfg.Generation.Validation = strings.ToLower(strings.TrimSpace(cfg.Generation.Validation))
	switch cfg.Generation.Validation {
	case "":
		cfg.Generation.Validation = ValidationLenient
	case ValidationLenient, ValidationStrict:
	default:
		return fmt.Errorf("invalid generation.validation %q (want %q or %q)", cfg.Generation.Validation, ValidationLenient, ValidationStrict)
	}

	if cfg.Generation.MaxRetries < 0 {
		return errors.New("generation.max_retries must be >= 0")
	}
	if cfg.Generation.Temperature < 0 || cfg.Generation.Temperature > 2 {
		return errors.New("generation.temperature must be within [0, 2]")
	}
	if cfg.Generation.MaxOutputTokens <= 0 {
		cfg.Generation.MaxOutputTokens = 1024
	}
	if cfg.Generation.RequestTimeout.Duration <= 0 {
		cfg.Generation.RequestTimeout = Duration{Duration: 60 * time.Second}
	}
	if cfg.Pricing.TTL.Duration <= 0 {
		cfg.Pricing.TTL = Duration{Duration: time.Hour}
	}

	cfg.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Gateway.BaseURL), "/")
	if cfg.Gateway.ChatCompletionsPath == "" {
		cfg.Gateway.ChatCompletionsPath = "/v1/chat/completions"
	}
	if cfg.Gateway.ModelsPath == "" {
		cfg.Gateway.ModelsPath = "/v1/models"
	}

	if strings.TrimSpace(cfg.Postgres.DSN) == "" {
		return errors.New("postgres.dsn is required")
	}

	// The mock path must start without any gateway configuration.
	if cfg.Generation.Mode == ModeReal {
		if cfg.Gateway.BaseURL == "" {
			return errors.New("generation.mode=real requires gateway.base_url")
		}
		if strings.TrimSpace(cfg.Generation.Model) == "" {
			return errors.New("generation.mode=real requires generation.model")
		}
	}

	return nil
}
