package config

import "time"

type Duration struct {
	Duration time.Duration
}

type HTTPConfig struct {
	Addr              string   `json:"addr"`
	ReadHeaderTimeout Duration `json:"read_header_timeout"`
	IdleTimeout       Duration `json:"idle_timeout"`
	ShutdownTimeout   Duration `json:"shutdown_timeout"`
	MaxRequestBytes   int64    `json:"max_request_bytes"`
}

type PostgresConfig struct {
	DSN string `json:"dsn"`
}

type GatewayConfig struct {
	// BaseURL is the upstream LLM gateway base URL (OpenAI-compatible).
	BaseURL string `json:"base_url"`

	// APIKey is optional; when set, requests carry `Authorization: Bearer <api_key>`.
	APIKey string `json:"api_key,omitempty"`

	ChatCompletionsPath string `json:"chat_completions_path,omitempty"`
	ModelsPath          string `json:"models_path,omitempty"`
}

type GenerationConfig struct {
	// Mode selects the execution path at startup: "mock" or "real".
	Mode string `json:"mode"`

	Model           string  `json:"model,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`

	// RequestTimeout bounds one gateway generation call.
	RequestTimeout Duration `json:"request_timeout,omitempty"`

	// MaxRetries is the number of additional generation attempts after a
	// response validates as insufficient. Total attempts = 1 + MaxRetries.
	MaxRetries int `json:"max_retries,omitempty"`

	// Validation selects the validator strategy: "lenient" (default) or "strict".
	Validation string `json:"validation,omitempty"`

	// PromptTemplatePath overrides the built-in prompt template. Missing or
	// unparsable files fail startup, not individual requests.
	PromptTemplatePath string `json:"prompt_template_path,omitempty"`

	// QualityChecker is recognized but currently inert.
	QualityChecker bool `json:"quality_checker,omitempty"`
}

type PricingConfig struct {
	// TTL bounds how long a fetched model price is served without a refresh.
	TTL Duration `json:"ttl,omitempty"`
}

type Config struct {
	Env        string           `json:"env"`
	HTTP       HTTPConfig       `json:"http"`
	Postgres   PostgresConfig   `json:"postgres"`
	Gateway    GatewayConfig    `json:"gateway"`
	Generation GenerationConfig `json:"generation"`
	Pricing    PricingConfig    `json:"pricing"`
}
