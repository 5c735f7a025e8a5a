// Package config loads the YAML configuration file, applies defaults,
// expands ${ENV} references, and validates the result.
package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/dentaldesk/voicedesk/pkg/prompt"
)

type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Server  ServerConfig  `mapstructure:"server"`
	Vendors VendorsConfig `mapstructure:"vendors"`
	Retell  RetellConfig  `mapstructure:"retell"`
	Backend BackendConfig `mapstructure:"backend"`
	Twilio  TwilioConfig  `mapstructure:"twilio"`
	Safety  SafetyConfig  `mapstructure:"safety"`
	Privacy PrivacyConfig `mapstructure:"privacy"`

	Tenants map[string]TenantConfig `mapstructure:"tenants"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	PublicURL      string   `mapstructure:"public_url"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	LLM VendorConfig `mapstructure:"llm"`
}

type RetellConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	WebsocketURL   string `mapstructure:"websocket_url"`
	TransferNumber string `mapstructure:"transfer_number"`
}

type BackendConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	ServiceKey string `mapstructure:"service_key"`
}

type TwilioConfig struct {
	AccountSID string `mapstructure:"account_sid"`
	AuthToken  string `mapstructure:"auth_token"`
	FromNumber string `mapstructure:"from_number"`
}

type SafetyConfig struct {
	ConfidenceThreshold  float64 `mapstructure:"confidence_threshold"`
	MaxGuardrailTriggers int     `mapstructure:"max_guardrail_triggers"`
	MaxHistory           int     `mapstructure:"max_history"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// TenantConfig holds one practice's identity and routing.
type TenantConfig struct {
	Practice       prompt.PracticeInfo `mapstructure:"practice"`
	TransferNumber string              `mapstructure:"transfer_number"`
}

// OpenAISettings is the decoded vendors.llm.settings block for the
// openai provider.
type OpenAISettings struct {
	APIKey            string  `mapstructure:"api_key"`
	Model             string  `mapstructure:"model"`
	BaseURL           string  `mapstructure:"base_url"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	UseCircuitBreaker *bool   `mapstructure:"use_circuit_breaker"`
	CircuitThreshold  int     `mapstructure:"circuit_threshold"`
	CircuitCooldownMS int     `mapstructure:"circuit_cooldown_ms"`
}

// DecodeLLMSettings decodes a free-form settings map into typed
// provider settings.
func DecodeLLMSettings(settings map[string]any) (OpenAISettings, error) {
	var out OpenAISettings
	if len(settings) == 0 {
		return out, nil
	}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(settings); err != nil {
		return out, err
	}
	return out, nil
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.allow_any_origin", true)
	v.SetDefault("vendors.llm.provider", "openai")
	v.SetDefault("safety.confidence_threshold", 0.7)
	v.SetDefault("safety.max_guardrail_triggers", 3)
	v.SetDefault("safety.max_history", 20)
	v.SetDefault("privacy.redact_pii", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)
	cfg.Vendors.LLM.Settings = expandSettings(cfg.Vendors.LLM.Settings)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Vendors.LLM.Provider) == "" {
		return fmt.Errorf("vendors.llm.provider is required")
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Safety.ConfidenceThreshold <= 0 || c.Safety.ConfidenceThreshold > 1 {
		return fmt.Errorf("safety.confidence_threshold must be in (0, 1]")
	}
	if c.Safety.MaxGuardrailTriggers <= 0 {
		return fmt.Errorf("safety.max_guardrail_triggers must be positive")
	}
	return nil
}

// TransferNumberFor returns the per-tenant transfer number, falling
// back to the global one.
func (c *Config) TransferNumberFor(tenantID string) string {
	if t, ok := c.Tenants[tenantID]; ok && t.TransferNumber != "" {
		return t.TransferNumber
	}
	return c.Retell.TransferNumber
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, v := range val {
			val[k] = expandAny(v)
		}
		return val
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		for _, key := range v.MapKeys() {
			val := v.MapIndex(key)
			if val.Kind() == reflect.String {
				v.SetMapIndex(key, reflect.ValueOf(os.ExpandEnv(val.String())))
				continue
			}
			if val.Kind() == reflect.Struct {
				// Map values are not addressable; expand a copy and
				// write it back.
				copied := reflect.New(val.Type()).Elem()
				copied.Set(val)
				expandValue(copied)
				v.SetMapIndex(key, copied)
			}
		}
	}
}
