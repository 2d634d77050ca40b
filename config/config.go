// Package config loads the toolkit configuration.
//
// Sources are layered, later ones winning: built-in defaults, an optional
// TOML file, PARLEY_ prefixed environment variables (a double underscore
// nests, so PARLEY_CREDENTIALS__OPENAI sets credentials.openai), and finally
// the conventional provider key variables such as OPENAI_API_KEY for any
// credential still unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PARLEY_"

const (
	DefaultProvider     = "openai"
	DefaultModel        = "gpt-4o-mini"
	DefaultSystemPrompt = "You are a helpful assistant."
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 1000
	DefaultTokenLimit   = 4000
	DefaultStorePrefix  = "parley:"
)

// conventional key variables, checked in order per provider
var credentialEnv = map[string][]string{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"google":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	"custom":    {"CUSTOM_API_KEY"},
}

// Config is the configuration surface of the toolkit.
type Config struct {
	DefaultProvider string  `koanf:"default_provider" validate:"required"`
	DefaultModel    string  `koanf:"default_model" validate:"required"`
	SystemPrompt    string  `koanf:"system_prompt"`
	Temperature     float64 `koanf:"temperature" validate:"gte=0,lte=2"`
	MaxTokens       int     `koanf:"max_tokens" validate:"gt=0"`
	// TokenLimit only derives the 80% warning threshold; nothing is truncated.
	TokenLimit int `koanf:"token_limit" validate:"gte=0"`

	Credentials map[string]string `koanf:"credentials"`
	Endpoints   map[string]string `koanf:"endpoints" validate:"dive,omitempty,url"`

	SideStore SideStore `koanf:"side_store"`
}

// SideStore configures the optional session side-store.
type SideStore struct {
	Enabled bool   `koanf:"enabled"`
	Prefix  string `koanf:"prefix"`
	// Path of a bbolt file. Empty keeps sessions in memory.
	Path string `koanf:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DefaultProvider: DefaultProvider,
		DefaultModel:    DefaultModel,
		SystemPrompt:    DefaultSystemPrompt,
		Temperature:     DefaultTemperature,
		MaxTokens:       DefaultMaxTokens,
		TokenLimit:      DefaultTokenLimit,
		Credentials:     map[string]string{},
		Endpoints:       map[string]string{},
		SideStore: SideStore{
			Prefix: DefaultStorePrefix,
		},
	}
}

// Credential returns the configured credential for provider.
func (c *Config) Credential(provider string) string {
	return c.Credentials[strings.ToLower(provider)]
}

// Endpoint returns the configured endpoint override for provider.
func (c *Config) Endpoint(provider string) string {
	return c.Endpoints[strings.ToLower(provider)]
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load layers defaults, the TOML file at path (skipped when empty) and the
// environment, then validates the result.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: loading %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.ReplaceAll(key, "__", "."), value
		},
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("config: loading environment: %w", err)
	}

	for provider, names := range credentialEnv {
		key := "credentials." + provider
		if k.String(key) != "" {
			continue
		}
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				if err := k.Set(key, v); err != nil {
					return Config{}, fmt.Errorf("config: setting %s: %w", key, err)
				}
				break
			}
		}
	}

	cfg := Config{}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: decoding: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.DefaultProvider = strings.ToLower(strings.TrimSpace(c.DefaultProvider))
	c.Credentials = lowerKeys(c.Credentials)
	c.Endpoints = lowerKeys(c.Endpoints)
	if c.SideStore.Prefix == "" {
		c.SideStore.Prefix = DefaultStorePrefix
	}
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = v
	}
	return out
}

func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"default_provider":  d.DefaultProvider,
		"default_model":     d.DefaultModel,
		"system_prompt":     d.SystemPrompt,
		"temperature":       d.Temperature,
		"max_tokens":        d.MaxTokens,
		"token_limit":       d.TokenLimit,
		"side_store.prefix": d.SideStore.Prefix,
	}
}
