package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultEnvironment = "test"
	defaultRedirectURL = "https://boxplanet.shop/checkout/success"
	defaultWebhookURL  = "https://boxplanet.vercel.app/api/mollie-webhook"

	defaultDedupCollection = "seenTransactions"
)

var defaultAllowedOrigins = []string{
	"https://boxplanet.shop",
	"https://www.boxplanet.shop",
	"http://localhost:3000",
}

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server      ServerConfig
	Environment string
	Mollie      MollieConfig
	Resend      ResendConfig
	CORS        CORSConfig
	Dedup       DedupConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MollieConfig stores payment provider credentials and callback URLs.
type MollieConfig struct {
	LiveKey     string
	TestKey     string
	RedirectURL string
	WebhookURL  string
}

// ResendConfig stores mail delivery credentials and addresses.
type ResendConfig struct {
	APIKey      string
	FromEmail   string
	NotifyEmail string
}

// CORSConfig lists origins allowed to call the storefront endpoints.
type CORSConfig struct {
	AllowedOrigins []string
}

// DedupConfig selects the backing store for transaction deduplication.
type DedupConfig struct {
	FirestoreProject string
	Collection       string
}

// Live reports whether the service runs against the live payment environment.
func (c Config) Live() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "live")
}

// APIKey returns the Mollie key matching the configured environment.
func (c Config) APIKey() string {
	if c.Live() {
		return c.Mollie.LiveKey
	}
	return c.Mollie.TestKey
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables. Credentials may legitimately be absent: the webhook path
// must keep acknowledging provider callbacks even when mail or payment keys are not
// configured, so only the server surface is validated here.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "API_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "API_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "API_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "API_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Environment: strings.ToLower(stringWithDefault(lookup, "BOXPLANET_ENV", defaultEnvironment)),
		Mollie: MollieConfig{
			LiveKey:     stringWithDefault(lookup, "MOLLIE_LIVE_KEY", ""),
			TestKey:     stringWithDefault(lookup, "MOLLIE_TEST_KEY", ""),
			RedirectURL: stringWithDefault(lookup, "MOLLIE_REDIRECT_URL", defaultRedirectURL),
			WebhookURL:  stringWithDefault(lookup, "MOLLIE_WEBHOOK_URL", defaultWebhookURL),
		},
		Resend: ResendConfig{
			APIKey:      stringWithDefault(lookup, "RESEND_API_KEY", ""),
			FromEmail:   stringWithDefault(lookup, "FROM_EMAIL", ""),
			NotifyEmail: stringWithDefault(lookup, "NOTIFY_EMAIL", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: csvWithDefault(lookup, "CORS_ALLOWED_ORIGINS", defaultAllowedOrigins),
		},
		Dedup: DedupConfig{
			FirestoreProject: stringWithDefault(lookup, "DEDUP_FIRESTORE_PROJECT", ""),
			Collection:       stringWithDefault(lookup, "DEDUP_COLLECTION", defaultDedupCollection),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.ReadTimeout <= 0 {
		missing = append(missing, "Server.ReadTimeout")
	}
	if cfg.Server.WriteTimeout <= 0 {
		missing = append(missing, "Server.WriteTimeout")
	}
	if cfg.Environment != "live" && cfg.Environment != "test" {
		missing = append(missing, "Environment")
	}
	if strings.TrimSpace(cfg.Dedup.Collection) == "" {
		missing = append(missing, "Dedup.Collection")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
