package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "smspool.toml"

// Config is the top-level smspool configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	SMS       SMSConfig       `toml:"sms"`
	Providers ProvidersConfig `toml:"providers"`
}

type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ShutdownTimeout int    `toml:"shutdown_timeout"` // seconds
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// SMSConfig controls how messages are sent through the pool.
type SMSConfig struct {
	Timeout          int      `toml:"timeout"`     // seconds per vendor request
	Concurrency      int      `toml:"concurrency"` // messages in flight per send
	AllowedCountries []string `toml:"allowed_countries"`
	Normalize        bool     `toml:"normalize"` // rewrite recipients to E.164 before sending
}

// ProvidersConfig holds one section per supported vendor. Enabled providers
// are registered in the pool; lower priority is tried first.
type ProvidersConfig struct {
	Twilio  TwilioConfig  `toml:"twilio"`
	Plivo   PlivoConfig   `toml:"plivo"`
	Telnyx  TelnyxConfig  `toml:"telnyx"`
	MSG91   MSG91Config   `toml:"msg91"`
	Vonage  VonageConfig  `toml:"vonage"`
	Webhook WebhookConfig `toml:"webhook"`
	SNS     SNSConfig     `toml:"sns"`
	Log     LogConfig     `toml:"log"`
}

type TwilioConfig struct {
	Enabled    bool   `toml:"enabled"`
	Priority   int    `toml:"priority"`
	AccountSID string `toml:"account_sid"`
	AuthToken  string `toml:"auth_token"`
	From       string `toml:"from"`
}

type PlivoConfig struct {
	Enabled   bool   `toml:"enabled"`
	Priority  int    `toml:"priority"`
	AuthID    string `toml:"auth_id"`
	AuthToken string `toml:"auth_token"`
	From      string `toml:"from"`
}

type TelnyxConfig struct {
	Enabled  bool   `toml:"enabled"`
	Priority int    `toml:"priority"`
	APIKey   string `toml:"api_key"`
	From     string `toml:"from"`
}

type MSG91Config struct {
	Enabled    bool   `toml:"enabled"`
	Priority   int    `toml:"priority"`
	AuthKey    string `toml:"auth_key"`
	TemplateID string `toml:"template_id"`
}

type VonageConfig struct {
	Enabled   bool   `toml:"enabled"`
	Priority  int    `toml:"priority"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	From      string `toml:"from"`
}

type WebhookConfig struct {
	Enabled  bool   `toml:"enabled"`
	Priority int    `toml:"priority"`
	URL      string `toml:"url"`
	Secret   string `toml:"secret"`
}

type SNSConfig struct {
	Enabled  bool   `toml:"enabled"`
	Priority int    `toml:"priority"`
	Region   string `toml:"region"`
}

type LogConfig struct {
	Enabled  bool `toml:"enabled"`
	Priority int  `toml:"priority"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8095,
			ShutdownTimeout: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		SMS: SMSConfig{
			Timeout:     30,
			Concurrency: 1,
		},
		Providers: ProvidersConfig{
			SNS: SNSConfig{Region: "us-east-1"},
			Log: LogConfig{Enabled: true, Priority: 100},
		},
	}
}

// Load reads configuration with priority:
// defaults → smspool.toml → .env → environment → CLI flags.
// The .env file is looked up next to the config file; variables already set
// in the environment win over it.
func Load(configPath string, flags map[string]string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = DefaultPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(configPath), ".env")); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	applyFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

var countryCode = regexp.MustCompile(`^[A-Z]{2}$`)

// LogLevels lists the accepted logging.level values.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be non-negative, got %d", c.Server.ShutdownTimeout)
	}
	if c.Logging.Level != "" && !slices.Contains(LogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of: %s; got %q", strings.Join(LogLevels, ", "), c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("logging.format must be \"json\" or \"text\", got %q", c.Logging.Format)
	}
	if c.SMS.Timeout < 1 {
		return fmt.Errorf("sms.timeout must be at least 1, got %d", c.SMS.Timeout)
	}
	if c.SMS.Concurrency < 1 {
		return fmt.Errorf("sms.concurrency must be at least 1, got %d", c.SMS.Concurrency)
	}
	for _, code := range c.SMS.AllowedCountries {
		if !countryCode.MatchString(code) {
			return fmt.Errorf("sms.allowed_countries entries must be ISO 3166-1 alpha-2 codes, got %q", code)
		}
	}
	return c.Providers.validate()
}

func (p *ProvidersConfig) validate() error {
	required := func(provider, key, value string) error {
		if value == "" {
			return fmt.Errorf("providers.%s.%s is required when enabled", provider, key)
		}
		return nil
	}
	var errs []error
	if p.Twilio.Enabled {
		errs = append(errs,
			required("twilio", "account_sid", p.Twilio.AccountSID),
			required("twilio", "auth_token", p.Twilio.AuthToken),
			required("twilio", "from", p.Twilio.From))
	}
	if p.Plivo.Enabled {
		errs = append(errs,
			required("plivo", "auth_id", p.Plivo.AuthID),
			required("plivo", "auth_token", p.Plivo.AuthToken),
			required("plivo", "from", p.Plivo.From))
	}
	if p.Telnyx.Enabled {
		errs = append(errs,
			required("telnyx", "api_key", p.Telnyx.APIKey),
			required("telnyx", "from", p.Telnyx.From))
	}
	if p.MSG91.Enabled {
		errs = append(errs, required("msg91", "auth_key", p.MSG91.AuthKey))
	}
	if p.Vonage.Enabled {
		errs = append(errs,
			required("vonage", "api_key", p.Vonage.APIKey),
			required("vonage", "api_secret", p.Vonage.APISecret),
			required("vonage", "from", p.Vonage.From))
	}
	if p.Webhook.Enabled {
		errs = append(errs, required("webhook", "url", p.Webhook.URL))
		if p.Webhook.URL != "" && !strings.HasPrefix(p.Webhook.URL, "http://") && !strings.HasPrefix(p.Webhook.URL, "https://") {
			errs = append(errs, fmt.Errorf("providers.webhook.url must be an http(s) URL, got %q", p.Webhook.URL))
		}
	}
	if p.SNS.Enabled {
		errs = append(errs, required("sns", "region", p.SNS.Region))
	}
	// Report the first problem only, like the rest of Validate.
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	if len(p.Enabled()) == 0 {
		return fmt.Errorf("at least one provider must be enabled")
	}
	return nil
}

// Enabled returns the names of enabled providers in declaration order.
func (p *ProvidersConfig) Enabled() []string {
	var names []string
	for _, e := range []struct {
		name    string
		enabled bool
	}{
		{"twilio", p.Twilio.Enabled},
		{"plivo", p.Plivo.Enabled},
		{"telnyx", p.Telnyx.Enabled},
		{"msg91", p.MSG91.Enabled},
		{"vonage", p.Vonage.Enabled},
		{"webhook", p.Webhook.Enabled},
		{"sns", p.SNS.Enabled},
		{"log", p.Log.Enabled},
	} {
		if e.enabled {
			names = append(names, e.name)
		}
	}
	return names
}

// Address returns the host:port string for the server to listen on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GenerateDefault writes a commented default smspool.toml to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o644)
}

// ToTOML returns the config serialized as TOML.
func (c *Config) ToTOML() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// envInt reads an integer from the named environment variable.
// Returns an error if the value is set but not a valid integer.
func envInt(name string, dest *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q is not an integer", name, v)
	}
	*dest = n
	return nil
}

func envString(name string, dest *string) {
	if v := os.Getenv(name); v != "" {
		*dest = v
	}
}

func envBool(name string, dest *bool) {
	if v := os.Getenv(name); v != "" {
		*dest = v == "true" || v == "1"
	}
}

func applyEnv(cfg *Config) error {
	envString("SMSPOOL_SERVER_HOST", &cfg.Server.Host)
	if err := envInt("SMSPOOL_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if err := envInt("SMSPOOL_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout); err != nil {
		return err
	}
	envString("SMSPOOL_LOG_LEVEL", &cfg.Logging.Level)
	envString("SMSPOOL_LOG_FORMAT", &cfg.Logging.Format)

	if err := envInt("SMSPOOL_SMS_TIMEOUT", &cfg.SMS.Timeout); err != nil {
		return err
	}
	if err := envInt("SMSPOOL_SMS_CONCURRENCY", &cfg.SMS.Concurrency); err != nil {
		return err
	}
	if v := os.Getenv("SMSPOOL_SMS_ALLOWED_COUNTRIES"); v != "" {
		cfg.SMS.AllowedCountries = splitList(v)
	}
	envBool("SMSPOOL_SMS_NORMALIZE", &cfg.SMS.Normalize)

	p := &cfg.Providers
	envBool("SMSPOOL_TWILIO_ENABLED", &p.Twilio.Enabled)
	envString("SMSPOOL_TWILIO_ACCOUNT_SID", &p.Twilio.AccountSID)
	envString("SMSPOOL_TWILIO_AUTH_TOKEN", &p.Twilio.AuthToken)
	envString("SMSPOOL_TWILIO_FROM", &p.Twilio.From)

	envBool("SMSPOOL_PLIVO_ENABLED", &p.Plivo.Enabled)
	envString("SMSPOOL_PLIVO_AUTH_ID", &p.Plivo.AuthID)
	envString("SMSPOOL_PLIVO_AUTH_TOKEN", &p.Plivo.AuthToken)
	envString("SMSPOOL_PLIVO_FROM", &p.Plivo.From)

	envBool("SMSPOOL_TELNYX_ENABLED", &p.Telnyx.Enabled)
	envString("SMSPOOL_TELNYX_API_KEY", &p.Telnyx.APIKey)
	envString("SMSPOOL_TELNYX_FROM", &p.Telnyx.From)

	envBool("SMSPOOL_MSG91_ENABLED", &p.MSG91.Enabled)
	envString("SMSPOOL_MSG91_AUTH_KEY", &p.MSG91.AuthKey)
	envString("SMSPOOL_MSG91_TEMPLATE_ID", &p.MSG91.TemplateID)

	envBool("SMSPOOL_VONAGE_ENABLED", &p.Vonage.Enabled)
	envString("SMSPOOL_VONAGE_API_KEY", &p.Vonage.APIKey)
	envString("SMSPOOL_VONAGE_API_SECRET", &p.Vonage.APISecret)
	envString("SMSPOOL_VONAGE_FROM", &p.Vonage.From)

	envBool("SMSPOOL_WEBHOOK_ENABLED", &p.Webhook.Enabled)
	envString("SMSPOOL_WEBHOOK_URL", &p.Webhook.URL)
	envString("SMSPOOL_WEBHOOK_SECRET", &p.Webhook.Secret)

	envBool("SMSPOOL_SNS_ENABLED", &p.SNS.Enabled)
	envString("SMSPOOL_SNS_REGION", &p.SNS.Region)

	envBool("SMSPOOL_LOG_PROVIDER_ENABLED", &p.Log.Enabled)

	for _, name := range providerNames {
		if err := envInt("SMSPOOL_"+strings.ToUpper(name)+"_PRIORITY", p.priority(name)); err != nil {
			return err
		}
	}
	return nil
}

func applyFlags(cfg *Config, flags map[string]string) {
	if flags == nil {
		return
	}
	if v, ok := flags["port"]; ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v, ok := flags["host"]; ok && v != "" {
		cfg.Server.Host = v
	}
	if v, ok := flags["log-level"]; ok && v != "" {
		cfg.Logging.Level = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

var providerNames = []string{"twilio", "plivo", "telnyx", "msg91", "vonage", "webhook", "sns", "log"}

func (p *ProvidersConfig) priority(name string) *int {
	switch name {
	case "twilio":
		return &p.Twilio.Priority
	case "plivo":
		return &p.Plivo.Priority
	case "telnyx":
		return &p.Telnyx.Priority
	case "msg91":
		return &p.MSG91.Priority
	case "vonage":
		return &p.Vonage.Priority
	case "webhook":
		return &p.Webhook.Priority
	case "sns":
		return &p.SNS.Priority
	case "log":
		return &p.Log.Priority
	}
	return nil
}

// validKeys is the complete set of dot-separated config keys.
var validKeys = map[string]bool{
	"server.host": true, "server.port": true, "server.shutdown_timeout": true,
	"logging.level": true, "logging.format": true,
	"sms.timeout": true, "sms.concurrency": true, "sms.allowed_countries": true, "sms.normalize": true,
	"providers.twilio.enabled": true, "providers.twilio.priority": true,
	"providers.twilio.account_sid": true, "providers.twilio.auth_token": true, "providers.twilio.from": true,
	"providers.plivo.enabled": true, "providers.plivo.priority": true,
	"providers.plivo.auth_id": true, "providers.plivo.auth_token": true, "providers.plivo.from": true,
	"providers.telnyx.enabled": true, "providers.telnyx.priority": true,
	"providers.telnyx.api_key": true, "providers.telnyx.from": true,
	"providers.msg91.enabled": true, "providers.msg91.priority": true,
	"providers.msg91.auth_key": true, "providers.msg91.template_id": true,
	"providers.vonage.enabled": true, "providers.vonage.priority": true,
	"providers.vonage.api_key": true, "providers.vonage.api_secret": true, "providers.vonage.from": true,
	"providers.webhook.enabled": true, "providers.webhook.priority": true,
	"providers.webhook.url": true, "providers.webhook.secret": true,
	"providers.sns.enabled": true, "providers.sns.priority": true, "providers.sns.region": true,
	"providers.log.enabled": true, "providers.log.priority": true,
}

// IsValidKey returns true if the dotted key is a recognized config key.
func IsValidKey(key string) bool {
	return validKeys[key]
}

// GetValue returns the value for a dotted config key (e.g. "server.port").
func GetValue(cfg *Config, key string) (any, error) {
	p := &cfg.Providers
	switch key {
	case "server.host":
		return cfg.Server.Host, nil
	case "server.port":
		return cfg.Server.Port, nil
	case "server.shutdown_timeout":
		return cfg.Server.ShutdownTimeout, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	case "sms.timeout":
		return cfg.SMS.Timeout, nil
	case "sms.concurrency":
		return cfg.SMS.Concurrency, nil
	case "sms.allowed_countries":
		return strings.Join(cfg.SMS.AllowedCountries, ","), nil
	case "sms.normalize":
		return cfg.SMS.Normalize, nil
	case "providers.twilio.enabled":
		return p.Twilio.Enabled, nil
	case "providers.twilio.account_sid":
		return p.Twilio.AccountSID, nil
	case "providers.twilio.auth_token":
		return p.Twilio.AuthToken, nil
	case "providers.twilio.from":
		return p.Twilio.From, nil
	case "providers.plivo.enabled":
		return p.Plivo.Enabled, nil
	case "providers.plivo.auth_id":
		return p.Plivo.AuthID, nil
	case "providers.plivo.auth_token":
		return p.Plivo.AuthToken, nil
	case "providers.plivo.from":
		return p.Plivo.From, nil
	case "providers.telnyx.enabled":
		return p.Telnyx.Enabled, nil
	case "providers.telnyx.api_key":
		return p.Telnyx.APIKey, nil
	case "providers.telnyx.from":
		return p.Telnyx.From, nil
	case "providers.msg91.enabled":
		return p.MSG91.Enabled, nil
	case "providers.msg91.auth_key":
		return p.MSG91.AuthKey, nil
	case "providers.msg91.template_id":
		return p.MSG91.TemplateID, nil
	case "providers.vonage.enabled":
		return p.Vonage.Enabled, nil
	case "providers.vonage.api_key":
		return p.Vonage.APIKey, nil
	case "providers.vonage.api_secret":
		return p.Vonage.APISecret, nil
	case "providers.vonage.from":
		return p.Vonage.From, nil
	case "providers.webhook.enabled":
		return p.Webhook.Enabled, nil
	case "providers.webhook.url":
		return p.Webhook.URL, nil
	case "providers.webhook.secret":
		return p.Webhook.Secret, nil
	case "providers.sns.enabled":
		return p.SNS.Enabled, nil
	case "providers.sns.region":
		return p.SNS.Region, nil
	case "providers.log.enabled":
		return p.Log.Enabled, nil
	}
	if name, ok := strings.CutPrefix(key, "providers."); ok {
		if name, ok = strings.CutSuffix(name, ".priority"); ok {
			if prio := p.priority(name); prio != nil {
				return *prio, nil
			}
		}
	}
	return nil, fmt.Errorf("unknown configuration key: %s", key)
}

// SetValue reads the existing TOML file, updates a single key, and writes it back.
// Creates the file with just the key if it doesn't exist.
func SetValue(configPath, key, value string) error {
	var data map[string]any
	if raw, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}
	if data == nil {
		data = make(map[string]any)
	}

	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return fmt.Errorf("invalid key format: %s (expected section.field)", key)
	}

	// Walk or create the nested tables down to the field's parent.
	table := data
	for _, section := range parts[:len(parts)-1] {
		next, ok := table[section].(map[string]any)
		if !ok {
			next = make(map[string]any)
			table[section] = next
		}
		table = next
	}
	table[parts[len(parts)-1]] = coerceValue(key, value)

	out, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return os.WriteFile(configPath, out, 0o644)
}

// coerceValue converts a string value to the appropriate Go type for TOML serialization.
func coerceValue(key, value string) any {
	switch {
	case key == "sms.normalize", strings.HasSuffix(key, ".enabled"):
		return value == "true" || value == "1"
	case key == "sms.allowed_countries":
		return splitList(value)
	case key == "server.port", key == "server.shutdown_timeout",
		key == "sms.timeout", key == "sms.concurrency",
		strings.HasSuffix(key, ".priority"):
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return value
}

const defaultTOML = `# smspool configuration
# Values can be overridden by a .env file next to this one, SMSPOOL_* environment
# variables and command-line flags, in that order.

[server]
# Address the HTTP API listens on.
host = "0.0.0.0"
port = 8095

# Seconds to wait for in-flight requests during shutdown.
shutdown_timeout = 10

[logging]
# debug, info, warn or error.
level = "info"
# json or text.
format = "json"

[sms]
# Seconds before a single vendor request is abandoned.
timeout = 30

# Messages sent in parallel per batch. Fallback for one message is always sequential.
concurrency = 1

# Restrict recipients to these ISO country codes. Empty allows all.
# allowed_countries = ["US", "CA"]

# Rewrite recipients to E.164 before sending.
normalize = false

# Providers are tried in ascending priority order until one accepts a message.
# Equal priorities keep the order below.

[providers.twilio]
enabled = false
priority = 0
# account_sid = ""
# auth_token = ""
# from = "+15550000000"

[providers.plivo]
enabled = false
priority = 0
# auth_id = ""
# auth_token = ""
# from = "+15550000000"

[providers.telnyx]
enabled = false
priority = 0
# api_key = ""
# from = "+15550000000"

[providers.msg91]
enabled = false
priority = 0
# auth_key = ""
# template_id = ""

[providers.vonage]
enabled = false
priority = 0
# api_key = ""
# api_secret = ""
# from = "+15550000000"

[providers.webhook]
enabled = false
priority = 0
# url = "https://example.com/sms"
# secret = ""

[providers.sns]
# Credentials come from the standard AWS chain (env, shared config, instance role).
enabled = false
priority = 0
region = "us-east-1"

[providers.log]
# Logs messages instead of sending them. Useful for development.
enabled = true
priority = 100
`
