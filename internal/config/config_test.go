package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/allyourbase/smspool/internal/testutil"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	testutil.Equal(t, "0.0.0.0", cfg.Server.Host)
	testutil.Equal(t, 8095, cfg.Server.Port)
	testutil.Equal(t, 10, cfg.Server.ShutdownTimeout)

	testutil.Equal(t, "info", cfg.Logging.Level)
	testutil.Equal(t, "json", cfg.Logging.Format)

	testutil.Equal(t, 30, cfg.SMS.Timeout)
	testutil.Equal(t, 1, cfg.SMS.Concurrency)
	testutil.SliceLen(t, cfg.SMS.AllowedCountries, 0)
	testutil.False(t, cfg.SMS.Normalize)

	testutil.True(t, cfg.Providers.Log.Enabled)
	testutil.Equal(t, 100, cfg.Providers.Log.Priority)
	testutil.False(t, cfg.Providers.Twilio.Enabled)
	testutil.Equal(t, "us-east-1", cfg.Providers.SNS.Region)
}

func TestAddress(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Host: "127.0.0.1", Port: 3000}}
	testutil.Equal(t, "127.0.0.1:3000", cfg.Address())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			modify: func(c *Config) {},
		},
		{
			name:    "port zero",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port must be between 1 and 65535",
		},
		{
			name:    "port too high",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port must be between 1 and 65535",
		},
		{
			name:    "negative shutdown timeout",
			modify:  func(c *Config) { c.Server.ShutdownTimeout = -1 },
			wantErr: "server.shutdown_timeout must be non-negative",
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level must be one of",
		},
		{
			name:    "bad log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format must be",
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.SMS.Timeout = 0 },
			wantErr: "sms.timeout must be at least 1",
		},
		{
			name:    "zero concurrency",
			modify:  func(c *Config) { c.SMS.Concurrency = 0 },
			wantErr: "sms.concurrency must be at least 1",
		},
		{
			name:    "lowercase country",
			modify:  func(c *Config) { c.SMS.AllowedCountries = []string{"us"} },
			wantErr: "sms.allowed_countries entries must be ISO 3166-1 alpha-2 codes",
		},
		{
			name:   "valid countries",
			modify: func(c *Config) { c.SMS.AllowedCountries = []string{"US", "GB"} },
		},
		{
			name: "twilio missing token",
			modify: func(c *Config) {
				c.Providers.Twilio = TwilioConfig{Enabled: true, AccountSID: "AC1", From: "+15550000000"}
			},
			wantErr: "providers.twilio.auth_token is required when enabled",
		},
		{
			name: "twilio complete",
			modify: func(c *Config) {
				c.Providers.Twilio = TwilioConfig{Enabled: true, AccountSID: "AC1", AuthToken: "t", From: "+15550000000"}
			},
		},
		{
			name:    "plivo missing auth id",
			modify:  func(c *Config) { c.Providers.Plivo = PlivoConfig{Enabled: true} },
			wantErr: "providers.plivo.auth_id is required when enabled",
		},
		{
			name:    "telnyx missing from",
			modify:  func(c *Config) { c.Providers.Telnyx = TelnyxConfig{Enabled: true, APIKey: "k"} },
			wantErr: "providers.telnyx.from is required when enabled",
		},
		{
			name:    "msg91 missing auth key",
			modify:  func(c *Config) { c.Providers.MSG91 = MSG91Config{Enabled: true} },
			wantErr: "providers.msg91.auth_key is required when enabled",
		},
		{
			name:    "vonage missing secret",
			modify:  func(c *Config) { c.Providers.Vonage = VonageConfig{Enabled: true, APIKey: "k", From: "ACME"} },
			wantErr: "providers.vonage.api_secret is required when enabled",
		},
		{
			name:    "webhook missing url",
			modify:  func(c *Config) { c.Providers.Webhook = WebhookConfig{Enabled: true} },
			wantErr: "providers.webhook.url is required when enabled",
		},
		{
			name:    "webhook non-http url",
			modify:  func(c *Config) { c.Providers.Webhook = WebhookConfig{Enabled: true, URL: "ftp://x"} },
			wantErr: "providers.webhook.url must be an http(s) URL",
		},
		{
			name:    "sns missing region",
			modify:  func(c *Config) { c.Providers.SNS = SNSConfig{Enabled: true} },
			wantErr: "providers.sns.region is required when enabled",
		},
		{
			name:   "disabled provider is not checked",
			modify: func(c *Config) { c.Providers.Twilio = TwilioConfig{AccountSID: "AC1"} },
		},
		{
			name:    "no providers",
			modify:  func(c *Config) { c.Providers.Log.Enabled = false },
			wantErr: "at least one provider must be enabled",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				testutil.NoError(t, err)
			} else {
				testutil.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestEnabledProviders(t *testing.T) {
	cfg := Default()
	cfg.Providers.Vonage.Enabled = true
	cfg.Providers.Twilio.Enabled = true
	got := cfg.Providers.Enabled()
	testutil.SliceLen(t, got, 3)
	testutil.Equal(t, "twilio", got[0])
	testutil.Equal(t, "vonage", got[1])
	testutil.Equal(t, "log", got[2])
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")

	content := `
[server]
host = "127.0.0.1"
port = 3000

[logging]
level = "debug"
format = "text"

[sms]
concurrency = 4
allowed_countries = ["US", "CA"]
normalize = true

[providers.twilio]
enabled = true
priority = 1
account_sid = "AC123"
auth_token = "secret"
from = "+15550000000"
`
	err := os.WriteFile(tomlPath, []byte(content), 0o644)
	testutil.NoError(t, err)

	cfg, err := Load(tomlPath, nil)
	testutil.NoError(t, err)

	testutil.Equal(t, "127.0.0.1", cfg.Server.Host)
	testutil.Equal(t, 3000, cfg.Server.Port)
	testutil.Equal(t, "debug", cfg.Logging.Level)
	testutil.Equal(t, "text", cfg.Logging.Format)
	testutil.Equal(t, 4, cfg.SMS.Concurrency)
	testutil.SliceLen(t, cfg.SMS.AllowedCountries, 2)
	testutil.True(t, cfg.SMS.Normalize)
	testutil.True(t, cfg.Providers.Twilio.Enabled)
	testutil.Equal(t, 1, cfg.Providers.Twilio.Priority)
	testutil.Equal(t, "AC123", cfg.Providers.Twilio.AccountSID)

	// Defaults preserved for unset fields.
	testutil.Equal(t, 30, cfg.SMS.Timeout)
	testutil.True(t, cfg.Providers.Log.Enabled)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/smspool.toml", nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 8095, cfg.Server.Port)
	testutil.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")
	err := os.WriteFile(tomlPath, []byte("this is not valid toml [[["), 0o644)
	testutil.NoError(t, err)

	_, err = Load(tomlPath, nil)
	testutil.ErrorContains(t, err, "parsing")
}

func TestLoadValidationError(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")
	err := os.WriteFile(tomlPath, []byte("[providers.webhook]\nenabled = true\n"), 0o644)
	testutil.NoError(t, err)

	_, err = Load(tomlPath, nil)
	testutil.ErrorContains(t, err, "config validation: providers.webhook.url")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SMSPOOL_SERVER_HOST", "envhost")
	t.Setenv("SMSPOOL_SERVER_PORT", "9999")
	t.Setenv("SMSPOOL_LOG_LEVEL", "warn")
	t.Setenv("SMSPOOL_SMS_ALLOWED_COUNTRIES", "US, GB")
	t.Setenv("SMSPOOL_SMS_NORMALIZE", "1")
	t.Setenv("SMSPOOL_TELNYX_ENABLED", "true")
	t.Setenv("SMSPOOL_TELNYX_API_KEY", "KEY")
	t.Setenv("SMSPOOL_TELNYX_FROM", "+15550000000")
	t.Setenv("SMSPOOL_TELNYX_PRIORITY", "3")

	cfg, err := Load("/nonexistent/smspool.toml", nil)
	testutil.NoError(t, err)

	testutil.Equal(t, "envhost", cfg.Server.Host)
	testutil.Equal(t, 9999, cfg.Server.Port)
	testutil.Equal(t, "warn", cfg.Logging.Level)
	testutil.SliceLen(t, cfg.SMS.AllowedCountries, 2)
	testutil.Equal(t, "GB", cfg.SMS.AllowedCountries[1])
	testutil.True(t, cfg.SMS.Normalize)
	testutil.True(t, cfg.Providers.Telnyx.Enabled)
	testutil.Equal(t, "KEY", cfg.Providers.Telnyx.APIKey)
	testutil.Equal(t, 3, cfg.Providers.Telnyx.Priority)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")
	testutil.NoError(t, os.WriteFile(tomlPath, []byte("[server]\nhost = \"filehost\"\n"), 0o644))
	testutil.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("SMSPOOL_SERVER_HOST=dotenvhost\nSMSPOOL_SERVER_PORT=4100\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SMSPOOL_SERVER_HOST")
		os.Unsetenv("SMSPOOL_SERVER_PORT")
	})

	cfg, err := Load(tomlPath, nil)
	testutil.NoError(t, err)
	testutil.Equal(t, "dotenvhost", cfg.Server.Host)
	testutil.Equal(t, 4100, cfg.Server.Port)
}

func TestLoadEnvWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")
	testutil.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SMSPOOL_SERVER_PORT=4100\n"), 0o644))
	t.Setenv("SMSPOOL_SERVER_PORT", "4200")

	cfg, err := Load(tomlPath, nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 4200, cfg.Server.Port)
}

func TestLoadFlagOverrides(t *testing.T) {
	flags := map[string]string{
		"port":      "7777",
		"host":      "flaghost",
		"log-level": "debug",
	}

	cfg, err := Load("/nonexistent/smspool.toml", flags)
	testutil.NoError(t, err)

	testutil.Equal(t, 7777, cfg.Server.Port)
	testutil.Equal(t, "flaghost", cfg.Server.Host)
	testutil.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadPriority(t *testing.T) {
	// File sets port=3000, env sets port=4000, flag sets port=5000.
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")
	err := os.WriteFile(tomlPath, []byte("[server]\nport = 3000\n"), 0o644)
	testutil.NoError(t, err)

	t.Setenv("SMSPOOL_SERVER_PORT", "4000")
	flags := map[string]string{"port": "5000"}

	cfg, err := Load(tomlPath, flags)
	testutil.NoError(t, err)
	testutil.Equal(t, 5000, cfg.Server.Port)

	// Without flag, env wins over file.
	cfg, err = Load(tomlPath, nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 4000, cfg.Server.Port)
}

func TestGenerateDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "subdir", "smspool.toml")

	err := GenerateDefault(path)
	testutil.NoError(t, err)

	data, err := os.ReadFile(path)
	testutil.NoError(t, err)
	content := string(data)

	testutil.Contains(t, content, "[server]")
	testutil.Contains(t, content, "[sms]")
	testutil.Contains(t, content, "[providers.twilio]")
	testutil.Contains(t, content, "[providers.log]")
	testutil.Contains(t, content, "port = 8095")

	// The generated file loads cleanly and matches Default.
	cfg, err := Load(path, nil)
	testutil.NoError(t, err)
	testutil.Equal(t, Default().Server.Port, cfg.Server.Port)
	testutil.Equal(t, Default().Providers.Log.Priority, cfg.Providers.Log.Priority)
}

func TestToTOML(t *testing.T) {
	cfg := Default()
	s, err := cfg.ToTOML()
	testutil.NoError(t, err)
	testutil.Contains(t, s, "host = '0.0.0.0'")
	testutil.Contains(t, s, "port = 8095")
	testutil.Contains(t, s, "[providers.log]")
}

func TestApplyFlagsNilSafe(t *testing.T) {
	cfg := Default()
	applyFlags(cfg, nil)
	testutil.Equal(t, 8095, cfg.Server.Port)
}

func TestApplyFlagsEmptyValues(t *testing.T) {
	cfg := Default()
	applyFlags(cfg, map[string]string{"port": "", "host": ""})
	testutil.Equal(t, "0.0.0.0", cfg.Server.Host)
	testutil.Equal(t, 8095, cfg.Server.Port)
}

func TestApplyEnvInvalidPort(t *testing.T) {
	t.Setenv("SMSPOOL_SERVER_PORT", "notanumber")
	cfg := Default()
	err := applyEnv(cfg)
	testutil.ErrorContains(t, err, "not an integer")
	testutil.Equal(t, 8095, cfg.Server.Port) // unchanged on error
}

func TestApplyEnvInvalidPriority(t *testing.T) {
	t.Setenv("SMSPOOL_VONAGE_PRIORITY", "first")
	err := applyEnv(Default())
	testutil.ErrorContains(t, err, "SMSPOOL_VONAGE_PRIORITY")
}

// --- GetValue / SetValue / IsValidKey tests ---

func TestIsValidKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"server.port", true},
		{"logging.level", true},
		{"sms.allowed_countries", true},
		{"providers.twilio.account_sid", true},
		{"providers.log.priority", true},
		{"providers.log.from", false},
		{"providers.carrierpigeon.enabled", false},
		{"server.nonexistent", false},
		{"", false},
		{"server", false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			testutil.Equal(t, tt.want, IsValidKey(tt.key))
		})
	}
}

func TestGetValue(t *testing.T) {
	cfg := Default()
	cfg.SMS.AllowedCountries = []string{"US", "CA"}

	tests := []struct {
		key     string
		want    any
		wantErr bool
	}{
		{"server.host", "0.0.0.0", false},
		{"server.port", 8095, false},
		{"sms.timeout", 30, false},
		{"sms.allowed_countries", "US,CA", false},
		{"sms.normalize", false, false},
		{"providers.log.enabled", true, false},
		{"providers.log.priority", 100, false},
		{"providers.sns.region", "us-east-1", false},
		{"providers.twilio.priority", 0, false},
		{"providers.nope.priority", nil, true},
		{"unknown.key", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			val, err := GetValue(cfg, tt.key)
			if tt.wantErr {
				testutil.NotNil(t, err)
			} else {
				testutil.NoError(t, err)
				testutil.Equal(t, tt.want, val)
			}
		})
	}
}

func TestGetValueCoversValidKeys(t *testing.T) {
	cfg := Default()
	for key := range validKeys {
		_, err := GetValue(cfg, key)
		testutil.NoError(t, err)
	}
}

func TestSetValue(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")

	err := SetValue(tomlPath, "server.port", "3000")
	testutil.NoError(t, err)

	data, err := os.ReadFile(tomlPath)
	testutil.NoError(t, err)
	testutil.Contains(t, string(data), "port = 3000")

	err = SetValue(tomlPath, "server.host", "127.0.0.1")
	testutil.NoError(t, err)

	cfg, err := Load(tomlPath, nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 3000, cfg.Server.Port)
	testutil.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestSetValueNestedProvider(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")

	testutil.NoError(t, SetValue(tomlPath, "providers.webhook.url", "https://example.com/sms"))
	testutil.NoError(t, SetValue(tomlPath, "providers.webhook.enabled", "true"))
	testutil.NoError(t, SetValue(tomlPath, "providers.webhook.priority", "2"))

	cfg, err := Load(tomlPath, nil)
	testutil.NoError(t, err)
	testutil.True(t, cfg.Providers.Webhook.Enabled)
	testutil.Equal(t, 2, cfg.Providers.Webhook.Priority)
	testutil.Equal(t, "https://example.com/sms", cfg.Providers.Webhook.URL)
}

func TestSetValueInvalidKey(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")

	err := SetValue(tomlPath, "invalid", "value")
	testutil.ErrorContains(t, err, "invalid key format")
}

func TestSetValuePreservesExisting(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "smspool.toml")

	err := os.WriteFile(tomlPath, []byte("[server]\nhost = '0.0.0.0'\nport = 8090\n"), 0o644)
	testutil.NoError(t, err)

	err = SetValue(tomlPath, "server.port", "3000")
	testutil.NoError(t, err)

	cfg, err := Load(tomlPath, nil)
	testutil.NoError(t, err)
	testutil.Equal(t, 3000, cfg.Server.Port)
	testutil.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestCoerceValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  any
	}{
		{"server.port", "3000", 3000},
		{"sms.concurrency", "8", 8},
		{"providers.plivo.priority", "2", 2},
		{"providers.plivo.enabled", "true", true},
		{"providers.plivo.enabled", "0", false},
		{"sms.normalize", "1", true},
		{"server.host", "myhost", "myhost"},
		{"server.port", "notanumber", "notanumber"}, // falls through to string
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			got := coerceValue(tt.key, tt.value)
			testutil.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceValueList(t *testing.T) {
	got, ok := coerceValue("sms.allowed_countries", "US, CA").([]string)
	testutil.True(t, ok)
	testutil.SliceLen(t, got, 2)
	testutil.Equal(t, "CA", got[1])
}
