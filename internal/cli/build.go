package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/allyourbase/smspool/internal/config"
	"github.com/allyourbase/smspool/internal/sms"
)

// ErrNoProviders is returned when no enabled provider could be built.
var ErrNoProviders = errors.New("no SMS providers available")

// loadConfig resolves the config for cmd: --config selects the file and the
// --host, --port and --log-level flags override it when given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	flags := map[string]string{}
	for _, name := range []string{"host", "port", "log-level"} {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[name] = f.Value.String()
		}
	}

	cfg, err := config.Load(configPath, flags)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger writing to w in the configured format.
// The returned LevelVar lets a running server change level.
func newLogger(level, format string, w io.Writer) (*slog.Logger, *slog.LevelVar) {
	var lvlVar slog.LevelVar
	lvlVar.Set(parseSlogLevel(level))
	opts := &slog.HandlerOptions{Level: &lvlVar}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts)), &lvlVar
	}
	return slog.New(slog.NewJSONHandler(w, opts)), &lvlVar
}

func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildProviders constructs every enabled provider. A provider whose
// credentials are incomplete is a config error; an SNS client that cannot be
// created is logged and skipped so the remaining providers still serve.
func buildProviders(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]sms.Provider, error) {
	client := &http.Client{Timeout: time.Duration(cfg.SMS.Timeout) * time.Second}
	opts := []sms.Option{sms.WithHTTPClient(client), sms.WithLogger(logger)}

	var providers []sms.Provider
	for _, name := range cfg.Providers.Enabled() {
		p, err := buildSMSProvider(ctx, name, cfg, logger, opts)
		if err != nil {
			if name == "sns" {
				logger.Error("failed to create AWS SNS client, skipping provider", "error", err)
				continue
			}
			return nil, fmt.Errorf("providers.%s: %w", name, err)
		}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	return providers, nil
}

func buildSMSProvider(ctx context.Context, name string, cfg *config.Config, logger *slog.Logger, opts []sms.Option) (sms.Provider, error) {
	pc := &cfg.Providers
	switch name {
	case "twilio":
		return sms.NewTwilioProvider(sms.TwilioConfig{
			AccountSID: pc.Twilio.AccountSID,
			AuthToken:  pc.Twilio.AuthToken,
			From:       pc.Twilio.From,
			Priority:   pc.Twilio.Priority,
		}, opts...)
	case "plivo":
		return sms.NewPlivoProvider(sms.PlivoConfig{
			AuthID:    pc.Plivo.AuthID,
			AuthToken: pc.Plivo.AuthToken,
			From:      pc.Plivo.From,
			Priority:  pc.Plivo.Priority,
		}, opts...)
	case "telnyx":
		return sms.NewTelnyxProvider(sms.TelnyxConfig{
			APIKey:   pc.Telnyx.APIKey,
			From:     pc.Telnyx.From,
			Priority: pc.Telnyx.Priority,
		}, opts...)
	case "msg91":
		return sms.NewMSG91Provider(sms.MSG91Config{
			AuthKey:    pc.MSG91.AuthKey,
			TemplateID: pc.MSG91.TemplateID,
			Priority:   pc.MSG91.Priority,
		}, opts...)
	case "vonage":
		return sms.NewVonageProvider(sms.VonageConfig{
			APIKey:    pc.Vonage.APIKey,
			APISecret: pc.Vonage.APISecret,
			From:      pc.Vonage.From,
			Priority:  pc.Vonage.Priority,
		}, opts...)
	case "webhook":
		return sms.NewWebhookProvider(sms.WebhookConfig{
			URL:      pc.Webhook.URL,
			Secret:   pc.Webhook.Secret,
			Priority: pc.Webhook.Priority,
		}, opts...)
	case "sns":
		publisher, err := newSNSPublisher(ctx, pc.SNS.Region)
		if err != nil {
			return nil, err
		}
		return sms.NewSNSProvider(publisher, pc.SNS.Priority)
	case "log":
		return sms.NewLogProvider(logger, pc.Log.Priority), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

// newPool returns a pool over providers using the configured concurrency.
func newPool(cfg *config.Config, logger *slog.Logger, providers []sms.Provider) *sms.Pool {
	return sms.NewPool(
		sms.WithPoolLogger(logger),
		sms.WithConcurrency(cfg.SMS.Concurrency),
		sms.WithProviders(providers...),
	)
}

func recipientPolicy(cfg *config.Config) sms.RecipientPolicy {
	return sms.RecipientPolicy{Normalize: cfg.SMS.Normalize, AllowedCountries: cfg.SMS.AllowedCountries}
}
