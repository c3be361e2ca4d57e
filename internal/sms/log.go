package sms

import (
	"context"
	"log/slog"
)

// LogProvider logs SMS sends instead of delivering them. Useful for development.
type LogProvider struct {
	basePriority
	logger *slog.Logger
}

// NewLogProvider creates a LogProvider. If logger is nil, slog.Default() is used.
func NewLogProvider(logger *slog.Logger, priority int) *LogProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProvider{basePriority: basePriority{priority: priority}, logger: logger}
}

func (p *LogProvider) Name() string { return "log" }

func (p *LogProvider) Send(_ context.Context, msg *Message) (bool, error) {
	p.logger.Info("sms.LogProvider",
		"to", msg.Recipients(),
		"from", msg.From(),
		"body", msg.Body(),
		"template_id", msg.TemplateID(),
		"data", msg.Data(),
	)
	msg.SetResponse(&SendResult{Status: "logged"})
	msg.status = StatusSent
	return true, nil
}
