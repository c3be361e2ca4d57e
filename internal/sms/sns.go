package sms

import (
	"context"
	"fmt"
	"strings"
)

// SNSPublisher abstracts the AWS SNS Publish call for testability.
type SNSPublisher interface {
	Publish(ctx context.Context, phoneNumber, message string) (messageID string, err error)
}

// SNSProvider sends SMS via AWS SNS, one publish per recipient. It talks to
// the AWS SDK rather than raw HTTP, so it implements Provider directly.
type SNSProvider struct {
	basePriority
	publisher SNSPublisher
}

// NewSNSProvider creates an SNSProvider with the given publisher.
func NewSNSProvider(publisher SNSPublisher, priority int) (*SNSProvider, error) {
	if publisher == nil {
		return nil, &configError{msg: "sns: " + ErrConfig.Error() + ", missing: publisher"}
	}
	return &SNSProvider{basePriority: basePriority{priority: priority}, publisher: publisher}, nil
}

func (p *SNSProvider) Name() string { return "sns" }

func (p *SNSProvider) Send(ctx context.Context, msg *Message) (bool, error) {
	if len(msg.Recipients()) == 0 || msg.Body() == "" {
		return false, fmt.Errorf("%w: sns: message missing required fields: recipients, body", ErrInvalidArgument)
	}

	ids := make([]string, 0, len(msg.Recipients()))
	for _, to := range msg.Recipients() {
		id, err := p.publisher.Publish(ctx, to, msg.Body())
		if err != nil {
			perr := &ProviderError{Provider: p.Name(), Message: "publish", ResponseBody: ids, Err: err}
			msg.SetResponse(perr.ResponseBody)
			msg.SetError(perr)
			msg.status = StatusFailed
			return false, nil
		}
		ids = append(ids, id)
	}

	msg.SetID(strings.Join(ids, ","))
	msg.SetResponse(&SendResult{MessageID: msg.ID(), Status: "sent"})
	msg.status = StatusSent
	return true, nil
}
