package sms_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allyourbase/smspool/internal/sms"
)

// mockSNSPublisher implements sms.SNSPublisher for testing.
type mockSNSPublisher struct {
	publishFunc func(ctx context.Context, phoneNumber, message string) (string, error)
}

func (m *mockSNSPublisher) Publish(ctx context.Context, phoneNumber, message string) (string, error) {
	return m.publishFunc(ctx, phoneNumber, message)
}

func TestSNSSendSuccess(t *testing.T) {
	mock := &mockSNSPublisher{
		publishFunc: func(ctx context.Context, phoneNumber, message string) (string, error) {
			assert.Equal(t, "+15551234567", phoneNumber)
			assert.Equal(t, "Your code is 123456", message)
			return "sns-msg-id-abc", nil
		},
	}

	p, err := sms.NewSNSProvider(mock, 0)
	require.NoError(t, err)
	msg := newMessage(t, "+15551234567", "Your code is 123456")
	ok, err := p.Send(t.Context(), msg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "sns-msg-id-abc", msg.ID())
	assert.Equal(t, sms.StatusSent, msg.Status())
}

func TestSNSSendPublishesPerRecipient(t *testing.T) {
	var published []string
	mock := &mockSNSPublisher{
		publishFunc: func(ctx context.Context, phoneNumber, message string) (string, error) {
			published = append(published, phoneNumber)
			return "id-" + phoneNumber, nil
		},
	}

	p, err := sms.NewSNSProvider(mock, 0)
	require.NoError(t, err)
	msg := newMessage(t, "+15551234567,+15557654321", "hi")
	_, err = p.Send(t.Context(), msg)
	require.NoError(t, err)
	assert.Equal(t, []string{"+15551234567", "+15557654321"}, published)
	assert.Equal(t, "id-+15551234567,id-+15557654321", msg.ID())
}

func TestSNSSendError(t *testing.T) {
	mock := &mockSNSPublisher{
		publishFunc: func(ctx context.Context, phoneNumber, message string) (string, error) {
			return "", fmt.Errorf("AccessDeniedException: not authorized")
		},
	}

	p, err := sms.NewSNSProvider(mock, 0)
	require.NoError(t, err)
	msg := newMessage(t, "+15551234567", "hello")
	ok, err := p.Send(t.Context(), msg)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, sms.StatusFailed, msg.Status())
	require.NotNil(t, msg.Error())
	assert.Contains(t, msg.Error().Error(), "sns: publish:")
	assert.Contains(t, msg.Error().Error(), "AccessDeniedException")
}

func TestSNSRequiresBody(t *testing.T) {
	p, err := sms.NewSNSProvider(&mockSNSPublisher{}, 0)
	require.NoError(t, err)
	_, err = p.Send(t.Context(), newMessage(t, "+15551234567", ""))
	require.ErrorIs(t, err, sms.ErrInvalidArgument)
}

func TestSNSRequiresPublisher(t *testing.T) {
	_, err := sms.NewSNSProvider(nil, 0)
	require.ErrorIs(t, err, sms.ErrConfig)
}

func TestSNSImplementsInterface(t *testing.T) {
	var _ sms.Provider = (*sms.SNSProvider)(nil)
}
