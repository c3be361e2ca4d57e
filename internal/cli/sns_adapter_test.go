package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/allyourbase/smspool/internal/sms"
	"github.com/allyourbase/smspool/internal/testutil"
)

type fakeSNSClient struct {
	in  *sns.PublishInput
	out *sns.PublishOutput
	err error
}

func (f *fakeSNSClient) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestSNSPublisherAdapterPublish(t *testing.T) {
	client := &fakeSNSClient{out: &sns.PublishOutput{MessageId: aws.String("msg-123")}}
	adapter := &snsPublisherAdapter{client: client}

	id, err := adapter.Publish(t.Context(), "+14155552671", "hello")
	testutil.NoError(t, err)
	testutil.Equal(t, "msg-123", id)
	testutil.Equal(t, "+14155552671", aws.ToString(client.in.PhoneNumber))
	testutil.Equal(t, "hello", aws.ToString(client.in.Message))
	testutil.Equal(t, "Transactional", aws.ToString(client.in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
}

func TestSNSPublisherAdapterNilMessageID(t *testing.T) {
	adapter := &snsPublisherAdapter{client: &fakeSNSClient{out: &sns.PublishOutput{}}}

	id, err := adapter.Publish(t.Context(), "+14155552671", "hello")
	testutil.NoError(t, err)
	testutil.Equal(t, "", id)
}

func TestSNSPublisherAdapterThroughProvider(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("throttled")}
	provider, err := sms.NewSNSProvider(&snsPublisherAdapter{client: client}, 1)
	testutil.NoError(t, err)

	msg := sms.NewMessage()
	testutil.NoError(t, msg.SetRecipients("+14155552671"))
	msg.SetBody("hello")

	ok, err := provider.Send(t.Context(), msg)
	testutil.NoError(t, err)
	testutil.False(t, ok)
	testutil.Equal(t, sms.StatusFailed, msg.Status())
	testutil.ErrorContains(t, msg.Error(), "throttled")
}
