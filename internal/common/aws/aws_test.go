package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: awssdk.String("ses-1")}, nil
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("sns-1")}, nil
}

func TestSESClient_Send(t *testing.T) {
	api := &fakeSES{}
	c := NewSESClientWithAPI(api, "reports@example.com")

	id, err := c.Send(context.Background(), Email{
		To:      []string{"hr@example.com"},
		Subject: "Hires report",
		Text:    "2 hires",
	})
	require.NoError(t, err)
	assert.Equal(t, "ses-1", id)
	assert.Equal(t, "reports@example.com", awssdk.ToString(api.input.Source))
	assert.Equal(t, []string{"hr@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "Hires report", awssdk.ToString(api.input.Message.Subject.Data))
	assert.Nil(t, api.input.Message.Body.Html)
}

func TestSESClient_Errors(t *testing.T) {
	c := NewSESClientWithAPI(&fakeSES{}, "reports@example.com")
	_, err := c.Send(context.Background(), Email{Subject: "x"})
	assert.EqualError(t, err, "ses: no recipients")

	c = NewSESClientWithAPI(&fakeSES{err: errors.New("throttled")}, "reports@example.com")
	_, err = c.Send(context.Background(), Email{To: []string{"a@example.com"}})
	assert.EqualError(t, err, "throttled")
}

func TestSNSClient_Publish(t *testing.T) {
	api := &fakeSNS{}
	c := NewSNSClientWithAPI(api, "arn:aws:sns:eu-west-1:123:reports")

	id, err := c.Publish(context.Background(), "Report ready", `{"requestId":"r1"}`, map[string]string{"state": "valid"})
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "arn:aws:sns:eu-west-1:123:reports", awssdk.ToString(api.input.TopicArn))
	assert.Equal(t, "valid", awssdk.ToString(api.input.MessageAttributes["state"].StringValue))

	_, err = NewSNSClientWithAPI(api, "").Publish(context.Background(), "", "m", nil)
	assert.Error(t, err)
}
