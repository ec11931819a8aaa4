package aws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

type fakeSES struct {
	input *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	return &ses.SendEmailOutput{MessageId: awssdk.String("mail-1")}, nil
}

func TestSNSClient_PublishEvent(t *testing.T) {
	api := &fakeSNS{}
	client := NewSNSClientWithAPI(api, "arn:aws:sns:us-east-1:123:tasks")

	id, err := client.PublishEvent(context.Background(), "task.created", map[string]string{"taskId": "t-1"})
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	assert.Equal(t, "arn:aws:sns:us-east-1:123:tasks", awssdk.ToString(api.input.TopicArn))
	assert.Equal(t, "task.created", awssdk.ToString(api.input.MessageAttributes["eventType"].StringValue))

	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(awssdk.ToString(api.input.Message)), &body))
	assert.Equal(t, "t-1", body["taskId"])
}

func TestSNSClient_PublishError(t *testing.T) {
	client := NewSNSClientWithAPI(&fakeSNS{err: errors.New("throttled")}, "arn")
	_, err := client.PublishEvent(context.Background(), "task.created", struct{}{})
	assert.EqualError(t, err, "throttled")
}

func TestSESClient_SendText(t *testing.T) {
	api := &fakeSES{}
	client := NewSESClientWithAPI(api, "noreply@cobuilder.example.com")

	require.NoError(t, client.SendText(context.Background(), []string{"ops@example.com"}, "subject", "body"))
	assert.Equal(t, "noreply@cobuilder.example.com", awssdk.ToString(api.input.Source))
	assert.Equal(t, []string{"ops@example.com"}, api.input.Destination.ToAddresses)
	assert.Equal(t, "body", awssdk.ToString(api.input.Message.Body.Text.Data))

	assert.Error(t, client.SendText(context.Background(), nil, "s", "b"))
}
