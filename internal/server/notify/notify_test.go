package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/dmitrijs2005/discbaboons/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	msgs []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestMailer_SendPasswordReset(t *testing.T) {
	s := &captureSender{}
	m := NewMailer(s)

	require.NoError(t, m.SendPasswordReset(context.Background(), "b@example.com", "baboon", "AB12CD", 30*time.Minute))
	require.Len(t, s.msgs, 1)

	msg := s.msgs[0]
	assert.Equal(t, "b@example.com", msg.To)
	assert.Equal(t, "Password Reset Request - Don't be a baboon!", msg.Subject)
	assert.Contains(t, msg.HTML, "<strong>AB12CD</strong>")
	assert.Contains(t, msg.Text, "AB12CD")
	assert.Contains(t, msg.Text, "30 minutes")
}

func TestMailer_SendUsernameReminder_EscapesHTML(t *testing.T) {
	s := &captureSender{}
	m := NewMailer(s)

	require.NoError(t, m.SendUsernameReminder(context.Background(), "b@example.com", "<b>x</b>"))
	require.Len(t, s.msgs, 1)
	assert.NotContains(t, s.msgs[0].HTML, "<b>x</b>")
	assert.Contains(t, s.msgs[0].Text, "<b>x</b>")
}

func TestMailer_PropagatesSenderError(t *testing.T) {
	m := NewMailer(&captureSender{err: errors.New("smtp down")})
	err := m.SendUsernameReminder(context.Background(), "a@b.c", "u")
	assert.EqualError(t, err, "smtp down")
}

type fakeSES struct {
	in  *sesv2.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.in = in
	return &sesv2.SendEmailOutput{}, f.err
}

func TestSESSender_BuildsRequest(t *testing.T) {
	api := &fakeSES{}
	s := &SESSender{api: api, from: "no-reply@discbaboons.com"}

	require.NoError(t, s.Send(context.Background(), Message{To: "x@y.z", Subject: "S", HTML: "<p>h</p>", Text: "t"}))

	require.NotNil(t, api.in)
	assert.Equal(t, "no-reply@discbaboons.com", aws.ToString(api.in.FromEmailAddress))
	assert.Equal(t, []string{"x@y.z"}, api.in.Destination.ToAddresses)
	assert.Equal(t, "S", aws.ToString(api.in.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>h</p>", aws.ToString(api.in.Content.Simple.Body.Html.Data))
	assert.Equal(t, "t", aws.ToString(api.in.Content.Simple.Body.Text.Data))
}

func TestSESSender_WrapsError(t *testing.T) {
	s := &SESSender{api: &fakeSES{err: errors.New("throttled")}, from: "a@b.c"}
	err := s.Send(context.Background(), Message{To: "x@y.z"})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "ses send:"))
}

func TestNewSESSender_StaticCredentials(t *testing.T) {
	s, err := NewSESSender(context.Background(), SESOptions{
		Region:          "eu-west-1",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		From:            "no-reply@discbaboons.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "no-reply@discbaboons.com", s.from)
}

func TestLogSender_WritesMessage(t *testing.T) {
	var buf strings.Builder
	s := NewLogSender(logging.NewTextSlogLogger(&buf, "info"))

	require.NoError(t, s.Send(context.Background(), Message{To: "x@y.z", Subject: "S", Text: "code ABC123"}))
	assert.Contains(t, buf.String(), "to=x@y.z")
	assert.Contains(t, buf.String(), "ABC123")
}
