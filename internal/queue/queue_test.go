package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

type recordingPublisher struct {
	queues   []string
	messages []any
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, queue string, v any) error {
	if p.err != nil {
		return p.err
	}
	p.queues = append(p.queues, queue)
	p.messages = append(p.messages, v)
	return nil
}

func TestMailerSend(t *testing.T) {
	p := &recordingPublisher{}
	m := NewMailer(p, "email_queue")

	data := domain.OTPMailData{FullName: "张伟", OTP: "123456", Expiration: 15}
	require.NoError(t, m.Send(context.Background(), domain.MailTypeResetPassword, "zw@example.com", data))

	require.Len(t, p.messages, 1)
	assert.Equal(t, "email_queue", p.queues[0])
	assert.Equal(t, domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   "zw@example.com",
		Data: data,
	}, p.messages[0])
}

func TestMailerRejectsUnknownType(t *testing.T) {
	p := &recordingPublisher{}
	m := NewMailer(p, "email_queue")

	err := m.Send(context.Background(), "schedule_ready", "zw@example.com", nil)
	assert.ErrorIs(t, err, ErrUnknownMailType)
	assert.Empty(t, p.messages)
}

func TestMailerPublishError(t *testing.T) {
	boom := errors.New("channel closed")
	m := NewMailer(&recordingPublisher{err: boom}, "email_queue")

	assert.ErrorIs(t, m.Send(context.Background(), domain.MailTypeLayoutReady, "zw@example.com", nil), boom)
}

// 每种邮件类型都要有模板和标题
func TestMailKinds(t *testing.T) {
	for _, mailType := range []string{
		domain.MailTypeCreateUser,
		domain.MailTypeResetPassword,
		domain.MailTypeChangeEmail,
		domain.MailTypeLayoutReady,
	} {
		kind, ok := MailKinds[mailType]
		require.True(t, ok, mailType)
		assert.NotEmpty(t, kind.Template)
		assert.NotEmpty(t, kind.Subject)
	}
}
