package queue

import (
	"context"
	"fmt"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
)

// MailKind 是一种邮件对应的模板和标题
type MailKind struct {
	Template string
	Subject  string
}

var MailKinds = map[string]MailKind{
	domain.MailTypeCreateUser: {
		Template: "./templates/new_account_email.html",
		Subject:  "ECNC 座位规划系统 - 账户信息",
	},
	domain.MailTypeResetPassword: {
		Template: "./templates/reset_password_otp_email.html",
		Subject:  "ECNC 座位规划系统 - 重置密码",
	},
	domain.MailTypeChangeEmail: {
		Template: "./templates/change_email_email.html",
		Subject:  "ECNC 座位规划系统 - 更改邮箱",
	},
	domain.MailTypeLayoutReady: {
		Template: "./templates/layout_ready_email.html",
		Subject:  "ECNC 座位规划系统 - 座位表已生成",
	},
}

type publisher interface {
	Publish(ctx context.Context, queue string, v any) error
}

// Mailer 把邮件投递到邮件队列，由 mail worker 负责真正发送
type Mailer struct {
	publisher publisher
	queue     string
}

func NewMailer(p publisher, queue string) *Mailer {
	return &Mailer{
		publisher: p,
		queue:     queue,
	}
}

// Send 只接受 MailKinds 中登记过的类型，避免消息进入队列后才被丢弃
func (m *Mailer) Send(ctx context.Context, mailType, to string, data any) error {
	if _, ok := MailKinds[mailType]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMailType, mailType)
	}

	return m.publisher.Publish(ctx, m.queue, domain.MailMessage{
		Type: mailType,
		To:   to,
		Data: data,
	})
}
