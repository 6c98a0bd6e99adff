package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/domain"
	"github.com/sysu-ecnc-dev/seat-planner/backend/internal/queue"
	"github.com/wneessen/go-mail"
)

// compose 把队列中的消息渲染成邮件，root 是模板路径的起点
func compose(body []byte, from, root string) (*mail.Msg, error) {
	var m domain.MailMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	kind, ok := queue.MailKinds[m.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %s", queue.ErrUnknownMailType, m.Type)
	}

	tmpl, err := template.ParseFiles(filepath.Join(root, kind.Template))
	if err != nil {
		return nil, fmt.Errorf("无法解析邮件模板: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	if err := msg.SetBodyHTMLTemplate(tmpl, m.Data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	msg.Subject(kind.Subject)

	return msg, nil
}
