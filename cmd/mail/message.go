package main

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/sysu-ecnc-dev/eaplanner/internal/domain"
	"github.com/wneessen/go-mail"
)

// 每种邮件类型对应的模板文件
var templateFiles = map[string]string{
	domain.MailTypeRunFinished: "run_finished_email.html",
}

func loadTemplates(dir string) (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(templateFiles))
	for mailType, file := range templateFiles {
		tmpl, err := template.ParseFiles(filepath.Join(dir, file))
		if err != nil {
			return nil, err
		}
		templates[mailType] = tmpl
	}
	return templates, nil
}

// buildMail 根据队列中的消息构建邮件
func buildMail(from string, templates map[string]*template.Template, body []byte) (*mail.Msg, error) {
	message := struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &message); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	tmpl, ok := templates[message.Type]
	if !ok {
		return nil, fmt.Errorf("不支持的邮件类型: %s", message.Type)
	}

	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := m.To(message.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}

	switch message.Type {
	case domain.MailTypeRunFinished:
		data := domain.RunFinishedMailData{}
		if err := json.Unmarshal(message.Data, &data); err != nil {
			return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
		}
		if err := m.SetBodyHTMLTemplate(tmpl, data); err != nil {
			return nil, fmt.Errorf("无法设置邮件正文: %w", err)
		}
		m.Subject(runFinishedSubject(&data))
	}

	return m, nil
}

func runFinishedSubject(data *domain.RunFinishedMailData) string {
	outcome := "运行已结束"
	if data.Status == domain.RunStatusFailed {
		outcome = "运行失败"
	}
	return fmt.Sprintf("EA Planner - %s 的 %s %s", data.InstanceName, data.Algorithm, outcome)
}
