package core

import (
	"bytes"
	"context"
	"embed"
	htmltmpl "html/template"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

//go:embed templates/email/*
var emailFS embed.FS

const emailTemplatesDir = "templates/email"

var (
	templates tmplCache
	tmplErr   error
	tmplInit  sync.Once

	ErrTemplateNotFound = errors.New("email template not found")
)

type (
	tmplCacheEntry struct {
		text *texttmpl.Template
		html *htmltmpl.Template
	}
	tmplCache map[string]*tmplCacheEntry // {name: entry}

	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessage renders and delivers msg. It returns once the message was handed over
		// to the transport, or with the reason it could not be.
		SendMessage(ctx context.Context, msg *EmailMessage) error
	}
)

func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}
	if m.TemplateName == "" {
		return nil
	}

	tmplInit.Do(parseTemplates) // only parse once, on first render
	if tmplErr != nil {
		return errors.Wrap(tmplErr, "parsing email templates")
	}
	entry, ok := templates[m.TemplateName]
	if !ok {
		return errors.Wrap(ErrTemplateNotFound, m.TemplateName)
	}

	var buff bytes.Buffer
	if entry.text != nil && m.BodyStr == "" {
		if err := entry.text.Execute(&buff, m.TemplateData); err != nil {
			return errors.Wrap(err, "rendering text content")
		}
		m.TextContent = buff.String()
		buff.Reset()
	}
	if entry.html != nil {
		if err := entry.html.Execute(&buff, m.TemplateData); err != nil {
			return errors.Wrap(err, "rendering html content")
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseTemplates() {
	templates = make(tmplCache)

	fps, err := fs.Glob(emailFS, path.Join(emailTemplatesDir, "*"))
	if err != nil {
		tmplErr = err
		return
	}

	for _, fp := range fps {
		fname := path.Base(fp)
		ext := path.Ext(fname)
		if strings.HasPrefix(fname, "_") || !(ext == ".txt" || ext == ".gohtml") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		entry, ok := templates[name]
		if !ok {
			entry = new(tmplCacheEntry)
			templates[name] = entry
		}
		if ext == ".txt" {
			tmpl, err := texttmpl.ParseFS(emailFS, path.Join(emailTemplatesDir, "_base.txt"), fp)
			if err != nil {
				tmplErr = errors.Wrap(err, fname)
				return
			}
			entry.text = tmpl.Option("missingkey=error")
		} else {
			tmpl, err := htmltmpl.ParseFS(emailFS, path.Join(emailTemplatesDir, "_base.gohtml"), fp)
			if err != nil {
				tmplErr = errors.Wrap(err, fname)
				return
			}
			entry.html = tmpl.Option("missingkey=error")
		}
	}
}
