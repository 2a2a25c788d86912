// Package email provides an email sending client.
//
// It uses Resend (resend-go) as the email provider and renders HTML bodies
// from templates embedded in the binary. Without an API key the client only
// logs what it would have sent.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/deppfellow/storeops/internal/config"
	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// sendFunc delivers one rendered message.
type sendFunc func(ctx context.Context, req *resend.SendEmailRequest) error

// Client wraps the Resend client and a logger.
type Client struct {
	send   sendFunc
	from   string
	logger *zerolog.Logger
}

// NewClient creates an email Client from the integration config.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	c := &Client{
		from:   cfg.Integration.EmailFrom,
		logger: logger,
	}

	if cfg.Integration.ResendAPIKey != "" {
		rc := resend.NewClient(cfg.Integration.ResendAPIKey)
		c.send = func(ctx context.Context, req *resend.SendEmailRequest) error {
			_, err := rc.Emails.SendWithContext(ctx, req)
			return err
		}
	}
	return c
}

// Enabled reports whether messages actually leave the process.
func (c *Client) Enabled() bool {
	return c.send != nil
}

// Render executes a template into HTML.
func Render(name Template, data any) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(name)+".html", data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", name)
	}
	return body.String(), nil
}

// SendEmail renders templateName with data and sends it to every recipient.
func (c *Client) SendEmail(ctx context.Context, to []string, subject string, templateName Template, data any) error {
	if len(to) == 0 {
		return nil
	}

	html, err := Render(templateName, data)
	if err != nil {
		return err
	}

	if !c.Enabled() {
		c.logger.Info().
			Strs("to", to).
			Str("subject", subject).
			Str("template", string(templateName)).
			Msg("email disabled, message not sent")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		Html:    html,
	}

	if err := c.send(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
