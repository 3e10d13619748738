package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
)

// EmailGateway composes outbound messages from admin-managed templates and
// delivers them over SMTP. Template rendering and transport both live here;
// callers only say which template, to whom, with which variables.
type EmailGateway struct {
	templates repository.TemplateRepository
	dialer    *gomail.Dialer
	from      string
	logger    *zap.Logger
}

// NewEmailGateway constructs the gateway.
func NewEmailGateway(templates repository.TemplateRepository, cfg config.MailConfig, logger *zap.Logger) *EmailGateway {
	return &EmailGateway{
		templates: templates,
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:      cfg.From,
		logger:    logger,
	}
}

// Send renders the template identified by key and delivers it. An inactive or
// missing template skips delivery without error: the admin turned it off.
func (g *EmailGateway) Send(ctx context.Context, templateKey string, to, cc []string, vars map[string]string) error {
	if len(to) == 0 {
		g.logger.Debug("email skipped, no recipients", zap.String("template", templateKey))
		return nil
	}

	tpl, err := g.templates.GetByKey(ctx, templateKey)
	if err != nil {
		return fmt.Errorf("load template %s: %w", templateKey, err)
	}
	if !tpl.IsActive {
		g.logger.Info("email template inactive, skipping", zap.String("template", templateKey))
		return nil
	}

	subject := RenderTemplate(tpl.Subject, tpl.AvailableVariables, vars)
	body := RenderTemplate(tpl.BodyHTML, tpl.AvailableVariables, vars)

	msg := gomail.NewMessage()
	msg.SetHeader("From", g.from)
	msg.SetHeader("To", to...)
	if len(cc) > 0 {
		msg.SetHeader("Cc", cc...)
	}
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	if err := g.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send %s: %w", templateKey, err)
	}
	g.logger.Info("email sent",
		zap.String("template", templateKey),
		zap.Int("recipients", len(to)+len(cc)))
	return nil
}

// RenderTemplate substitutes {{variable}} placeholders. Only the template's
// declared variables are honored; unknown placeholders stay verbatim so a
// template typo is visible rather than silently blank.
func RenderTemplate(text string, declared []string, vars map[string]string) string {
	for _, name := range declared {
		value, ok := vars[name]
		if !ok {
			continue
		}
		text = strings.ReplaceAll(text, "{{"+name+"}}", value)
	}
	return text
}

// CaseVars builds the variable set shared by every case template.
func CaseVars(c *domain.SupportCase) map[string]string {
	return map[string]string{
		"case_number":    c.CaseNumber,
		"subject":        c.Subject,
		"description":    SanitizeHTML(c.Description),
		"requester_name": c.RequesterName,
		"status":         string(c.Status),
		"priority":       string(c.Priority),
	}
}
