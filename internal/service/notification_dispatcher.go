package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/notify"
	"github.com/spec-kit/case-service/internal/observability"
	"github.com/spec-kit/case-service/internal/repository"
)

// EmailSender delivers a templated email. Implemented by notify.EmailGateway.
type EmailSender interface {
	Send(ctx context.Context, templateKey string, to, cc []string, vars map[string]string) error
}

// ChatSender delivers a creation alert. Implemented by notify.ChatGateway.
// There is deliberately no update method: chat alerts exist only for creation.
type ChatSender interface {
	SendCreationAlert(ctx context.Context, c *domain.SupportCase) error
}

// NotificationDispatcher routes lifecycle events to outbound channels. Every
// delivery is best effort: a channel failure is logged and counted, never
// returned to the operation that triggered it.
type NotificationDispatcher struct {
	cases   repository.CaseRepository
	email   EmailSender
	chat    ChatSender
	cfg     config.NotificationConfig
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NotificationDependencies bundles collaborators for the dispatcher.
type NotificationDependencies struct {
	CaseRepo repository.CaseRepository
	Email    EmailSender
	Chat     ChatSender
	Config   config.NotificationConfig
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewNotificationDispatcher constructs the dispatcher.
func NewNotificationDispatcher(deps NotificationDependencies) *NotificationDispatcher {
	return &NotificationDispatcher{
		cases:   deps.CaseRepo,
		email:   deps.Email,
		chat:    deps.Chat,
		cfg:     deps.Config,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// RegisterHandlers subscribes the dispatcher to the events it reacts to.
func (d *NotificationDispatcher) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventCaseCreated, d.handleCaseCreated)
	dispatcher.Subscribe(events.EventCaseStatusChanged, d.handleStatusChanged)
	dispatcher.Subscribe(events.EventCaseCommentAdded, d.handleCommentAdded)
}

// DispatchCreation sends the creation email and the chat alert. The two
// channels fail independently: a dead SMTP server does not silence chat and
// vice versa.
func (d *NotificationDispatcher) DispatchCreation(ctx context.Context, c *domain.SupportCase, notifyEmail, notifyChat bool) {
	profile, err := c.Variant.Profile()
	if err != nil {
		d.logger.Error("creation dispatch skipped", zap.Error(err))
		return
	}

	if notifyEmail && d.cfg.EmailEnabled && c.RequesterEmail != "" {
		err := d.email.Send(ctx, profile.Templates.CreationEmail,
			[]string{c.RequesterEmail}, nil, notify.CaseVars(c))
		d.record("email", c.CaseNumber, profile.Templates.CreationEmail, err)
	}

	if notifyChat && d.cfg.ChatEnabled && d.chat != nil {
		err := d.chat.SendCreationAlert(ctx, c)
		d.record("chat", c.CaseNumber, profile.Templates.CreationChat, err)
	}
}

// DispatchUpdate sends the email for an update event. Updates never reach
// chat; the template routing has no chat key for them.
func (d *NotificationDispatcher) DispatchUpdate(ctx context.Context, c *domain.SupportCase, updateType domain.UpdateType, extraVars map[string]string) {
	if !d.cfg.EmailEnabled {
		return
	}
	profile, err := c.Variant.Profile()
	if err != nil {
		d.logger.Error("update dispatch skipped", zap.Error(err))
		return
	}
	templateKey, ok := profile.Templates.UpdateEmail[updateType]
	if !ok {
		d.logger.Warn("no template for update type",
			zap.String("variant", string(c.Variant)),
			zap.String("update_type", string(updateType)))
		return
	}
	if c.RequesterEmail == "" {
		d.logger.Debug("update email skipped, case has no requester email",
			zap.String("case_number", c.CaseNumber))
		return
	}

	vars := notify.CaseVars(c)
	for k, v := range extraVars {
		vars[k] = v
	}
	err = d.email.Send(ctx, templateKey, []string{c.RequesterEmail}, nil, vars)
	d.record("email", c.CaseNumber, templateKey, err)
}

// DispatchCommentEmail sends a public comment or response to an explicit
// recipient list instead of the case requester.
func (d *NotificationDispatcher) DispatchCommentEmail(ctx context.Context, c *domain.SupportCase, updateType domain.UpdateType, to, cc []string, extraVars map[string]string) {
	if !d.cfg.EmailEnabled || len(to) == 0 {
		return
	}
	profile, err := c.Variant.Profile()
	if err != nil {
		d.logger.Error("comment dispatch skipped", zap.Error(err))
		return
	}
	templateKey, ok := profile.Templates.UpdateEmail[updateType]
	if !ok {
		return
	}
	vars := notify.CaseVars(c)
	for k, v := range extraVars {
		vars[k] = v
	}
	err = d.email.Send(ctx, templateKey, to, cc, vars)
	d.record("email", c.CaseNumber, templateKey, err)
}

func (d *NotificationDispatcher) handleCaseCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseCreatedPayload)
	if !ok {
		return nil
	}
	c, err := d.loadCase(ctx, event.Variant, event.CaseID)
	if err != nil {
		d.logger.Error("notification load case failed",
			zap.String("case_id", event.CaseID), zap.Error(err))
		return nil
	}
	d.DispatchCreation(ctx, c, payload.NotifyEmail, payload.NotifyChat)
	return nil
}

func (d *NotificationDispatcher) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseStatusChangedPayload)
	if !ok || !payload.Notify {
		return nil
	}
	c, err := d.loadCase(ctx, event.Variant, event.CaseID)
	if err != nil {
		d.logger.Error("notification load case failed",
			zap.String("case_id", event.CaseID), zap.Error(err))
		return nil
	}
	profile, _ := event.Variant.Profile()
	d.DispatchUpdate(ctx, c, domain.UpdateTypeStatusChange, map[string]string{
		"old_status": profile.StatusLabel(payload.OldStatus),
		"new_status": profile.StatusLabel(payload.NewStatus),
		"comment":    notify.SanitizeHTML(payload.Comment),
	})
	return nil
}

func (d *NotificationDispatcher) handleCommentAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CaseCommentAddedPayload)
	if !ok {
		return nil
	}
	// System and internal comments stay inside the tool.
	if payload.IsSystem || payload.CommentType == domain.CommentTypeInternal {
		return nil
	}
	if len(payload.EmailTo) == 0 {
		return nil
	}
	c, err := d.loadCase(ctx, event.Variant, event.CaseID)
	if err != nil {
		d.logger.Error("notification load case failed",
			zap.String("case_id", event.CaseID), zap.Error(err))
		return nil
	}
	updateType := domain.UpdateTypeComment
	if payload.IsResponse {
		updateType = domain.UpdateTypeResponse
	}
	// Bodies are stored as submitted; this is the render boundary where user
	// markdown becomes allow-listed HTML.
	d.DispatchCommentEmail(ctx, c, updateType, payload.EmailTo, payload.EmailCc, map[string]string{
		"author_name":  payload.AuthorName,
		"comment_body": notify.RenderCommentBody(payload.BodyPreview),
	})
	return nil
}

func (d *NotificationDispatcher) loadCase(ctx context.Context, variant domain.Variant, caseID string) (*domain.SupportCase, error) {
	profile, err := variant.Profile()
	if err != nil {
		return nil, err
	}
	c, err := d.cases.GetByID(ctx, profile, caseID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errors.New("case vanished before dispatch")
		}
		return nil, err
	}
	return c, nil
}

func (d *NotificationDispatcher) record(channel, caseNumber, templateKey string, err error) {
	d.metrics.RecordNotification(channel, err == nil)
	if err != nil {
		d.logger.Error("notification failed",
			zap.String("channel", channel),
			zap.String("case_number", caseNumber),
			zap.String("template", templateKey),
			zap.Error(err))
		return
	}
	d.logger.Debug("notification dispatched",
		zap.String("channel", channel),
		zap.String("case_number", caseNumber),
		zap.String("template", templateKey))
}
