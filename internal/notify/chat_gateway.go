package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/domain"
)

// ChatGateway publishes creation alerts to a Redis channel consumed by the
// chat bridge (WhatsApp-style messaging). It is only ever invoked for case
// creation; update notifications have no chat path.
type ChatGateway struct {
	client  *redis.Client
	channel string
	enabled bool
	logger  *zap.Logger
}

// NewChatGateway constructs the gateway.
func NewChatGateway(client *redis.Client, cfg config.ChatConfig, logger *zap.Logger) *ChatGateway {
	return &ChatGateway{
		client:  client,
		channel: cfg.Channel,
		enabled: cfg.Enabled,
		logger:  logger,
	}
}

type chatAlert struct {
	Variant    domain.Variant      `json:"variant"`
	CaseNumber string              `json:"case_number"`
	Subject    string              `json:"subject"`
	Priority   domain.CasePriority `json:"priority"`
	Requester  string              `json:"requester"`
	CreatedAt  time.Time           `json:"created_at"`
}

// SendCreationAlert pushes a high-salience alert for a newly created case.
func (g *ChatGateway) SendCreationAlert(ctx context.Context, c *domain.SupportCase) error {
	if !g.enabled {
		g.logger.Debug("chat alerts disabled, skipping", zap.String("case_number", c.CaseNumber))
		return nil
	}
	if g.client == nil {
		return fmt.Errorf("chat gateway: redis client not configured")
	}

	payload, err := json.Marshal(chatAlert{
		Variant:    c.Variant,
		CaseNumber: c.CaseNumber,
		Subject:    c.Subject,
		Priority:   c.Priority,
		Requester:  c.RequesterName,
		CreatedAt:  c.CreatedAt,
	})
	if err != nil {
		return err
	}

	if err := g.client.Publish(ctx, g.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish chat alert: %w", err)
	}
	g.logger.Info("chat alert published",
		zap.String("channel", g.channel),
		zap.String("case_number", c.CaseNumber))
	return nil
}
