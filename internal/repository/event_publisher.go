package repository

import (
	"context"
	"fmt"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	applogger "MacroPulse/pkg/logger"

	"github.com/google/uuid"
)

// Publisher is satisfied by *pkg/kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher writes dashboard events keyed by portfolio id, so a
// portfolio's events stay ordered on one partition.
type KafkaEventPublisher struct {
	pub   Publisher
	topic string
	l     *applogger.Logger
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)

func NewKafkaEventPublisher(pub Publisher, topic string, l *applogger.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{pub: pub, topic: topic, l: l}
}

func (p *KafkaEventPublisher) PublishDashboard(ctx context.Context, ev models.DashboardEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if err := p.pub.Publish(ctx, p.topic, []byte(ev.PortfolioID), ev); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	p.l.Debug("dashboard event published",
		applogger.String("event_id", ev.ID),
		applogger.String("type", string(ev.Type)),
		applogger.String("level", string(ev.Level)),
	)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.pub.Close()
}

// NoopEventPublisher drops events; used when Kafka is disabled.
type NoopEventPublisher struct{}

var _ domrepo.EventPublisher = NoopEventPublisher{}

func (NoopEventPublisher) PublishDashboard(context.Context, models.DashboardEvent) error { return nil }
func (NoopEventPublisher) Close() error                                                  { return nil }
