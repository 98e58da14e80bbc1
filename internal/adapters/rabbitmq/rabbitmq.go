package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rafaelleal24/storefront/internal/adapters/config"
	"github.com/rafaelleal24/storefront/internal/core/domain"
	"github.com/rafaelleal24/storefront/internal/core/logger"
	"github.com/rafaelleal24/storefront/internal/core/port"

	amqp "github.com/rabbitmq/amqp091-go"
)

const appID = "storefront"

var errNotConnected = errors.New("rabbitmq: not connected")

// ExchangeName maps an event entity to its exchange, e.g. "cart" to
// "exchange.cart".
func ExchangeName(entityName string) string {
	return "exchange." + entityName
}

// Publisher sends cart events to one topic exchange per entity, routed by
// event name. A broken channel is reopened on the next attempt.
type Publisher struct {
	cfg config.RabbitMQConfig

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

var _ port.BrokerPort = (*Publisher)(nil)

func NewPublisher(cfg config.RabbitMQConfig) (*Publisher, error) {
	p := &Publisher{cfg: cfg}
	if err := p.dial(); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return p, nil
}

// dial must be called with mu held, or before the publisher is shared.
func (p *Publisher) dial() error {
	conn, err := amqp.Dial(p.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := declareExchanges(ch, p.cfg.ExchangeConfigs); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	p.conn, p.channel = conn, ch
	return nil
}

func declareExchanges(ch *amqp.Channel, exchanges []config.ExchangeConfig) error {
	for _, ex := range exchanges {
		if err := ch.ExchangeDeclare(ex.Name, ex.Type, ex.Durable, ex.AutoDelete, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}
	return nil
}

// teardown must be called with mu held.
func (p *Publisher) teardown() error {
	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
		p.channel = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
		p.conn = nil
	}
	return errors.Join(errs...)
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", event.GetName(), err)
	}
	return p.PublishRaw(ctx, event.GetName(), event.GetEntityName(), body)
}

// PublishRaw sends an already encoded event, retrying up to MaxRetries
// times with RetryDelay between attempts.
func (p *Publisher) PublishRaw(ctx context.Context, eventName, entityName string, data []byte) error {
	exchange := ExchangeName(entityName)
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Type:         eventName,
		AppId:        appID,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         data,
	}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries+1; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, p.cfg.RetryDelay); err != nil {
				return err
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = p.publishOnce(ctx, exchange, eventName, msg)
		if lastErr == nil {
			return nil
		}
		logger.Error(ctx, "rabbitmq: publish attempt failed", lastErr, map[string]any{
			"attempt":    attempt,
			"event_name": eventName,
			"exchange":   exchange,
		})
	}

	return fmt.Errorf("failed to publish %s after %d attempts: %w", eventName, p.cfg.MaxRetries+1, lastErr)
}

func (p *Publisher) publishOnce(ctx context.Context, exchange, routingKey string, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		_ = p.teardown()
		if err := p.dial(); err != nil {
			return fmt.Errorf("reconnect: %w", err)
		}
	}

	if err := p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		// drop the channel so the next attempt reconnects
		_ = p.teardown()
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.teardown(); err != nil {
		return fmt.Errorf("errors closing RabbitMQ: %w", err)
	}
	return nil
}

func (p *Publisher) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() || p.channel == nil {
		return errNotConnected
	}
	return nil
}
