// Package alert fans security alerts out to a message broker so external
// responders (SIEM, on-call tooling) can consume them without polling the
// audit table.
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const alertsExchange = "security.alerts"

// Alert kinds published by the security gate.
const (
	KindSuspiciousActivity = "suspicious_activity"
	KindThrottleBlock      = "throttle_block"
)

// Alert is the wire format of one security alert.
type Alert struct {
	Kind      string `json:"kind"`
	UserID    int64  `json:"user_id,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
	Details   string `json:"details,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher publishes security alerts to a fanout exchange. A nil
// Publisher is valid and drops all alerts, so the broker stays optional.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewPublisher connects to the broker and declares the alerts exchange.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		alertsExchange,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare alerts exchange: %w", err)
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// Publish sends one alert. Failures are logged, not returned: alerting is
// telemetry and must never decide a request's fate.
func (p *Publisher) Publish(ctx context.Context, a Alert) {
	if p == nil {
		return
	}
	if a.Timestamp == 0 {
		a.Timestamp = time.Now().Unix()
	}

	body, err := json.Marshal(a)
	if err != nil {
		slog.Error("failed to marshal security alert", slog.String("error", err.Error()))
		return
	}

	err = p.channel.PublishWithContext(
		ctx,
		alertsExchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		slog.Error("failed to publish security alert",
			slog.String("kind", a.Kind),
			slog.String("error", err.Error()))
		return
	}

	slog.Info("published security alert",
		slog.String("kind", a.Kind),
		slog.Int64("user_id", a.UserID))
}

// IsClosed reports whether the broker connection is gone.
func (p *Publisher) IsClosed() bool {
	return p == nil || p.conn == nil || p.conn.IsClosed()
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
