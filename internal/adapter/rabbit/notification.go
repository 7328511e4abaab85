package rabbit

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Temutjin2k/vendor-location-sync/internal/domain/models"
	wrap "github.com/Temutjin2k/vendor-location-sync/pkg/logger/wrapper"
	"github.com/Temutjin2k/vendor-location-sync/pkg/metrics"
	"github.com/Temutjin2k/vendor-location-sync/pkg/rabbit"
)

// NotificationProducer hands proximity notifications to a local
// notification agent over a topic exchange.
type NotificationProducer struct {
	client   *rabbit.RabbitMQ
	exchange string
	deviceID string
}

func NewNotificationProducer(client *rabbit.RabbitMQ, exchange, deviceID string) (*NotificationProducer, error) {
	if err := client.DeclareExchange(exchange, amqp.ExchangeTopic); err != nil {
		return nil, err
	}
	return &NotificationProducer{
		client:   client,
		exchange: exchange,
		deviceID: deviceID,
	}, nil
}

type notificationMessage struct {
	DeviceID string `json:"device_id"`
	models.Notification
}

func routingKey(n models.Notification) string {
	return fmt.Sprintf("proximity.vendor.%d", n.VendorID)
}

// Notify publishes n. Implements the proximity Sender.
func (p *NotificationProducer) Notify(ctx context.Context, n models.Notification) (err error) {
	const op = "NotificationProducer.Notify"
	defer func() { metrics.RecordRabbitMQPublish(p.exchange, err) }()

	body, err := json.Marshal(notificationMessage{DeviceID: p.deviceID, Notification: n})
	if err != nil {
		ctx = wrap.WithAction(ctx, "marshal_notification")
		return wrap.Error(ctx, fmt.Errorf("%s: failed to marshal message: %w", op, err))
	}

	if err := p.client.EnsureConnection(ctx); err != nil {
		return wrap.Error(ctx, fmt.Errorf("%s: %w", op, err))
	}

	if err := p.client.Publish(ctx, p.exchange, routingKey(n), amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   time.Now(),
	}); err != nil {
		ctx = wrap.WithAction(ctx, "publish_message")
		return wrap.Error(ctx, fmt.Errorf("%s: failed to publish with context: %w", op, err))
	}

	return nil
}
