package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sablecart/payment-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type NotificationPublisher struct {
	writer *kafka.Writer
}

func NewNotificationPublisher(brokers []string, topic string) *NotificationPublisher {
	return &NotificationPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes one notification event keyed by order id, so all events for
// an order land on the same partition in order.
func (p *NotificationPublisher) Publish(event domain.NotificationEvent) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: msg,
		Time:  time.Now(),
	})
}

func (p *NotificationPublisher) Close() error {
	return p.writer.Close()
}
