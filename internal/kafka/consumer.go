package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			MinBytes:          1,
			MaxBytes:          1 << 20,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume commits each message only after handler succeeds. A handler error stops the loop
// with the message uncommitted, so it is delivered again on the next start.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			return err
		}
		if err := handler(ctx, msg); err != nil {
			return fmt.Errorf("handle message at %d/%d: %w", msg.Partition, msg.Offset, err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// ConsumeEvents decodes each message as an Event. Undecodable messages go to onBadMessage
// and are committed past.
func (c *Consumer) ConsumeEvents(ctx context.Context, handler func(context.Context, Event) error, onBadMessage func(kafka.Message, error)) error {
	return c.Consume(ctx, func(ctx context.Context, msg kafka.Message) error {
		event, err := DecodeEvent(msg)
		if err != nil {
			if onBadMessage != nil {
				onBadMessage(msg, err)
			}
			return nil
		}
		return handler(ctx, event)
	})
}

// EventType reads the type header set by Producer. It is empty for foreign messages.
func EventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == eventTypeHeader {
			return string(h.Value)
		}
	}
	return ""
}
