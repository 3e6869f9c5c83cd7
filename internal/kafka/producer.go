package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LhacenMed/admin-dashboard/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const eventTypeHeader = "event-type"

type Producer struct {
	brokers []string
	writer  *kafka.Writer
	log     logger.Logger
}

// NewProducer writes synchronously so a failed publish is visible to the caller.
func NewProducer(brokers []string, log logger.Logger) *Producer {
	return &Producer{
		brokers: brokers,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchTimeout:           20 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

// Publish JSON-encodes payload. Keys hash to a partition, so events of one aggregate stay ordered.
func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	msg, err := newMessage(topic, key, payload)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to topic %s: %w", topic, err)
	}
	p.log.Debug("published event", "topic", topic, "key", key)
	return nil
}

func newMessage(topic, key string, payload interface{}) (kafka.Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal payload: %w", err)
	}
	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now().UTC(),
	}
	if event, ok := payload.(Event); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: eventTypeHeader, Value: []byte(event.Type)})
	}
	return msg, nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partitions.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka %s: %w", p.brokers[0], err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("read partitions: %w", err)
	}
	p.log.Debug("kafka reachable", "partitions", len(partitions))
	return nil
}
