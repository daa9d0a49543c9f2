package queue

import (
	"context"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

// DefaultTopic receives every document event.
const DefaultTopic = "document-events"

var _ EventQueue = (*KafkaQueue)(nil)

type KafkaQueue struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaQueue creates a producer for the comma separated brokers.
func NewKafkaQueue(brokers, topic string) (*KafkaQueue, error) {
	if topic == "" {
		topic = DefaultTopic
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	logrus.Infof("publishing document events to kafka topic %s", topic)

	return &KafkaQueue{producer: producer, topic: topic}, nil
}

// Publish produces the event keyed by document id so the events of one
// document stay ordered within a partition.
func (k *KafkaQueue) Publish(ctx context.Context, event Event) error {
	value, err := event.MarshalBinary()
	if err != nil {
		return err
	}

	delivery := make(chan kafka.Event, 1)
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.DocumentID),
		Value:          value,
		Headers:        []kafka.Header{{Key: "type", Value: []byte(event.Type)}},
	}, delivery)
	if err != nil {
		return fmt.Errorf("produce %s: %w", event.Type, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected kafka event %v", e)
		}
		if msg.TopicPartition.Error != nil {
			return fmt.Errorf("deliver %s: %w", event.Type, msg.TopicPartition.Error)
		}
	}

	return nil
}

func (k *KafkaQueue) Close() error {
	if left := k.producer.Flush(5000); left > 0 {
		logrus.Warnf("%d document events were not delivered", left)
	}
	k.producer.Close()
	return nil
}
