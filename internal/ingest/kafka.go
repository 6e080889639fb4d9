package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	ck "github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaSource consumes a topic with manual offset commits.
type KafkaSource struct {
	c    *ck.Consumer
	poll time.Duration
}

func NewKafkaSource(bootstrap, groupID, topic string, poll time.Duration) (*KafkaSource, error) {
	c, err := ck.NewConsumer(&ck.ConfigMap{
		"bootstrap.servers":  bootstrap,
		"group.id":           groupID,
		"enable.auto.commit": false,
		"isolation.level":    "read_committed",
		"auto.offset.reset":  "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("consumer: %w", err)
	}
	if err := c.SubscribeTopics([]string{topic}, nil); err != nil {
		c.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	return &KafkaSource{c: c, poll: poll}, nil
}

func (k *KafkaSource) Next(_ context.Context) (Message, bool, error) {
	msg, err := k.c.ReadMessage(k.poll)
	if err != nil {
		var kerr ck.Error
		if errors.As(err, &kerr) && kerr.Code() == ck.ErrTimedOut {
			return Message{}, false, nil
		}
		return Message{}, false, err
	}
	return Message{Key: msg.Key, Value: msg.Value, Offset: int64(msg.TopicPartition.Offset)}, true, nil
}

func (k *KafkaSource) Commit(_ context.Context) error {
	if _, err := k.c.Commit(); err != nil {
		var kerr ck.Error
		if errors.As(err, &kerr) && kerr.Code() == ck.ErrNoOffset {
			return nil
		}
		return err
	}
	return nil
}

func (k *KafkaSource) Close() error { return k.c.Close() }
