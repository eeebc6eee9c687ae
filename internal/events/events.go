package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/emilythestrangee/stackit/backend/internal/models"
	"github.com/emilythestrangee/stackit/backend/internal/vote"
)

// VoteCast is emitted after a vote click has been committed.
type VoteCast struct {
	TargetType models.TargetType `json:"target_type"`
	TargetID   int               `json:"target_id"`
	UserID     int               `json:"user_id"`
	Direction  string            `json:"direction"`
	ViewerVote vote.State        `json:"viewer_vote"`
	Score      int               `json:"score"`
	Delta      int               `json:"delta"`
	At         time.Time         `json:"at"`
}

// Key groups events for the same item onto one partition.
func (e VoteCast) Key() string {
	return fmt.Sprintf("%s:%d", e.TargetType, e.TargetID)
}

type Publisher interface {
	PublishVote(ctx context.Context, e VoteCast) error
	Close() error
}

// KafkaPublisher writes vote events as JSON to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			BatchTimeout:           50 * time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *KafkaPublisher) PublishVote(ctx context.Context, e VoteCast) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode vote event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key()),
		Value: b,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs events instead of shipping them anywhere.
type LogPublisher struct {
	Logger *log.Logger
}

func (p LogPublisher) PublishVote(_ context.Context, e VoteCast) error {
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("vote %s by user %d: %s -> %s (score %d, %+d)",
		e.Key(), e.UserID, e.Direction, e.ViewerVote, e.Score, e.Delta)
	return nil
}

func (LogPublisher) Close() error { return nil }
