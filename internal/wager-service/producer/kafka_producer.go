package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/topics"
)

// KafkaPublisher publica os eventos de ciclo de vida e as requisições de
// aleatoriedade. Usa um writer sem tópico fixo; o tópico vai em cada mensagem.
type KafkaPublisher struct {
	Writer *kafka.Writer
}

func NewKafkaPublisher(w *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{Writer: w}
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, v any) error {
	b, _ := json.Marshal(v)
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *KafkaPublisher) PublishWagerCreated(ctx context.Context, e events.WagerCreated) error {
	return p.publish(ctx, topics.WagerCreated, strconv.FormatInt(e.WagerID, 10), e)
}

func (p *KafkaPublisher) PublishWagerMatched(ctx context.Context, e events.WagerMatched) error {
	return p.publish(ctx, topics.WagerMatched, strconv.FormatInt(e.WagerID, 10), e)
}

func (p *KafkaPublisher) PublishWagerResolved(ctx context.Context, e events.WagerResolved) error {
	return p.publish(ctx, topics.WagerResolved, strconv.FormatInt(e.WagerID, 10), e)
}

func (p *KafkaPublisher) PublishWagerCancelled(ctx context.Context, e events.WagerCancelled) error {
	return p.publish(ctx, topics.WagerCancelled, strconv.FormatInt(e.WagerID, 10), e)
}

func (p *KafkaPublisher) PublishFeesWithdrawn(ctx context.Context, e events.FeesWithdrawn) error {
	return p.publish(ctx, topics.FeesWithdrawn, e.Collector, e)
}

func (p *KafkaPublisher) PublishCollectorChanged(ctx context.Context, e events.CollectorChanged) error {
	return p.publish(ctx, topics.CollectorChanged, e.Collector, e)
}

func (p *KafkaPublisher) PublishRandomnessRequested(ctx context.Context, e events.RandomnessRequested) error {
	return p.publish(ctx, topics.RandomnessRequested, e.Token, e)
}
