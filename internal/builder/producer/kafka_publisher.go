package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/coupon-builder-poc/pkg/contracts/events"
)

// KafkaPublisher emite os eventos de fechamento de sessão nos tópicos
// de cupom. Writers separados por tópico, como em todo serviço daqui.
type KafkaPublisher struct {
	PlacedWriter    *kafka.Writer
	DiscardedWriter *kafka.Writer
}

func NewKafkaPublisher(placed, discarded *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{PlacedWriter: placed, DiscardedWriter: discarded}
}

func (p *KafkaPublisher) PublishCouponPlaced(ctx context.Context, e events.CouponPlaced) error {
	b, _ := json.Marshal(e)
	return p.PlacedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.CouponID), Value: b})
}

func (p *KafkaPublisher) PublishCouponDiscarded(ctx context.Context, e events.CouponDiscarded) error {
	b, _ := json.Marshal(e)
	return p.DiscardedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.SessionID), Value: b})
}
