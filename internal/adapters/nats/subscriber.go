package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jiljuapp/jilju/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeCouponEvents consumes both issued and redeemed coupon events with
// a durable queue consumer.
func (s *Subscriber) SubscribeCouponEvents(ctx context.Context, handler func(ctx context.Context, c *domain.Coupon) error) error {
	sub, err := s.js.Subscribe("jilju.coupon.>", func(msg *nats.Msg) {
		var c domain.Coupon
		if err := json.Unmarshal(msg.Data, &c); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &c); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("coupon-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// SubscribeChatRoom fans in a room's live messages over plain NATS.
func (s *Subscriber) SubscribeChatRoom(ctx context.Context, roomID string, handler func(ctx context.Context, msg *domain.ChatMessage) error) error {
	sub, err := s.conn.Subscribe("jilju.chat."+roomID, func(msg *nats.Msg) {
		var m domain.ChatMessage
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			return
		}
		_ = handler(ctx, &m)
	})
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
