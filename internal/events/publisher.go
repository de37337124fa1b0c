// Package events publishes order lifecycle events for downstream consumers
// such as the kitchen display or accounting exports.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/config"
	"github.com/vietanh2810/coffeeshop-api/internal/metrics"
)

const (
	TypeOrderCreated       = "order.created"
	TypeOrderStatusChanged = "order.status_changed"
	TypePaymentUpdated     = "order.payment_updated"

	producerName = "coffeeshop-api"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any)
	Close() error
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers
// are configured.
func NewPublisher(conf *config.KafkaConfig) Publisher {
	if conf == nil || len(conf.Brokers) == 0 {
		return NoopPublisher{}
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(conf.Brokers...),
		Topic:        conf.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}

	return NewKafkaPublisher(w, conf.Buffer)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher never blocks the request path: messages go through a
// buffered inbox drained by a single goroutine. The inbox is never closed,
// so a handler still running after Close only drops its event.
type KafkaPublisher struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func NewKafkaPublisher(w messageWriter, buffer int) *KafkaPublisher {
	if buffer <= 0 {
		buffer = 1
	}

	p := &KafkaPublisher{
		w:       w,
		inbox:   make(chan kafka.Message, buffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go p.loop()

	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.stopped)

	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		case <-p.done:
			for {
				select {
				case m := <-p.inbox:
					p.write(m)
				default:
					return
				}
			}
		}
	}
}

func (p *KafkaPublisher) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := p.w.WriteMessages(ctx, m)
	cancel()

	eventType := headerValue(m.Headers, "event_type")
	if err != nil {
		metrics.EventsPublished.WithLabelValues(eventType, "error").Inc()
		zap.L().Error("publish event", zap.String("type", eventType), zap.ByteString("key", m.Key), zap.Error(err))
		return
	}
	metrics.EventsPublished.WithLabelValues(eventType, "ok").Inc()
}

// Publish drops the event when the inbox is full.
func (p *KafkaPublisher) Publish(_ context.Context, eventType, key string, payload any) {
	msg, err := newMessage(eventType, key, payload)
	if err != nil {
		zap.L().Error("encode event", zap.String("type", eventType), zap.Error(err))
		return
	}

	select {
	case <-p.done:
		metrics.EventsPublished.WithLabelValues(eventType, "dropped").Inc()
		zap.L().Warn("event publisher closed, dropping event", zap.String("type", eventType), zap.String("key", key))
		return
	default:
	}

	select {
	case p.inbox <- msg:
	default:
		metrics.EventsPublished.WithLabelValues(eventType, "dropped").Inc()
		zap.L().Warn("event inbox full, dropping event", zap.String("type", eventType), zap.String("key", key))
	}
}

// Close flushes queued events and closes the writer. It is safe to call
// more than once.
func (p *KafkaPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.done)
		<-p.stopped
		p.closeErr = p.w.Close()
	})

	return p.closeErr
}

func newMessage(eventType, key string, payload any) (kafka.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, err
	}

	env, err := json.Marshal(Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: key,
		Payload:       body,
	})
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(key),
		Value: env,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}, nil
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}

	return ""
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, string, any) {}

func (NoopPublisher) Close() error { return nil }
