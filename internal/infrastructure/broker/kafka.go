package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/segmentio/kafka-go"

	"intel_service/internal/domain/model"
)

// Event kinds carried in the "kind" header.
const (
	KindTick     = "tick"
	KindResolved = "alert_resolved"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes every tick snapshot, plus one message per resolved
// alert, to a topic keyed by city.
type KafkaPublisher struct {
	w   messageWriter
	log *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// HandleTick implements core.TickSink.
func (p *KafkaPublisher) HandleTick(ctx context.Context, snap model.TickSnapshot) error {
	msgs, err := buildMessages(snap)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		p.log.Error("kafka write failed", "err", err, "seq", snap.Seq)
		return fmt.Errorf("publish tick %d: %w", snap.Seq, err)
	}
	p.log.Debug("published", "seq", snap.Seq, "city", snap.City, "messages", len(msgs))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

func buildMessages(snap model.TickSnapshot) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, 1+len(snap.Resolved))
	seq := []byte(strconv.FormatUint(snap.Seq, 10))

	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshal tick %d: %w", snap.Seq, err)
	}
	msgs = append(msgs, kafka.Message{
		Key:   []byte(snap.City),
		Value: b,
		Time:  snap.At,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(KindTick)},
			{Key: "seq", Value: seq},
		},
	})

	for _, r := range snap.Resolved {
		b, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("marshal resolved alert %s: %w", r.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(r.City),
			Value: b,
			Time:  r.ResolvedAt,
			Headers: []kafka.Header{
				{Key: "kind", Value: []byte(KindResolved)},
				{Key: "seq", Value: seq},
				{Key: "reason", Value: []byte(r.Reason)},
			},
		})
	}
	return msgs, nil
}
