package broker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intel_service/internal/domain/model"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func testSnapshot() model.TickSnapshot {
	at := time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC)
	return model.TickSnapshot{
		Seq:     7,
		City:    "Delhi",
		SimTime: 21,
		At:      at,
		Units:   []model.PatrolUnit{{ID: "DEL-01", City: "Delhi", Status: model.UnitIdle}},
		Resolved: []model.ResolvedAlert{{
			Alert:      model.Alert{ID: "a-1", City: "Delhi", Level: model.RiskCritical},
			UnitID:     "DEL-01",
			Reason:     model.ResolvedArrived,
			ResolvedAt: at,
		}},
	}
}

func TestBuildMessages(t *testing.T) {
	msgs, err := buildMessages(testSnapshot())
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "Delhi", string(msgs[0].Key))
	assert.Equal(t, KindTick, header(msgs[0], "kind"))
	assert.Equal(t, "7", header(msgs[0], "seq"))

	var snap model.TickSnapshot
	require.NoError(t, json.Unmarshal(msgs[0].Value, &snap))
	assert.Equal(t, uint64(7), snap.Seq)
	assert.Len(t, snap.Units, 1)

	assert.Equal(t, KindResolved, header(msgs[1], "kind"))
	assert.Equal(t, "arrived", header(msgs[1], "reason"))
	var resolved map[string]any
	require.NoError(t, json.Unmarshal(msgs[1].Value, &resolved))
	assert.Equal(t, "DEL-01", resolved["unit_id"])
	assert.Equal(t, "CRITICAL", resolved["alert"].(map[string]any)["level"])
}

func TestHandleTick(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	w := &fakeWriter{}
	p := &KafkaPublisher{w: w, log: log}
	require.NoError(t, p.HandleTick(context.Background(), testSnapshot()))
	assert.Len(t, w.msgs, 2)

	failing := &KafkaPublisher{w: &fakeWriter{err: errors.New("leader not available")}, log: log}
	assert.ErrorContains(t, failing.HandleTick(context.Background(), testSnapshot()), "publish tick 7")
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, ParseBrokers(" k1:9092, ,k2:9092 "))
	assert.Empty(t, ParseBrokers(""))
}
