package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinTrain/internal/domain/models"
	pkgkafka "FinTrain/pkg/kafka"
	applogger "FinTrain/pkg/logger"
	pkgmetrics "FinTrain/pkg/metrics"
)

// fakeDrainer hands every payload to the handler and mimics pkg/kafka error wrapping.
type fakeDrainer struct {
	payloads []string
}

func (d *fakeDrainer) Topic() string { return "BTC-CAD" }

func (d *fakeDrainer) Drain(ctx context.Context, h pkgkafka.MessageHandler) (int, error) {
	for i, p := range d.payloads {
		if err := h.Handle(ctx, []byte(p)); err != nil {
			return i, fmt.Errorf("topic %s partition 0 offset %d: %w", h.Topic(), i, err)
		}
	}
	return len(d.payloads), nil
}

type errCounter struct {
	pkgmetrics.Nop
	kinds []string
}

func (m *errCounter) RecordError(kind string) { m.kinds = append(m.kinds, kind) }

func TestKafkaTickSource_Drain(t *testing.T) {
	d := &fakeDrainer{payloads: []string{
		`{"price": 101.5, "symbol": "BTC-CAD", "t": 1}`,
		`{"price": 102}`,
		`{"price": 100.25, "extra": true}`,
	}}
	src := newKafkaTickSource(d, pkgmetrics.Nop{}, applogger.Nop())

	prices, err := src.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []float64{101.5, 102, 100.25}, prices)
}

func TestKafkaTickSource_EmptyTopic(t *testing.T) {
	src := newKafkaTickSource(&fakeDrainer{}, pkgmetrics.Nop{}, applogger.Nop())

	prices, err := src.Drain(context.Background())
	require.NoError(t, err)
	assert.Empty(t, prices)
}

func TestKafkaTickSource_MalformedFails(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: `price=3`},
		{name: "missing price", payload: `{"symbol": "BTC-CAD"}`},
		{name: "string price", payload: `{"price": "3.5"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &errCounter{}
			d := &fakeDrainer{payloads: []string{`{"price": 1}`, tt.payload}}
			src := newKafkaTickSource(d, m, applogger.Nop())

			_, err := src.Drain(context.Background())
			require.ErrorIs(t, err, models.ErrMalformedTick)
			assert.Contains(t, err.Error(), "offset 1")
			assert.Equal(t, []string{"malformed_tick"}, m.kinds)
		})
	}
}

type sentMessage struct {
	topic string
	key   string
	value []byte
}

type fakeProducer struct {
	sent    []sentMessage
	batches int
	err     error
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	if p.err != nil {
		return p.err
	}
	b, _ := json.Marshal(value)
	p.sent = append(p.sent, sentMessage{topic: topic, key: string(key), value: b})
	return nil
}

func (p *fakeProducer) PublishBatch(ctx context.Context, topic string, msgs []pkgkafka.Message) error {
	p.batches++
	for _, m := range msgs {
		if err := p.Publish(ctx, topic, m.Key, m.Value); err != nil {
			return err
		}
	}
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestKafkaTickPublisher_TopicResolution(t *testing.T) {
	fp := &fakeProducer{}
	pub := newKafkaTickPublisher(fp, map[string]string{"BINANCE:BTCUSDT": "BTC-CAD"})
	ctx := context.Background()

	require.NoError(t, pub.Publish(ctx, models.NewTick("BINANCE:BTCUSDT", 10, 1)))
	require.NoError(t, pub.Publish(ctx, models.NewTick("BINANCE:ETHUSDT", 2, 1)))

	require.Len(t, fp.sent, 2)
	assert.Equal(t, "BTC-CAD", fp.sent[0].topic)
	assert.Equal(t, "BINANCE:BTCUSDT", fp.sent[0].key)
	assert.Equal(t, "BINANCE-ETHUSDT", fp.sent[1].topic)

	// the published message decodes as a training tick
	tick, err := models.DecodeTick(fp.sent[0].value)
	require.NoError(t, err)
	assert.Equal(t, 10.0, *tick.Price)
}

func TestKafkaTickPublisher_PublishBatchGroupsByTopic(t *testing.T) {
	fp := &fakeProducer{}
	pub := newKafkaTickPublisher(fp, nil)

	err := pub.PublishBatch(context.Background(), []*models.Tick{
		models.NewTick("A:X", 1, 1),
		models.NewTick("B:Y", 2, 1),
		nil,
		models.NewTick("A:X", 3, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, fp.batches)
	require.Len(t, fp.sent, 3)
	assert.Equal(t, "A-X", fp.sent[0].topic)
	assert.Equal(t, "A-X", fp.sent[1].topic)
	assert.Equal(t, "B-Y", fp.sent[2].topic)
}

func TestKafkaTickPublisher_RejectsMissingPrice(t *testing.T) {
	pub := newKafkaTickPublisher(&fakeProducer{}, nil)
	err := pub.Publish(context.Background(), &models.Tick{Symbol: "A:X"})
	assert.ErrorIs(t, err, models.ErrMalformedTick)
}

func TestKafkaMetricsSink_RecordEpoch(t *testing.T) {
	fp := &fakeProducer{}
	sink := &KafkaMetricsSink{producer: fp, topic: "BTC-CAD.metrics"}

	err := sink.RecordEpoch(context.Background(), models.EpochMetrics{Symbol: "BTC-CAD", Epoch: 2, TrainLoss: 0.5})
	require.NoError(t, err)
	require.Len(t, fp.sent, 1)
	assert.Equal(t, "BTC-CAD.metrics", fp.sent[0].topic)

	var got models.EpochMetrics
	require.NoError(t, json.Unmarshal(fp.sent[0].value, &got))
	assert.Equal(t, 2, got.Epoch)
	assert.Equal(t, 0.5, got.TrainLoss)
}

func TestTopicForSymbol(t *testing.T) {
	assert.Equal(t, "BINANCE-BTCUSDT", TopicForSymbol("BINANCE:BTCUSDT"))
	assert.Equal(t, "BTC-CAD", TopicForSymbol("BTC/CAD"))
	assert.Equal(t, "BTC-CAD", TopicForSymbol("BTC-CAD"))
}
