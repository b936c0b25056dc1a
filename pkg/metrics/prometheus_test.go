package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"FinTrain/internal/domain/models"
)

func TestRecorder_RecordEpoch(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordEpoch("BTC-CAD", models.EpochMetrics{Epoch: 0, TrainLoss: 2, ValLoss: 3, Accuracy: 0.4})
	r.RecordEpoch("BTC-CAD", models.EpochMetrics{Epoch: 1, TrainLoss: 1, ValLoss: 1.5, Accuracy: 0.6})

	assert.Equal(t, 1.0, testutil.ToFloat64(r.trainLoss.WithLabelValues("BTC-CAD")))
	assert.Equal(t, 1.5, testutil.ToFloat64(r.valLoss.WithLabelValues("BTC-CAD")))
	assert.Equal(t, 0.6, testutil.ToFloat64(r.accuracy.WithLabelValues("BTC-CAD")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.epochs.WithLabelValues("BTC-CAD")))
}

func TestRecorder_Counters(t *testing.T) {
	r := NewWithRegisterer(prometheus.NewRegistry())

	r.RecordObservations("kafka", 25)
	r.RecordObservations("kafka", 5)
	r.RecordExamples(6)
	r.RecordError("drain")

	assert.Equal(t, 30.0, testutil.ToFloat64(r.observations.WithLabelValues("kafka")))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.examples))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("drain")))
}
