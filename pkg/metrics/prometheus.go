package metrics

import (
	"FinTrain/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	observations  *prometheus.CounterVec
	examples      prometheus.Gauge
	trainLoss     *prometheus.GaugeVec
	valLoss       *prometheus.GaugeVec
	accuracy      *prometheus.GaugeVec
	epochs        *prometheus.CounterVec
	trainDuration *prometheus.HistogramVec
	predictions   prometheus.Histogram
	ticks         *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	errorsTotal   *prometheus.CounterVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg (tests pass a fresh prometheus.NewRegistry()).
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		observations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrain_observations_total",
				Help: "Total number of price observations drained",
			},
			[]string{"source"},
		),
		examples: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "fintrain_examples",
				Help: "Number of windowed examples in the last run",
			},
		),
		trainLoss: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_train_loss",
				Help: "Training loss of the last completed epoch",
			},
			[]string{"symbol"},
		),
		valLoss: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_val_loss",
				Help: "Validation loss of the last completed epoch",
			},
			[]string{"symbol"},
		),
		accuracy: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_directional_accuracy",
				Help: "Validation directional accuracy of the last completed epoch",
			},
			[]string{"symbol"},
		),
		epochs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrain_epochs_total",
				Help: "Total number of completed epochs",
			},
			[]string{"symbol"},
		),
		trainDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrain_train_duration_seconds",
				Help:    "Duration of a full training run",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"symbol"},
		),
		predictions: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fintrain_predict_duration_seconds",
				Help:    "Duration of single predictions",
				Buckets: prometheus.DefBuckets,
			},
		),
		ticks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrain_ticks_published_total",
				Help: "Total number of ticks published by the collector",
			},
			[]string{"symbol"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrain_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrain_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordObservations(source string, n int) {
	r.observations.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) RecordExamples(n int) {
	r.examples.Set(float64(n))
}

// RecordEpoch publishes the latest epoch's losses and accuracy.
func (r *Recorder) RecordEpoch(symbol string, m models.EpochMetrics) {
	r.trainLoss.WithLabelValues(symbol).Set(m.TrainLoss)
	r.valLoss.WithLabelValues(symbol).Set(m.ValLoss)
	r.accuracy.WithLabelValues(symbol).Set(m.Accuracy)
	r.epochs.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordTrainDuration(symbol string, seconds float64) {
	r.trainDuration.WithLabelValues(symbol).Observe(seconds)
}

func (r *Recorder) RecordPrediction(seconds float64) {
	r.predictions.Observe(seconds)
}

func (r *Recorder) RecordTickPublished(symbol string) {
	r.ticks.WithLabelValues(symbol).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
