package usecase

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	"FinTrain/internal/services/dataset"
	"FinTrain/internal/services/model"
	applogger "FinTrain/pkg/logger"
)

// RetrainReport summarises one retraining run.
type RetrainReport struct {
	RunID        string
	Symbol       string
	Observations int
	Examples     int
	TrainSize    int
	ValSize      int
	FreshModel   bool
	Notified     bool
	Snapshot     string
	Epochs       []models.EpochMetrics
}

// RetrainJob is the offline job: drain prices, window, split, load, train, save.
type RetrainJob struct {
	source     domrepo.ObservationSource
	store      domrepo.SnapshotStore
	predictor  model.Predictor
	trainer    *Trainer
	windower   *dataset.Windower
	rng        *rand.Rand
	metrics    domrepo.Metrics
	notifier   domrepo.ReloadNotifier
	logger     *applogger.Logger
	symbol     string
	sourceName string
	splitRatio float64
	epochs     int
}

// RetrainParams carries the job's scalar settings.
type RetrainParams struct {
	Symbol     string
	SourceName string
	SplitRatio float64
	Epochs     int
}

// NewRetrainJob wires a job. rng drives the train/validation shuffle.
func NewRetrainJob(
	source domrepo.ObservationSource,
	store domrepo.SnapshotStore,
	predictor model.Predictor,
	trainer *Trainer,
	windower *dataset.Windower,
	rng *rand.Rand,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	params RetrainParams,
) *RetrainJob {
	if params.SplitRatio == 0 {
		params.SplitRatio = 0.8
	}
	if params.Epochs == 0 {
		params.Epochs = 5
	}
	return &RetrainJob{
		source:     source,
		store:      store,
		predictor:  predictor,
		trainer:    trainer,
		windower:   windower,
		rng:        rng,
		metrics:    metrics,
		logger:     l,
		symbol:     params.Symbol,
		sourceName: params.SourceName,
		splitRatio: params.SplitRatio,
		epochs:     params.Epochs,
	}
}

// WithNotifier makes the job tell the inference server to reload after each save.
func (j *RetrainJob) WithNotifier(n domrepo.ReloadNotifier) *RetrainJob {
	j.notifier = n
	return j
}

// Run executes the job once. The snapshot is written after the last epoch
// whether or not the loss improved; a save failure is returned.
func (j *RetrainJob) Run(ctx context.Context) (*RetrainReport, error) {
	report := &RetrainReport{RunID: uuid.NewString(), Symbol: j.symbol, Snapshot: j.store.Location()}
	log := j.logger.With(applogger.String("run_id", report.RunID))

	fresh, err := LoadPredictor(ctx, j.store, j.predictor)
	if err != nil {
		j.metrics.RecordError("snapshot_load")
		return report, err
	}
	report.FreshModel = fresh
	if fresh {
		log.Info("no model snapshot found, starting from fresh parameters", applogger.String("snapshot", j.store.Location()))
	} else {
		log.Info("model snapshot loaded", applogger.String("snapshot", j.store.Location()))
	}

	prices, err := j.source.Drain(ctx)
	if err != nil {
		j.metrics.RecordError("drain")
		return report, fmt.Errorf("drain %s: %w", j.sourceName, err)
	}
	report.Observations = len(prices)
	j.metrics.RecordObservations(j.sourceName, len(prices))

	examples := j.windower.Process(prices)
	report.Examples = len(examples)
	j.metrics.RecordExamples(len(examples))
	log.Info(fmt.Sprintf("processed %d records in the topic", len(examples)),
		applogger.String("symbol", j.symbol),
		applogger.Int("observations", len(prices)),
		applogger.Int("examples", len(examples)),
	)

	train, val, err := dataset.Split(examples, j.splitRatio, j.rng)
	if err != nil {
		return report, err
	}
	report.TrainSize, report.ValSize = len(train), len(val)

	report.Epochs, err = j.trainer.Train(ctx, train, val, j.epochs)
	if err != nil {
		j.metrics.RecordError("train")
		return report, fmt.Errorf("train %s: %w", j.symbol, err)
	}

	if err := SavePredictor(ctx, j.store, j.predictor); err != nil {
		j.metrics.RecordError("snapshot_save")
		return report, err
	}
	log.Info("model state dict updated.", applogger.String("snapshot", j.store.Location()))

	if j.notifier != nil {
		if err := j.notifier.NotifyReload(ctx); err != nil {
			j.metrics.RecordError("notify_reload")
			log.Warn("inference reload notification failed", applogger.Error(err))
		} else {
			report.Notified = true
		}
	}
	return report, nil
}
