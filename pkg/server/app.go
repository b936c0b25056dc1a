package server

import (
	"context"
	"fmt"
	"time"

	mid "FinTrain/internal/middleware"
	"FinTrain/internal/usecase"
	"FinTrain/pkg/config"
	xhttp "FinTrain/pkg/http"
	applogger "FinTrain/pkg/logger"
)

// App encapsulates the lifecycle of one binary: a training run, the
// inference server or the tick collector.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	job        *usecase.RetrainJob
	inference  *usecase.Inference
	httpServer *xhttp.Server
	collector  *usecase.TickCollector
	pipeline   *mid.RealtimePipeline
}

// NewTrainingApp creates the offline retraining application.
func NewTrainingApp(cfg *config.Config, l *applogger.Logger, job *usecase.RetrainJob) *App {
	return &App{cfg: cfg, l: l, job: job}
}

// NewServingApp creates the inference application.
func NewServingApp(cfg *config.Config, l *applogger.Logger, inf *usecase.Inference, srv *xhttp.Server) *App {
	return &App{cfg: cfg, l: l, inference: inf, httpServer: srv}
}

// NewCollectorApp creates the tick collector application.
func NewCollectorApp(cfg *config.Config, l *applogger.Logger, collector *usecase.TickCollector, pipeline *mid.RealtimePipeline) *App {
	return &App{cfg: cfg, l: l, collector: collector, pipeline: pipeline}
}

// RunTraining executes one retraining job and logs its summary.
func (a *App) RunTraining(ctx context.Context) (*usecase.RetrainReport, error) {
	if a.job == nil {
		return nil, fmt.Errorf("training job not configured")
	}
	start := time.Now()
	a.l.Info("retraining started",
		applogger.String("symbol", a.cfg.Symbol),
		applogger.String("source", a.cfg.Source.Type),
		applogger.String("model", a.cfg.Model.Kind),
		applogger.Int("epochs", a.cfg.Training.Epochs),
	)

	report, err := a.job.Run(ctx)
	if err != nil {
		return report, err
	}

	fields := []applogger.Field{
		applogger.String("run_id", report.RunID),
		applogger.Int("observations", report.Observations),
		applogger.Int("examples", report.Examples),
		applogger.Int("train", report.TrainSize),
		applogger.Int("val", report.ValSize),
		applogger.Duration("elapsed", time.Since(start)),
	}
	if n := len(report.Epochs); n > 0 {
		last := report.Epochs[n-1]
		fields = append(fields,
			applogger.Float64("train_loss", last.TrainLoss),
			applogger.Float64("val_loss", last.ValLoss),
			applogger.Float64("accuracy", last.Accuracy),
		)
	}
	a.l.Info("retraining complete", fields...)
	return report, nil
}

// Serve loads the snapshot, starts the HTTP server and blocks until ctx ends.
func (a *App) Serve(ctx context.Context) error {
	if a.inference == nil || a.httpServer == nil {
		return fmt.Errorf("inference server not configured")
	}
	if err := a.inference.Reload(ctx); err != nil {
		return err
	}
	info := a.inference.Info()
	a.l.Info("model ready",
		applogger.String("kind", info.Kind),
		applogger.String("symbol", info.Symbol),
		applogger.Int("input_size", info.InputSize),
		applogger.Int("output_size", info.OutputSize),
		applogger.Bool("fresh", info.Fresh),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.httpServer.ShutdownTimeout())
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	return nil
}

// Collect streams market ticks into the configured sinks until ctx ends.
func (a *App) Collect(ctx context.Context) error {
	if a.collector == nil || a.pipeline == nil {
		return fmt.Errorf("collector not configured")
	}

	a.pipeline.Start(ctx)
	if err := a.collector.Start(ctx); err != nil {
		a.pipeline.Stop()
		return fmt.Errorf("collector start: %w", err)
	}
	a.l.Info("collector started", applogger.Strings("symbols", a.cfg.Finnhub.Symbols))

	<-ctx.Done()
	a.l.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.collector.Shutdown(shutdownCtx); err != nil {
		a.l.Warn("collector stop error", applogger.Error(err))
	}
	select {
	case <-a.collector.Done():
	case <-shutdownCtx.Done():
		a.l.Warn("collector did not stop in time")
	}
	a.pipeline.Stop()

	if n := a.pipeline.Buffered(); n > 0 {
		a.l.Warn("dropping buffered ticks on shutdown", applogger.Int("ticks", n))
	}
	a.l.Info("shutdown complete")
	return nil
}
