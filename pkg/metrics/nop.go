package metrics

import "FinTrain/internal/domain/models"

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordObservations(string, int)          {}
func (Nop) RecordExamples(int)                      {}
func (Nop) RecordEpoch(string, models.EpochMetrics) {}
func (Nop) RecordTrainDuration(string, float64)     {}
func (Nop) RecordPrediction(float64)                {}
func (Nop) RecordTickPublished(string)              {}
func (Nop) RecordLastPrice(string, float64)         {}
func (Nop) RecordError(string)                      {}
