package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedTick marks a topic message without a numeric price.
var ErrMalformedTick = errors.New("malformed tick")

// Tick is one price message on a currency-pair topic.
// Only Price is required; producers in this repo always fill all three.
type Tick struct {
	Symbol    string   `json:"symbol,omitempty"`
	Price     *float64 `json:"price"`
	Timestamp int64    `json:"t,omitempty"`
}

// NewTick builds a tick with a price set.
func NewTick(symbol string, price float64, ts int64) *Tick {
	return &Tick{Symbol: symbol, Price: &price, Timestamp: ts}
}

// DecodeTick parses a topic message. Invalid JSON, a missing price or a
// non-numeric price all yield an error wrapping ErrMalformedTick.
func DecodeTick(b []byte) (*Tick, error) {
	var t Tick
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTick, err)
	}
	if t.Price == nil {
		return nil, fmt.Errorf("%w: missing price", ErrMalformedTick)
	}
	return &t, nil
}

// ModelInfo describes the predictor served by the inference API.
type ModelInfo struct {
	Kind       string `json:"kind"`
	Symbol     string `json:"symbol"`
	InputSize  int    `json:"input_size"`
	OutputSize int    `json:"output_size"`
	Fresh      bool   `json:"fresh"`
}
