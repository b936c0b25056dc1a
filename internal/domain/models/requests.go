package models

// Requests for inference HTTP endpoints.

type PredictRequest struct {
	Features []float64 `json:"features" validate:"required,min=1"`
}

type PredictResponse struct {
	Labels []float64 `json:"labels"`
}
