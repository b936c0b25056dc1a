package api

import (
	"errors"
	"net/http"

	models "FinTrain/internal/domain/models"
	"FinTrain/internal/service/ratelimit"
	"FinTrain/internal/services/model"
	"FinTrain/internal/usecase"
	xhttp "FinTrain/pkg/http"
	xlogger "FinTrain/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ModelEchoHandler serves predictions and model management over Echo.
type ModelEchoHandler struct {
	logger  *xlogger.Logger
	inf     *usecase.Inference
	limiter *ratelimit.Limiter
}

// NewModelEchoHandler builds the handler. A nil limiter disables rate limiting.
func NewModelEchoHandler(logger *xlogger.Logger, inf *usecase.Inference, limiter *ratelimit.Limiter) *ModelEchoHandler {
	return &ModelEchoHandler{logger: logger, inf: inf, limiter: limiter}
}

func (h *ModelEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.POST("/predict", h.Predict, h.rateLimit)
	g.GET("/model", h.Model)
	g.POST("/model/reload", h.Reload)
}

func (h *ModelEchoHandler) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
			return xhttp.TooManyRequestsResponse(c)
		}
		return next(c)
	}
}

func (h *ModelEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	labels, err := h.inf.Predict(c.Request().Context(), req.Features)
	if errors.Is(err, model.ErrShapeMismatch) {
		appErr := xhttp.NewAppError("ERR_SHAPE_MISMATCH", "features", err.Error(), http.StatusBadRequest).
			WithParam("want", h.inf.Info().InputSize).
			WithError(err)
		return xhttp.AppErrorResponse(c, appErr)
	}
	if err != nil {
		h.logger.Error("predict usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, &models.PredictResponse{Labels: labels})
}

func (h *ModelEchoHandler) Model(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.inf.Info())
}

func (h *ModelEchoHandler) Reload(c echo.Context) error {
	if err := h.inf.Reload(c.Request().Context()); err != nil {
		h.logger.Error("model reload failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("model reload failed").WithError(err))
	}
	h.logger.Info("model reloaded", xlogger.Bool("fresh", h.inf.Info().Fresh))
	return xhttp.SuccessResponse(c, h.inf.Info())
}

func (h *ModelEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, "ok")
}
