package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FinTrain/internal/repository"
	"FinTrain/internal/service/ratelimit"
	"FinTrain/internal/services/dataset"
	"FinTrain/internal/services/model"
	"FinTrain/internal/usecase"
	xlogger "FinTrain/pkg/logger"
	pkgmetrics "FinTrain/pkg/metrics"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newPredictor(t *testing.T, seed int64) model.Predictor {
	t.Helper()
	p, err := model.New(model.Spec{Kind: model.KindLinear, Inputs: 15, Outputs: 5}, dataset.NewRand(seed))
	require.NoError(t, err)
	return p
}

func newTestServer(t *testing.T, path string, limiter *ratelimit.Limiter) (*echo.Echo, *usecase.Inference) {
	t.Helper()
	inf := usecase.NewInference(newPredictor(t, 1), repository.NewFileSnapshotStore(path), pkgmetrics.Nop{}, xlogger.Nop(), "BTC-CAD")
	require.NoError(t, inf.Reload(context.Background()))

	e := echo.New()
	NewModelEchoHandler(xlogger.Nop(), inf, limiter).RegisterRoutes(e)
	return e, inf
}

func do(t *testing.T, e *echo.Echo, method, target, body string) envelope {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func features(n int) string {
	vals := make([]string, n)
	for i := range vals {
		vals[i] = "0.5"
	}
	return `{"features":[` + strings.Join(vals, ",") + `]}`
}

func TestPredict(t *testing.T) {
	e, _ := newTestServer(t, filepath.Join(t.TempDir(), "model_data"), nil)

	env := do(t, e, http.MethodPost, "/api/predict", features(15))
	assert.Equal(t, 200, env.Status)
	assert.Equal(t, "OK", env.Message)

	var data struct {
		Labels []float64 `json:"labels"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Labels, 5)
}

func TestPredict_WrongLength(t *testing.T) {
	e, _ := newTestServer(t, filepath.Join(t.TempDir(), "model_data"), nil)

	env := do(t, e, http.MethodPost, "/api/predict", features(14))
	assert.Equal(t, 400, env.Status)
	assert.Contains(t, string(env.Data), "ERR_SHAPE_MISMATCH")
}

func TestPredict_Validation(t *testing.T) {
	e, _ := newTestServer(t, filepath.Join(t.TempDir(), "model_data"), nil)

	env := do(t, e, http.MethodPost, "/api/predict", `{"features":[]}`)
	assert.Equal(t, 400, env.Status)
	assert.Contains(t, string(env.Data), "ERR_MIN")

	env = do(t, e, http.MethodPost, "/api/predict", `{}`)
	assert.Equal(t, 400, env.Status)
	assert.Contains(t, string(env.Data), "ERR_REQUIRED")
}

func TestPredict_RateLimited(t *testing.T) {
	e, _ := newTestServer(t, filepath.Join(t.TempDir(), "model_data"), ratelimit.New(1, 0))

	assert.Equal(t, 200, do(t, e, http.MethodPost, "/api/predict", features(15)).Status)
	assert.Equal(t, 429, do(t, e, http.MethodPost, "/api/predict", features(15)).Status)
	// other routes are not limited
	assert.Equal(t, 200, do(t, e, http.MethodGet, "/api/model", "").Status)
}

func TestModelInfoAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_data")
	e, _ := newTestServer(t, path, nil)

	env := do(t, e, http.MethodGet, "/api/model", "")
	require.Equal(t, 200, env.Status)
	var info struct {
		Kind       string `json:"kind"`
		InputSize  int    `json:"input_size"`
		OutputSize int    `json:"output_size"`
		Fresh      bool   `json:"fresh"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, model.KindLinear, info.Kind)
	assert.Equal(t, 15, info.InputSize)
	assert.Equal(t, 5, info.OutputSize)
	assert.True(t, info.Fresh)

	// a trainer writes a snapshot, then the server is told to reload
	require.NoError(t, usecase.SavePredictor(context.Background(), repository.NewFileSnapshotStore(path), newPredictor(t, 2)))
	env = do(t, e, http.MethodPost, "/api/model/reload", "")
	require.Equal(t, 200, env.Status)
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.False(t, info.Fresh)
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer(t, filepath.Join(t.TempDir(), "model_data"), nil)
	env := do(t, e, http.MethodGet, "/healthz", "")
	assert.Equal(t, 200, env.Status)
	assert.JSONEq(t, `"ok"`, string(env.Data))
}
