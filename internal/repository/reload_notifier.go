package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	domrepo "FinTrain/internal/domain/repository"
	xhttp "FinTrain/pkg/http"
)

const reloadPath = "/api/model/reload"

// HTTPReloadNotifier asks a running inference server to re-read its snapshot.
type HTTPReloadNotifier struct {
	client  *xhttp.Client
	baseURL string
}

var _ domrepo.ReloadNotifier = (*HTTPReloadNotifier)(nil)

// NewHTTPReloadNotifier targets the server at baseURL (e.g. http://localhost:8080).
func NewHTTPReloadNotifier(baseURL string, timeout time.Duration) *HTTPReloadNotifier {
	return &HTTPReloadNotifier{
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// NotifyReload posts to the reload endpoint and checks the enveloped status.
func (n *HTTPReloadNotifier) NotifyReload(ctx context.Context) error {
	var resp xhttp.APIResponse
	err := n.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    n.baseURL + reloadPath,
	}, &resp)
	if err != nil {
		return fmt.Errorf("notify reload %s: %w", n.baseURL, err)
	}
	if resp.Status != 200 {
		return fmt.Errorf("notify reload %s: status %d %s", n.baseURL, resp.Status, resp.Message)
	}
	return nil
}
