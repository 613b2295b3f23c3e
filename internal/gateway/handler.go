// Package gateway is the browser-facing edge of the platform. It fronts
// the ordering service and the external menu service behind one origin
// so the single-page app talks to a single host.
package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

type Handler struct {
	ordersProxy *ServiceProxy
	menuProxy   *ServiceProxy
	logger      *slog.Logger
}

func NewHandler(ordersProxy, menuProxy *ServiceProxy, logger *slog.Logger) *Handler {
	return &Handler{
		ordersProxy: ordersProxy,
		menuProxy:   menuProxy,
		logger:      logger,
	}
}

// HandleOrders forwards /api/orders* and /api/restaurant* to the
// ordering service, dropping the /api prefix.
func (h *Handler) HandleOrders(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	h.proxyRequest(w, r, h.ordersProxy, path)
}

// HandleMenu forwards menu browsing and CRUD to the external menu
// service, which owns that data entirely.
func (h *Handler) HandleMenu(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	h.proxyRequest(w, r, h.menuProxy, path)
}

// response headers passed back to the browser; X-New-Token carries the
// auth middleware's near-expiry reissue.
var returnedHeaders = []string{"Content-Type", "Content-Disposition", "X-New-Token"}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	for _, name := range returnedHeaders {
		if v := resp.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
