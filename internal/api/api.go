// Package api exposes the command surface and the liveness probe over HTTP,
// for the conversational front-end and process supervisors.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/erfnzdeh/edusync/internal/errs"
	"github.com/erfnzdeh/edusync/internal/model"
	"github.com/erfnzdeh/edusync/internal/service"
)

// Commands is the upward-facing command surface, implemented by service.App.
type Commands interface {
	StartAuth(ctx context.Context, tenantID string) (string, error)
	CompleteAuth(ctx context.Context, tenantID, code string) error
	ConnectSource(ctx context.Context, tenantID, sessionID string) error
	Disconnect(ctx context.Context, tenantID string, target service.Target) error
	SyncNow(ctx context.Context, tenantID string) (model.SyncReport, error)
	SetAutoSync(ctx context.Context, tenantID string, enabled bool) error
	DeleteTenant(ctx context.Context, tenantID string) error
}

// API serves the HTTP command surface.
type API struct {
	app Commands
	log *zap.Logger
}

// New constructs the HTTP API.
func New(app Commands, log *zap.Logger) *API {
	return &API{app: app, log: log}
}

// Handler returns the routed handler. The health probe is independent of
// sync state and always answers OK.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("POST /tenants/{id}/auth/start", a.handleStartAuth)
	mux.HandleFunc("POST /tenants/{id}/auth/complete", a.handleCompleteAuth)
	mux.HandleFunc("POST /tenants/{id}/source", a.handleConnectSource)
	mux.HandleFunc("DELETE /tenants/{id}/connections/{target}", a.handleDisconnect)
	mux.HandleFunc("POST /tenants/{id}/sync", a.handleSyncNow)
	mux.HandleFunc("PUT /tenants/{id}/autosync", a.handleSetAutoSync)
	mux.HandleFunc("DELETE /tenants/{id}", a.handleDeleteTenant)
	return mux
}

func (a *API) handleStartAuth(w http.ResponseWriter, r *http.Request) {
	url, err := a.app.StartAuth(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, map[string]string{"auth_url": url})
}

func (a *API) handleCompleteAuth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}
	if err := a.app.CompleteAuth(r.Context(), r.PathValue("id"), body.Code); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleConnectSource(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if err := a.app.ConnectSource(r.Context(), r.PathValue("id"), body.SessionID); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	target := service.Target(r.PathValue("target"))
	if target != service.TargetCalendar && target != service.TargetSource {
		http.Error(w, "unknown target", http.StatusBadRequest)
		return
	}
	if err := a.app.Disconnect(r.Context(), r.PathValue("id"), target); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSyncNow(w http.ResponseWriter, r *http.Request) {
	rep, err := a.app.SyncNow(r.Context(), r.PathValue("id"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSON(w, syncReportBody(rep))
}

func (a *API) handleSetAutoSync(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body", http.StatusBadRequest)
		return
	}
	if err := a.app.SetAutoSync(r.Context(), r.PathValue("id"), body.Enabled); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleDeleteTenant(w http.ResponseWriter, r *http.Request) {
	if err := a.app.DeleteTenant(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncReportBody shapes the report for JSON; failure reasons become strings.
func syncReportBody(rep model.SyncReport) map[string]any {
	failures := make([]map[string]string, 0, len(rep.Failures))
	for _, f := range rep.Failures {
		reason := ""
		if f.Err != nil {
			reason = f.Err.Error()
		}
		failures = append(failures, map[string]string{
			"title":  f.Title,
			"link":   f.Link,
			"reason": reason,
		})
	}
	return map[string]any{
		"created":   rep.Created,
		"updated":   rep.Updated,
		"unchanged": rep.Unchanged,
		"failed":    rep.Failed,
		"failures":  failures,
	}
}

// writeError maps the error taxonomy to HTTP statuses so the front-end can
// pick the right reconnection flow.
func (a *API) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(err, errs.ErrSource):
		status = http.StatusBadGateway
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	}
	a.log.Warn("request failed", zap.Int("status", status), zap.Error(err))
	http.Error(w, err.Error(), status)
}

func (a *API) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log.Error("encode response", zap.Error(err))
	}
}
