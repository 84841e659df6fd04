package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/morpheus-lite/soar/internal/alert"
	"github.com/morpheus-lite/soar/internal/dryrun"
	"github.com/morpheus-lite/soar/internal/engine"
	"github.com/morpheus-lite/soar/internal/metrics"
	"github.com/morpheus-lite/soar/internal/playbook"
)

const maxBatchSize = 100

// Handler holds all HTTP handler dependencies.
type Handler struct {
	eng    *engine.Engine
	loader *playbook.Loader
	store  *playbook.MemoryStore
	runner *dryrun.Runner
}

// New creates the router and registers all routes.
func New(eng *engine.Engine, loader *playbook.Loader, store *playbook.MemoryStore, runner *dryrun.Runner) http.Handler {
	h := &Handler{eng: eng, loader: loader, store: store, runner: runner}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/alerts", h.evaluateAlerts)
		r.Post("/alerts/batch", h.ingestBatch)
		r.Get("/playbook", h.getPlaybook)
		r.Put("/playbook", h.savePlaybook)
		r.Post("/playbook/reload", h.reloadPlaybook)
		r.Post("/playbook/dryrun", h.dryRun)
		r.Post("/playbooks", h.storePlaybook)
		r.Get("/playbooks/current", h.currentPlaybook)
	})

	return r
}

// POST /v1/alerts: synchronous evaluation of an ordered alert list.
// Each entry reports its id, the matched rule names, and the actions fired.
func (h *Handler) evaluateAlerts(w http.ResponseWriter, r *http.Request) {
	var alerts []alert.Alert
	if err := json.NewDecoder(r.Body).Decode(&alerts); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(alerts) == 0 {
		writeError(w, http.StatusBadRequest, "at least one alert is required")
		return
	}
	if len(alerts) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(alerts), maxBatchSize))
		return
	}

	results := make([]*engine.AlertResult, 0, len(alerts))
	for _, a := range alerts {
		if a.ID() == "" {
			a["id"] = uuid.New().String()
		}
		res, err := h.eng.ProcessSync(r.Context(), a)
		if err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		results = append(results, res)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// POST /v1/alerts/batch: async ingestion (up to 100 alerts).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var alerts []alert.Alert
	if err := json.NewDecoder(r.Body).Decode(&alerts); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(alerts) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one alert")
		return
	}
	if len(alerts) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(alerts), maxBatchSize))
		return
	}

	jobID := uuid.New().String()
	queued := 0
	for _, a := range alerts {
		if a.ID() == "" {
			a["id"] = uuid.New().String()
		}
		if h.eng.ProcessAsync(a) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":   jobID,
		"total":    len(alerts),
		"queued":   queued,
		"rejected": len(alerts) - queued,
	})
}

// GET /v1/playbook: raw YAML plus parsed form.
func (h *Handler) getPlaybook(w http.ResponseWriter, r *http.Request) {
	snap := h.loader.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"yaml": snap.Raw,
		"json": snap.Doc,
	})
}

// PUT /v1/playbook: validate-then-save the playbook YAML.
func (h *Handler) savePlaybook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		YAML string `json:"yaml"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.YAML == "" {
		writeError(w, http.StatusBadRequest, "YAML content is required")
		return
	}
	snap, err := h.loader.Save(req.YAML)
	if err != nil {
		if errors.Is(err, playbook.ErrInvalidDocument) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Playbook saved successfully",
		"rules_count": len(snap.Rules),
	})
}

// POST /v1/playbook/reload: force reload from disk.
func (h *Handler) reloadPlaybook(w http.ResponseWriter, r *http.Request) {
	snap, err := h.loader.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	metrics.PlaybookReloads.Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reloaded":    true,
		"rules_count": len(snap.Rules),
	})
}

// POST /v1/playbook/dryrun: simulate a playbook against mock enrichment.
func (h *Handler) dryRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Config dryrun.Request `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	writeJSON(w, http.StatusOK, h.runner.Run(r.Context(), req.Config))
}

// POST /v1/playbooks: store an editor playbook document in memory.
func (h *Handler) storePlaybook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Playbook map[string]interface{} `json:"playbook"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(req.Playbook) == 0 {
		writeError(w, http.StatusBadRequest, "playbook data is required")
		return
	}
	id := h.store.Save(req.Playbook)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"message": "Playbook saved successfully",
	})
}

// GET /v1/playbooks/current: most recently stored editor playbook.
func (h *Handler) currentPlaybook(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.store.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no playbook found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"playbook": doc})
}

// GET /healthz: liveness probe.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz: 503 if the alert queue is more than 80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.eng.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "ready",
		"queue_utilization": util,
	})
}
