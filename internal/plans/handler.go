package plans

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"rtplan-service/internal/platform/metrics"
	"rtplan-service/internal/tagtree"

	"github.com/go-chi/chi/v5"
)

const sheetContentType = "text/plain; charset=utf-8"

// DefaultMaxPlanBytes bounds the size of an uploaded record.
const DefaultMaxPlanBytes int64 = 32 << 20

// Handler exposes plan HTTP endpoints using go-chi.
type Handler struct {
	svc      *Service
	log      *slog.Logger
	metrics  *metrics.Metrics
	maxBytes int64
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests). Uploads larger
// than maxBytes are rejected; if maxBytes <= 0, DefaultMaxPlanBytes is used.
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics, maxBytes int64) *Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPlanBytes
	}
	return &Handler{svc: svc, log: log, metrics: m, maxBytes: maxBytes}
}

// Routes mounts the plan endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/plans", func(r chi.Router) {
		r.Post("/", h.CreatePlan)
		r.Get("/", h.ListPlans)
		r.Route("/{plan_id}", func(r chi.Router) {
			r.Get("/", h.GetPlan)
			r.Delete("/", h.DeletePlan)
			r.Get("/beams/{beam}/control-points/{cp}/sheet.dat", h.GetSheet)
		})
	})
}

type createResponse struct {
	PlanID   PlanID          `json:"plan_id"`
	Complete bool            `json:"complete"`
	Warnings []WarningRecord `json:"warnings"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreatePlan handles POST /plans.
// Body: a dataset in the DICOM JSON model.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	ds, err := tagtree.DecodeJSON(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Info("plan body too large", slog.Int64("limit", tooLarge.Limit))
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "plan exceeds size limit"})
			return
		}
		h.log.Debug("invalid plan body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	if ds.Len() == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "record has no elements"})
		return
	}

	p, err := h.svc.Ingest(r.Context(), ds, r.Header.Get("X-Plan-Source"))
	if err != nil {
		if errors.Is(err, ErrDecodeFailed) {
			h.log.Info("plan rejected", slog.String("error", err.Error()))
			if h.metrics != nil {
				h.metrics.IncDecodeFailures()
			}
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		h.log.Error("store plan failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	for _, wr := range p.Warnings {
		h.log.Warn("plan decode warning",
			slog.String("plan_id", string(p.ID)),
			slog.Int("beam", wr.Beam),
			slog.Int("control_point", wr.ControlPoint),
			slog.String("code", wr.Code),
			slog.String("error", wr.Message))
		if h.metrics != nil {
			h.metrics.IncDecodeWarning(wr.Code)
		}
	}
	if h.metrics != nil {
		h.metrics.IncPlansDecoded()
	}
	h.log.Info("plan stored",
		slog.String("plan_id", string(p.ID)),
		slog.Int("beams", len(p.Plan.Beams)),
		slog.Int("warnings", len(p.Warnings)))

	warnings := p.Warnings
	if warnings == nil {
		warnings = []WarningRecord{}
	}
	writeJSON(w, http.StatusCreated, createResponse{PlanID: p.ID, Complete: p.Complete(), Warnings: warnings})
}

// ListPlans handles GET /plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("list plans failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summaries)
}

// GetPlan handles GET /plans/{plan_id}.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id := PlanID(chi.URLParam(r, "plan_id"))
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeletePlan handles DELETE /plans/{plan_id}.
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id := PlanID(chi.URLParam(r, "plan_id"))
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.writeLookupError(w, id, err)
		return
	}
	h.log.Info("plan deleted", slog.String("plan_id", string(id)))
	w.WriteHeader(http.StatusNoContent)
}

// GetSheet handles GET /plans/{plan_id}/beams/{beam}/control-points/{cp}/sheet.dat.
// With ?centre=true the leaf banks are centred on the open aperture.
func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	id := PlanID(chi.URLParam(r, "plan_id"))
	beam, err := strconv.Atoi(chi.URLParam(r, "beam"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "beam must be an integer"})
		return
	}
	cp, err := strconv.Atoi(chi.URLParam(r, "cp"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "control point must be an integer"})
		return
	}
	centre := false
	if v := r.URL.Query().Get("centre"); v != "" {
		if centre, err = strconv.ParseBool(v); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "centre must be a boolean"})
			return
		}
	}

	sheet, err := h.svc.ControlPointSheet(r.Context(), id, beam, cp, centre)
	if err != nil {
		if errors.Is(err, ErrIncompleteFrame) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		h.writeLookupError(w, id, err)
		return
	}

	w.Header().Set("Content-Type", sheetContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+SheetFileName(string(id), beam, cp)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(sheet))
}

func (h *Handler) writeLookupError(w http.ResponseWriter, id PlanID, err error) {
	switch {
	case errors.Is(err, ErrPlanNotFound), errors.Is(err, ErrBeamNotFound), errors.Is(err, ErrControlPointNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		h.log.Error("plan lookup failed", slog.String("plan_id", string(id)), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
