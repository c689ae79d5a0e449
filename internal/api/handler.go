package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"intel_service/internal/core"
	"intel_service/internal/domain/model"
	"intel_service/internal/domain/repository"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// StationFinder looks up police stations inside a bounding box.
type StationFinder interface {
	PoliceStations(ctx context.Context, bbox model.Bounds) ([]model.OSMElement, error)
}

type Handler struct {
	engine    *core.Engine
	scheduler *core.Scheduler
	stations  StationFinder
	log       *slog.Logger
	runCtx    context.Context
}

// NewHandler wires the handlers. runCtx is the context the scheduler is
// restarted with after a city switch; scheduler and stations may be nil.
func NewHandler(runCtx context.Context, engine *core.Engine, scheduler *core.Scheduler, stations StationFinder, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if runCtx == nil {
		runCtx = context.Background()
	}
	return &Handler{engine: engine, scheduler: scheduler, stations: stations, log: log, runCtx: runCtx}
}

type ModelsResponse struct {
	Models   []model.ModelInfo `json:"models"`
	Selected model.ModelID     `json:"selected"`
}

type BatchRequest struct {
	Cities []string `json:"cities"`
	Hours  []int    `json:"hours"`
}

type SelectModelRequest struct {
	Model string `json:"model"`
}

type SelectCityRequest struct {
	City string `json:"city"`
}

type InvalidateRequest struct {
	Operation string `json:"operation"`
	Params    []any  `json:"params"`
}

type RaiseAlertRequest struct {
	City  string `json:"city"`
	Hour  int    `json:"hour"`
	Model string `json:"model"`
}

type CityResponse struct {
	City   string `json:"city"`
	Active bool   `json:"active"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		city *model.UnknownCityError
		mdl  *model.UnknownModelError
		hour *model.InvalidHourError
		rate *model.InvalidRateError
	)
	switch {
	case errors.As(err, &city), errors.As(err, &mdl):
		return http.StatusNotFound
	case errors.As(err, &hour), errors.As(err, &rate):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoActiveCity):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeError(w, status, err.Error())
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func queryHour(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("hour")
	if raw == "" {
		return 0, errors.New("hour is required")
	}
	hour, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("hour must be an integer: %q", raw)
	}
	return hour, nil
}

// modelParam falls back to the selected model.
func (h *Handler) modelParam(r *http.Request) string {
	if m := r.URL.Query().Get("model"); m != "" {
		return m
	}
	return string(h.engine.Predictions().SelectedModel())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	city, active := h.engine.ActiveCity()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "city": city, "active": active})
}

func (h *Handler) GetModels(w http.ResponseWriter, r *http.Request) {
	preds := h.engine.Predictions()
	models := preds.Registry().ListModels()
	resp := ModelsResponse{Models: make([]model.ModelInfo, len(models)), Selected: preds.SelectedModel()}
	for i, m := range models {
		resp.Models[i] = m.Info()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SelectModel(w http.ResponseWriter, r *http.Request) {
	var req SelectModelRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.engine.Predictions().SelectModel(req.Model); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.ModelID{"selected": h.engine.Predictions().SelectedModel()})
}

func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	hour, err := queryHour(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.engine.Predict(r.URL.Query().Get("city"), hour, h.modelParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CompareModels(w http.ResponseWriter, r *http.Request) {
	hour, err := queryHour(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	preds, err := h.engine.CompareModels(r.URL.Query().Get("city"), hour)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *Handler) BatchPredict(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Cities) == 0 || len(req.Hours) == 0 {
		writeError(w, http.StatusBadRequest, "cities and hours are required")
		return
	}
	preds, err := h.engine.BatchPredict(req.Cities, req.Hours)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *Handler) CityRankings(w http.ResponseWriter, r *http.Request) {
	hour, err := queryHour(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	preds, err := h.engine.CityRankings(hour, h.modelParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *Handler) HourlyPatterns(w http.ResponseWriter, r *http.Request) {
	preds, err := h.engine.HourlyPatterns(r.URL.Query().Get("city"), h.modelParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, preds)
}

func (h *Handler) HourlyProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.engine.Predictions().HourlyProfile(r.URL.Query().Get("city"), h.modelParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.engine.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Operation == "" {
		writeError(w, http.StatusBadRequest, "operation is required")
		return
	}
	removed := h.engine.ClearCacheEntry(req.Operation, req.Params...)
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	switch status := r.URL.Query().Get("status"); status {
	case "", "active":
		writeJSON(w, http.StatusOK, h.engine.ListActive())
	case "pending":
		writeJSON(w, http.StatusOK, h.engine.ListPending())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", status))
	}
}

// RaiseAlert raises a prediction alert; below HIGH nothing is created.
func (h *Handler) RaiseAlert(w http.ResponseWriter, r *http.Request) {
	var req RaiseAlertRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Model == "" {
		req.Model = string(h.engine.Predictions().SelectedModel())
	}
	p, err := h.engine.Predict(req.City, req.Hour, req.Model)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a := h.engine.RaiseAlert(p)
	if a == nil {
		writeJSON(w, http.StatusOK, map[string]any{"alert": nil, "risk_level": p.RiskLevel})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"alert": a})
}

func (h *Handler) ScanAlerts(w http.ResponseWriter, r *http.Request) {
	n, err := h.engine.ScanAlerts()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"alerts": n})
}

func (h *Handler) DispatchAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	writeJSON(w, http.StatusOK, map[string]bool{"dispatched": h.engine.MarkDispatched(id)})
}

func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	resolved, ok := h.engine.ResolveAlert(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("alert %q is not active", id))
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

func (h *Handler) GetUnits(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	if city == "" {
		active, ok := h.engine.ActiveCity()
		if !ok {
			h.fail(w, r, model.ErrNoActiveCity)
			return
		}
		city = active
	}
	units, err := h.engine.GetUnits(city)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, units)
}

func (h *Handler) GetCity(w http.ResponseWriter, r *http.Request) {
	city, active := h.engine.ActiveCity()
	writeJSON(w, http.StatusOK, CityResponse{City: city, Active: active})
}

// SelectCity pauses the tick loop while the session is swapped.
func (h *Handler) SelectCity(w http.ResponseWriter, r *http.Request) {
	var req SelectCityRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resume := h.scheduler != nil && h.scheduler.Running()
	if resume {
		h.scheduler.Stop()
		defer h.scheduler.Start(h.runCtx)
	}
	if err := h.engine.SelectCity(r.Context(), req.City); err != nil {
		h.fail(w, r, err)
		return
	}
	h.log.Info("city selected", "city", req.City)
	writeJSON(w, http.StatusOK, CityResponse{City: req.City, Active: true})
}

func (h *Handler) PoliceStations(w http.ResponseWriter, r *http.Request) {
	if h.stations == nil {
		writeError(w, http.StatusNotImplemented, "overpass is not configured")
		return
	}
	bbox, err := repository.ParseBBox(r.URL.Query().Get("bbox"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid bbox: %v", err))
		return
	}
	elements, err := h.stations.PoliceStations(r.Context(), bbox)
	if err != nil {
		h.log.Warn("police station lookup failed", "bbox", bbox.String(), "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, elements)
}
