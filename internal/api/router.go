package api

import (
	"io"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// RouteWrapper instruments one route; metrics.Metrics.WrapHandler fits.
type RouteWrapper func(route string, next http.Handler) http.Handler

// NewRouter registers every route. metricsHandler and wrap may be nil.
func NewRouter(h *Handler, metricsHandler http.Handler, wrap RouteWrapper, accessLog io.Writer) http.Handler {
	if wrap == nil {
		wrap = func(_ string, next http.Handler) http.Handler { return next }
	}
	r := mux.NewRouter()
	handle := func(method, path string, fn http.HandlerFunc) {
		r.Handle(path, wrap(path, fn)).Methods(method)
	}

	handle(http.MethodGet, "/health", h.Health)

	api := "/api"
	handle(http.MethodGet, api+"/models", h.GetModels)
	handle(http.MethodPut, api+"/model", h.SelectModel)
	handle(http.MethodGet, api+"/predict", h.Predict)
	handle(http.MethodGet, api+"/compare", h.CompareModels)
	handle(http.MethodPost, api+"/batch", h.BatchPredict)
	handle(http.MethodGet, api+"/rankings", h.CityRankings)
	handle(http.MethodGet, api+"/patterns", h.HourlyPatterns)
	handle(http.MethodGet, api+"/profile", h.HourlyProfile)
	handle(http.MethodDelete, api+"/cache", h.ClearCache)
	handle(http.MethodPost, api+"/cache/invalidate", h.InvalidateCache)
	handle(http.MethodGet, api+"/alerts", h.ListAlerts)
	handle(http.MethodPost, api+"/alerts", h.RaiseAlert)
	handle(http.MethodPost, api+"/alerts/scan", h.ScanAlerts)
	handle(http.MethodPost, api+"/alerts/{id}/dispatch", h.DispatchAlert)
	handle(http.MethodPost, api+"/alerts/{id}/resolve", h.ResolveAlert)
	handle(http.MethodGet, api+"/units", h.GetUnits)
	handle(http.MethodGet, api+"/city", h.GetCity)
	handle(http.MethodPut, api+"/city", h.SelectCity)
	handle(http.MethodGet, api+"/stations", h.PoliceStations)

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	var out http.Handler = r
	out = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(out)
	if accessLog != nil {
		out = handlers.CombinedLoggingHandler(accessLog, out)
	}
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(out)
}
