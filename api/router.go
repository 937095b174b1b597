package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/r3labs/sse/v2"
	"github.com/rs/cors"
)

// NewRouter wires the HTTP surface: the device overview, the event
// stream, and last the wildcard endpoint that feeds the matcher.
func NewRouter(h *Handler, events *sse.Server) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/devices", h.Devices).Methods(http.MethodGet)
	r.HandleFunc("/events", events.ServeHTTP).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(h.Forward).Methods(http.MethodGet, http.MethodPost)

	return cors.Default().Handler(requestLogger(r))
}
