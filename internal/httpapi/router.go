// Package httpapi is the JSON REST surface spec.md §6 names as an
// external collaborator: status, programs, stations, options, and a
// manual-run endpoint, fronted by gorilla/mux the way the teacher's
// subsystems register their routes with LoadAPI.
package httpapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sprinklerd/sprinklerd/controller"
	"github.com/sprinklerd/sprinklerd/controller/modules/engine"
)

// ConfigStore is the narrow persistence surface handlers write through
// after mutating in-memory options/stations/programs.
type ConfigStore interface {
	SaveIOpts(controller.IntegerOptions) error
	SaveSOpts(controller.StringOptions) error
	SaveStations([]controller.Station) error
	SavePrograms([]controller.Program) error
}

// Server wires the engine, a persistence layer, and session auth into an
// http.Handler. All access to the shared Engine value is serialized
// through mu, since the tick loop mutates it concurrently from another
// goroutine.
type Server struct {
	mu     *sync.Mutex
	eng    *engine.Engine
	store  ConfigStore
	health func(context.Context) interface{}
	sess   *sessions.CookieStore
	log    controller.Logger
}

// New returns a Server. mu must be the same mutex the tick loop holds
// while mutating eng.
func New(mu *sync.Mutex, eng *engine.Engine, store ConfigStore, sessionKey []byte, health func(context.Context) interface{}, log controller.Logger) *Server {
	return &Server{mu: mu, eng: eng, store: store, sess: sessions.NewCookieStore(sessionKey), health: health, log: log}
}

// Router builds the mux.Router serving every registered endpoint.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", s.logout).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireAuth)
	api.HandleFunc("/status", s.getStatus).Methods(http.MethodGet)
	api.HandleFunc("/options", s.getOptions).Methods(http.MethodGet)
	api.HandleFunc("/options", s.putOptions).Methods(http.MethodPut)
	api.HandleFunc("/stations", s.getStations).Methods(http.MethodGet)
	api.HandleFunc("/stations", s.putStations).Methods(http.MethodPut)
	api.HandleFunc("/programs", s.getPrograms).Methods(http.MethodGet)
	api.HandleFunc("/programs", s.putPrograms).Methods(http.MethodPut)
	api.HandleFunc("/run/{sid}", s.runStation).Methods(http.MethodPost)
	api.HandleFunc("/reboot", s.reboot).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
