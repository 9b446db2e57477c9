package api

import (
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/itsatony/w4b_v3/server/geosensor/api/middleware"
	"github.com/itsatony/w4b_v3/server/geosensor/api/resources"
	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	nuts "github.com/vaudience/go-nuts"

	_ "github.com/itsatony/w4b_v3/server/geosensor/docs"
)

type Router struct {
	router    *mux.Router
	auth      *middleware.KeycloakMiddleware
	resources *resources.Resources
	handler   http.Handler
}

// NewRouter wires the resources under /api/v1. auth may be nil, in which
// case the sensor routes are public.
func NewRouter(res *resources.Resources, auth *middleware.KeycloakMiddleware, cfg config.ServerConfig) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		auth:      auth,
		resources: res,
	}

	r.setupRoutes()

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}), handlers.PrintRecoveryStack(true))
	r.handler = handlers.CombinedLoggingHandler(os.Stdout, recovery(cors(r.router)))
	return r
}

func (r *Router) setupRoutes() {
	// API version prefix
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/health", r.resources.System.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/metrics", r.resources.System.Metrics).Methods(http.MethodGet)
	api.HandleFunc("/swagger/doc.json", r.resources.System.SwaggerDoc).Methods(http.MethodGet)

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	if r.auth != nil {
		protected.Use(r.auth.Authenticate)
	}

	// Sensors
	sensors := protected.PathPrefix("/sensors").Subrouter()
	sensors.HandleFunc("", r.resources.Sensors.ListSensors).Methods(http.MethodGet)
	sensors.HandleFunc("", r.resources.Sensors.CreateSensor).Methods(http.MethodPost)
	sensors.HandleFunc("/near", r.resources.Sensors.FindNear).Methods(http.MethodGet)
	sensors.HandleFunc("/{id:[0-9]+}", r.resources.Sensors.GetSensor).Methods(http.MethodGet)
	sensors.HandleFunc("/{id:[0-9]+}", r.resources.Sensors.DeleteSensor).Methods(http.MethodDelete)
	sensors.HandleFunc("/{id:[0-9]+}/data", r.resources.Sensors.RecordData).Methods(http.MethodPost)
	sensors.HandleFunc("/{id:[0-9]+}/data", r.resources.Sensors.GetData).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[API] Recovered from panic: %v", v)
}
