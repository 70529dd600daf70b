package router

import (
	"net/http"

	_ "med-reminder/docs"
	mem "med-reminder/internal/adapters/storage/memory"
	"med-reminder/internal/domain/medications"
	"med-reminder/internal/domain/reminders"
	"med-reminder/internal/middleware"
	"med-reminder/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// Store de medicamentos. Si es nil, in-memory.
	Store medications.Repository

	// Driver del scheduler; debe estar corriendo (Run) para que /alarm responda.
	Driver *reminders.Driver

	Logger logger.Logger

	// APIToken vacío = modo dev (sin auth).
	APIToken string

	DefaultPostponeMinutes int
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	store := opts.Store
	if store == nil {
		store = mem.NewMedicationRepo()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequireToken(opts.APIToken, "/health", "/metrics", "/swagger/"))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Services por módulo. El driver es el Tracker de medications.
	var tracker medications.Tracker
	if opts.Driver != nil {
		tracker = opts.Driver
	}
	medsSvc := medications.NewService(store, tracker)

	// Rutas por módulo
	medications.RegisterRoutes(r, medsSvc)
	if opts.Driver != nil {
		reminders.RegisterRoutes(r, opts.Driver, reminders.HandlerConfig{
			DefaultPostponeMinutes: opts.DefaultPostponeMinutes,
		})
	}

	return r
}
