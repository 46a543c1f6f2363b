package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cocina-ops/api/handlers"
	"cocina-ops/config"
	"cocina-ops/core/directory"
	"cocina-ops/core/incidents"
	"cocina-ops/core/rbac"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

type ServerDeps struct {
	Cfg       *config.AppConfig
	Kitchens  store.KitchensStore
	Incidents store.IncidentsStore
	Audits    store.AuditStore
	Directory *directory.Directory
	Policy    *rbac.Policy
	Svc       *incidents.Service
	Logger    *utils.Logger
}

type Server struct {
	deps   ServerDeps
	logger *utils.Logger
}

func NewServer(deps ServerDeps) *Server {
	return &Server{deps: deps, logger: deps.Logger}
}

func (s *Server) Handler() http.Handler {
	d := s.deps
	kitchensH := handlers.NewKitchensHandler(d.Cfg, d.Kitchens, d.Incidents, d.Directory, d.Policy, d.Audits, d.Logger)
	incidentsH := handlers.NewIncidentsHandler(d.Cfg, d.Kitchens, d.Incidents, d.Svc, d.Directory, d.Policy, d.Logger)
	dashboardH := handlers.NewDashboardHandler(d.Cfg, d.Kitchens, d.Incidents, d.Logger)
	miscH := handlers.NewMiscHandler(d.Directory, d.Policy, d.Audits, d.Logger)
	legacyH := handlers.NewLegacyHandler(d.Kitchens, d.Incidents, d.Svc, d.Audits, d.Logger)

	r := chi.NewRouter()
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/kitchens", kitchensH.List)
		r.Post("/kitchens", kitchensH.Create)

		r.Get("/incidents", incidentsH.List)
		r.Post("/incidents", incidentsH.Create)
		r.Get("/incidents/{id}", incidentsH.Get)
		r.Post("/incidents/{id}/observations", incidentsH.AddObservation)
		r.Post("/incidents/{id}/status", incidentsH.SetStatus)

		r.Get("/dashboard", dashboardH.Dashboard)
		r.Get("/drilldown", dashboardH.Drilldown)
		r.Get("/years", dashboardH.Years)

		r.Get("/directory", miscH.SearchDirectory)
		r.Get("/audit", miscH.ListAudit)
	})

	// Legacy single-endpoint action API kept byte-compatible with the
	// sheet-era frontend.
	r.HandleFunc("/api.php", legacyH.Actions)

	return r
}
