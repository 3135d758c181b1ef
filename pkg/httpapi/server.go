// Package httpapi is the REST/WebSocket surface the topology editor UI
// talks to: a chi router restricted by CORS to the local UI origin, with
// request bodies validated through validator struct tags.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netval/internal/store"
	"netval/pkg/aibridge"
	"netval/pkg/job"
	"netval/pkg/vault"
)

// Server wires netvald's route table. Constructed once at startup and
// shared across requests; all mutable state lives in its dependencies
// (store, vault, hub), not on Server itself.
type Server struct {
	store     *store.Store
	hub       *job.Hub
	manager   *job.IngestionManager
	vault     *vault.Vault
	ai        *aibridge.Bridge
	validate  *validator.Validate
	router    chi.Router
	retention time.Duration
}

// Config bundles Server's dependencies.
type Config struct {
	Store   *store.Store
	Hub     *job.Hub
	Manager *job.IngestionManager
	Vault   *vault.Vault
	AI      *aibridge.Bridge
	// UIOrigin restricts CORS to a single origin. Empty allows any origin, for local dev.
	UIOrigin string
	// RollbackRetention bounds how long after apply a plan stays
	// rollback-eligible. Zero uses the default.
	RollbackRetention time.Duration
}

// New builds a Server with its full route table wired.
func New(cfg Config) *Server {
	retention := cfg.RollbackRetention
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	s := &Server{
		store:     cfg.Store,
		hub:       cfg.Hub,
		manager:   cfg.Manager,
		vault:     cfg.Vault,
		ai:        cfg.AI,
		validate:  validator.New(),
		retention: retention,
	}
	s.router = s.buildRouter(cfg.UIOrigin)
	return s
}

// ServeHTTP lets Server satisfy http.Handler directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter(uiOrigin string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if uiOrigin != "" {
		origins = []string{uiOrigin}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/projects", func(r chi.Router) {
			r.Post("/", s.handleCreateProject)
			r.Get("/", s.handleListProjects)
			r.Get("/{id}", s.handleGetProject)
			r.Delete("/{id}", s.handleDeleteProject)

			r.Post("/{id}/devices", s.handleCreateDevice)
			r.Post("/{id}/links", s.handleCreateLink)
			r.Post("/{id}/validate", s.handleValidate)
			r.Post("/{id}/generate-cli", s.handleGenerateCLI)
			r.Post("/{id}/remediate", s.handleRemediate)
			r.Post("/{id}/apply", s.handleApply)
			r.Post("/{id}/rollback", s.handleRollback)
		})

		// {project_id} lists devices under a project; detail/{device_id}
		// fetches a single device.
		r.Get("/devices/detail/{device_id}", s.handleGetDevice)
		r.Get("/devices/{project_id}", s.handleListDevices)
		r.Delete("/devices/{id}", s.handleDeleteDevice)
		r.Post("/devices/{id}/upload-config", s.handleUploadConfig)
		r.Post("/devices/{id}/ssh-connect", s.handleSSHConnect)
		r.Post("/devices/{id}/ingest", s.handleIngest)
		r.Post("/devices/{id}/credentials", s.handleSetCredentials)
		r.Delete("/devices/{id}/credentials", s.handleDeleteCredentials)

		r.Get("/links/{project_id}", s.handleListLinks)
		r.Delete("/links/{id}", s.handleDeleteLink)

		r.Post("/configs/{id}", s.handleStoreConfig)
		r.Get("/configs/{id}/latest", s.handleLatestConfig)

		r.Get("/jobs/{job_id}", s.handleGetJob)

		r.Post("/ai/explain", s.handleExplain)

		r.Get("/plans/{project_id}", s.handleListPlans)
		r.Get("/plans/detail/{plan_id}", s.handleGetPlan)
		r.Post("/plans/{plan_id}/approve", s.handleApprovePlan)
		r.Post("/plans/{plan_id}/items/{item_id}", s.handleSetItemApproval)

		r.Route("/ws", func(r chi.Router) {
			r.Get("/simulation/{job_id}", s.handleWSJob)
			r.Get("/remediation/{job_id}", s.handleWSJob)
			r.Get("/ingestion/{job_id}", s.handleWSJob)
		})
	})

	return r
}
