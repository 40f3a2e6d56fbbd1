package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pimtong/fieldworks-backend/api/controllers"
	"github.com/pimtong/fieldworks-backend/api/middleware"
	"github.com/pimtong/fieldworks-backend/internal/jobs"
	"github.com/pimtong/fieldworks-backend/internal/projects"
	"github.com/pimtong/fieldworks-backend/internal/reports"
	"github.com/pimtong/fieldworks-backend/internal/teams"
	"github.com/pimtong/fieldworks-backend/internal/users"
	"github.com/pimtong/fieldworks-backend/pkg/config"
	"github.com/pimtong/fieldworks-backend/pkg/db"
	"github.com/pimtong/fieldworks-backend/pkg/enums"
	"github.com/pimtong/fieldworks-backend/pkg/logger"
	"github.com/pimtong/fieldworks-backend/pkg/redis"
)

// Services bundles everything the HTTP surface dispatches into.
type Services struct {
	Users    users.Service
	Teams    teams.Service
	Projects projects.Service
	Jobs     jobs.Service
	Reports  reports.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, svcs Services) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)

	readyHandler := controllers.HealthReady(cfg, logg, readinessDeps(dbClient, redisClient)...)
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", readyHandler)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.Login(svcs.Users, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/me", controllers.Me(svcs.Users, logg))
		r.Post("/auth/password", controllers.ChangePassword(svcs.Users, logg))

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", controllers.JobList(svcs.Jobs, logg))
			r.Get("/{jobID}", controllers.JobGet(svcs.Jobs, logg))
			r.Get("/{jobID}/history", controllers.JobHistory(svcs.Jobs, logg))
			r.Post("/{jobID}/status", controllers.JobChangeStatus(svcs.Jobs, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager(logg))
				r.Post("/", controllers.JobCreate(svcs.Jobs, logg))
				r.Put("/{jobID}", controllers.JobUpdate(svcs.Jobs, logg))
				r.Post("/{jobID}/assign", controllers.JobAssign(svcs.Jobs, logg))
			})

			r.With(middleware.RequireRoles(logg, enums.UserRoleAdmin)).Delete("/{jobID}", controllers.JobDelete(svcs.Jobs, logg))
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", controllers.ProjectList(svcs.Projects, logg))
			r.Get("/{projectID}", controllers.ProjectGet(svcs.Projects, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireManager(logg))
				r.Post("/", controllers.ProjectCreate(svcs.Projects, logg))
				r.Put("/{projectID}", controllers.ProjectUpdate(svcs.Projects, logg))
				r.Delete("/{projectID}", controllers.ProjectDelete(svcs.Projects, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.RequireManager(logg))
			r.Get("/summary", controllers.ReportSummary(svcs.Reports, logg))
			r.Get("/workload", controllers.ReportWorkload(svcs.Reports, logg))
			r.Get("/overdue", controllers.ReportOverdue(svcs.Reports, logg))
		})

		r.Route("/teams", func(r chi.Router) {
			r.Get("/", controllers.TeamList(svcs.Teams, logg))
			r.Get("/{teamID}", controllers.TeamGet(svcs.Teams, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))
				r.Post("/", controllers.TeamCreate(svcs.Teams, logg))
				r.Put("/{teamID}", controllers.TeamUpdate(svcs.Teams, logg))
				r.Delete("/{teamID}", controllers.TeamDelete(svcs.Teams, logg))
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.UserRoleAdmin))
			r.Post("/", controllers.UserCreate(svcs.Users, logg))
			r.Get("/", controllers.UserList(svcs.Users, logg))
			r.Get("/{userID}", controllers.UserGet(svcs.Users, logg))
			r.Put("/{userID}", controllers.UserUpdate(svcs.Users, logg))
			r.Delete("/{userID}", controllers.UserDelete(svcs.Users, logg))
		})
	})

	return r
}

func readinessDeps(dbClient *db.Client, redisClient *redis.Client) []controllers.Pinger {
	var deps []controllers.Pinger
	if dbClient != nil {
		deps = append(deps, dbClient)
	}
	if redisClient != nil {
		deps = append(deps, redisClient)
	}
	return deps
}
