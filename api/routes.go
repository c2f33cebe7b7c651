package api

import (
	"github.com/gorilla/mux"

	"github.com/cosminimum/theregistry/internal/config"
	"github.com/cosminimum/theregistry/internal/interview"
	"github.com/cosminimum/theregistry/internal/jobs"
	"github.com/cosminimum/theregistry/pkg/repository"
)

func SetupRoutes(cfg *config.Config, version, buildTime string, repo *repository.Repository, orch *interview.Orchestrator, ticker *jobs.Ticker) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)

	// Create handlers
	systemHandler := &SystemHandler{}
	applyHandler := NewApplyHandler(repo.Agents, repo.Applications, repo.Interviews, repo.Verdicts, cfg.JWTSecret, cfg.TokenDuration, cfg.Council.ReapplyCooldown)
	interviewsHandler := NewInterviewsHandler(repo.Interviews, repo.Messages, repo.Verdicts, orch)
	claimHandler := NewClaimHandler(repo.Verdicts)
	councilHandler := NewCouncilHandler(ticker)

	// Open endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.HandleFunc("/v1/apply", applyHandler.Apply).Methods("POST")
	r.HandleFunc("/v1/claim", claimHandler.Claim).Methods("POST")

	// Interview endpoints, guarded by the session token from apply
	ivV1 := r.PathPrefix("/v1/interviews").Subrouter()
	ivV1.Use(InterviewAuthMiddleware(cfg.JWTSecret))
	ivV1.HandleFunc("/{id}", interviewsHandler.Status).Methods("GET")
	ivV1.HandleFunc("/{id}/respond", interviewsHandler.Respond).Methods("POST")
	ivV1.HandleFunc("/{id}/pending", interviewsHandler.Pending).Methods("GET")
	ivV1.HandleFunc("/{id}/verdict", interviewsHandler.Verdict).Methods("GET")

	// Scheduler endpoint, guarded by the tick secret
	councilV1 := r.PathPrefix("/v1/council").Subrouter()
	councilV1.Use(TickAuthMiddleware(cfg.TickSecret))
	councilV1.HandleFunc("/tick", councilHandler.Tick).Methods("POST")

	return r
}
