package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/h2operator/h2operator-backend/internal/advisor"
	"github.com/h2operator/h2operator-backend/internal/config"
	"github.com/h2operator/h2operator-backend/internal/db"
	"github.com/h2operator/h2operator-backend/internal/facility"
	"github.com/h2operator/h2operator-backend/internal/middleware"
	"github.com/h2operator/h2operator-backend/internal/narrative"
	"github.com/h2operator/h2operator-backend/internal/observability"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintln(w, `{"status":"ok"}`)
}

func ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := db.Ping(ctx, db.DB); err != nil {
		log.Printf("[ready] dataset ping failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, `{"status":"unavailable"}`)
		return
	}
	fmt.Fprintln(w, `{"status":"ok"}`)
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	db.Connect(cfg.DatabaseURL, cfg.DBLogLevel)
	store := facility.Init(db.DB)

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	catalog, err := narrative.DefaultCatalog()
	if err != nil {
		log.Fatal("Failed to load prompt catalog: ", err)
	}
	var completer narrative.Completer
	if c := narrative.NewOpenAICompleter(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.NarrativeTimeout); c != nil {
		completer = c
	} else {
		log.Println("OPENAI_API_KEY not set, narratives use deterministic fallbacks")
	}
	generator := narrative.NewGenerator(completer, catalog, narrative.Options{
		RatePerMinute: cfg.NarrativeRatePerMin,
		Metrics:       metrics,
		Clock:         clock,
	})

	facilities := facility.NewHandler(store, clock)
	advice := advisor.NewHandler(store, generator, advisor.Config{
		UrgentTTL:  cfg.UrgentCacheTTL,
		SummaryTTL: cfg.SummaryCacheTTL,
		Metrics:    metrics,
		Clock:      clock,
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Instrument(metrics))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.Get("/", RootHandler)
	r.Get("/healthz", HealthHandler)
	r.Get("/readyz", ReadyHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		facilities.Routes(api)
		advice.Routes(api)
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
