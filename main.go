package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/username/leora/backend/src/config"
	"github.com/username/leora/backend/src/database"
	"github.com/username/leora/backend/src/handlers"
	"github.com/username/leora/backend/src/logger"
	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/processors"
	"github.com/username/leora/backend/src/services"
	"golang.org/x/time/rate"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(origins []string) func(http.Handler) http.Handler {
	allowedOrigins := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowedOrigins[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowedOrigins[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-Request-ID, If-None-Match")
				w.Header().Set("Access-Control-Expose-Headers", "ETag, X-Request-ID")
			} else if origin == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	cfg := config.Cfg

	logger.L.Info("Leora metrics backend starting...")

	logger.L.Info("Initializing database...", "path", cfg.DatabasePath)
	if err := database.InitDB(cfg.DatabasePath); err != nil {
		logger.L.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(database.DB, cfg.MigrationsPath); err != nil {
		logger.L.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	ruleOpts := processors.DefaultRuleOptions()
	ruleOpts.MissingActivityDays = cfg.MissingActivityDays
	ruleOpts.NightShareThreshold = cfg.NightSpendingShare
	ruleOpts.ShortfallWindowDays = cfg.ShortfallWindowDays
	engine, err := processors.NewEngine(cfg.ReportingCurrency, processors.DefaultScenarioRules(ruleOpts))
	if err != nil {
		logger.L.Error("Invalid insight scenario catalog", "error", err)
		os.Exit(1)
	}
	tone := models.ParseTone(cfg.InsightTone)

	store := services.NewSQLStore(database.DB)
	rateService := services.NewRateService(store, cfg.RatesCacheTTL, nil, "")
	metricsService := services.NewMetricsService(store, rateService, engine, tone, cfg.MetricsCacheTTL)

	if cfg.ECBRefresh {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := rateService.RefreshFromECB(refreshCtx, time.Now().In(cfg.Location)); err != nil {
			logger.L.Warn("Startup ECB refresh failed; using stored rates", "error", err)
		}
		cancel()
	}

	var remote services.RemoteInsightClient
	if cfg.InsightsAPIURL != "" {
		remote = services.NewRemoteInsightClient(cfg.InsightsAPIURL, cfg.InsightsAPIKey, cfg.InsightsTimeout, cfg.InsightsForcePerMinute, tone)
	}

	insightCache := services.NewMemoryInsightCache()
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisInsightCache(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.L.Warn("Redis unavailable, keeping insight buckets in memory", "error", err)
		} else {
			insightCache = redisCache
		}
	}
	insightService := services.NewInsightService(metricsService, remote, insightCache, tone, engine.ReportingCurrency(), cfg.InsightsTimeout)

	metricsHandler := handlers.NewMetricsHandler(metricsService, cfg.Location, time.Now)
	insightHandler := handlers.NewInsightHandler(insightService, cfg.Location, time.Now)
	rateHandler := handlers.NewRateHandler(rateService, metricsService, engine.Currency, cfg.Location, time.Now)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(enableCORS(cfg.AllowedOrigins))
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Leora metrics backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/analytics", metricsHandler.HandleGetAnalytics)
		r.Get("/progress", metricsHandler.HandleGetProgress)
		r.Get("/budgets/health", metricsHandler.HandleGetBudgetHealth)
		r.Get("/calendar", metricsHandler.HandleGetCalendar)
		r.Post("/snapshot/invalidate", metricsHandler.HandleInvalidateSnapshot)

		r.Get("/insights", insightHandler.HandleGetDailyInsights)

		r.Get("/rates", rateHandler.HandleGetRates)
		r.Get("/rates/convert", rateHandler.HandleConvert)
		r.Post("/rates/refresh", rateHandler.HandleRefreshRates)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
	})

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr, "reportingCurrency", engine.ReportingCurrency(), "tone", tone)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
