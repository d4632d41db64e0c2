package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/booking-insights/internal/dashboard"
	"github.com/sells-group/booking-insights/internal/model"
	"github.com/sells-group/booking-insights/internal/monitoring"
)

const maxRequestBytes = 16 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve dashboard reports over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		policy := dashboard.PolicyFromConfig(cfg)
		if err := policy.Validate(); err != nil {
			return err
		}

		api := &server{policy: policy, now: time.Now}
		if cfg.Backend.BaseURL != "" {
			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}
			api.collector = dashboard.NewCollector(fetcher, policy)

			if cfg.Monitoring.WebhookURL != "" {
				checker := monitoring.NewChecker(api.collector, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
				go checker.Run(ctx)
			}
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           api.routes(cfg.Server.AllowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Error("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("live_reports", api.collector != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// server holds the HTTP handlers' dependencies.
type server struct {
	policy dashboard.Policy
	// collector is nil when no backend is configured.
	collector *dashboard.Collector
	now       func() time.Time
}

// reportRequest is the body of POST /v1/report. Now defaults to the
// server clock.
type reportRequest struct {
	Now      *time.Time     `json:"now"`
	Snapshot model.Snapshot `json:"snapshot"`
}

func (s *server) routes(origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/policy", s.handlePolicy)
		r.Post("/report", s.handleReport)
		if s.collector != nil {
			r.Get("/report", s.handleLiveReport)
		}
	})
	return r
}

// handlePolicy serves the policy with the same snake_case keys the config
// file uses. The webhook URL is withheld.
func (s *server) handlePolicy(w http.ResponseWriter, r *http.Request) {
	p := s.policy
	p.Monitoring.WebhookURL = ""

	raw, err := yaml.Marshal(p)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not encode policy")
		return
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not encode policy")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	now := s.now()
	if req.Now != nil {
		now = *req.Now
	}

	report, err := dashboard.Build(&req.Snapshot, now, s.policy)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *server) handleLiveReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.collector.Report(r.Context())
	if err != nil {
		zap.L().Error("live report failed",
			zap.String("request_id", w.Header().Get("X-Request-ID")),
			zap.Error(err),
		)
		writeError(w, r, http.StatusBadGateway, "could not load data from the booking backend")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// requestID propagates the caller's X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	zap.L().Debug("request rejected",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	writeJSON(w, status, map[string]string{
		"error":      msg,
		"request_id": w.Header().Get("X-Request-ID"),
	})
}
