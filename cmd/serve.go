package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rfsurvey/antenna-cli/internal/antenna"
	"github.com/rfsurvey/antenna-cli/internal/geo"
	"github.com/rfsurvey/antenna-cli/internal/portal"
	"github.com/rfsurvey/antenna-cli/internal/selector"
)

var (
	servePort     int
	serveStations string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve nearest-antenna lookups over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		stationsPath := serveStations
		if stationsPath == "" {
			stationsPath = portal.CSVPath(cfg.Portal.DataDir, cfg.Portal.State)
		}

		records, err := loadStations(ctx, stationsPath)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return eris.Errorf("no station records in %s, run 'antenna-cli sync' first", stationsPath)
		}

		api := &apiServer{
			records:      records,
			minBuckets:   cfg.Selector.MinDistanceBuckets,
			minOperators: cfg.Selector.MinOperators,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("stations", len(records)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiServer answers nearest-antenna queries against an in-memory station set.
type apiServer struct {
	records      []antenna.Record
	minBuckets   int
	minOperators int
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/v1/nearest", s.handleNearest)
	return r
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"stations": len(s.records),
	})
}

func (s *apiServer) handleNearest(w http.ResponseWriter, r *http.Request) {
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lat is required and must be a number"})
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "lon is required and must be a number"})
		return
	}

	minBuckets, err := queryInt(r, "buckets", s.minBuckets)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "buckets must be an integer"})
		return
	}
	minOperators, err := queryInt(r, "operators", s.minOperators)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "operators must be an integer"})
		return
	}

	result := selector.Select(s.records, geo.Point{Lat: lat, Lon: lon}, minBuckets, minOperators)
	writeJSON(w, http.StatusOK, result)
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveStations, "stations", "", "station CSV path (default from last sync)")
	rootCmd.AddCommand(serveCmd)
}
