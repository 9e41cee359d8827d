package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/freshtrack/expiry-cli/internal/dateparse"
	"github.com/freshtrack/expiry-cli/internal/expiry"
	"github.com/freshtrack/expiry-cli/internal/model"
	"github.com/freshtrack/expiry-cli/internal/recognize"
	"github.com/freshtrack/expiry-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP recognition API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := newRecognizer()
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, rec, cfg.Server.RatePerSecond, cfg.Server.Burst),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the API router. Split out of the command so handler
// tests can exercise it without binding a socket.
func newRouter(st store.Store, rec *recognize.Recognizer, ratePerSecond float64, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		// Recognition routes are the expensive ones; cap their rate.
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(ratePerSecond), burst)))

		r.Post("/recognize", handleRecognize(rec))
		r.Post("/parse", handleParse())
	})

	r.Get("/expiring", handleExpiring(st))

	return r
}

func rateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func handleRecognize(rec *recognize.Recognizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Fragments []model.Fragment `json:"fragments"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		result, err := rec.Recognize(req.Fragments)
		if err != nil {
			if errors.Is(err, recognize.ErrNoText) || errors.Is(err, recognize.ErrNoDate) {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
				return
			}
			zap.L().Error("recognition failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handleParse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		date, err := dateparse.ParseTyped(req.Text)
		if err != nil {
			var upe *dateparse.UnparseableError
			if errors.As(err, &upe) {
				writeJSON(w, http.StatusBadRequest, map[string]string{
					"error": "unrecognized date",
					"text":  upe.Text,
				})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}

		result := expiry.Compute(expiry.Input{Production: date}, model.Today())
		writeJSON(w, http.StatusOK, map[string]any{
			"production_date": date,
			"expiry_date":     result.ExpiryDate,
			"days_remaining":  result.DaysRemaining,
		})
	}
}

func handleExpiring(st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		within := 7
		if raw := r.URL.Query().Get("within"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "within must be a non-negative integer"})
				return
			}
			within = n
		}

		items, err := st.ListExpiring(r.Context(), within, model.Today())
		if err != nil {
			zap.L().Error("list expiring failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
			return
		}
		if items == nil {
			items = []store.ExpiringItem{}
		}

		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
