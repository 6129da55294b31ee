package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mchmarny/partscore/pkg/data"
	"github.com/mchmarny/partscore/pkg/score"
	urfave "github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverRequestTimeout      = 30 * time.Second
	serverMaxHeaderBytes      = 20
	serverMaxBodyBytes        = 10 << 20
	portFlagName              = "port"
	addressFlagName           = "address"
	addressDefault            = "127.0.0.1"
	scoresLimitMax            = 1000
)

func newServeCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "serve",
		Aliases: []string{"server"},
		Usage:   "Start the HTTP scoring API",
		Flags: []urfave.Flag{
			&urfave.IntFlag{
				Name:  portFlagName,
				Usage: "Port on which the server will listen (default: config port or 8080)",
			},
			&urfave.StringFlag{
				Name:  addressFlagName,
				Usage: "Address on which the server will listen",
				Value: addressDefault,
			},
		},
		Action: cmdServe,
	}
}

func cmdServe(ctx context.Context, cmd *urfave.Command) error {
	cfg, err := applyFlags(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.openStore(ctx)
	if err != nil {
		return err
	}

	port := cfg.Config.Port
	if cmd.IsSet(portFlagName) {
		port = cmd.Int(portFlagName)
	}
	address := fmt.Sprintf("%s:%d", cmd.String(addressFlagName), port)

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(store),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("server started", "address", fmt.Sprintf("http://%s", address))

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

// topScorer is the part of the store the API reads from.
type topScorer interface {
	TopScores(ctx context.Context, c score.Component, limit int) ([]*data.ScoredItem, error)
}

func makeRouter(store topScorer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(serverRequestTimeout))

	r.Get("/healthz", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/components", componentsHandler)
		r.Post("/score/{component}", scoreHandler)
		r.Get("/scores/{component}", topScoresHandler(store))
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func componentsHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]score.Component{"components": score.Components})
}

func componentParam(w http.ResponseWriter, r *http.Request) (score.Component, bool) {
	c, err := score.ParseComponent(chi.URLParam(r, "component"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return c, true
}

// scoreHandler scores the posted record, or list of records. With
// ?explain=true every sub-score is returned.
func scoreHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := componentParam(w, r)
	if !ok {
		return
	}

	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, serverMaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	rows, err := toRows(doc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := rowsToRecords(rows)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
		list := make([]score.Breakdown, 0, len(records))
		for _, rec := range records {
			bd, err := score.Explain(c, rec)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			list = append(list, bd)
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	writeJSON(w, http.StatusOK, score.ScoreAll(c, records))
}

func topScoresHandler(store topScorer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := componentParam(w, r)
		if !ok {
			return
		}

		limit := limitDefault
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > scoresLimitMax {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit: %q", v))
				return
			}
			limit = n
		}

		list, err := store.TopScores(r.Context(), c, limit)
		if err != nil {
			slog.Error("failed to get top scores", "component", c, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get top scores")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
