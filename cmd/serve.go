package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridianlabs/company-researcher/internal/research"
	"github.com/meridianlabs/company-researcher/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the research API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initResearch(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		// Jobs outlive their requests; drain them before e.Close tears
		// down the store they persist to.
		var jobs sync.WaitGroup
		defer drainJobs(&jobs, 10*time.Second)

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/research", func(w http.ResponseWriter, req *http.Request) {
			var body research.Request
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if body.Company == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "company is required"})
				return
			}
			body.JobID = uuid.New().String()

			// The job runs against the server context so shutdown
			// cancels it.
			jobs.Add(1)
			go func() {
				defer jobs.Done()
				if _, err := e.Pipeline.Run(ctx, body); err != nil {
					zap.L().Error("research job failed",
						zap.String("job_id", body.JobID),
						zap.String("company", body.Company),
						zap.Error(err),
					)
				}
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"job_id":  body.JobID,
				"status":  "queued",
				"company": body.Company,
			})
		})

		r.Get("/research/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := e.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		r.Get("/research/{id}/events", func(w http.ResponseWriter, req *http.Request) {
			serveEvents(w, req, e, chi.URLParam(req, "id"))
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			filter := store.RunFilter{Company: req.URL.Query().Get("company")}
			runs, err := e.Store.ListRuns(req.Context(), filter)
			if err != nil {
				zap.L().Error("run listing failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not list runs"})
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// drainJobs waits for in-flight research jobs, bounded so a wedged pipeline
// cannot block shutdown forever.
func drainJobs(jobs *sync.WaitGroup, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		zap.L().Warn("timed out waiting for in-flight research jobs")
	}
}

// serveEvents streams job status updates as server-sent events until the
// client disconnects.
func serveEvents(w http.ResponseWriter, req *http.Request, e *env, jobID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	events, cancel := e.Hub.Subscribe(jobID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-req.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				zap.L().Warn("event marshal failed", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Status, payload)
			flusher.Flush()
			if ev.Status == "editor_complete" {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
