package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/regdoc-cli/internal/config"
	"github.com/sells-group/regdoc-cli/internal/extraction"
	"github.com/sells-group/regdoc-cli/internal/model"
	"github.com/sells-group/regdoc-cli/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the document processing HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		comps, err := initComponents(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		p, err := comps.NewPipeline(cfg, nil)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(comps, p, cfg.Server),
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      5 * time.Minute,
			IdleTimeout:       2 * time.Minute,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type api struct {
	comps     *pipeline.Components
	pipeline  *pipeline.Pipeline
	maxUpload int64
}

// newRouter mounts the API routes.
func newRouter(comps *pipeline.Components, p *pipeline.Pipeline, sc config.ServerConfig) http.Handler {
	maxMB := sc.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 25
	}
	a := &api{comps: comps, pipeline: p, maxUpload: int64(maxMB) << 20}

	origins := sc.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", a.handleAnalyze)
		r.Post("/extract", a.handleExtract)
		r.Post("/compare", a.handleCompare)
		r.Post("/process", a.handleProcess)
	})

	return r
}

// handleAnalyze takes a raw page image as the request body.
func (a *api) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.maxUpload))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "unreadable request body")
		return
	}
	if len(data) == 0 {
		respondError(w, http.StatusBadRequest, "image body is required")
		return
	}
	res, err := analyzeImage(r.Context(), a.comps, r.URL.Query().Get("source"), data)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

type extractRequest struct {
	Text     string                 `json:"text"`
	Mode     string                 `json:"mode,omitempty"`
	Existing *model.ExtractedFields `json:"existing,omitempty"`
}

func (a *api) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if !a.decode(w, r, &req) {
		return
	}
	mode := a.comps.Mode
	if req.Mode != "" {
		m, err := extraction.ParseMode(req.Mode)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}
	outcome, err := a.comps.Orchestrator.RunDetailed(r.Context(), req.Text, mode, req.Existing)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

type compareRequest struct {
	Authoritative *model.ExtractedFields `json:"authoritative"`
	Extracted     *model.ExtractedFields `json:"extracted"`
	OCRConfidence *float32               `json:"ocr_confidence,omitempty"`
}

func (a *api) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.comps.Comparer.Reconcile(r.Context(), req.Authoritative, req.Extracted, req.OCRConfidence)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleProcess takes a multipart form: one or more "pages" files in page
// order, and optional "authoritative" and "existing" JSON fields.
func (a *api) handleProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.maxUpload)
	if err := r.ParseMultipartForm(a.maxUpload / 4); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck
	files := r.MultipartForm.File["pages"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "at least one pages file is required")
		return
	}

	doc := pipeline.Document{ID: r.FormValue("id"), Source: files[0].Filename}
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			respondError(w, http.StatusBadRequest, "unreadable upload")
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			respondError(w, http.StatusBadRequest, "unreadable upload")
			return
		}
		doc.Pages = append(doc.Pages, data)
	}
	for name, dst := range map[string]**model.ExtractedFields{
		"authoritative": &doc.Authoritative,
		"existing":      &doc.Existing,
	} {
		raw := r.FormValue(name)
		if raw == "" {
			continue
		}
		var f model.ExtractedFields
		if err := json.Unmarshal([]byte(raw), &f); err != nil {
			respondError(w, http.StatusBadRequest, "invalid "+name+" JSON")
			return
		}
		*dst = &f
	}

	res, err := a.pipeline.ProcessDocument(r.Context(), doc)
	if err != nil {
		respondFailure(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (a *api) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.maxUpload)).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// statusFor maps pipeline errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidImage),
		errors.Is(err, model.ErrImageDecode),
		errors.Is(err, model.ErrComparisonInputInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrCancelled):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrExtractionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch {
	case errors.Is(err, model.ErrCancelled):
		zap.L().Info("request cancelled", zap.String("stage", pipeline.StageOf(err)))
	case status >= http.StatusInternalServerError:
		zap.L().Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"stage": pipeline.StageOf(err),
	})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
