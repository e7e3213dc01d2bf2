package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"goscout/adapters/excel"
	"goscout/app"
	"goscout/domain/core"
	apperrors "goscout/internal/errors"
	"goscout/internal/report"
	"goscout/models"
)

// Server exposes the pipeline over HTTP.
type Server struct {
	router       *chi.Mux
	orchestrator *app.Orchestrator
	reports      *report.Generator
	exporter     *excel.Exporter
}

// NewServer creates the HTTP server and mounts its routes.
func NewServer(orchestrator *app.Orchestrator, reports *report.Generator, exporter *excel.Exporter) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		orchestrator: orchestrator,
		reports:      reports,
		exporter:     exporter,
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(10 * time.Minute))

	s.router.Route("/pipeline", func(r chi.Router) {
		r.Post("/runs", s.handleRunPipeline)
		r.Post("/stages/{stage}", s.handleRunStage)
		r.Get("/runs/latest", s.handleLatestRun)
		r.Get("/report", s.handleReport)
	})
	s.router.Get("/export/workbook", s.handleExportWorkbook)
	s.router.Get("/healthz", s.handleHealth)

	return s
}

// Router returns the mounted chi router.
func (s *Server) Router() http.Handler {
	return s.router
}

// runRequestBody is the POST /pipeline/runs payload.
type runRequestBody struct {
	Queries []string `json:"queries"`
	MinDate *string  `json:"min_date,omitempty"`
	MaxDate *string  `json:"max_date,omitempty"`
}

func (s *Server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	var body runRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("request body must be JSON"))
		return
	}
	if len(body.Queries) == 0 {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("queries is required"))
		return
	}
	req := app.RunRequest{Queries: body.Queries}
	var err error
	if req.MinDate, err = parseDate(body.MinDate); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("min_date must be YYYY-MM-DD"))
		return
	}
	if req.MaxDate, err = parseDate(body.MaxDate); err != nil {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("max_date must be YYYY-MM-DD"))
		return
	}

	summary, err := s.orchestrator.RunPipeline(r.Context(), req)
	if err != nil {
		// The summary still reflects how far the run got.
		log.Printf("[API] pipeline run failed: %v", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   err.Error(),
			"code":    apperrors.GetCode(err),
			"summary": summary,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// stageRequestBody is the optional POST /pipeline/stages/{stage} payload.
type stageRequestBody struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleRunStage(w http.ResponseWriter, r *http.Request) {
	stage := models.StageName(chi.URLParam(r, "stage"))
	if !stage.Valid() {
		s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput(fmt.Sprintf("unknown stage %q", stage)))
		return
	}
	var body stageRequestBody
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, apperrors.InvalidInput("request body must be JSON"))
			return
		}
	}
	result, err := s.orchestrator.RunStage(r.Context(), stage, body.IDs)
	if err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	summary, err := s.orchestrator.LatestSummary(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if summary == nil {
		s.writeError(w, http.StatusNotFound, apperrors.NotFound("run summary"))
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "markdown" {
		md, err := s.reports.Markdown(r.Context())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(md))
		return
	}
	page, err := s.reports.HTML(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="pipeline.xlsx"`)
	if err := s.exporter.WriteWorkbook(r.Context(), w); err != nil {
		log.Printf("[API] workbook export failed: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	switch {
	case core.IsNotFoundError(err):
		status = http.StatusNotFound
		err = apperrors.WithCode(apperrors.CodeNotFound, err)
	case core.IsStorageError(err):
		status = http.StatusServiceUnavailable
		err = apperrors.StorageError(err)
	case core.IsPreconditionError(err):
		status = http.StatusConflict
		err = apperrors.WithCode(apperrors.CodePreconditionFailed, err)
	case errors.Is(err, core.ErrConnector):
		status = http.StatusBadGateway
		err = apperrors.WithCode(apperrors.CodeConnectorError, err)
	case core.IsUnitError(err):
		// Upstream generative or retrieval trouble, not a caller mistake.
		status = http.StatusBadGateway
		err = apperrors.WithCode(unitErrorCode(err), err)
	}
	s.writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}

func unitErrorCode(err error) string {
	if errors.Is(err, core.ErrMalformedResponse) {
		return apperrors.CodeMalformedResponse
	}
	return apperrors.CodeGenerativeCall
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", *value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
