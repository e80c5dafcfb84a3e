// Package server exposes a comment session over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"comment-insights-go/internal/actionable"
	"comment-insights-go/internal/aggregator"
	"comment-insights-go/internal/errors"
	"comment-insights-go/internal/logger"
	"comment-insights-go/internal/report"
	"comment-insights-go/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Server struct {
	session *session.Session
	log     *logger.Logger
}

func New(s *session.Session, log *logger.Logger) *Server {
	return &Server{session: s, log: log}
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /fetch", s.handleFetch)
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("GET /jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /records", s.handleRecords)
	mux.HandleFunc("GET /fields", s.handleFields)
	mux.HandleFunc("GET /export", s.handleExport)
	mux.HandleFunc("GET /report", s.handleReport)
	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set(logger.RequestIDHeader, logger.RequestID(r))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithRequest(r).WithFields(logrus.Fields{
			"component":   "server",
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request handled")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"session": s.session.Status(),
	})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source := strings.TrimSpace(q.Get("source"))
	if source == "" {
		s.writeError(w, r, errors.NewInvalidRequest("missing source"))
		return
	}
	job, err := s.session.FetchAsync(source, q.Get("sort"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccepted(w, job)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	job, err := s.session.AnalyzeAsync()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAccepted(w, job)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.session.Job(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.session.Records()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"count": len(records), "records": records})
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.session.Fields()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var names []string
	for _, v := range r.URL.Query()["fields"] {
		names = append(names, strings.Split(v, ",")...)
	}

	var buf bytes.Buffer
	if err := s.session.Export(&buf, names); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeFile(w, r, "comments.xlsx", buf.Bytes())
}

type reportResponse struct {
	Report  aggregator.Report       `json:"report"`
	Actions []actionable.ActionCard `json:"actions"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.session.Report()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		s.writeJSON(w, http.StatusOK, reportResponse{Report: rep, Actions: actionable.Generate(rep)})
	case "text":
		var b strings.Builder
		b.WriteString(report.Text(rep))
		for _, c := range actionable.Generate(rep) {
			fmt.Fprintf(&b, "\n* %s\n  %s (%s)\n", c.Insight, c.Action, c.Impact)
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(b.String()))
	case "xlsx":
		var buf bytes.Buffer
		if err := report.WriteCharts(&buf, rep); err != nil {
			s.writeError(w, r, errors.NewInternal(err))
			return
		}
		s.writeFile(w, r, "report.xlsx", buf.Bytes())
	default:
		s.writeError(w, r, errors.NewInvalidRequest(fmt.Sprintf("unknown report format %q: want json, text or xlsx", format)))
	}
}

func (s *Server) writeAccepted(w http.ResponseWriter, job session.Job) {
	w.Header().Set("Location", "/jobs/"+job.ID)
	s.writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) writeFile(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.log.WithRequest(r).WithError(err).Error("failed to write file response")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		s.log.Component("server").WithError(err).Error("failed to encode response")
	}
}

type errorBody struct {
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
	Details map[string]any   `json:"details,omitempty"`
}

// writeError maps err to its status. Empty input is not a failure and is
// reported as a noop.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	pErr, ok := errors.As(err)
	if !ok {
		pErr = errors.NewInternal(err)
	}

	if pErr.Code == errors.ErrEmptyInput {
		s.writeJSON(w, http.StatusOK, map[string]any{"status": "noop", "message": pErr.Message})
		return
	}

	entry := s.log.WithRequest(r).WithFields(logrus.Fields{"component": "server", "code": pErr.Code})
	if pErr.Status >= http.StatusInternalServerError {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Warn("request rejected")
	}
	s.writeJSON(w, pErr.Status, errorBody{Code: pErr.Code, Message: pErr.Message, Details: pErr.Details})
}
