package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/faultline/internal/monitor"
)

// trackRequest is the ingest body for POST /api/events.
type trackRequest struct {
	Category   string            `json:"category"`
	Message    string            `json:"message"`
	Endpoint   string            `json:"endpoint,omitempty"`
	StatusCode int               `json:"status_code,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	Component  string            `json:"component,omitempty"`
	SubType    string            `json:"sub_type,omitempty"`
	Form       string            `json:"form,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	Context    map[string]any    `json:"context,omitempty"`
}

// resolveRequest is the body for the resolve endpoints.
type resolveRequest struct {
	Resolution string `json:"resolution"`
	ResolvedBy string `json:"resolved_by"`
}

func (s *Server) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	var (
		ev  monitor.Event
		err error
	)
	switch monitor.Category(req.Category) {
	case monitor.CategoryAPI:
		ev = s.engine.TrackAPIError(req.Endpoint, req.StatusCode, req.Message, req.Context)
	case monitor.CategoryAuth:
		ev = s.engine.TrackAuthError(req.SubType, req.UserID, req.Context)
	case monitor.CategoryValidation:
		ev = s.engine.TrackValidationError(req.Form, req.Fields, req.Context)
	case monitor.CategorySystem:
		ev = s.engine.TrackSystemError(req.Component, req.Message, req.Context)
	default:
		ev, err = s.engine.TrackEvent(monitor.Category(req.Category), req.Message, req.Context)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, s.logger, http.StatusCreated, ev)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("category") != "":
		c := monitor.Category(q.Get("category"))
		if !c.Valid() {
			http.Error(w, "unknown category", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, s.engine.EventsByCategory(c))
	case q.Get("user") != "":
		writeJSON(w, s.logger, http.StatusOK, s.engine.EventsByUser(q.Get("user")))
	case q.Get("q") != "":
		writeJSON(w, s.logger, http.StatusOK, s.engine.Search(q.Get("q")))
	case q.Get("from") != "" || q.Get("to") != "":
		from, err := parseTime(q.Get("from"), time.Time{})
		if err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		to, err := parseTime(q.Get("to"), time.Now())
		if err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, s.engine.EventsByTimeRange(from, to))
	default:
		writeJSON(w, s.logger, http.StatusOK, s.engine.Events())
	}
}

func (s *Server) handleResolveEvent(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	s.engine.ResolveEvent(r.PathValue("id"), req.Resolution, req.ResolvedBy)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIncidents(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("detect") == "true" {
		writeJSON(w, s.logger, http.StatusOK, s.engine.DetectIncidents())
		return
	}
	writeJSON(w, s.logger, http.StatusOK, s.engine.OpenIncidents())
}

func (s *Server) handleResolveIncident(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	s.engine.ResolveIncident(r.PathValue("id"), req.Resolution, req.ResolvedBy)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.engine.Report())
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.engine.Statistics())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = monitor.FormatJSON
	}

	out, err := s.engine.Export(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch format {
	case monitor.FormatCSV:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	default:
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(out)) //nolint:errcheck
}

// parseTime parses an RFC 3339 timestamp, returning def for an empty value.
func parseTime(value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, value)
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Warn("encode response", zap.Error(err))
	}
}
