package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/jgoulah/pvdash/internal/export"
	"github.com/jgoulah/pvdash/internal/ingest"
	"github.com/jgoulah/pvdash/internal/session"
	"github.com/jgoulah/pvdash/pkg/models"
)

// SessionResponse describes a session
type SessionResponse struct {
	ID        string   `json:"id"`
	Source    string   `json:"source"`
	Status    []string `json:"status"`
	Days      []string `json:"days"`
	Samples   int      `json:"samples"`
	Truncated bool     `json:"truncated"`
}

// OverlayRow is one time bucket of the overlay view. Power follows the day order of OverlayResponse.Days.
type OverlayRow struct {
	Time              string             `json:"time"`
	Power             []models.NullFloat `json:"power"`
	AverageSimple     models.NullFloat   `json:"average_simple"`
	AverageGenerating models.NullFloat   `json:"average_generating"`
	Generating        int                `json:"generating"`
	GeneratingScaled  float64            `json:"generating_scaled"`
}

// OverlayResponse is the overlay view
type OverlayResponse struct {
	Columns []string     `json:"columns"`
	Days    []string     `json:"days"`
	Rows    []OverlayRow `json:"rows"`
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func sessionResponse(id string, v *session.View) SessionResponse {
	return SessionResponse{
		ID:        id,
		Source:    v.Source(),
		Status:    v.Status(),
		Days:      v.Days(),
		Samples:   len(v.Dataset().Samples),
		Truncated: v.Truncated(),
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, &APIError{
				Code:    CodeTooLarge,
				Message: fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		writeError(w, http.StatusBadRequest, &APIError{Code: CodeBadRequest, Message: err.Error()})
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload"
	}

	ds := ingest.Read(bytes.NewReader(body), name, ingest.Options{MaxRows: s.opts.MaxRows, Logger: s.log})
	id, v, err := s.store.Create(ds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, &APIError{Code: CodeInternalError, Message: err.Error()})
		return
	}

	s.log.Info("Created session", "session", id, "source", name, "ok", v.OK())
	writeJSON(w, http.StatusCreated, sessionResponse(id, v))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *session.View, bool) {
	id := mux.Vars(r)["id"]
	v, ok := s.store.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, &APIError{Code: CodeNotFound, Message: fmt.Sprintf("session %q not found", id)})
		return id, nil, false
	}
	return id, v, true
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	id, v, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(id, v))
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !s.store.Delete(id) {
		writeError(w, http.StatusNotFound, &APIError{Code: CodeNotFound, Message: fmt.Sprintf("session %q not found", id)})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withView resolves the session and rejects derived views of failed loads
func (s *Server) withView(next func(http.ResponseWriter, *http.Request, *session.View)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, v, ok := s.lookup(w, r)
		if !ok {
			return
		}
		if !v.OK() {
			writeError(w, http.StatusUnprocessableEntity, &APIError{
				Code:    CodeLoadFailed,
				Message: v.StatusText(),
				Status:  v.Status(),
			})
			return
		}
		next(w, r, v)
	}
}

func (s *Server) raw(w http.ResponseWriter, r *http.Request, v *session.View) {
	days := r.URL.Query()["day"]
	if len(days) == 0 {
		days = v.Days()
	}
	writeJSON(w, http.StatusOK, v.Select(days))
}

func (s *Server) daily(w http.ResponseWriter, _ *http.Request, v *session.View) {
	writeJSON(w, http.StatusOK, v.Daily())
}

func (s *Server) monthly(w http.ResponseWriter, _ *http.Request, v *session.View) {
	writeJSON(w, http.StatusOK, v.Monthly())
}

func (s *Server) overlay(w http.ResponseWriter, r *http.Request, v *session.View) {
	fill := false
	if raw := r.URL.Query().Get("fill"); raw != "" {
		var err error
		fill, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, &APIError{Code: CodeBadRequest, Message: fmt.Sprintf("invalid fill value %q", raw)})
			return
		}
	}

	m, cols := v.Overlay()
	if fill {
		m = m.Filled()
	}

	resp := OverlayResponse{Columns: cols, Days: m.Days, Rows: make([]OverlayRow, len(m.Buckets))}
	for b, bucket := range m.Buckets {
		power := make([]models.NullFloat, len(m.Days))
		for d := range m.Days {
			power[d] = models.NullFloat(m.Power[b][d])
		}
		resp.Rows[b] = OverlayRow{
			Time:              bucket.String(),
			Power:             power,
			AverageSimple:     m.AverageSimple[b],
			AverageGenerating: m.AverageGenerating[b],
			Generating:        m.Generating[b],
			GeneratingScaled:  m.GeneratingScaled[b],
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) export(w http.ResponseWriter, r *http.Request, v *session.View) {
	format, err := export.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		writeError(w, http.StatusBadRequest, &APIError{Code: CodeBadRequest, Message: err.Error()})
		return
	}

	report, err := export.NewReport(v)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, &APIError{Code: CodeLoadFailed, Message: err.Error()})
		return
	}

	data, err := report.Build(format)
	if err != nil {
		writeError(w, http.StatusInternalServerError, &APIError{Code: CodeInternalError, Message: err.Error()})
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(format)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
