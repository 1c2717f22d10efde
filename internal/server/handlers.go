package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/lucasjlepore/ridechat"
	"github.com/lucasjlepore/ridechat/decode"
	"github.com/lucasjlepore/ridechat/demo"
	"github.com/lucasjlepore/ridechat/internal/history"
	"github.com/lucasjlepore/ridechat/internal/telemetry"
	"github.com/lucasjlepore/ridechat/metrics"
	"github.com/lucasjlepore/ridechat/session"
	"github.com/lucasjlepore/ridechat/table"
)

// Replies the chat gives before routing a question.
const (
	replyNoRide   = "Please upload a ride file first!"
	replyNoPrompt = "Please enter a question!"
)

type sessionResponse struct {
	SessionID string `json:"session_id"`
}

type loadResponse struct {
	SessionID  string         `json:"session_id"`
	Source     string         `json:"source"`
	DataPoints int            `json:"data_points"`
	Metrics    metrics.Record `json:"metrics"`
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Response string `json:"response"`
	Intent   string `json:"intent,omitempty"`
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, map[string]any{
		"error":  message,
		"status": status,
	})
}

// lookup resolves the {id} route variable, writing a 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		sendError(w, http.StatusNotFound, "Session not found or expired")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	}
	if s.store == nil {
		sendJSON(w, http.StatusOK, body)
		return
	}
	if err := s.store.Health(); err != nil {
		s.log.Errorw("history store unhealthy", "error", err)
		body["status"] = "unhealthy"
		body["database"] = err.Error()
		sendJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	body["database"] = "ok"
	sendJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	sendJSON(w, http.StatusCreated, sessionResponse{SessionID: sess.ID})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(mux.Vars(r)["id"]) {
		sendError(w, http.StatusNotFound, "Session not found or expired")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		sendError(w, http.StatusBadRequest, "No file selected")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !allowedFile(name) {
		sendError(w, http.StatusBadRequest, "Invalid file type. Please upload .fit or .zip files only.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Error reading file: "+err.Error())
		return
	}

	activity, err := decode.DecodeBytes(name, data)
	if err != nil {
		telemetry.RecordLoad(telemetry.SourceUpload, 0, err)
		s.log.Infow("upload rejected", "session_id", sess.ID, "file", name, "error", err)
		if errors.Is(err, decode.ErrNoFITInArchive) {
			sendError(w, http.StatusBadRequest, "No .fit file found in zip archive")
			return
		}
		sendError(w, http.StatusBadRequest, "Error parsing file: "+err.Error())
		return
	}

	s.load(w, r, sess, activity.Source, telemetry.SourceUpload, activity.Samples, activity.Summary)
}

func (s *Server) handleDemo(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	samples, summary := demo.Generate(demo.Options{})
	s.load(w, r, sess, "demo", telemetry.SourceDemo, samples, summary)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, sess *session.Session, source, kind string, samples *table.Table, summary table.Summary) {
	sess.Engine.Load(samples, summary)
	telemetry.RecordLoad(kind, samples.Len(), nil)

	if s.store != nil {
		if ride := sess.Engine.Ride(); ride != nil {
			if _, err := s.store.Save(r.Context(), history.FromRide(sess.ID, source, ride)); err != nil {
				s.log.Warnw("record ride history", "session_id", sess.ID, "error", err)
			}
		}
	}

	sendJSON(w, http.StatusOK, loadResponse{
		SessionID:  sess.ID,
		Source:     source,
		DataPoints: samples.Len(),
		Metrics:    sess.Engine.HeadlineMetrics(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if !sess.Engine.IsLoaded() {
		sendError(w, http.StatusConflict, replyNoRide)
		return
	}
	sendJSON(w, http.StatusOK, sess.Engine.HeadlineMetrics())
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !sess.Engine.IsLoaded() {
		sendJSON(w, http.StatusOK, queryResponse{Response: replyNoRide, Intent: ridechat.IntentNoData})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		sendJSON(w, http.StatusOK, queryResponse{Response: replyNoPrompt})
		return
	}

	reply := sess.Engine.Ask(r.Context(), req.Query)
	telemetry.RecordQuery(reply.Intent)
	sendJSON(w, http.StatusOK, queryResponse{Response: reply.Text, Intent: reply.Intent})
}

func (s *Server) handleRides(w http.ResponseWriter, r *http.Request) {
	rides := []history.Ride{}
	if s.store != nil {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		recent, err := s.store.Recent(r.Context(), limit)
		if err != nil {
			s.log.Errorw("list ride history", "error", err)
			sendError(w, http.StatusInternalServerError, "Could not read ride history")
			return
		}
		if recent != nil {
			rides = recent
		}
	}
	sendJSON(w, http.StatusOK, map[string]any{"rides": rides})
}

func allowedFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fit", ".zip":
		return true
	}
	return false
}
