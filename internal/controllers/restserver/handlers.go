package restserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/chrissnell/rehabtrack/internal/motion"
	"github.com/chrissnell/rehabtrack/internal/report"
	"github.com/chrissnell/rehabtrack/internal/sessions"
	"github.com/chrissnell/rehabtrack/internal/storage"
	"github.com/chrissnell/rehabtrack/pkg/responseformat"
	"github.com/gorilla/mux"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// sendData writes data in the format negotiated with the client
func (h *Handlers) sendData(w http.ResponseWriter, req *http.Request, status int, data any) {
	if err := h.formatter.WriteStatus(w, req, status, data, nil); err != nil {
		h.controller.logger.Errorf("error encoding response for %s: %v", req.URL.Path, err)
	}
}

// sendError sends an error response in JSON format
func (h *Handlers) sendError(w http.ResponseWriter, statusCode int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResponse := map[string]interface{}{
		"error":     message,
		"status":    statusCode,
		"timestamp": time.Now().Unix(),
	}

	if err != nil {
		errorResponse["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(errorResponse)
}

// sendFailure maps a domain error to its HTTP status
func (h *Handlers) sendFailure(w http.ResponseWriter, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.controller.logger.Errorf("%s: %v", message, err)
	}
	h.sendError(w, status, message, err)
}

func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrSessionExists), errors.Is(err, storage.ErrUserExists):
		return http.StatusConflict
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest),
		errors.Is(err, storage.ErrInvalid),
		errors.Is(err, sessions.ErrMalformedCSV),
		errors.Is(err, sessions.ErrNoMetrics),
		errors.Is(err, sessions.ErrNoRows),
		errors.Is(err, report.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, motion.ErrInsufficientData),
		errors.Is(err, motion.ErrInvalidSample),
		errors.Is(err, motion.ErrInvalidPhaseCount),
		errors.Is(err, motion.ErrInvalidSegment),
		errors.Is(err, motion.ErrEmptyPhase),
		errors.Is(err, sessions.ErrInsufficientSessions),
		errors.Is(err, report.ErrNoData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GetHealth reports whether the session store is reachable
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	var health storage.Health
	if h.controller.health != nil {
		health = h.controller.health.Current()
	} else {
		health = storage.NewHealthManager(h.controller.store, 0, h.controller.logger).Check(req.Context())
	}

	resp := HealthResponse{Status: "ok", Store: health}
	status := http.StatusOK
	if health.Status == storage.HealthStatusUnhealthy {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	h.sendData(w, req, status, resp)
}

// SegmentSignal splits a raw signal into phases without storing anything
func (h *Handlers) SegmentSignal(w http.ResponseWriter, req *http.Request) {
	var request SegmentRequest
	body := http.MaxBytesReader(w, req.Body, h.maxUploadBytes())
	if err := json.NewDecoder(body).Decode(&request); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}
	if request.NumPhases == 0 {
		request.NumPhases = h.controller.segConfig.DefaultPhases
	}

	det, err := h.controller.segmenter.Segment(request.Values, request.NumPhases)
	if err != nil {
		h.sendFailure(w, "Unable to segment signal", err)
		return
	}

	if len(request.PhaseNames) > 0 {
		for i := range det.Boundaries {
			det.Boundaries[i].Name = request.PhaseNames[i%len(request.PhaseNames)]
		}
	}

	phases, err := motion.PhaseStatistics(request.Values, det.Segments(), det.Names())
	if err != nil {
		h.sendFailure(w, "Unable to compute phase statistics", err)
		return
	}

	resp := SegmentResponse{
		Method:     det.Method,
		Boundaries: det.Boundaries,
		Phases:     phases,
		Stats:      motion.Columnar(phases),
	}
	if det.Fallback != nil {
		resp.Fallback = det.Fallback.Error()
	}
	h.sendData(w, req, http.StatusOK, resp)
}

// ListUsers returns every user ordered by name
func (h *Handlers) ListUsers(w http.ResponseWriter, req *http.Request) {
	users, err := h.controller.store.ListUsers(req.Context())
	if err != nil {
		h.sendFailure(w, "Failed to list users", err)
		return
	}
	if users == nil {
		users = []*sessions.User{}
	}
	h.sendData(w, req, http.StatusOK, users)
}

// CreateUser registers a new user from a JSON body
func (h *Handlers) CreateUser(w http.ResponseWriter, req *http.Request) {
	var user sessions.User
	if err := json.NewDecoder(http.MaxBytesReader(w, req.Body, 1<<20)).Decode(&user); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid JSON payload", err)
		return
	}

	if err := h.controller.store.CreateUser(req.Context(), &user); err != nil {
		h.sendFailure(w, "Failed to create user", err)
		return
	}

	h.controller.logger.Infof("created user %s (%s)", user.Name, user.ID)
	h.sendData(w, req, http.StatusCreated, user)
}

// GetUser returns one user
func (h *Handlers) GetUser(w http.ResponseWriter, req *http.Request) {
	user, err := h.controller.store.GetUser(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.sendFailure(w, "User not found", err)
		return
	}
	h.sendData(w, req, http.StatusOK, user)
}

// ListSessions returns the summaries of a user's sessions, oldest first
func (h *Handlers) ListSessions(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["id"]
	if _, err := h.controller.store.GetUser(req.Context(), userID); err != nil {
		h.sendFailure(w, "User not found", err)
		return
	}

	list, err := h.controller.store.ListSessions(req.Context(), userID)
	if err != nil {
		h.sendFailure(w, "Failed to list sessions", err)
		return
	}

	summaries := make([]SessionSummary, 0, len(list))
	for _, s := range list {
		summaries = append(summaries, summarize(s))
	}
	h.sendData(w, req, http.StatusOK, summaries)
}

// CreateSession processes an uploaded CSV recording and stores the result.
// The CSV is either the raw body or the "file" part of a multipart form;
// processing options come from the query string.
func (h *Handlers) CreateSession(w http.ResponseWriter, req *http.Request) {
	userID := mux.Vars(req)["id"]
	if _, err := h.controller.store.GetUser(req.Context(), userID); err != nil {
		h.sendFailure(w, "User not found", err)
		return
	}

	opts, overwrite, err := h.sessionOptions(req.URL.Query())
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid session options", err)
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, h.maxUploadBytes())
	upload, closeUpload, err := uploadReader(req)
	if err != nil {
		h.sendFailure(w, "Unable to read upload", err)
		return
	}
	defer closeUpload()

	table, err := sessions.ReadCSV(upload)
	if err != nil {
		h.sendFailure(w, "Invalid CSV", err)
		return
	}

	session, err := h.controller.processor.Process(req.Context(), table, opts)
	if err != nil {
		h.sendFailure(w, "Unable to process session", err)
		return
	}
	session.UserID = userID

	if err := h.controller.store.SaveSession(req.Context(), session, overwrite); err != nil {
		h.sendFailure(w, "Failed to save session", err)
		return
	}

	h.controller.logger.Infof("stored session %s for user %s: %d metrics, %d frames, segmentation %q",
		session.Date, userID, len(session.Metrics), table.Frames, session.Metadata.Segmentation)
	h.sendData(w, req, http.StatusCreated, session)
}

// uploadReader returns the CSV stream of a request and a function releasing it
func uploadReader(req *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return req.Body, func() {}, nil
	}

	file, _, err := req.FormFile("file")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: multipart upload needs a \"file\" part: %v", errBadRequest, err)
	}
	return file, func() {
		file.Close()
		if req.MultipartForm != nil {
			req.MultipartForm.RemoveAll()
		}
	}, nil
}

// GetSession returns one full session
func (h *Handlers) GetSession(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	session, err := h.controller.store.GetSession(req.Context(), vars["id"], vars["date"])
	if err != nil {
		h.sendFailure(w, "Session not found", err)
		return
	}
	h.sendData(w, req, http.StatusOK, session)
}

// DeleteSession removes one session
func (h *Handlers) DeleteSession(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	if err := h.controller.store.DeleteSession(req.Context(), vars["id"], vars["date"]); err != nil {
		h.sendFailure(w, "Failed to delete session", err)
		return
	}
	h.controller.logger.Infof("deleted session %s for user %s", vars["date"], vars["id"])
	w.WriteHeader(http.StatusNoContent)
}

// GetSessionChart renders the phase statistics of one metric of a session
func (h *Handlers) GetSessionChart(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	query := req.URL.Query()

	metric, err := metricParam(query)
	if err != nil {
		h.sendFailure(w, "Invalid metric", err)
		return
	}
	format, err := report.ParseFormat(query.Get("format"))
	if err != nil {
		h.sendFailure(w, "Invalid chart format", err)
		return
	}

	session, err := h.controller.store.GetSession(req.Context(), vars["id"], vars["date"])
	if err != nil {
		h.sendFailure(w, "Session not found", err)
		return
	}
	data, ok := session.Metrics[metric]
	if !ok {
		h.sendError(w, http.StatusNotFound, "Metric not recorded in this session", nil)
		return
	}

	title := fmt.Sprintf("%s, %s", metric.Title(), session.Date)
	var buf bytes.Buffer
	if err := report.RenderPhaseChart(&buf, title, data.Phases, format); err != nil {
		h.sendFailure(w, "Unable to render chart", err)
		return
	}
	h.sendImage(w, format, buf.Bytes())
}

// GetRepetitionPattern returns the mean repetition shape of one session metric
func (h *Handlers) GetRepetitionPattern(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	metric, err := metricParam(req.URL.Query())
	if err != nil {
		h.sendFailure(w, "Invalid metric", err)
		return
	}

	session, err := h.controller.store.GetSession(req.Context(), vars["id"], vars["date"])
	if err != nil {
		h.sendFailure(w, "Session not found", err)
		return
	}
	data, ok := session.Metrics[metric]
	if !ok {
		h.sendError(w, http.StatusNotFound, "Metric not recorded in this session", nil)
		return
	}

	reps := session.Metadata.Repetitions
	pattern, err := sessions.RepetitionPattern(data.Values, reps)
	if err != nil {
		h.sendFailure(w, "Unable to compute repetition pattern", err)
		return
	}
	h.sendData(w, req, http.StatusOK, PatternResponse{
		Metric:      metric,
		Repetitions: reps,
		Mean:        pattern.Mean,
		Std:         pattern.Std,
	})
}

// GetProgress returns the trend of a metric across the user's sessions
func (h *Handlers) GetProgress(w http.ResponseWriter, req *http.Request) {
	series, ok := h.progressSeries(w, req)
	if !ok {
		return
	}

	resp := ProgressResponse{Series: series}
	progress, err := sessions.ComputeProgress(series)
	switch {
	case err == nil:
		resp.Progress = progress
	case !errors.Is(err, sessions.ErrInsufficientSessions):
		h.sendFailure(w, "Unable to compute progress", err)
		return
	}
	h.sendData(w, req, http.StatusOK, resp)
}

// GetProgressChart renders the per-session trend of a metric
func (h *Handlers) GetProgressChart(w http.ResponseWriter, req *http.Request) {
	format, err := report.ParseFormat(req.URL.Query().Get("format"))
	if err != nil {
		h.sendFailure(w, "Invalid chart format", err)
		return
	}
	series, ok := h.progressSeries(w, req)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.RenderProgressChart(&buf, series, format); err != nil {
		h.sendFailure(w, "Unable to render chart", err)
		return
	}
	h.sendImage(w, format, buf.Bytes())
}

// progressSeries loads the trend series for the metric named in the query.
// It writes the error response itself and reports false on failure.
func (h *Handlers) progressSeries(w http.ResponseWriter, req *http.Request) (sessions.TrendSeries, bool) {
	userID := mux.Vars(req)["id"]
	metric, err := metricParam(req.URL.Query())
	if err != nil {
		h.sendFailure(w, "Invalid metric", err)
		return sessions.TrendSeries{}, false
	}
	if _, err := h.controller.store.GetUser(req.Context(), userID); err != nil {
		h.sendFailure(w, "User not found", err)
		return sessions.TrendSeries{}, false
	}

	list, err := h.controller.store.ListSessions(req.Context(), userID)
	if err != nil {
		h.sendFailure(w, "Failed to list sessions", err)
		return sessions.TrendSeries{}, false
	}
	return sessions.Series(metric, list), true
}

func (h *Handlers) sendImage(w http.ResponseWriter, format report.Format, img []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

func (h *Handlers) maxUploadBytes() int64 {
	return int64(h.controller.serverConfig.MaxUploadMB) << 20
}
