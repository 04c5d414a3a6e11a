package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"speech-illustrator/internal/bootstrap"
	"speech-illustrator/internal/capture"
	"speech-illustrator/internal/domain"
	"speech-illustrator/internal/runs"
)

const maxUploadBytes = 25 << 20

// Handler serves the API routes.
type Handler struct {
	svc Service
	log *zap.Logger
}

func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.State())
}

// GetLog returns entries after ?since=N, or the whole log.
func (h *Handler) GetLog(w http.ResponseWriter, r *http.Request) {
	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = parsed
	}

	entries := h.svc.LogSince(since)
	if entries == nil {
		entries = []runs.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) GetProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetProviders())
}

func (h *Handler) GetDiagnostics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetDiagnostics())
}

func (h *Handler) PutProvider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Provider string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := h.svc.SelectProvider(req.Provider); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}

// PutCredential stores a session key; the key is never echoed back.
func (h *Handler) PutCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := h.svc.SetCredential(chi.URLParam(r, "provider"), req.Key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StartRecording(w http.ResponseWriter, _ *http.Request) {
	run, err := h.svc.StartRecording()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) StopRecording(w http.ResponseWriter, _ *http.Request) {
	if err := h.svc.StopRecording(); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.State())
}

// BeginBrowserRecording opens a run before the page asks for the microphone.
func (h *Handler) BeginBrowserRecording(w http.ResponseWriter, _ *http.Request) {
	run, err := h.svc.BeginBrowserRecording()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *Handler) ConfirmBrowserRecording(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ConfirmBrowserRecording(chi.URLParam(r, "runID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}

// ReportCaptureError records why the page could not open the microphone.
func (h *Handler) ReportCaptureError(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return
	}
	if err := h.svc.ReportCaptureError(chi.URLParam(r, "runID"), req.Message); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.State())
}

func (h *Handler) StopBrowserRecording(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.StopBrowserRecording(chi.URLParam(r, "runID")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.svc.State())
}

// SubmitRun accepts a multipart "file" holding a finalized browser recording.
// An optional "run" field completes a run opened with BeginBrowserRecording.
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read file: "+err.Error())
		return
	}

	payload := domain.AudioPayload{
		Data:        data,
		FileName:    domain.BrowserAudioFileName,
		ContentType: domain.BrowserAudioContentType,
	}
	if name := strings.TrimSpace(header.Filename); name != "" {
		payload.FileName = name
	}
	if ct := strings.TrimSpace(header.Header.Get("Content-Type")); ct != "" && ct != "application/octet-stream" {
		payload.ContentType = ct
	}

	var run domain.Run
	if runID := strings.TrimSpace(r.FormValue("run")); runID != "" {
		run, err = h.svc.CompleteBrowserRecording(runID, payload)
	} else {
		run, err = h.svc.SubmitRecording(payload)
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, run)
}

// writeServiceError maps guard and device failures to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var deviceErr *capture.DeviceError
	switch {
	case errors.Is(err, runs.ErrRunInProgress),
		errors.Is(err, capture.ErrAlreadyRecording),
		errors.Is(err, capture.ErrNotRecording),
		errors.Is(err, bootstrap.ErrNoBrowserRecording):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &deviceErr):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, bootstrap.ErrEmptyRecording):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
