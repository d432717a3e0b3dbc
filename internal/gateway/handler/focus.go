package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"focuslog/internal/focus"
	"focuslog/internal/gateway/repository/ledger"
	"focuslog/internal/gateway/service/study"
)

// maxSaveBody caps the save request body; larger bodies are rejected as
// invalid JSON.
const maxSaveBody = 1 << 20

// StudyService is what the HTTP surface needs from the study service.
type StudyService interface {
	Save(ctx context.Context, payload map[string]any) (focus.AccumulateResult, error)
	Today(ctx context.Context) (focus.DayWindow, []study.TodayRow, error)
	Subjects(ctx context.Context) ([]string, error)
	History(ctx context.Context, day string) (string, []ledger.Entry, error)
}

type FocusHandler struct {
	svc StudyService
}

func NewFocusHandler(svc StudyService) *FocusHandler {
	return &FocusHandler{svc: svc}
}

// HandleSave accumulates minutes onto today's row for a subject.
func (h *FocusHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("save panic: %v", rec)
			writeJSON(w, http.StatusInternalServerError, focus.ServerErrorResponse())
		}
	}()
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, focus.MethodNotAllowedResponse())
		return
	}
	payload, err := focus.DecodePayload(http.MaxBytesReader(w, r.Body, maxSaveBody))
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.Save(r.Context(), payload)
	if err != nil {
		logFailure("save", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, focus.SuccessResponse(res))
}

func (h *FocusHandler) HandleToday(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, focus.MethodNotAllowedResponse())
		return
	}
	window, rows, err := h.svc.Today(r.Context())
	if err != nil {
		logFailure("today", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"day":  window.Today,
		"rows": rows,
	})
}

func (h *FocusHandler) HandleSubjects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, focus.MethodNotAllowedResponse())
		return
	}
	subjects, err := h.svc.Subjects(r.Context())
	if err != nil {
		logFailure("subjects", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"subjects": subjects,
	})
}

func (h *FocusHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, focus.MethodNotAllowedResponse())
		return
	}
	day, entries, err := h.svc.History(r.Context(), strings.TrimSpace(r.URL.Query().Get("day")))
	if err != nil {
		logFailure("history", err)
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []ledger.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"day":     day,
		"entries": entries,
	})
}

func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func writeError(w http.ResponseWriter, err error) {
	var rsErr *focus.RemoteStoreError
	if errors.As(err, &rsErr) && rsErr.RetryAfter > 0 {
		secs := int64((rsErr.RetryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeJSON(w, focus.StatusCode(err), focus.ErrorResponse(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func logFailure(op string, err error) {
	if focus.StatusCode(err) >= http.StatusInternalServerError {
		log.Printf("%s failed: %v", op, err)
	}
}
