package logapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/groomly/notify/pkg/notification"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

type handler struct {
	store notification.Storage
	log   *slog.Logger
}

// NewHandler returns the read-only log query router. The logger is
// optional; slog.Default is used when nil.
func NewHandler(store notification.Storage, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &handler{store: store, log: log}

	r := chi.NewRouter()
	r.Get("/logs", h.list)
	r.Get("/logs/{id}", h.get)
	return r
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.store.Query(r.Context(), f)
	if err != nil {
		h.log.ErrorContext(r.Context(), "log query failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
		"limit":   f.Limit,
		"offset":  f.Offset,
	})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, notification.ErrEntryNotFound) {
			writeError(w, http.StatusNotFound, "log entry not found")
			return
		}
		h.log.ErrorContext(r.Context(), "log lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// filterFromQuery parses the query string into a notification.Filter.
// Unknown status or channel values are rejected rather than silently
// matching nothing.
func filterFromQuery(r *http.Request) (notification.Filter, error) {
	q := r.URL.Query()
	f := notification.Filter{
		Type:  q.Get("type"),
		Limit: defaultLimit,
	}

	if v := q.Get("status"); v != "" {
		s := notification.Status(v)
		switch s {
		case notification.StatusPending, notification.StatusSent,
			notification.StatusFailedRetryable, notification.StatusFailedPermanent,
			notification.StatusSkipped:
			f.Status = &s
		default:
			return f, fmt.Errorf("unknown status %q", v)
		}
	}

	if v := q.Get("channel"); v != "" {
		c := notification.Channel(v)
		if !c.Valid() {
			return f, fmt.Errorf("unknown channel %q", v)
		}
		f.Channel = &c
	}

	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid from time: %v", err)
		}
		f.From = &t
	}

	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("invalid to time: %v", err)
		}
		f.To = &t
	}

	if v := q.Get("is_test"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid is_test value: %v", err)
		}
		f.IsTest = &b
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("invalid limit %q", v)
		}
		f.Limit = min(n, maxLimit)
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("invalid offset %q", v)
		}
		f.Offset = n
	}

	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
