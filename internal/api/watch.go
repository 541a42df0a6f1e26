package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hyperengineering/daybook/internal/types"
)

// streamEvents writes every value from ch as a Server-Sent Event until the
// client goes away or ch closes. A comment line is sent every keepAlive so
// idle proxies keep the connection open.
func streamEvents[T any](w http.ResponseWriter, r *http.Request, ch <-chan T, keepAlive time.Duration) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteProblem(w, r, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case v, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(v)
			if err != nil {
				slog.Error("failed to encode live view",
					"component", "api",
					"path", r.URL.Path,
					"error", err,
				)
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// WatchJournals handles GET /api/v1/watch/journals?deleted=true|false
func (h *Handler) WatchJournals(w http.ResponseWriter, r *http.Request) {
	deleted := false
	if raw := r.URL.Query().Get("deleted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, "deleted must be true or false")
			return
		}
		deleted = v
	}

	var (
		ch  <-chan []types.Journal
		err error
	)
	if deleted {
		ch, err = h.repo.DeletedJournals(r.Context())
	} else {
		ch, err = h.repo.ActiveJournals(r.Context())
	}
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	streamEvents(w, r, ch, h.keepAlive)
}

// WatchEntries handles GET /api/v1/watch/entries, taking the same view
// parameters as ListEntries.
func (h *Handler) WatchEntries(w http.ResponseWriter, r *http.Request) {
	q, err := entryQuery(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ch, err := h.repo.WatchEntries(r.Context(), q)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	streamEvents(w, r, ch, h.keepAlive)
}

// WatchSelection handles GET /api/v1/watch/selection
func (h *Handler) WatchSelection(w http.ResponseWriter, r *http.Request) {
	sels := h.session.SelectedJournal().Watch(r.Context())
	out := make(chan types.SelectionResponse)
	go func() {
		defer close(out)
		for sel := range sels {
			select {
			case out <- selectionResponse(sel):
			case <-r.Context().Done():
				return
			}
		}
	}()
	streamEvents(w, r, out, h.keepAlive)
}
