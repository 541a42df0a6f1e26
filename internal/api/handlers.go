package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hyperengineering/daybook/internal/repository"
	"github.com/hyperengineering/daybook/internal/session"
	"github.com/hyperengineering/daybook/internal/store"
	"github.com/hyperengineering/daybook/internal/types"
	"github.com/hyperengineering/daybook/internal/validation"
)

// maxBodyBytes caps request bodies; the longest entry content fits well within.
const maxBodyBytes = 1 << 20

// Handler implements the API handlers
type Handler struct {
	session   *session.Coordinator
	repo      *repository.Repository
	apiKey    string
	version   string
	keepAlive time.Duration
}

// NewHandler creates a Handler serving the coordinator's repository.
func NewHandler(c *session.Coordinator, apiKey, version string) *Handler {
	return &Handler{
		session:   c,
		repo:      c.Repository(),
		apiKey:    apiKey,
		version:   version,
		keepAlive: 30 * time.Second,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.Stats(r.Context())
	if err != nil {
		MapStoreError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, types.HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Stats:   *stats,
	})
}

// --- Journals ---

// ListJournals handles GET /api/v1/journals
func (h *Handler) ListJournals(w http.ResponseWriter, r *http.Request) {
	h.listJournals(w, r, false)
}

// ListDeletedJournals handles GET /api/v1/journals/deleted
func (h *Handler) ListDeletedJournals(w http.ResponseWriter, r *http.Request) {
	h.listJournals(w, r, true)
}

func (h *Handler) listJournals(w http.ResponseWriter, r *http.Request, deleted bool) {
	journals, err := h.repo.ListJournals(r.Context(), deleted)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, journals)
}

// GetJournal handles GET /api/v1/journals/{id}
func (h *Handler) GetJournal(w http.ResponseWriter, r *http.Request) {
	id := MustIDFromContext(r.Context())
	j, err := h.repo.GetJournal(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if j == nil {
		WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Journal %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// CreateJournal handles POST /api/v1/journals. A nonzero id upserts.
func (h *Handler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var j types.Journal
	if !decodeJSON(w, r, &j) {
		return
	}
	if errs := validation.ValidateJournal(j); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	if j.Color == "" {
		j.Color = types.DefaultJournalColor
	}
	if j.Icon == "" {
		j.Icon = types.DefaultJournalIcon
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = types.Now()
	}

	id, err := h.session.InsertJournal(r.Context(), j)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.IDResponse{ID: id})
}

// UpdateJournal handles PUT /api/v1/journals/{id}. Updating an absent
// journal is a no-op.
func (h *Handler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	var j types.Journal
	if !decodeJSON(w, r, &j) {
		return
	}
	j.ID = MustIDFromContext(r.Context())
	if errs := validation.ValidateJournal(j); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if j.CreatedAt.IsZero() || j.Color == "" || j.Icon == "" {
		existing, err := h.repo.GetJournal(r.Context(), j.ID)
		if err != nil {
			MapStoreError(w, r, err)
			return
		}
		if existing != nil {
			fillJournal(&j, existing)
		}
	}

	if err := h.session.UpdateJournal(r.Context(), j); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fillJournal keeps the stored value of every field the update left out.
func fillJournal(j *types.Journal, existing *types.Journal) {
	if j.CreatedAt.IsZero() {
		j.CreatedAt = existing.CreatedAt
	}
	if j.Color == "" {
		j.Color = existing.Color
	}
	if j.Icon == "" {
		j.Icon = existing.Icon
	}
}

// TrashJournal handles POST /api/v1/journals/{id}/trash
func (h *Handler) TrashJournal(w http.ResponseWriter, r *http.Request) {
	if err := h.session.TrashJournal(r.Context(), MustIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreJournal handles POST /api/v1/journals/{id}/restore
func (h *Handler) RestoreJournal(w http.ResponseWriter, r *http.Request) {
	if err := h.session.RestoreJournal(r.Context(), MustIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteJournal handles DELETE /api/v1/journals/{id}. Idempotent.
func (h *Handler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteJournalByID(r.Context(), MustIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Entries ---

var errBadEntryQuery = errors.New("bad entry query")

// entryQuery selects the entry view from journal_id, or from and to in
// milliseconds since the epoch. With neither, every entry is listed.
func entryQuery(r *http.Request) (store.Query, error) {
	v := r.URL.Query()
	journal, from, to := v.Get("journal_id"), v.Get("from"), v.Get("to")

	switch {
	case journal != "" && (from != "" || to != ""):
		return store.Query{}, fmt.Errorf("%w: journal_id cannot be combined with from/to", errBadEntryQuery)
	case journal != "":
		id, err := strconv.ParseInt(journal, 10, 64)
		if err != nil {
			return store.Query{}, fmt.Errorf("%w: journal_id must be an integer", errBadEntryQuery)
		}
		return store.EntriesByJournal(id), nil
	case from != "" || to != "":
		if from == "" || to == "" {
			return store.Query{}, fmt.Errorf("%w: from and to must be given together", errBadEntryQuery)
		}
		fromMs, err1 := strconv.ParseInt(from, 10, 64)
		toMs, err2 := strconv.ParseInt(to, 10, 64)
		if err1 != nil || err2 != nil {
			return store.Query{}, fmt.Errorf("%w: from and to must be milliseconds since the epoch", errBadEntryQuery)
		}
		return store.EntriesByDate(types.FromMillis(fromMs), types.FromMillis(toMs)), nil
	default:
		return store.AllEntries(), nil
	}
}

// ListEntries handles GET /api/v1/entries
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q, err := entryQuery(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	entries, err := h.repo.ListEntries(r.Context(), q)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetEntry handles GET /api/v1/entries/{id}
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := MustIDFromContext(r.Context())
	e, err := h.repo.GetEntry(r.Context(), id)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	if e == nil {
		WriteProblem(w, r, http.StatusNotFound, fmt.Sprintf("Entry %d not found", id))
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// CreateEntry handles POST /api/v1/entries. A nonzero id upserts.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var e types.JournalEntry
	if !decodeJSON(w, r, &e) {
		return
	}
	if errs := validation.ValidateEntry(e); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = types.Now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	if e.Date.IsZero() {
		e.Date = e.CreatedAt
	}

	id, err := h.repo.InsertEntry(r.Context(), e)
	if err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.IDResponse{ID: id})
}

// UpdateEntry handles PUT /api/v1/entries/{id}. The store stamps
// updated_at; updating an absent entry is a no-op.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var e types.JournalEntry
	if !decodeJSON(w, r, &e) {
		return
	}
	e.ID = MustIDFromContext(r.Context())
	if errs := validation.ValidateEntry(e); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}

	if e.CreatedAt.IsZero() || e.Date.IsZero() {
		existing, err := h.repo.GetEntry(r.Context(), e.ID)
		if err != nil {
			MapStoreError(w, r, err)
			return
		}
		if existing != nil {
			fillEntry(&e, existing)
		}
	}

	if err := h.repo.UpdateEntry(r.Context(), e); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fillEntry keeps the stored created_at and date when the update omits them.
func fillEntry(e *types.JournalEntry, existing *types.JournalEntry) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = existing.CreatedAt
	}
	if e.Date.IsZero() {
		e.Date = existing.Date
	}
}

// DeleteEntry handles DELETE /api/v1/entries/{id}. Idempotent.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteEntryByID(r.Context(), MustIDFromContext(r.Context())); err != nil {
		MapStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Session ---

func selectionResponse(sel types.Selection) types.SelectionResponse {
	if !sel.Valid {
		return types.SelectionResponse{}
	}
	id := sel.ID
	return types.SelectionResponse{JournalID: &id}
}

// GetSelection handles GET /api/v1/session/selection
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, selectionResponse(h.session.SelectedJournal().Get()))
}

// PutSelection handles PUT /api/v1/session/selection. A null journal_id
// clears the selection.
func (h *Handler) PutSelection(w http.ResponseWriter, r *http.Request) {
	var req types.SelectionResponse
	if !decodeJSON(w, r, &req) {
		return
	}

	sel := types.NoSelection
	if req.JournalID != nil {
		sel = types.Selected(*req.JournalID)
	}
	if err := h.session.SetSelectedJournal(r.Context(), sel); err != nil {
		MapStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse(sel))
}
