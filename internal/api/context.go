package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// idContextKey is the context key for the {id} path parameter.
type idContextKey struct{}

// ErrNoIDInContext indicates no resource id was found in the context.
var ErrNoIDInContext = errors.New("no id in context")

// WithID returns a new context with the resource id attached.
func WithID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, idContextKey{}, id)
}

// IDFromContext extracts the resource id from the context.
// Returns ErrNoIDInContext if not present.
func IDFromContext(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(idContextKey{}).(int64)
	if !ok {
		return 0, ErrNoIDInContext
	}
	return id, nil
}

// MustIDFromContext extracts the id or panics.
// Use only when ResolveID guarantees its presence.
func MustIDFromContext(ctx context.Context) int64 {
	id, err := IDFromContext(ctx)
	if err != nil {
		panic("id not in context: middleware misconfiguration")
	}
	return id
}

// ResolveID parses the {id} path parameter into the request context.
// Ids are positive integers; anything else is a 400.
func ResolveID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			WriteProblem(w, r, http.StatusBadRequest, "Invalid id: must be a positive integer")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
	})
}
