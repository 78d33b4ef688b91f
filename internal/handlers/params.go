package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"wikimerge/internal/wiki"
)

// actorHeader carries the authenticated user's ID, set by the gateway in
// front of this service. Authentication itself happens upstream.
const actorHeader = "X-Actor-Id"

// pathUUID parses a UUID URL parameter.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", wiki.ErrValidation, name)
	}
	return id, nil
}

// actorID extracts the acting user from the request headers.
func actorID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.Header.Get(actorHeader))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: missing or invalid %s header", wiki.ErrValidation, actorHeader)
	}
	return id, nil
}

// queryInt parses an integer query parameter, returning def when absent
// or malformed.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
