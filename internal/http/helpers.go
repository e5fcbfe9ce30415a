package http

import (
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// owner returns the authenticated owner id. The auth middleware guarantees
// one on every /api/v1 route; a missing id means the route was mounted
// without it.
func owner(r *http.Request) (string, error) {
	id, ok := auth.OwnerFrom(r.Context())
	if !ok {
		return "", auth.ErrUnauthorized
	}
	return id, nil
}

// pathID returns the {id} wildcard of the matched route.
func pathID(r *http.Request) (string, error) {
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		return "", core.BadRequestf("missing id")
	}
	return id, nil
}

// deleted is the payload of every successful delete.
type deleted struct {
	ID string `json:"id"`
}
