package handler

import (
	"errors"
	"net/http"

	"mooki/internal/domain"
	"mooki/internal/httputil"
)

// respondDomainError maps a service failure onto an RFC 7807 response.
// Typed domain errors carry their own status; anything unclassified is a
// 500 with a generic detail so internals never leak to the client.
func respondDomainError(w http.ResponseWriter, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	httputil.RespondError(w, http.StatusInternalServerError, "An unexpected error occurred.")
}
