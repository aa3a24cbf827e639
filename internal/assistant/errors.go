package assistant

import (
	"errors"
	"net/http"

	"domainagent/internal/backend"
	dErrors "domainagent/pkg/domain-errors"
)

// backendError translates an outbound client failure into a domain error.
func backendError(err error, msg string) error {
	var be *backend.Error
	if !errors.As(err, &be) {
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
	switch {
	case be.Category == backend.ErrorBadStatus && be.StatusCode == http.StatusNotFound:
		return dErrors.Wrap(err, dErrors.CodeNotFound, msg)
	case be.Category == backend.ErrorBadStatus && be.StatusCode == http.StatusBadRequest:
		return dErrors.Wrap(err, dErrors.CodeBadRequest, msg)
	case be.Category == backend.ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, msg)
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
}
