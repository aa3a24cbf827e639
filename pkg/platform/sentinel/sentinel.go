package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and outbound clients return
// these (optionally wrapped); services translate them into domain errors.
//
//   - ErrNotFound: no conversation snapshot under the requested id
//   - ErrConflict: an id is already taken
//   - ErrUnavailable: a backend or store is temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
