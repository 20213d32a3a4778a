package wcl

import "errors"

var (
	// ErrUpstreamAuth marks a credential or token-exchange failure. Fatal to
	// the whole roll-up run; the run may be retried later as a unit.
	ErrUpstreamAuth = errors.New("upstream auth failure")

	// ErrUpstreamQuery marks a rejected or failed upstream query. Also fatal
	// to the run; there is no partial roll-up.
	ErrUpstreamQuery = errors.New("upstream query failure")
)
