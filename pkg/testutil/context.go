package testutil

import (
	"net/http"
	"time"

	id "factorline/pkg/domain"
	"factorline/pkg/requestcontext"
)

// WithParty adds an authenticated party to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the partyID is not a valid UUID, it will not be added to the context.
func WithParty(req *http.Request, partyID string) *http.Request {
	parsed, err := id.ParsePartyID(partyID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithPartyID(req.Context(), parsed))
}

// WithRequestTime pins the request-scoped clock.
// Temporal preconditions (funding window, grace period, claim window) read
// this instant, so tests can place a request anywhere on the timeline.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
