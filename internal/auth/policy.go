package auth

import (
	"net/http"
	"strings"
)

const declinePrefix = "/api/v1/decline/"

// Route is what a request does to the decline API and which well it targets.
type Route struct {
	Action Action
	WellID string
}

// Policy maps requests to decline actions.
type Policy struct {
	ExemptPaths map[string]struct{}
}

// NewDefaultPolicy builds a policy that lets exemptPaths through unauthenticated.
func NewDefaultPolicy(exemptPaths ...string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set}
}

// IsExempt returns true when a request should skip auth.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	_, ok := p.ExemptPaths[r.URL.Path]
	return ok
}

// Resolve returns the route of a decline API request. Requests outside the
// API resolve to false and are not checked.
func (p Policy) Resolve(r *http.Request) (Route, bool) {
	if r == nil || !strings.HasPrefix(r.URL.Path, declinePrefix) {
		return Route{}, false
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, declinePrefix), "/")
	readOnly := r.Method == http.MethodGet || r.Method == http.MethodHead

	switch parts := strings.Split(path, "/"); {
	case path == "fits":
		return Route{Action: ActionRunFit}, true
	case len(parts) == 3 && parts[0] == "wells" && parts[2] == "model":
		if readOnly {
			return Route{Action: ActionReadResults, WellID: parts[1]}, true
		}
		return Route{Action: ActionTuneWell, WellID: parts[1]}, true
	case path == "config":
		return Route{Action: ActionAdminister}, true
	case readOnly:
		return Route{Action: ActionReadResults}, true
	default:
		return Route{Action: ActionAdminister}, true
	}
}
