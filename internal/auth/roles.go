package auth

import (
	"slices"
	"strings"
)

// Role is the role claim of a decline API token.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Action is an operation exposed by the decline API.
type Action string

const (
	// ActionReadResults covers the rate and error tables, exports and stored models.
	ActionReadResults Action = "results:read"
	// ActionRunFit starts a full population pass.
	ActionRunFit Action = "fits:run"
	// ActionTuneWell replaces one well's decline model and re-simulates it.
	ActionTuneWell Action = "wells:tune"
	// ActionAdminister covers engine configuration.
	ActionAdminister Action = "engine:admin"
)

var grants = map[Role][]Action{
	RoleViewer:   {ActionReadResults},
	RoleOperator: {ActionReadResults, ActionRunFit, ActionTuneWell},
	RoleAdmin:    {ActionReadResults, ActionRunFit, ActionTuneWell, ActionAdminister},
}

// ParseRole normalizes a role claim.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := grants[role]; !ok {
		return "", false
	}
	return role, true
}

// Can reports whether the role is granted action.
func (r Role) Can(action Action) bool {
	return slices.Contains(grants[r], action)
}
