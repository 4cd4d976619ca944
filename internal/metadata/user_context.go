package metadata

import "slices"

// UserContext represents the authenticated user, set by auth middleware.
type UserContext struct {
	ID        string   `json:"id"`
	Household string   `json:"household,omitempty"` // default active household, if the token carries one
	Roles     []string `json:"roles"`
}

func (u *UserContext) IsAdmin() bool {
	return slices.Contains(u.Roles, "admin")
}
