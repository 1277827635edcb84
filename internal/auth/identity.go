package auth

import "strings"

// Role values known to the policy layer. The set is open: the role column is
// free text and unknown values simply match no allowed set.
const (
	RoleUser     = "user"
	RoleManager  = "manager"
	RoleTeamlead = "teamlead"
	RoleAdmin    = "admin"
)

// Identity is an authenticated caller as carried inside a session token.
// It is authoritative for the token's lifetime even if the durable user
// record changes underneath it.
type Identity struct {
	ID    int64  `json:"userId"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool {
	return normalizeRole(id.Role) == RoleAdmin
}

func normalizeRole(role string) string {
	return strings.TrimSpace(strings.ToLower(role))
}
