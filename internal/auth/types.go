package auth

import "errors"

// Role is an authorisation tier.
type Role string

const (
	// RoleViewer can read appliance state and history.
	RoleViewer Role = "viewer"

	// RoleOperator can also send commands and trigger refreshes.
	RoleOperator Role = "operator"

	// RoleAdmin can also mint tokens and read diagnostics.
	RoleAdmin Role = "admin"
)

// ValidRoles lists every role.
var ValidRoles = []Role{RoleViewer, RoleOperator, RoleAdmin}

// IsValidRole returns true if r is a known role.
func IsValidRole(r Role) bool {
	for _, v := range ValidRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Principal is the authenticated caller of a request.
type Principal struct {
	// Subject is the token subject or API key name.
	Subject string `json:"subject"`
	Role    Role   `json:"role"`

	// Method is "jwt" or "api_key".
	Method string `json:"method"`
}

// Authentication methods.
const (
	MethodJWT    = "jwt"
	MethodAPIKey = "api_key"
)

// Sentinel errors for auth operations.
var (
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrInvalidRole   = errors.New("invalid role")
	ErrForbidden     = errors.New("insufficient permissions")
)
