package auth

// Role is the access tier of a claims API caller.
//
// Viewers read claims, traces and the reconciliation dashboard. Operators
// additionally create claims, run window submissions and record payments.
// Admins may also force lifecycle transitions and pull submission exports
// for the regulator.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// NormalizeRole maps a token's role string onto a known tier.
func NormalizeRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleViewer, RoleOperator, RoleAdmin:
		return Role(value), true
	default:
		return "", false
	}
}

// RoleAtLeast reports whether role meets the tier a route demands.
func RoleAtLeast(role Role, required Role) bool {
	return roleRank(role) >= roleRank(required)
}

// Unknown roles rank below viewer and pass no gate.
func roleRank(role Role) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleOperator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}
