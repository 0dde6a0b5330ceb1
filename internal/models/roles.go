package models

// DefaultAdminEmail is the account that is always treated as admin,
// regardless of its stored role. Operators can override it through
// configuration; an empty value disables the rule.
//
// TODO: replace with a backend-side role claim once the hosted backend
// supports per-account role assignment.
const DefaultAdminEmail = "admin@helpdesk.local"

// EffectiveRole resolves the role a session gets at establishment time.
// The designated administrator email always escalates to RoleAdmin; every
// other account keeps its stored role. This is the single place the rule
// is evaluated; both login and session restore construct sessions
// through it.
func EffectiveRole(adminEmail, email string, stored Role) Role {
	if adminEmail != "" && email == adminEmail {
		return RoleAdmin
	}
	if stored == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}
