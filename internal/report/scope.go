package report

import "github.com/straye-as/insight-api/internal/domain"

// AccessScope restricts a report computation to the records the caller may
// see. It is always passed explicitly and contributes the first predicate of
// every query; admins see everything.
type AccessScope struct {
	OwnerID string
	Role    domain.UserRoleType
}

// AdminScope sees all records. Used by background jobs replaying saved
// reports on behalf of their owners.
func AdminScope() AccessScope {
	return AccessScope{Role: domain.RoleAdmin}
}

// predicate returns the ownership restriction for the given entity, or the
// identity predicate for admins.
func (s AccessScope) predicate(cfg *EntityConfig) Predicate {
	if s.Role == domain.RoleAdmin {
		return Predicate{}
	}
	return Predicate{
		SQL:  cfg.Columns["ownerId"] + " = ?",
		Args: []interface{}{s.OwnerID},
	}
}
