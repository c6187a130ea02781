package repository

import (
	"strings"

	"github.com/straye-as/insight-api/internal/domain"
	"github.com/straye-as/insight-api/internal/report"
	"gorm.io/gorm"
)

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// ApplyAccessScope restricts a metadata query (reports, dashboards, folders)
// to rows owned by the caller. Admins see everything. The engine applies the
// equivalent restriction to report data itself; this helper covers the CRUD
// side so both honor the same scope value.
func ApplyAccessScope(query *gorm.DB, scope report.AccessScope) *gorm.DB {
	return ApplyAccessScopeWithColumn(query, scope, "owner_id")
}

// ApplyAccessScopeWithColumn applies the ownership restriction on a specific
// column. Use when the owner column is table-qualified in a join.
func ApplyAccessScopeWithColumn(query *gorm.DB, scope report.AccessScope, column string) *gorm.DB {
	if scope.Role == domain.RoleAdmin {
		return query
	}
	return query.Where(column+" = ?", scope.OwnerID)
}
