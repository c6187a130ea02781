package domain

import "encoding/json"

// GenerateReportRequest runs an ad-hoc report without saving it.
// Config is the raw report spec as sent by the report builder UI.
type GenerateReportRequest struct {
	Config json.RawMessage `json:"config" validate:"required"`
}

// CreateReportRequest creates a saved report
type CreateReportRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	ChartType string          `json:"chartType" validate:"omitempty,oneof=bar line pie table number"`
	Config    json.RawMessage `json:"config" validate:"required"`
	FolderID  *string         `json:"folderId" validate:"omitempty,uuid"`
}

// UpdateReportRequest updates a saved report
type UpdateReportRequest struct {
	Name      string          `json:"name" validate:"required,max=200"`
	ChartType string          `json:"chartType" validate:"omitempty,oneof=bar line pie table number"`
	Config    json.RawMessage `json:"config" validate:"required"`
	FolderID  *string         `json:"folderId" validate:"omitempty,uuid"`
}

// ListReportsQuery filters the saved report listing
type ListReportsQuery struct {
	FolderID *string
	Page     int
	PageSize int
}

// CreateDashboardRequest creates a dashboard
type CreateDashboardRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// UpdateDashboardRequest renames a dashboard
type UpdateDashboardRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// PlacementRequest positions one report on a dashboard grid
type PlacementRequest struct {
	ReportID string `json:"reportId" validate:"required,uuid"`
	Row      int    `json:"row" validate:"gte=0"`
	Col      int    `json:"col" validate:"gte=0"`
	Width    int    `json:"width" validate:"gte=1,lte=12"`
	Height   int    `json:"height" validate:"gte=1,lte=12"`
}

// ReplacePlacementsRequest replaces a dashboard's full set of placements
type ReplacePlacementsRequest struct {
	Placements []PlacementRequest `json:"placements" validate:"required,dive"`
}

// CreateFolderRequest creates a report folder
type CreateFolderRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`
}

// UpdateFolderRequest renames or moves a folder
type UpdateFolderRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`
}

// ListResponse is the standard paginated list envelope
type ListResponse struct {
	Items      interface{} `json:"items"`
	TotalItems int64       `json:"totalItems"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
}
