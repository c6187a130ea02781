package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Base model with common fields. IDs are generated in Go so the same models
// work against postgres in production and sqlite in tests.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// BeforeCreate assigns an ID if the caller did not provide one
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// UserRoleType represents a user's role in the system
type UserRoleType string

const (
	RoleAdmin   UserRoleType = "admin"
	RoleManager UserRoleType = "manager"
	RoleRep     UserRoleType = "rep"
)

// User represents a CRM user (report owner, activity assignee)
type User struct {
	ID        string         `gorm:"type:varchar(100);primaryKey" json:"id"`
	Email     string         `gorm:"type:varchar(255);not null;unique" json:"email"`
	Name      string         `gorm:"type:varchar(200);not null" json:"name"`
	Role      UserRoleType   `gorm:"type:varchar(50);not null;default:'rep'" json:"role"`
	Team      string         `gorm:"type:varchar(100);index" json:"team,omitempty"`
	Scopes    pq.StringArray `gorm:"type:text[]" json:"scopes,omitempty"`
	IsActive  bool           `gorm:"not null;default:true;column:is_active" json:"isActive"`
	CreatedAt time.Time      `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"not null" json:"updatedAt"`
}

// IsAdmin reports whether the user sees all records regardless of ownership
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Organization represents a company record in the CRM
type Organization struct {
	BaseModel
	Name      string  `gorm:"type:varchar(200);not null;index" json:"name"`
	Industry  string  `gorm:"type:varchar(100);index" json:"industry,omitempty"`
	City      string  `gorm:"type:varchar(100)" json:"city,omitempty"`
	Country   string  `gorm:"type:varchar(100)" json:"country,omitempty"`
	Employees int     `gorm:"default:0" json:"employees"`
	OpenValue float64 `gorm:"column:open_value;default:0" json:"openValue"`
	OwnerID   string  `gorm:"type:varchar(100);not null;index;column:owner_id" json:"ownerId"`
	Owner     *User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// Person represents an individual contact in the CRM
type Person struct {
	BaseModel
	FirstName      string        `gorm:"type:varchar(100);not null;column:first_name" json:"firstName"`
	LastName       string        `gorm:"type:varchar(100);not null;column:last_name" json:"lastName"`
	Email          string        `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Phone          string        `gorm:"type:varchar(50)" json:"phone,omitempty"`
	Label          string        `gorm:"type:varchar(100);index" json:"label,omitempty"`
	OrganizationID *uuid.UUID    `gorm:"type:uuid;index;column:organization_id" json:"organizationId,omitempty"`
	Organization   *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	OwnerID        string        `gorm:"type:varchar(100);not null;index;column:owner_id" json:"ownerId"`
	Owner          *User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// LeadStatus represents the qualification state of a lead
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusArchived  LeadStatus = "archived"
)

// Lead represents an unqualified prospect. ConvertedDealID links the lead to
// the deal it was converted into; conversion-rate measures key off it.
type Lead struct {
	BaseModel
	Title           string        `gorm:"type:varchar(200);not null" json:"title"`
	Status          LeadStatus    `gorm:"type:varchar(50);not null;default:'new';index" json:"status"`
	Source          string        `gorm:"type:varchar(100);index" json:"source,omitempty"`
	Value           float64       `gorm:"default:0" json:"value"`
	ConvertedDealID *uuid.UUID    `gorm:"type:uuid;column:converted_deal_id" json:"convertedDealId,omitempty"`
	ConvertedAt     *time.Time    `gorm:"column:converted_at" json:"convertedAt,omitempty"`
	OrganizationID  *uuid.UUID    `gorm:"type:uuid;index;column:organization_id" json:"organizationId,omitempty"`
	Organization    *Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	OwnerID         string        `gorm:"type:varchar(100);not null;index;column:owner_id" json:"ownerId"`
	Owner           *User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// ActivityType represents the kind of activity
type ActivityType string

const (
	ActivityTypeCall     ActivityType = "call"
	ActivityTypeMeeting  ActivityType = "meeting"
	ActivityTypeEmail    ActivityType = "email"
	ActivityTypeTask     ActivityType = "task"
	ActivityTypeDeadline ActivityType = "deadline"
)

// ActivityStatus represents an activity's completion state
type ActivityStatus string

const (
	ActivityStatusPlanned   ActivityStatus = "planned"
	ActivityStatusDone      ActivityStatus = "done"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

// Activity represents a scheduled or logged CRM activity
type Activity struct {
	BaseModel
	Subject        string         `gorm:"type:varchar(200);not null" json:"subject"`
	Type           ActivityType   `gorm:"type:varchar(50);not null;index" json:"type"`
	Status         ActivityStatus `gorm:"type:varchar(50);not null;default:'planned';index" json:"status"`
	Done           bool           `gorm:"not null;default:false" json:"done"`
	StartTime      *time.Time     `gorm:"column:start_time;index" json:"startTime,omitempty"`
	EndTime        *time.Time     `gorm:"column:end_time" json:"endTime,omitempty"`
	DueDate        *time.Time     `gorm:"column:due_date;index" json:"dueDate,omitempty"`
	Note           string         `gorm:"type:text" json:"note,omitempty"`
	Attendees      pq.StringArray `gorm:"type:text[]" json:"attendees,omitempty"`
	PersonID       *uuid.UUID     `gorm:"type:uuid;index;column:person_id" json:"personId,omitempty"`
	Person         *Person        `gorm:"foreignKey:PersonID" json:"person,omitempty"`
	OrganizationID *uuid.UUID     `gorm:"type:uuid;index;column:organization_id" json:"organizationId,omitempty"`
	Organization   *Organization  `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	OwnerID        string         `gorm:"type:varchar(100);not null;index;column:owner_id" json:"ownerId"`
	Owner          *User          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// Report stores a saved report definition. Config holds the serialized report
// spec (entity, dimension, measure, segment, filter, date bucket); Snapshot
// optionally holds the last computed unpaginated series for fast dashboard
// rendering. Both are JSON blobs, mirroring how the report builder UI sends them.
type Report struct {
	BaseModel
	Name        string     `gorm:"type:varchar(200);not null" json:"name"`
	Entity      string     `gorm:"type:varchar(50);not null;index" json:"entity"`
	ChartType   string     `gorm:"type:varchar(50);not null;default:'bar';column:chart_type" json:"chartType"`
	Config      string     `gorm:"type:text;not null" json:"config"`
	Snapshot    string     `gorm:"type:text" json:"snapshot,omitempty"`
	RefreshedAt *time.Time `gorm:"column:refreshed_at" json:"refreshedAt,omitempty"`
	FolderID    *uuid.UUID `gorm:"type:uuid;index;column:folder_id" json:"folderId,omitempty"`
	Folder      *Folder    `gorm:"foreignKey:FolderID" json:"folder,omitempty"`
	OwnerID     string     `gorm:"type:varchar(100);not null;index;column:owner_id" json:"ownerId"`
	Owner       *User      `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}

// Dashboard groups report placements for a user
type Dashboard struct {
	BaseModel
	Name       string            `gorm:"type:varchar(200);not null" json:"name"`
	OwnerID    string            `gorm:"type:varchar(100);not null;index;column:owner_id" json:"ownerId"`
	Owner      *User             `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Placements []ReportPlacement `gorm:"foreignKey:DashboardID;constraint:OnDelete:CASCADE" json:"placements,omitempty"`
}

// ReportPlacement positions a report on a dashboard grid
type ReportPlacement struct {
	BaseModel
	DashboardID uuid.UUID `gorm:"type:uuid;not null;index;column:dashboard_id" json:"dashboardId"`
	ReportID    uuid.UUID `gorm:"type:uuid;not null;index;column:report_id" json:"reportId"`
	Report      *Report   `gorm:"foreignKey:ReportID" json:"report,omitempty"`
	Row         int       `gorm:"not null;default:0" json:"row"`
	Col         int       `gorm:"not null;default:0" json:"col"`
	Width       int       `gorm:"not null;default:1" json:"width"`
	Height      int       `gorm:"not null;default:1" json:"height"`
}

// Folder organizes saved reports in a tree
type Folder struct {
	BaseModel
	Name     string     `gorm:"type:varchar(200);not null" json:"name"`
	ParentID *uuid.UUID `gorm:"type:uuid;index;column:parent_id" json:"parentId,omitempty"`
	OwnerID  string     `gorm:"type:varchar(100);not null;index;column:owner_id" json:"ownerId"`
	Reports  []Report   `gorm:"foreignKey:FolderID" json:"reports,omitempty"`
}

// NotificationKind represents the type of notification
type NotificationKind string

const (
	NotificationKindReportShared    NotificationKind = "report_shared"
	NotificationKindSnapshotReady   NotificationKind = "snapshot_ready"
	NotificationKindSnapshotFailed  NotificationKind = "snapshot_failed"
	NotificationKindDashboardShared NotificationKind = "dashboard_shared"
)

// Notification represents a persisted user notification. Delivery (socket,
// push) is out of scope; the API only stores and lists them.
type Notification struct {
	BaseModel
	UserID   string           `gorm:"type:varchar(100);not null;index" json:"userId"`
	Kind     NotificationKind `gorm:"type:varchar(50);not null" json:"kind"`
	Message  string           `gorm:"type:varchar(500);not null" json:"message"`
	Read     bool             `gorm:"column:read;not null;default:false;index" json:"read"`
	ReadAt   *time.Time       `json:"readAt,omitempty"`
	EntityID *uuid.UUID       `gorm:"type:uuid" json:"entityId,omitempty"`
}
