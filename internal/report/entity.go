package report

import "fmt"

// MeasureKind selects the aggregation function for a measure.
type MeasureKind int

const (
	// MeasureCount counts rows per group.
	MeasureCount MeasureKind = iota
	// MeasureSum sums a numeric column per group.
	MeasureSum
	// MeasureAvgDuration averages (end - start) per group, in hours.
	MeasureAvgDuration
	// MeasureCountRatio computes COUNT(matching) * 100 / COUNT(*), used by
	// count-based conversion reports.
	MeasureCountRatio
	// MeasureSumRatio computes SUM(col matching) * 100 / SUM(col), used by
	// value-based conversion reports.
	MeasureSumRatio
)

// MeasureConfig describes one measure available on an entity.
type MeasureConfig struct {
	Key         string
	Kind        MeasureKind
	Column      string // summed column for sum/sumRatio
	StartColumn string // duration start
	EndColumn   string // duration end
	When        string // SQL predicate marking numerator rows for ratio kinds
}

// DimensionConfig describes one grouping/segmentation key available on an
// entity. Column is the fully qualified group key; LabelColumn, when set, is
// a different column carrying the display label (the owner dimension keys by
// user id and labels by user name). Related names the related entity whose
// join the dimension requires. IsDate marks date-typed dimensions eligible
// for bucketing and chronological ordering.
type DimensionConfig struct {
	Key         string
	Column      string
	LabelColumn string
	Related     string
	IsDate      bool
}

// FilterFieldType tags a filter column for the UI.
type FilterFieldType string

const (
	FieldText      FilterFieldType = "text"
	FieldNumber    FilterFieldType = "number"
	FieldDate      FilterFieldType = "date"
	FieldDateRange FilterFieldType = "daterange"
)

// FilterField is typed filter-column metadata surfaced to clients for
// building the filter UI. The engine itself does not consult it.
type FilterField struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Type  FilterFieldType `json:"type"`
}

// RelatedEntity describes one related entity reachable from a report entity
// through a single join.
type RelatedEntity struct {
	Name       string
	Join       string
	Columns    map[string]string
	DateFields map[string]bool
}

// EntityConfig parameterizes the engine for one report entity. It carries
// everything entity-specific: table and column addressing, related entities,
// the date-field set, and the dimension/measure whitelists.
type EntityConfig struct {
	Entity          string
	Table           string
	PrimaryKey      string
	CreatedAtColumn string
	Columns         map[string]string
	DateFields      map[string]bool
	BoolFields      map[string]bool
	Related         map[string]*RelatedEntity
	Dimensions      map[string]DimensionConfig
	Measures        map[string]MeasureConfig
	FilterFields    []FilterField
}

// DimensionKeys returns the dimension whitelist for the fields endpoint.
func (c *EntityConfig) DimensionKeys() []string {
	keys := make([]string, 0, len(c.Dimensions))
	for k := range c.Dimensions {
		keys = append(keys, k)
	}
	return keys
}

// MeasureKeys returns the measure whitelist for the fields endpoint.
func (c *EntityConfig) MeasureKeys() []string {
	keys := make([]string, 0, len(c.Measures))
	for k := range c.Measures {
		keys = append(keys, k)
	}
	return keys
}

// Registry holds the entity configurations the engine is parameterized with.
type Registry struct {
	configs map[string]*EntityConfig
}

// NewRegistry creates a registry from the given entity configurations.
func NewRegistry(configs ...*EntityConfig) *Registry {
	r := &Registry{configs: make(map[string]*EntityConfig, len(configs))}
	for _, cfg := range configs {
		r.configs[cfg.Entity] = cfg
	}
	return r
}

// Get resolves an entity name to its configuration.
func (r *Registry) Get(entity string) (*EntityConfig, error) {
	cfg, ok := r.configs[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, entity)
	}
	return cfg, nil
}

// Entities lists the configured entity names.
func (r *Registry) Entities() []string {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	return names
}

func ownerRelated(table, ownerColumn string) *RelatedEntity {
	return &RelatedEntity{
		Name: "Owner",
		Join: fmt.Sprintf("LEFT JOIN users ON users.id = %s.%s", table, ownerColumn),
		Columns: map[string]string{
			"id":    "users.id",
			"name":  "users.name",
			"email": "users.email",
			"team":  "users.team",
		},
	}
}

func organizationRelated(table string) *RelatedEntity {
	return &RelatedEntity{
		Name: "Organization",
		Join: fmt.Sprintf("LEFT JOIN organizations ON organizations.id = %s.organization_id", table),
		Columns: map[string]string{
			"name":     "organizations.name",
			"industry": "organizations.industry",
			"city":     "organizations.city",
			"country":  "organizations.country",
		},
	}
}

func ownerDimensions() map[string]DimensionConfig {
	return map[string]DimensionConfig{
		"owner": {Key: "owner", Column: "users.id", LabelColumn: "users.name", Related: "Owner"},
		"team":  {Key: "team", Column: "users.team", Related: "Owner"},
	}
}

// ActivityConfig is the report configuration for the activities entity.
func ActivityConfig() *EntityConfig {
	cfg := &EntityConfig{
		Entity:          "activities",
		Table:           "activities",
		PrimaryKey:      "activities.id",
		CreatedAtColumn: "activities.created_at",
		Columns: map[string]string{
			"subject":        "activities.subject",
			"type":           "activities.type",
			"status":         "activities.status",
			"done":           "activities.done",
			"note":           "activities.note",
			"startTime":      "activities.start_time",
			"endTime":        "activities.end_time",
			"dueDate":        "activities.due_date",
			"createdAt":      "activities.created_at",
			"updatedAt":      "activities.updated_at",
			"ownerId":        "activities.owner_id",
			"organizationId": "activities.organization_id",
			"personId":       "activities.person_id",
		},
		DateFields: map[string]bool{"createdAt": true, "updatedAt": true},
		BoolFields: map[string]bool{"done": true},
		Related: map[string]*RelatedEntity{
			"Owner":        ownerRelated("activities", "owner_id"),
			"Organization": organizationRelated("activities"),
			"Person": {
				Name: "Person",
				Join: "LEFT JOIN people ON people.id = activities.person_id",
				Columns: map[string]string{
					"firstName": "people.first_name",
					"lastName":  "people.last_name",
					"email":     "people.email",
					"label":     "people.label",
				},
			},
		},
		Dimensions: map[string]DimensionConfig{
			"type":         {Key: "type", Column: "activities.type"},
			"status":       {Key: "status", Column: "activities.status"},
			"organization": {Key: "organization", Column: "organizations.name", Related: "Organization"},
			"createdAt":    {Key: "createdAt", Column: "activities.created_at", IsDate: true},
			"startTime":    {Key: "startTime", Column: "activities.start_time", IsDate: true},
			"dueDate":      {Key: "dueDate", Column: "activities.due_date", IsDate: true},
		},
		Measures: map[string]MeasureConfig{
			"no of activities": {Key: "no of activities", Kind: MeasureCount},
			"duration": {
				Key:         "duration",
				Kind:        MeasureAvgDuration,
				StartColumn: "activities.start_time",
				EndColumn:   "activities.end_time",
			},
		},
		FilterFields: []FilterField{
			{Key: "subject", Label: "Subject", Type: FieldText},
			{Key: "type", Label: "Type", Type: FieldText},
			{Key: "status", Label: "Status", Type: FieldText},
			{Key: "done", Label: "Done", Type: FieldText},
			{Key: "startTime", Label: "Start time", Type: FieldDate},
			{Key: "dueDate", Label: "Due date", Type: FieldDate},
			{Key: "daterange", Label: "Created between", Type: FieldDateRange},
		},
	}
	for k, d := range ownerDimensions() {
		cfg.Dimensions[k] = d
	}
	return cfg
}

// LeadConfig is the report configuration for the leads entity.
func LeadConfig() *EntityConfig {
	converted := "leads.converted_deal_id IS NOT NULL"
	cfg := &EntityConfig{
		Entity:          "leads",
		Table:           "leads",
		PrimaryKey:      "leads.id",
		CreatedAtColumn: "leads.created_at",
		Columns: map[string]string{
			"title":          "leads.title",
			"status":         "leads.status",
			"source":         "leads.source",
			"value":          "leads.value",
			"convertedAt":    "leads.converted_at",
			"createdAt":      "leads.created_at",
			"updatedAt":      "leads.updated_at",
			"ownerId":        "leads.owner_id",
			"organizationId": "leads.organization_id",
		},
		DateFields: map[string]bool{"createdAt": true, "updatedAt": true, "convertedAt": true},
		BoolFields: map[string]bool{},
		Related: map[string]*RelatedEntity{
			"Owner":        ownerRelated("leads", "owner_id"),
			"Organization": organizationRelated("leads"),
		},
		Dimensions: map[string]DimensionConfig{
			"status":       {Key: "status", Column: "leads.status"},
			"source":       {Key: "source", Column: "leads.source"},
			"organization": {Key: "organization", Column: "organizations.name", Related: "Organization"},
			"createdAt":    {Key: "createdAt", Column: "leads.created_at", IsDate: true},
			"convertedAt":  {Key: "convertedAt", Column: "leads.converted_at", IsDate: true},
		},
		Measures: map[string]MeasureConfig{
			"no of leads": {Key: "no of leads", Kind: MeasureCount},
			"value":       {Key: "value", Kind: MeasureSum, Column: "leads.value"},
			"conversion rate": {
				Key:  "conversion rate",
				Kind: MeasureCountRatio,
				When: converted,
			},
			"value conversion rate": {
				Key:    "value conversion rate",
				Kind:   MeasureSumRatio,
				Column: "leads.value",
				When:   converted,
			},
		},
		FilterFields: []FilterField{
			{Key: "title", Label: "Title", Type: FieldText},
			{Key: "status", Label: "Status", Type: FieldText},
			{Key: "source", Label: "Source", Type: FieldText},
			{Key: "value", Label: "Value", Type: FieldNumber},
			{Key: "convertedAt", Label: "Converted at", Type: FieldDate},
			{Key: "daterange", Label: "Created between", Type: FieldDateRange},
		},
	}
	for k, d := range ownerDimensions() {
		cfg.Dimensions[k] = d
	}
	return cfg
}

// PersonConfig is the report configuration for the people entity.
func PersonConfig() *EntityConfig {
	cfg := &EntityConfig{
		Entity:          "persons",
		Table:           "people",
		PrimaryKey:      "people.id",
		CreatedAtColumn: "people.created_at",
		Columns: map[string]string{
			"firstName":      "people.first_name",
			"lastName":       "people.last_name",
			"email":          "people.email",
			"phone":          "people.phone",
			"label":          "people.label",
			"createdAt":      "people.created_at",
			"updatedAt":      "people.updated_at",
			"ownerId":        "people.owner_id",
			"organizationId": "people.organization_id",
		},
		DateFields: map[string]bool{"createdAt": true, "updatedAt": true},
		BoolFields: map[string]bool{},
		Related: map[string]*RelatedEntity{
			"Owner":        ownerRelated("people", "owner_id"),
			"Organization": organizationRelated("people"),
		},
		Dimensions: map[string]DimensionConfig{
			"label":        {Key: "label", Column: "people.label"},
			"organization": {Key: "organization", Column: "organizations.name", Related: "Organization"},
			"createdAt":    {Key: "createdAt", Column: "people.created_at", IsDate: true},
		},
		Measures: map[string]MeasureConfig{
			"no of people": {Key: "no of people", Kind: MeasureCount},
		},
		FilterFields: []FilterField{
			{Key: "firstName", Label: "First name", Type: FieldText},
			{Key: "lastName", Label: "Last name", Type: FieldText},
			{Key: "email", Label: "Email", Type: FieldText},
			{Key: "label", Label: "Label", Type: FieldText},
			{Key: "daterange", Label: "Created between", Type: FieldDateRange},
		},
	}
	for k, d := range ownerDimensions() {
		cfg.Dimensions[k] = d
	}
	return cfg
}

// OrganizationConfig is the report configuration for the organizations entity.
func OrganizationConfig() *EntityConfig {
	cfg := &EntityConfig{
		Entity:          "organizations",
		Table:           "organizations",
		PrimaryKey:      "organizations.id",
		CreatedAtColumn: "organizations.created_at",
		Columns: map[string]string{
			"name":      "organizations.name",
			"industry":  "organizations.industry",
			"city":      "organizations.city",
			"country":   "organizations.country",
			"employees": "organizations.employees",
			"openValue": "organizations.open_value",
			"createdAt": "organizations.created_at",
			"updatedAt": "organizations.updated_at",
			"ownerId":   "organizations.owner_id",
		},
		DateFields: map[string]bool{"createdAt": true, "updatedAt": true},
		BoolFields: map[string]bool{},
		Related: map[string]*RelatedEntity{
			"Owner": ownerRelated("organizations", "owner_id"),
		},
		Dimensions: map[string]DimensionConfig{
			"industry":  {Key: "industry", Column: "organizations.industry"},
			"city":      {Key: "city", Column: "organizations.city"},
			"country":   {Key: "country", Column: "organizations.country"},
			"createdAt": {Key: "createdAt", Column: "organizations.created_at", IsDate: true},
		},
		Measures: map[string]MeasureConfig{
			"no of organizations": {Key: "no of organizations", Kind: MeasureCount},
			"value":               {Key: "value", Kind: MeasureSum, Column: "organizations.open_value"},
		},
		FilterFields: []FilterField{
			{Key: "name", Label: "Name", Type: FieldText},
			{Key: "industry", Label: "Industry", Type: FieldText},
			{Key: "city", Label: "City", Type: FieldText},
			{Key: "country", Label: "Country", Type: FieldText},
			{Key: "employees", Label: "Employees", Type: FieldNumber},
			{Key: "daterange", Label: "Created between", Type: FieldDateRange},
		},
	}
	for k, d := range ownerDimensions() {
		cfg.Dimensions[k] = d
	}
	return cfg
}

// DefaultRegistry returns the registry covering all report entities.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ActivityConfig(),
		LeadConfig(),
		PersonConfig(),
		OrganizationConfig(),
	)
}
