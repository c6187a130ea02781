package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFilter_LeftAssociativeFold(t *testing.T) {
	cfg := LeadConfig()

	t.Run("A AND B OR C groups left first", func(t *testing.T) {
		filter := &FilterSpec{
			Conditions: []Condition{
				{Column: "status", Operator: OpEquals, Value: "new"},
				{Column: "source", Operator: OpEquals, Value: "web"},
				{Column: "value", Operator: OpGreaterThan, Value: float64(1000)},
			},
			Connectors: []Connector{ConnectorAnd, ConnectorOr},
		}

		pred, err := buildFilter(cfg, filter, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "((leads.status = ? AND leads.source = ?) OR leads.value > ?)", pred.SQL)
		assert.Equal(t, []interface{}{"new", "web", float64(1000)}, pred.Args)
	})

	t.Run("A OR B AND C still folds left", func(t *testing.T) {
		filter := &FilterSpec{
			Conditions: []Condition{
				{Column: "status", Operator: OpEquals, Value: "new"},
				{Column: "source", Operator: OpEquals, Value: "web"},
				{Column: "value", Operator: OpGreaterThan, Value: float64(1000)},
			},
			Connectors: []Connector{ConnectorOr, ConnectorAnd},
		}

		pred, err := buildFilter(cfg, filter, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "((leads.status = ? OR leads.source = ?) AND leads.value > ?)", pred.SQL)
	})

	t.Run("missing connector defaults to AND", func(t *testing.T) {
		filter := &FilterSpec{
			Conditions: []Condition{
				{Column: "status", Operator: OpEquals, Value: "new"},
				{Column: "source", Operator: OpEquals, Value: "web"},
			},
		}

		pred, err := buildFilter(cfg, filter, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "(leads.status = ? AND leads.source = ?)", pred.SQL)
	})

	t.Run("single condition carries no grouping", func(t *testing.T) {
		filter := &FilterSpec{
			Conditions: []Condition{
				{Column: "status", Operator: OpEquals, Value: "won"},
			},
		}

		pred, err := buildFilter(cfg, filter, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "leads.status = ?", pred.SQL)
	})
}

func TestBuildFilter_DropsValuelessConditions(t *testing.T) {
	cfg := LeadConfig()

	t.Run("nil and empty string values are skipped", func(t *testing.T) {
		filter := &FilterSpec{
			Conditions: []Condition{
				{Column: "status", Operator: OpEquals, Value: nil},
				{Column: "source", Operator: OpEquals, Value: ""},
				{Column: "title", Operator: OpContains, Value: "acme"},
			},
			Connectors: []Connector{ConnectorOr, ConnectorOr},
		}

		pred, err := buildFilter(cfg, filter, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "leads.title LIKE ?", pred.SQL)
		assert.Equal(t, []interface{}{"%acme%"}, pred.Args)
	})

	t.Run("emptiness operators survive without a value", func(t *testing.T) {
		filter := &FilterSpec{
			Conditions: []Condition{
				{Column: "source", Operator: OpIsEmpty},
			},
		}

		pred, err := buildFilter(cfg, filter, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "(leads.source IS NULL OR leads.source = '')", pred.SQL)
		assert.Empty(t, pred.Args)
	})

	t.Run("all conditions dropped yields identity", func(t *testing.T) {
		filter := &FilterSpec{
			Conditions: []Condition{
				{Column: "status", Operator: OpEquals, Value: ""},
			},
		}

		pred, err := buildFilter(cfg, filter, newJoinSet())
		require.NoError(t, err)
		assert.True(t, pred.IsZero())
	})

	t.Run("nil filter yields identity", func(t *testing.T) {
		pred, err := buildFilter(cfg, nil, newJoinSet())
		require.NoError(t, err)
		assert.True(t, pred.IsZero())
	})
}

func TestBuildFilter_UnknownColumn(t *testing.T) {
	cfg := LeadConfig()
	filter := &FilterSpec{
		Conditions: []Condition{
			{Column: "no_such_field", Operator: OpEquals, Value: "x"},
		},
	}

	_, err := buildFilter(cfg, filter, newJoinSet())
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestBuildFilter_RelatedColumnRegistersJoin(t *testing.T) {
	cfg := LeadConfig()
	joins := newJoinSet()
	filter := &FilterSpec{
		Conditions: []Condition{
			{Column: "Organization.industry", Operator: OpEquals, Value: "Construction"},
			{Column: "Organization.city", Operator: OpEquals, Value: "Oslo"},
		},
		Connectors: []Connector{ConnectorAnd},
	}

	pred, err := buildFilter(cfg, filter, joins)
	require.NoError(t, err)
	assert.Equal(t, "(organizations.industry = ? AND organizations.city = ?)", pred.SQL)
	// The same join is registered once even when two conditions need it.
	require.Len(t, joins.clauses, 1)
	assert.Contains(t, joins.clauses[0], "LEFT JOIN organizations")
}

func TestCompileCondition_Operators(t *testing.T) {
	cfg := OrganizationConfig()

	cases := []struct {
		name     string
		cond     Condition
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "greater than",
			cond:     Condition{Column: "employees", Operator: OpGreaterThan, Value: float64(50)},
			wantSQL:  "organizations.employees > ?",
			wantArgs: []interface{}{float64(50)},
		},
		{
			name:     "less than",
			cond:     Condition{Column: "employees", Operator: OpLessThan, Value: float64(10)},
			wantSQL:  "organizations.employees < ?",
			wantArgs: []interface{}{float64(10)},
		},
		{
			name:     "not equals",
			cond:     Condition{Column: "country", Operator: OpNotEquals, Value: "Norway"},
			wantSQL:  "organizations.country <> ?",
			wantArgs: []interface{}{"Norway"},
		},
		{
			name:     "is not behaves as not equals",
			cond:     Condition{Column: "country", Operator: OpIsNot, Value: "Norway"},
			wantSQL:  "organizations.country <> ?",
			wantArgs: []interface{}{"Norway"},
		},
		{
			name:     "contains",
			cond:     Condition{Column: "name", Operator: OpContains, Value: "bygg"},
			wantSQL:  "organizations.name LIKE ?",
			wantArgs: []interface{}{"%bygg%"},
		},
		{
			name:     "starts with",
			cond:     Condition{Column: "name", Operator: OpStartsWith, Value: "Straye"},
			wantSQL:  "organizations.name LIKE ?",
			wantArgs: []interface{}{"Straye%"},
		},
		{
			name:     "ends with",
			cond:     Condition{Column: "name", Operator: OpEndsWith, Value: "AS"},
			wantSQL:  "organizations.name LIKE ?",
			wantArgs: []interface{}{"%AS"},
		},
		{
			name:     "is not empty",
			cond:     Condition{Column: "industry", Operator: OpIsNotEmpty},
			wantSQL:  "(organizations.industry IS NOT NULL AND organizations.industry <> '')",
			wantArgs: nil,
		},
		{
			name:     "between",
			cond:     Condition{Column: "employees", Operator: OpBetween, Value: []interface{}{float64(10), float64(50)}},
			wantSQL:  "organizations.employees BETWEEN ? AND ?",
			wantArgs: []interface{}{float64(10), float64(50)},
		},
		{
			name:     "not between",
			cond:     Condition{Column: "employees", Operator: OpNotBetween, Value: []interface{}{float64(10), float64(50)}},
			wantSQL:  "organizations.employees NOT BETWEEN ? AND ?",
			wantArgs: []interface{}{float64(10), float64(50)},
		},
		{
			name:     "unrecognized operator falls back to equality",
			cond:     Condition{Column: "city", Operator: Operator("weird"), Value: "Oslo"},
			wantSQL:  "organizations.city = ?",
			wantArgs: []interface{}{"Oslo"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pred, err := compileCondition(cfg, tc.cond, newJoinSet())
			require.NoError(t, err)
			assert.Equal(t, tc.wantSQL, pred.SQL)
			assert.Equal(t, tc.wantArgs, pred.Args)
		})
	}
}

func TestCompileCondition_NumericStringsCompareAsNumbers(t *testing.T) {
	cfg := OrganizationConfig()
	pred, err := compileCondition(cfg, Condition{
		Column: "employees", Operator: OpGreaterThan, Value: "25",
	}, newJoinSet())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{float64(25)}, pred.Args)
}

func TestCompileCondition_BoolFields(t *testing.T) {
	cfg := ActivityConfig()

	pred, err := compileCondition(cfg, Condition{
		Column: "done", Operator: OpEquals, Value: "true",
	}, newJoinSet())
	require.NoError(t, err)
	assert.Equal(t, "activities.done = ?", pred.SQL)
	assert.Equal(t, []interface{}{true}, pred.Args)

	pred, err = compileCondition(cfg, Condition{
		Column: "done", Operator: OpEquals, Value: "false",
	}, newJoinSet())
	require.NoError(t, err)
	assert.Equal(t, []interface{}{false}, pred.Args)
}

func TestCompileCondition_DateDayExpansion(t *testing.T) {
	cfg := LeadConfig()

	t.Run("equality on a calendar date spans the whole day", func(t *testing.T) {
		pred, err := compileCondition(cfg, Condition{
			Column: "createdAt", Operator: OpEquals, Value: "2026-03-15",
		}, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "leads.created_at BETWEEN ? AND ?", pred.SQL)
		require.Len(t, pred.Args, 2)

		start := pred.Args[0].(time.Time)
		end := pred.Args[1].(time.Time)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), start)
		assert.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC), end)
	})

	t.Run("greater than a date starts after the day ends", func(t *testing.T) {
		pred, err := compileCondition(cfg, Condition{
			Column: "createdAt", Operator: OpGreaterThan, Value: "2026-03-15",
		}, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "leads.created_at > ?", pred.SQL)
		assert.Equal(t, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC), pred.Args[0].(time.Time))
	})

	t.Run("less than a date stops before the day starts", func(t *testing.T) {
		pred, err := compileCondition(cfg, Condition{
			Column: "createdAt", Operator: OpLessThan, Value: "2026-03-15",
		}, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "leads.created_at < ?", pred.SQL)
		assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), pred.Args[0].(time.Time))
	})

	t.Run("between expands both endpoints", func(t *testing.T) {
		pred, err := compileCondition(cfg, Condition{
			Column:   "createdAt",
			Operator: OpBetween,
			Value:    []interface{}{"2026-01-01", "2026-01-31"},
		}, newJoinSet())
		require.NoError(t, err)
		assert.Equal(t, "leads.created_at BETWEEN ? AND ?", pred.SQL)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), pred.Args[0].(time.Time))
		assert.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC), pred.Args[1].(time.Time))
	})
}

func TestCompileCondition_DateRangePseudoColumn(t *testing.T) {
	cfg := LeadConfig()

	pred, err := compileCondition(cfg, Condition{
		Column:   "daterange",
		Operator: OpBetween,
		Value:    []interface{}{"2026-01-01", "2026-06-30"},
	}, newJoinSet())
	require.NoError(t, err)
	assert.Equal(t, "leads.created_at BETWEEN ? AND ?", pred.SQL)

	_, err = compileCondition(cfg, Condition{
		Column:   "daterange",
		Operator: OpBetween,
		Value:    "not-a-pair",
	}, newJoinSet())
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestCompileCondition_MalformedPairsAreInvalidFilter(t *testing.T) {
	cfg := LeadConfig()

	cases := map[string]Condition{
		"between with a scalar value": {
			Column: "value", Operator: OpBetween, Value: float64(100),
		},
		"between with three elements": {
			Column: "value", Operator: OpBetween,
			Value: []interface{}{float64(1), float64(2), float64(3)},
		},
		"daterange with unparseable dates": {
			Column: "daterange", Operator: OpBetween,
			Value: []interface{}{"first of never", "2026-01-31"},
		},
		"daterange with a single element": {
			Column: "daterange", Operator: OpBetween,
			Value: []interface{}{"2026-01-01"},
		},
	}

	for name, cond := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := compileCondition(cfg, cond, newJoinSet())
			assert.ErrorIs(t, err, ErrInvalidFilter)
		})
	}
}

func TestPredicateCombine(t *testing.T) {
	a := Predicate{SQL: "x = ?", Args: []interface{}{1}}
	b := Predicate{SQL: "y = ?", Args: []interface{}{2}}

	and := a.And(b)
	assert.Equal(t, "(x = ? AND y = ?)", and.SQL)
	assert.Equal(t, []interface{}{1, 2}, and.Args)

	or := a.Or(b)
	assert.Equal(t, "(x = ? OR y = ?)", or.SQL)

	assert.Equal(t, a, a.And(Predicate{}))
	assert.Equal(t, b, Predicate{}.And(b))
	assert.True(t, Predicate{}.And(Predicate{}).IsZero())
}
