package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// daterangeColumn is the pseudo-column the report builder sends for "created
// between" filters. It addresses the entity's createdAt-equivalent column
// with an explicit inclusive calendar range.
const daterangeColumn = "daterange"

// joinSet collects the related-entity joins a compiled query requires,
// deduplicated and in first-use order.
type joinSet struct {
	clauses []string
	seen    map[string]bool
}

func newJoinSet() *joinSet {
	return &joinSet{seen: make(map[string]bool)}
}

func (j *joinSet) add(clause string) {
	if clause == "" || j.seen[clause] {
		return
	}
	j.seen[clause] = true
	j.clauses = append(j.clauses, clause)
}

// resolvedColumn is a filter column resolved against the entity config.
type resolvedColumn struct {
	column string
	isDate bool
	isBool bool
}

// resolveColumn resolves a bare or "<Related>.<field>" column reference,
// registering the related entity's join when needed.
func resolveColumn(cfg *EntityConfig, name string, joins *joinSet) (resolvedColumn, error) {
	if qualifier, field, ok := strings.Cut(name, "."); ok {
		related, found := cfg.Related[qualifier]
		if !found {
			return resolvedColumn{}, fmt.Errorf("%w: %q (no related entity %q)", ErrUnknownColumn, name, qualifier)
		}
		column, found := related.Columns[field]
		if !found {
			return resolvedColumn{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		joins.add(related.Join)
		return resolvedColumn{
			column: column,
			isDate: isDateField(field, related.DateFields),
		}, nil
	}

	column, found := cfg.Columns[name]
	if !found {
		return resolvedColumn{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return resolvedColumn{
		column: column,
		isDate: isDateField(name, cfg.DateFields),
		isBool: cfg.BoolFields[name],
	}, nil
}

// isDateField recognizes date-typed fields either by naming convention or by
// membership in the entity's known date-field set.
func isDateField(field string, known map[string]bool) bool {
	if known[field] {
		return true
	}
	lower := strings.ToLower(field)
	return strings.Contains(lower, "date") || strings.Contains(lower, "time")
}

// hasValue reports whether a condition carries a usable value. Conditions
// without one are dropped before compilation, except the emptiness operators
// which need no value at all.
func hasValue(c Condition) bool {
	if c.Operator == OpIsEmpty || c.Operator == OpIsNotEmpty {
		return true
	}
	switch v := c.Value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	default:
		return true
	}
}

// compileCondition translates one filter condition into a predicate
// fragment, registering any related-entity join it requires.
func compileCondition(cfg *EntityConfig, c Condition, joins *joinSet) (Predicate, error) {
	if c.Column == daterangeColumn {
		return compileDateRange(cfg, c)
	}

	col, err := resolveColumn(cfg, c.Column, joins)
	if err != nil {
		return Predicate{}, err
	}

	if col.isDate {
		if pred, ok := compileDateCondition(col.column, c); ok {
			return pred, nil
		}
	}

	value := coerceValue(c.Value, col.isBool)

	switch c.Operator {
	case OpGreaterThan:
		return Predicate{SQL: col.column + " > ?", Args: []interface{}{value}}, nil
	case OpLessThan:
		return Predicate{SQL: col.column + " < ?", Args: []interface{}{value}}, nil
	case OpNotEquals, OpIsNot:
		return Predicate{SQL: col.column + " <> ?", Args: []interface{}{value}}, nil
	case OpContains:
		return Predicate{SQL: col.column + " LIKE ?", Args: []interface{}{"%" + stringValue(value) + "%"}}, nil
	case OpStartsWith:
		return Predicate{SQL: col.column + " LIKE ?", Args: []interface{}{stringValue(value) + "%"}}, nil
	case OpEndsWith:
		return Predicate{SQL: col.column + " LIKE ?", Args: []interface{}{"%" + stringValue(value)}}, nil
	case OpIsEmpty:
		return Predicate{SQL: "(" + col.column + " IS NULL OR " + col.column + " = '')"}, nil
	case OpIsNotEmpty:
		return Predicate{SQL: "(" + col.column + " IS NOT NULL AND " + col.column + " <> '')"}, nil
	case OpBetween:
		from, to, err := pairValue(c.Value)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{SQL: col.column + " BETWEEN ? AND ?", Args: []interface{}{from, to}}, nil
	case OpNotBetween:
		from, to, err := pairValue(c.Value)
		if err != nil {
			return Predicate{}, err
		}
		return Predicate{SQL: col.column + " NOT BETWEEN ? AND ?", Args: []interface{}{from, to}}, nil
	default:
		// OpEquals, OpIs, and anything unrecognized compile to equality.
		return Predicate{SQL: col.column + " = ?", Args: []interface{}{value}}, nil
	}
}

// compileDateCondition applies day-boundary expansion for comparisons on
// date columns: a single calendar date means the whole day. Returns ok=false
// when the operator needs no expansion (the generic path handles it).
func compileDateCondition(column string, c Condition) (Predicate, bool) {
	switch c.Operator {
	case OpEquals, OpIs:
		day, ok := parseDay(c.Value)
		if !ok {
			return Predicate{}, false
		}
		start, end := dayBounds(day)
		return Predicate{SQL: column + " BETWEEN ? AND ?", Args: []interface{}{start, end}}, true
	case OpNotEquals, OpIsNot:
		day, ok := parseDay(c.Value)
		if !ok {
			return Predicate{}, false
		}
		start, end := dayBounds(day)
		return Predicate{SQL: column + " NOT BETWEEN ? AND ?", Args: []interface{}{start, end}}, true
	case OpGreaterThan:
		day, ok := parseDay(c.Value)
		if !ok {
			return Predicate{}, false
		}
		_, end := dayBounds(day)
		return Predicate{SQL: column + " > ?", Args: []interface{}{end}}, true
	case OpLessThan:
		day, ok := parseDay(c.Value)
		if !ok {
			return Predicate{}, false
		}
		start, _ := dayBounds(day)
		return Predicate{SQL: column + " < ?", Args: []interface{}{start}}, true
	case OpBetween, OpNotBetween:
		from, to, err := dayPair(c.Value)
		if err != nil {
			return Predicate{}, false
		}
		op := " BETWEEN ? AND ?"
		if c.Operator == OpNotBetween {
			op = " NOT BETWEEN ? AND ?"
		}
		return Predicate{SQL: column + op, Args: []interface{}{from, to}}, true
	}
	return Predicate{}, false
}

// compileDateRange handles the daterange pseudo-column: a two-element
// [from, to] pair applied inclusively to the entity's createdAt column.
func compileDateRange(cfg *EntityConfig, c Condition) (Predicate, error) {
	from, to, err := dayPair(c.Value)
	if err != nil {
		return Predicate{}, fmt.Errorf("daterange filter requires a [from, to] pair: %w", err)
	}
	op := " BETWEEN ? AND ?"
	if c.Operator == OpNotBetween {
		op = " NOT BETWEEN ? AND ?"
	}
	return Predicate{SQL: cfg.CreatedAtColumn + op, Args: []interface{}{from, to}}, nil
}

// coerceValue normalizes a raw filter value: boolean fields accept the
// literal strings "true"/"false", and numeric-looking strings are compared
// as floats.
func coerceValue(v interface{}, isBool bool) interface{} {
	s, isString := v.(string)
	if !isString {
		return v
	}
	if isBool {
		switch strings.ToLower(s) {
		case "true":
			return true
		case "false":
			return false
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func stringValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// pairValue extracts a generic two-element [from, to] value.
func pairValue(v interface{}) (interface{}, interface{}, error) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return nil, nil, fmt.Errorf("%w: between requires a two-element value, got %v", ErrInvalidFilter, v)
	}
	return coerceValue(pair[0], false), coerceValue(pair[1], false), nil
}

// dayPair extracts a two-element calendar-date pair expanded to the full
// [from 00:00:00, to 23:59:59] range.
func dayPair(v interface{}) (time.Time, time.Time, error) {
	pair, ok := v.([]interface{})
	if !ok || len(pair) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: expected a two-element date pair, got %v", ErrInvalidFilter, v)
	}
	from, ok := parseDay(pair[0])
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid from date %v", ErrInvalidFilter, pair[0])
	}
	to, ok := parseDay(pair[1])
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid to date %v", ErrInvalidFilter, pair[1])
	}
	start, _ := dayBounds(from)
	_, end := dayBounds(to)
	return start, end, nil
}

// parseDay parses a calendar date or timestamp value from the filter UI.
func parseDay(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// dayBounds expands a point-in-time to its whole day: [00:00:00, 23:59:59].
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
	return start, end
}
