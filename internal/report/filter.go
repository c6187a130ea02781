package report

// buildFilter folds an ordered condition list and its connectors into one
// combined predicate. The fold is strictly left-associative with no operator
// precedence: "A AND B OR C" compiles as "(A AND B) OR C". Conditions
// without a usable value are dropped first; when the connector for a
// surviving condition is missing or unrecognized it defaults to AND. Zero
// surviving conditions yield the identity predicate.
func buildFilter(cfg *EntityConfig, filter *FilterSpec, joins *joinSet) (Predicate, error) {
	if filter == nil {
		return Predicate{}, nil
	}

	acc := Predicate{}
	for i, cond := range filter.Conditions {
		if !hasValue(cond) {
			continue
		}
		pred, err := compileCondition(cfg, cond, joins)
		if err != nil {
			return Predicate{}, err
		}
		if acc.IsZero() {
			acc = pred
			continue
		}
		connector := ConnectorAnd
		if i-1 < len(filter.Connectors) {
			connector = filter.Connectors[i-1]
		}
		if connector == ConnectorOr {
			acc = acc.Or(pred)
		} else {
			acc = acc.And(pred)
		}
	}
	return acc, nil
}
