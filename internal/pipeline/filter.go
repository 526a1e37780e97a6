package pipeline

import "strings"

// FilterMode selects how a predicate matches a field value.
type FilterMode string

const (
	FilterEquals   FilterMode = "equals"
	FilterContains FilterMode = "contains"
)

// Predicate is one filter condition. A query carries zero or more
// predicates; all of them must match (AND).
type Predicate struct {
	Field string     `json:"field"`
	Mode  FilterMode `json:"mode"`
	Value string     `json:"value"`
}

// Filter returns the subsequence of records satisfying every predicate,
// preserving input order. Predicates with an empty value are skipped
// entirely, so {field: "factory", value: ""} behaves exactly like omitting
// the predicate. A predicate naming an undeclared field fails with
// ErrUnknownField.
func (p *Pipeline) Filter(rt RecordType, records []Record, predicates []Predicate) ([]Record, error) {
	active := make([]Predicate, 0, len(predicates))
	for _, pred := range predicates {
		if pred.Value == "" {
			continue
		}
		active = append(active, pred)
	}
	if len(active) == 0 {
		return records, nil
	}

	kinds := make([]ComparisonKind, len(active))
	for i, pred := range active {
		kind, err := p.registry.KindOf(rt, pred.Field)
		if err != nil {
			return nil, err
		}
		kinds[i] = kind
	}

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		keep := true
		for i, pred := range active {
			if !matches(rec, pred, kinds[i]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out, nil
}

func matches(rec Record, pred Predicate, kind ComparisonKind) bool {
	value, _ := rec.Get(pred.Field)

	switch pred.Mode {
	case FilterContains:
		return strings.Contains(
			strings.ToLower(Text(value)),
			strings.ToLower(pred.Value),
		)
	default: // equals
		if kind == KindNumeric {
			rv, rok := Numeric(value)
			pv, pok := Numeric(pred.Value)
			if rok && pok {
				return rv == pv
			}
		}
		return strings.EqualFold(
			strings.TrimSpace(Text(value)),
			strings.TrimSpace(pred.Value),
		)
	}
}
