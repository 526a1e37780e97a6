package pipeline

import "sort"

// SortDirection is the ordering direction of a sort key.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is a single sort key with its direction. The pipeline supports
// one active key; ties fall back to the input order through stability, not
// to a secondary key.
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Sort returns a new slice ordered by the spec's field. The sort is stable,
// so records with equal keys keep their relative input order; repeated
// re-sorts on a tied key never reorder rows. The input slice is not
// modified. An undeclared sort field fails with ErrUnknownField.
func (p *Pipeline) Sort(rt RecordType, records []Record, spec SortSpec) ([]Record, error) {
	kind, err := p.registry.KindOf(rt, spec.Field)
	if err != nil {
		return nil, err
	}
	cmp := ComparatorFor(kind)

	out := make([]Record, len(records))
	copy(out, records)

	sort.SliceStable(out, func(i, j int) bool {
		a, _ := out[i].Get(spec.Field)
		b, _ := out[j].Get(spec.Field)
		c := cmp(a, b)
		if spec.Direction == SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out, nil
}
