package pipeline

// Query is the full parameter set of one page request: filters, an optional
// sort key and the page window. An absent sort preserves input order.
type Query struct {
	Filters []Predicate `json:"filters,omitempty"`
	Sort    *SortSpec   `json:"sort,omitempty"`
	Page    PageRequest `json:"page"`
}

// Pipeline runs schema-checked queries over record snapshots. It holds no
// state beyond the registry; concurrent Run calls over the same snapshot
// are independent.
type Pipeline struct {
	registry *Registry
}

// New builds a pipeline over a schema registry.
func New(registry *Registry) *Pipeline {
	return &Pipeline{registry: registry}
}

// Registry exposes the schema registry the pipeline resolves fields against.
func (p *Pipeline) Registry() *Registry {
	return p.registry
}

// Run executes the filter -> sort -> paginate chain over a snapshot and
// returns one page. The chain is recomputed in full on every call; any
// memoization is the caller's decision. Run either produces a complete page
// or fails fast with ErrUnknownField / ErrUnknownRecordType; there is no
// partial result.
func (p *Pipeline) Run(rt RecordType, records []Record, q Query) (*PageResult, error) {
	if _, err := p.registry.Schema(rt); err != nil {
		return nil, err
	}

	filtered, err := p.Filter(rt, records, q.Filters)
	if err != nil {
		return nil, err
	}

	ordered := filtered
	if q.Sort != nil && q.Sort.Field != "" {
		ordered, err = p.Sort(rt, filtered, *q.Sort)
		if err != nil {
			return nil, err
		}
	}

	result := Paginate(ordered, q.Page)
	return &result, nil
}
