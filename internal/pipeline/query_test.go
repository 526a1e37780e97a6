package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func deviceRecord(id int, name, factory, firmware, status, ticket, lastSeen string) Record {
	return NewRecord(
		Field{Name: "id", Value: id},
		Field{Name: "name", Value: name},
		Field{Name: "factory", Value: factory},
		Field{Name: "firmware", Value: firmware},
		Field{Name: "status", Value: status},
		Field{Name: "ticket", Value: ticket},
		Field{Name: "last_seen", Value: lastSeen},
	)
}

func deviceFixture() []Record {
	return []Record{
		deviceRecord(3, "press-03", "Austin", "fw-10.2", "up", "OPS-1204", "2024-05-01 09:00:00"),
		deviceRecord(1, "press-01", "Austin", "fw-9.9", "down", "OPS-881", "2024-05-01 08:00:00"),
		deviceRecord(10, "lathe-10", "Berlin", "fw-10.0", "up", "", "2024-05-01 09:00:00"),
		deviceRecord(2, "lathe-02", "berlin", "fw-2.1", "up", "OPS-1205", "not-a-date"),
	}
}

func ids(records []Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		v, _ := r.Get("id")
		out[i] = v.(int)
	}
	return out
}

// ==========================
// Filter Stage
// ==========================

func TestFilter(t *testing.T) {
	p := New(DefaultRegistry)

	tests := []struct {
		name       string
		predicates []Predicate
		expected   []int
	}{
		{
			name:       "no predicates keeps everything",
			predicates: nil,
			expected:   []int{3, 1, 10, 2},
		},
		{
			name: "equals is case-insensitive text",
			predicates: []Predicate{
				{Field: "factory", Mode: FilterEquals, Value: "Berlin"},
			},
			expected: []int{10, 2},
		},
		{
			name: "equals on numeric field compares numerically",
			predicates: []Predicate{
				{Field: "id", Mode: FilterEquals, Value: "10.0"},
			},
			expected: []int{10},
		},
		{
			name: "contains matches substring in ticket",
			predicates: []Predicate{
				{Field: "ticket", Mode: FilterContains, Value: "120"},
			},
			expected: []int{3, 2},
		},
		{
			name: "predicates are ANDed",
			predicates: []Predicate{
				{Field: "factory", Mode: FilterEquals, Value: "austin"},
				{Field: "status", Mode: FilterEquals, Value: "up"},
			},
			expected: []int{3},
		},
		{
			name: "empty value predicate is skipped",
			predicates: []Predicate{
				{Field: "factory", Mode: FilterEquals, Value: ""},
			},
			expected: []int{3, 1, 10, 2},
		},
		{
			name: "no matches yields empty set",
			predicates: []Predicate{
				{Field: "factory", Mode: FilterEquals, Value: "Osaka"},
			},
			expected: []int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Filter(RecordTypeDevices, deviceFixture(), tt.predicates)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestFilter_UnknownField(t *testing.T) {
	p := New(DefaultRegistry)

	_, err := p.Filter(RecordTypeDevices, deviceFixture(), []Predicate{
		{Field: "serial_number", Mode: FilterEquals, Value: "x"},
	})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFilter_UnknownFieldWithEmptyValueIsSkipped(t *testing.T) {
	p := New(DefaultRegistry)

	// An empty value means "no filter on this field", so the field is never
	// resolved and no error surfaces.
	got, err := p.Filter(RecordTypeDevices, deviceFixture(), []Predicate{
		{Field: "serial_number", Mode: FilterEquals, Value: ""},
	})
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestFilter_Idempotent(t *testing.T) {
	p := New(DefaultRegistry)
	predicates := []Predicate{{Field: "status", Mode: FilterEquals, Value: "up"}}

	once, err := p.Filter(RecordTypeDevices, deviceFixture(), predicates)
	require.NoError(t, err)
	twice, err := p.Filter(RecordTypeDevices, once, predicates)
	require.NoError(t, err)

	assert.Equal(t, ids(once), ids(twice))
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	p := New(DefaultRegistry)
	input := deviceFixture()

	_, err := p.Filter(RecordTypeDevices, input, []Predicate{
		{Field: "status", Mode: FilterEquals, Value: "down"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 10, 2}, ids(input))
}

// ==========================
// Sort Stage
// ==========================

func TestSort(t *testing.T) {
	p := New(DefaultRegistry)

	tests := []struct {
		name     string
		spec     SortSpec
		expected []int
	}{
		{
			name:     "numeric ascending",
			spec:     SortSpec{Field: "id", Direction: SortAsc},
			expected: []int{1, 2, 3, 10},
		},
		{
			name:     "numeric descending",
			spec:     SortSpec{Field: "id", Direction: SortDesc},
			expected: []int{10, 3, 2, 1},
		},
		{
			name:     "version ascending puts fw-9.9 before fw-10.2",
			spec:     SortSpec{Field: "firmware", Direction: SortAsc},
			expected: []int{2, 1, 10, 3},
		},
		{
			name:     "datetime ascending with malformed value first",
			spec:     SortSpec{Field: "last_seen", Direction: SortAsc},
			expected: []int{2, 1, 3, 10},
		},
		{
			name:     "lexical ascending case-insensitive",
			spec:     SortSpec{Field: "factory", Direction: SortAsc},
			expected: []int{3, 1, 10, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Sort(RecordTypeDevices, deviceFixture(), tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(got))
		})
	}
}

func TestSort_Stability(t *testing.T) {
	p := New(DefaultRegistry)

	// Records 3 and 10 share last_seen; their relative order must survive
	// both directions and repeated re-sorts.
	for _, dir := range []SortDirection{SortAsc, SortDesc} {
		t.Run(string(dir), func(t *testing.T) {
			once, err := p.Sort(RecordTypeDevices, deviceFixture(), SortSpec{Field: "last_seen", Direction: dir})
			require.NoError(t, err)
			again, err := p.Sort(RecordTypeDevices, once, SortSpec{Field: "last_seen", Direction: dir})
			require.NoError(t, err)
			assert.Equal(t, ids(once), ids(again))

			posOf := func(recs []Record, id int) int {
				for i, v := range ids(recs) {
					if v == id {
						return i
					}
				}
				return -1
			}
			assert.Less(t, posOf(once, 3), posOf(once, 10),
				"tied records must keep input order")
		})
	}
}

func TestSort_UnknownField(t *testing.T) {
	p := New(DefaultRegistry)

	_, err := p.Sort(RecordTypeDevices, deviceFixture(), SortSpec{Field: "bogus", Direction: SortAsc})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	p := New(DefaultRegistry)
	input := deviceFixture()

	_, err := p.Sort(RecordTypeDevices, input, SortSpec{Field: "id", Direction: SortAsc})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 10, 2}, ids(input))
}

// ==========================
// Paginator
// ==========================

func TestPaginate(t *testing.T) {
	records := deviceFixture()

	tests := []struct {
		name          string
		req           PageRequest
		expectedIDs   []int
		expectedTotal int
	}{
		{"first page", PageRequest{Page: 1, Size: 2}, []int{3, 1}, 4},
		{"second page", PageRequest{Page: 2, Size: 2}, []int{10, 2}, 4},
		{"short last page", PageRequest{Page: 2, Size: 3}, []int{2}, 4},
		{"page past the end", PageRequest{Page: 9, Size: 2}, []int{}, 4},
		{"window covering everything", PageRequest{Page: 1, Size: 100}, []int{3, 1, 10, 2}, 4},
		{"zero page normalized to first", PageRequest{Page: 0, Size: 2}, []int{3, 1}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Paginate(records, tt.req)
			assert.Equal(t, tt.expectedIDs, ids(got.Items))
			assert.Equal(t, tt.expectedTotal, got.Total)
		})
	}
}

func TestPaginate_DefaultSize(t *testing.T) {
	got := Paginate(deviceFixture(), PageRequest{Page: 1})
	assert.Len(t, got.Items, 4)
	assert.Equal(t, 4, got.Total)
}

func TestPageResult_TotalPages(t *testing.T) {
	r := PageResult{Total: 7}
	assert.Equal(t, 4, r.TotalPages(2))
	assert.Equal(t, 1, r.TotalPages(7))
	assert.Equal(t, 1, r.TotalPages(100))
	assert.Equal(t, 0, r.TotalPages(0))
}

// ==========================
// Full Pipeline
// ==========================

func TestRun(t *testing.T) {
	p := New(DefaultRegistry)

	result, err := p.Run(RecordTypeDevices, deviceFixture(), Query{
		Filters: []Predicate{{Field: "status", Mode: FilterEquals, Value: "up"}},
		Sort:    &SortSpec{Field: "id", Direction: SortAsc},
		Page:    PageRequest{Page: 1, Size: 2},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 3}, ids(result.Items))
	assert.Equal(t, 3, result.Total)
}

func TestRun_AbsentSortPreservesInputOrder(t *testing.T) {
	p := New(DefaultRegistry)

	result, err := p.Run(RecordTypeDevices, deviceFixture(), Query{
		Page: PageRequest{Page: 1, Size: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 10, 2}, ids(result.Items))
}

func TestRun_UnknownRecordType(t *testing.T) {
	p := New(DefaultRegistry)

	_, err := p.Run(RecordType("printers"), deviceFixture(), Query{Page: PageRequest{Page: 1, Size: 10}})
	assert.ErrorIs(t, err, ErrUnknownRecordType)
}

// Walking every page in order must reproduce the sorted-filtered collection
// exactly once: no duplicates, no gaps.
func TestRun_PagesPartitionTheCollection(t *testing.T) {
	p := New(DefaultRegistry)

	query := Query{
		Sort: &SortSpec{Field: "firmware", Direction: SortDesc},
		Page: PageRequest{Size: 2},
	}

	var walked []int
	total := -1
	for page := 1; ; page++ {
		query.Page.Page = page
		result, err := p.Run(RecordTypeDevices, deviceFixture(), query)
		require.NoError(t, err)

		if total == -1 {
			total = result.Total
		}
		assert.Equal(t, total, result.Total, "total must not change across pages")
		if len(result.Items) == 0 {
			break
		}
		walked = append(walked, ids(result.Items)...)
	}

	assert.Len(t, walked, total)
	assert.Equal(t, []int{3, 10, 1, 2}, walked)
}

// ==========================
// Schema Registry
// ==========================

func TestRegistry_KindOf(t *testing.T) {
	kind, err := DefaultRegistry.KindOf(RecordTypeDevices, "firmware")
	require.NoError(t, err)
	assert.Equal(t, KindVersion, kind)

	_, err = DefaultRegistry.KindOf(RecordTypeDevices, "nope")
	assert.ErrorIs(t, err, ErrUnknownField)

	_, err = DefaultRegistry.KindOf(RecordType("nope"), "id")
	assert.ErrorIs(t, err, ErrUnknownRecordType)
}

func TestSchema_FieldNamesKeepDeclarationOrder(t *testing.T) {
	s, err := DefaultRegistry.Schema(RecordTypeDevices)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"id", "name", "factory", "firmware", "status", "ticket", "last_seen"},
		s.FieldNames(),
	)
}
