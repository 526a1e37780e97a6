package pipeline

import (
	"errors"
	"fmt"
)

// ComparisonKind is the semantic type governing how a field's values are
// ordered and matched.
type ComparisonKind string

const (
	KindNumeric  ComparisonKind = "numeric"
	KindVersion  ComparisonKind = "version"
	KindDateTime ComparisonKind = "datetime"
	KindLexical  ComparisonKind = "lexical"
)

// RecordType identifies one of the tabular collections served by the
// dashboard.
type RecordType string

const (
	RecordTypeDevices        RecordType = "devices"
	RecordTypeFirmwareEvents RecordType = "firmware_events"
	RecordTypeHosts          RecordType = "hosts"
	RecordTypeVMs            RecordType = "vms"
	RecordTypeSecurityEvents RecordType = "security_events"
)

// TimeLayout is the fixed wire format for every date-time field.
const TimeLayout = "2006-01-02 15:04:05"

var (
	ErrUnknownField      = errors.New("UNKNOWN_FIELD")
	ErrUnknownRecordType = errors.New("UNKNOWN_RECORD_TYPE")
)

// FieldDescriptor declares one sortable/filterable field of a record type.
type FieldDescriptor struct {
	Name string
	Kind ComparisonKind
}

// Schema is the set of declared fields for one record type, in column order.
type Schema struct {
	Type   RecordType
	fields []FieldDescriptor
	kinds  map[string]ComparisonKind
}

// NewSchema declares a record type's fields. Field order becomes the
// canonical column order for that type.
func NewSchema(rt RecordType, fields ...FieldDescriptor) *Schema {
	s := &Schema{
		Type:   rt,
		fields: fields,
		kinds:  make(map[string]ComparisonKind, len(fields)),
	}
	for _, f := range fields {
		s.kinds[f.Name] = f.Kind
	}
	return s
}

// KindOf returns the comparison kind declared for a field.
func (s *Schema) KindOf(field string) (ComparisonKind, error) {
	kind, ok := s.kinds[field]
	if !ok {
		return "", fmt.Errorf("%w: %q is not declared for record type %q", ErrUnknownField, field, s.Type)
	}
	return kind, nil
}

// FieldNames returns the declared field names in column order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Registry maps record types to their schemas. Every filter and sort
// operation resolves fields through the registry before touching a record,
// so a query against an undeclared field fails fast instead of silently
// reading a missing value.
type Registry struct {
	schemas map[RecordType]*Schema
}

// NewRegistry builds a registry from schemas.
func NewRegistry(schemas ...*Schema) *Registry {
	r := &Registry{schemas: make(map[RecordType]*Schema, len(schemas))}
	for _, s := range schemas {
		r.schemas[s.Type] = s
	}
	return r
}

// Schema returns the schema declared for a record type.
func (r *Registry) Schema(rt RecordType) (*Schema, error) {
	s, ok := r.schemas[rt]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordType, rt)
	}
	return s, nil
}

// KindOf resolves the comparison kind of a field for a record type.
func (r *Registry) KindOf(rt RecordType, field string) (ComparisonKind, error) {
	s, err := r.Schema(rt)
	if err != nil {
		return "", err
	}
	return s.KindOf(field)
}

// DefaultRegistry declares the record types served by the dashboard pages.
var DefaultRegistry = NewRegistry(
	NewSchema(RecordTypeDevices,
		FieldDescriptor{Name: "id", Kind: KindNumeric},
		FieldDescriptor{Name: "name", Kind: KindLexical},
		FieldDescriptor{Name: "factory", Kind: KindLexical},
		FieldDescriptor{Name: "firmware", Kind: KindVersion},
		FieldDescriptor{Name: "status", Kind: KindLexical},
		FieldDescriptor{Name: "ticket", Kind: KindLexical},
		FieldDescriptor{Name: "last_seen", Kind: KindDateTime},
	),
	NewSchema(RecordTypeFirmwareEvents,
		FieldDescriptor{Name: "id", Kind: KindNumeric},
		FieldDescriptor{Name: "device_id", Kind: KindNumeric},
		FieldDescriptor{Name: "version", Kind: KindVersion},
		FieldDescriptor{Name: "status", Kind: KindLexical},
		FieldDescriptor{Name: "started_at", Kind: KindDateTime},
		FieldDescriptor{Name: "completed_at", Kind: KindDateTime},
	),
	NewSchema(RecordTypeHosts,
		FieldDescriptor{Name: "id", Kind: KindNumeric},
		FieldDescriptor{Name: "name", Kind: KindLexical},
		FieldDescriptor{Name: "ip", Kind: KindLexical},
		FieldDescriptor{Name: "os", Kind: KindLexical},
		FieldDescriptor{Name: "uptime", Kind: KindNumeric},
		FieldDescriptor{Name: "cpu", Kind: KindNumeric},
		FieldDescriptor{Name: "ram", Kind: KindNumeric},
		FieldDescriptor{Name: "disk", Kind: KindNumeric},
		FieldDescriptor{Name: "updated_at", Kind: KindDateTime},
	),
	NewSchema(RecordTypeVMs,
		FieldDescriptor{Name: "id", Kind: KindNumeric},
		FieldDescriptor{Name: "name", Kind: KindLexical},
		FieldDescriptor{Name: "host", Kind: KindLexical},
		FieldDescriptor{Name: "machine_id", Kind: KindLexical},
		FieldDescriptor{Name: "ip", Kind: KindLexical},
		FieldDescriptor{Name: "os", Kind: KindLexical},
		FieldDescriptor{Name: "status", Kind: KindLexical},
		FieldDescriptor{Name: "last_seen", Kind: KindDateTime},
	),
	NewSchema(RecordTypeSecurityEvents,
		FieldDescriptor{Name: "id", Kind: KindNumeric},
		FieldDescriptor{Name: "vm_id", Kind: KindNumeric},
		FieldDescriptor{Name: "timestamp", Kind: KindDateTime},
		FieldDescriptor{Name: "source", Kind: KindLexical},
		FieldDescriptor{Name: "severity", Kind: KindLexical},
		FieldDescriptor{Name: "rule", Kind: KindLexical},
		FieldDescriptor{Name: "message", Kind: KindLexical},
	),
)
