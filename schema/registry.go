package schema

import (
	"fmt"
	"sync"
)

// Registry is the process-wide lookup table mapping doc types to their
// descriptors and departments to their permitted doc types. It is built
// once at startup and never mutated afterward.
type Registry struct {
	byDocType   map[DocType]*Descriptor
	byName      map[string]*Descriptor
	departments map[Department][]DocType
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide singleton Registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry builds a fresh Registry from the built-in descriptor tables.
// Exported so tests can construct an isolated instance.
func NewRegistry() *Registry {
	r := &Registry{
		byDocType: make(map[DocType]*Descriptor),
		byName:    make(map[string]*Descriptor),
		departments: map[Department][]DocType{
			DepartmentSales:     nil,
			DepartmentSupport:   nil,
			DepartmentProduct:   nil,
			DepartmentMarketing: nil,
			DepartmentLegal:     nil,
		},
	}

	all := [][]*Descriptor{salesDescriptors, supportDescriptors, productDescriptors, marketingDescriptors, legalDescriptors}
	for _, group := range all {
		for _, d := range group {
			r.byDocType[d.DocType] = d
			r.byName[d.Name] = d
			r.departments[d.Department] = append(r.departments[d.Department], d.DocType)
		}
	}
	return r
}

// SchemaFor returns the descriptor for a doc_type. Unknown doc types
// produce an error rather than a panic, per C1's contract.
func (r *Registry) SchemaFor(docType DocType) (*Descriptor, error) {
	d, ok := r.byDocType[docType]
	if !ok {
		return nil, fmt.Errorf("schema: no descriptor registered for doc type %q", docType)
	}
	return d, nil
}

// SchemaByName looks up a descriptor by its record class name, e.g. "Objection".
func (r *Registry) SchemaByName(name string) (*Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("schema: no descriptor registered with name %q", name)
	}
	return d, nil
}

// TypesFor returns the doc types permitted for a department.
func (r *Registry) TypesFor(department Department) []DocType {
	return r.departments[department]
}

// IsPermitted reports whether docType may be filed under department.
func (r *Registry) IsPermitted(department Department, docType DocType) bool {
	for _, t := range r.departments[department] {
		if t == docType {
			return true
		}
	}
	return false
}

// All returns every registered descriptor, keyed by record class name.
func (r *Registry) All() map[string]*Descriptor {
	out := make(map[string]*Descriptor, len(r.byName))
	for k, v := range r.byName {
		out[k] = v
	}
	return out
}
