package dsl

import (
	"sort"

	vmodel "github.com/reoring/vmodel"
)

// FromDescriptors builds a schema from an ordered descriptor list. It applies
// the same construction checks as Object(...).Build().
func FromDescriptors(name string, fields []vmodel.FieldDescriptor, opts ...DynamicOption) (vmodel.Schema, error) {
	cfg := dynamicConfig{unknown: vmodel.UnknownIgnore}
	for _, o := range opts {
		o(&cfg)
	}
	s, err := newObjectSchema(name, cfg.description, fields, cfg.unknown)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// FromMap builds a schema from a name -> descriptor mapping. Declaration order
// is the sorted key order. Descriptor Name fields are overwritten by the keys.
func FromMap(name string, fields map[string]vmodel.FieldDescriptor, opts ...DynamicOption) (vmodel.Schema, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]vmodel.FieldDescriptor, 0, len(keys))
	for _, k := range keys {
		fd := fields[k]
		fd.Name = k
		list = append(list, fd)
	}
	return FromDescriptors(name, list, opts...)
}

type dynamicConfig struct {
	unknown     vmodel.UnknownPolicy
	description string
}

// DynamicOption configures FromDescriptors and FromMap.
type DynamicOption func(*dynamicConfig)

// WithUnknown sets the unknown-key policy.
func WithUnknown(p vmodel.UnknownPolicy) DynamicOption {
	return func(c *dynamicConfig) { c.unknown = p }
}

// WithDescription sets the schema description.
func WithDescription(desc string) DynamicOption {
	return func(c *dynamicConfig) { c.description = desc }
}
