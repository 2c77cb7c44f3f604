package series

import (
	"fmt"
	"slices"
)

// Feature describes one feature column: its name and value type.
type Feature struct {
	Name  string
	DType DType
}

// Index describes one index level. Index levels partition an event set into
// independent groups (e.g. one per product id).
type Index struct {
	Name  string
	DType DType
}

// Schema describes the structure of an EventSet without holding data. Nodes
// in an operator graph carry a Schema; evaluation produces EventSets that
// match it.
type Schema struct {
	Features []Feature
	Indexes  []Index

	// IsUnixTimestamp marks timestamps as seconds since the Unix epoch,
	// which the calendar operators require.
	IsUnixTimestamp bool
}

// NewSchema validates and builds a schema. Feature and index names must be
// non-empty and unique across both lists; index dtypes must be valid index
// types.
func NewSchema(features []Feature, indexes []Index, isUnixTimestamp bool) (*Schema, error) {
	seen := make(map[string]struct{}, len(features)+len(indexes))
	for _, f := range features {
		if f.Name == "" {
			return nil, fmt.Errorf("feature with empty name")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("duplicate name %q in schema", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	for _, idx := range indexes {
		if idx.Name == "" {
			return nil, fmt.Errorf("index with empty name")
		}
		if _, dup := seen[idx.Name]; dup {
			return nil, fmt.Errorf("duplicate name %q in schema", idx.Name)
		}
		seen[idx.Name] = struct{}{}
		if !idx.DType.IsValidIndex() {
			return nil, fmt.Errorf("index %q has dtype %s; indexes must be int64, int32 or string", idx.Name, idx.DType)
		}
	}
	return &Schema{
		Features:        slices.Clone(features),
		Indexes:         slices.Clone(indexes),
		IsUnixTimestamp: isUnixTimestamp,
	}, nil
}

// FeatureNames returns the feature names in schema order.
func (s *Schema) FeatureNames() []string {
	names := make([]string, len(s.Features))
	for i, f := range s.Features {
		names[i] = f.Name
	}
	return names
}

// IndexNames returns the index level names in schema order.
func (s *Schema) IndexNames() []string {
	names := make([]string, len(s.Indexes))
	for i, idx := range s.Indexes {
		names[i] = idx.Name
	}
	return names
}

// FeaturePos returns the position of the named feature, or -1.
func (s *Schema) FeaturePos(name string) int {
	for i, f := range s.Features {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// IndexPos returns the position of the named index level, or -1.
func (s *Schema) IndexPos(name string) int {
	for i, idx := range s.Indexes {
		if idx.Name == name {
			return i
		}
	}
	return -1
}

// Equal reports whether two schemas have the same features, indexes and
// timestamp semantics, in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.Equal(s.Features, other.Features) &&
		slices.Equal(s.Indexes, other.Indexes) &&
		s.IsUnixTimestamp == other.IsUnixTimestamp
}

// SameIndex reports whether two schemas share the same index levels.
func (s *Schema) SameIndex(other *Schema) bool {
	return slices.Equal(s.Indexes, other.Indexes)
}

func (s *Schema) String() string {
	return fmt.Sprintf("features=%v indexes=%v unix=%v", s.Features, s.Indexes, s.IsUnixTimestamp)
}
