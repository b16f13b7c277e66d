package feature

import (
	"fmt"
	"reflect"
)

// Descriptor is the immutable metadata for one feature type.
type Descriptor struct {
	// ID is the normalized feature identifier.
	ID ID

	// Category groups related features for display. When empty it is
	// inferred from the identifier's namespace path.
	Category string

	// DisplayName is the human-readable feature name. When empty it
	// defaults to the implementation's type name.
	DisplayName string

	// Description explains what the feature does.
	Description string
}

// withDefaults fills Category and DisplayName from the identifier and the
// implementation when they were not supplied.
func (d Descriptor) withDefaults(impl any) Descriptor {
	if d.Category == "" {
		d.Category = d.ID.category()
	}
	if d.DisplayName == "" {
		d.DisplayName = displayNameFor(impl, d.ID)
	}
	return d
}

func displayNameFor(impl any, id ID) string {
	if impl == nil {
		return id.leaf()
	}
	t := reflect.TypeOf(impl)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return id.leaf()
	}
	if t.PkgPath() != "" {
		return fmt.Sprintf("%s.%s", t.PkgPath(), t.Name())
	}
	return t.Name()
}
