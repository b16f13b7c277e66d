package adapter

import (
	"sort"

	"github.com/signalfield/adapterkit/pkg/feature"
)

// Property is one informational key-value entry advertised by an adapter.
type Property struct {
	Key         string
	Value       string
	Description string
}

// TypeDescriptor identifies the adapter implementation type, shared by all
// instances of that type.
type TypeDescriptor struct {
	ID      string
	Name    string
	Version string
	Vendor  string
}

// Descriptor is the adapter's public descriptor, built on demand from the
// identity and the feature registry. Feature lists are sorted for
// determinism.
type Descriptor struct {
	ID                string
	Name              string
	Description       string
	StandardFeatures  []feature.ID
	ExtensionFeatures []feature.ID
	Properties        []Property
	Type              TypeDescriptor
}

// Descriptor builds the adapter's public descriptor.
func (a *Adapter) Descriptor() Descriptor {
	a.mu.RLock()
	name := a.name
	description := a.description
	properties := append([]Property(nil), a.properties...)
	a.mu.RUnlock()

	sort.Slice(properties, func(i, j int) bool { return properties[i].Key < properties[j].Key })

	return Descriptor{
		ID:                a.id,
		Name:              name,
		Description:       description,
		StandardFeatures:  a.registry.Standard(),
		ExtensionFeatures: a.registry.Extensions(),
		Properties:        properties,
		Type:              a.typeDesc,
	}
}

// UpdateDescriptor replaces the adapter's display name and description. The
// identifier never changes. An empty name keeps the current one.
func (a *Adapter) UpdateDescriptor(name, description string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if name != "" {
		a.name = name
	}
	a.description = description
}
