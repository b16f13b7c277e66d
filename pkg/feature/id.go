package feature

import (
	"fmt"
	"net/url"
	"strings"
)

// Feature identifier namespaces.
const (
	// StandardNamespace prefixes every framework-defined feature.
	StandardNamespace = "urn:adapterkit/features/"

	// ExtensionNamespace prefixes adapter-specific extension features.
	ExtensionNamespace = "urn:adapterkit/extensions/"
)

// ID is the stable identifier of a feature: an absolute, case-sensitive URI
// carrying a canonical trailing slash. Use [ParseID] to obtain a normalized
// value; two identifiers differing only by the trailing slash normalize to
// the same ID.
type ID string

// ParseID normalizes raw into a feature ID. The identifier must be an
// absolute URI; a missing trailing slash is appended.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrInvalidFeature)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidFeature, raw, err)
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: %q is not an absolute URI", ErrInvalidFeature, raw)
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return ID(raw), nil
}

// MustID is ParseID for identifiers known valid at compile time. It panics
// on malformed input and is intended for package-level declarations.
func MustID(raw string) ID {
	id, err := ParseID(raw)
	if err != nil {
		panic(err)
	}
	return id
}

// ExtensionID builds an identifier in the extension namespace from a
// relative name such as "acme/ping".
func ExtensionID(name string) (ID, error) {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return "", fmt.Errorf("%w: empty extension name", ErrInvalidFeature)
	}
	return ParseID(ExtensionNamespace + name)
}

// MustExtensionID is ExtensionID for names known valid at compile time. It
// panics on malformed input and is intended for package-level declarations.
func MustExtensionID(name string) ID {
	id, err := ExtensionID(name)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string { return string(id) }

// IsExtension reports whether the identifier lives in the extension
// namespace.
func (id ID) IsExtension() bool {
	return strings.HasPrefix(string(id), ExtensionNamespace)
}

// category derives a display category from the identifier's first path
// segment below its namespace, e.g. "tags" for
// "urn:adapterkit/features/tags/search/".
func (id ID) category() string {
	s := string(id)
	switch {
	case strings.HasPrefix(s, StandardNamespace):
		s = s[len(StandardNamespace):]
	case strings.HasPrefix(s, ExtensionNamespace):
		s = s[len(ExtensionNamespace):]
	default:
		if i := strings.Index(s, ":"); i >= 0 {
			s = s[i+1:]
		}
	}
	s = strings.Trim(s, "/")
	if i := strings.Index(s, "/"); i >= 0 {
		s = s[:i]
	}
	return s
}

// leaf returns the last path segment of the identifier.
func (id ID) leaf() string {
	s := strings.Trim(string(id), "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return s
}
