package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/signalfield/adapterkit/pkg/invoke"
)

// Identifiers of the standard features defined by the framework.
var (
	HealthCheckID = MustID(StandardNamespace + "diagnostics/health-check")
	TagSearchID   = MustID(StandardNamespace + "tags/search")
	SnapshotID    = MustID(StandardNamespace + "tags/snapshot")
)

// Health is the result of a health check.
type Health struct {
	OK     bool
	Detail string
}

// HealthCheck reports whether the adapter's underlying source is reachable.
type HealthCheck interface {
	CheckHealth(ctx context.Context, call *invoke.Context) (Health, error)
}

// Tag describes one addressable data point exposed by an adapter.
type Tag struct {
	Name        string
	Description string
	Properties  map[string]string
}

// TagSearchRequest filters the adapter's tag space.
type TagSearchRequest struct {
	// Name filters tags whose name contains this substring. Empty matches
	// all tags.
	Name string

	// PageSize caps the number of returned tags, 1..500.
	PageSize int
}

// Validate implements Validatable.
func (r TagSearchRequest) Validate() error {
	if r.PageSize < 1 || r.PageSize > 500 {
		return fmt.Errorf("page size %d out of range [1, 500]", r.PageSize)
	}
	return nil
}

// TagSearch finds tags matching a filter.
type TagSearch interface {
	SearchTags(ctx context.Context, call *invoke.Context, req TagSearchRequest) ([]Tag, error)
}

// TagValue is one sampled value for a tag.
type TagValue struct {
	TagName   string
	Value     float64
	Timestamp time.Time
}

// SnapshotRequest names the tags to read current values for.
type SnapshotRequest struct {
	TagNames []string
}

// Validate implements Validatable.
func (r SnapshotRequest) Validate() error {
	if len(r.TagNames) == 0 {
		return fmt.Errorf("at least one tag name is required")
	}
	for _, name := range r.TagNames {
		if name == "" {
			return fmt.Errorf("tag names must not be empty")
		}
	}
	return nil
}

// SnapshotReader reads the current value of tags.
type SnapshotReader interface {
	ReadSnapshot(ctx context.Context, call *invoke.Context, req SnapshotRequest) ([]TagValue, error)
}

func init() {
	MustRegisterContract(Contract{
		Descriptor: Descriptor{
			ID:          HealthCheckID,
			DisplayName: "HealthCheck",
			Description: "Reports reachability of the adapter's underlying source.",
		},
		Satisfies: Implements[HealthCheck](),
	})
	MustRegisterContract(Contract{
		Descriptor: Descriptor{
			ID:          TagSearchID,
			DisplayName: "TagSearch",
			Description: "Finds tags matching a filter.",
		},
		Satisfies: Implements[TagSearch](),
	})
	MustRegisterContract(Contract{
		Descriptor: Descriptor{
			ID:          SnapshotID,
			DisplayName: "SnapshotReader",
			Description: "Reads the current value of tags.",
		},
		Satisfies: Implements[SnapshotReader](),
	})
}
