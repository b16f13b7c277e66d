// Package sim provides a simulated industrial data source and the adapter
// wiring around it. It is the reference integration of the lifecycle
// controller, the feature registry and the key-value store, and backs the
// adapterd host binary.
package sim

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/signalfield/adapterkit/pkg/feature"
	"github.com/signalfield/adapterkit/pkg/invoke"
	"github.com/signalfield/adapterkit/pkg/kvstore"
	"github.com/signalfield/adapterkit/pkg/log"
)

const valueKeyPrefix = "sim/value/"

var tagKinds = []struct {
	name string
	base float64
	span float64
}{
	{"temperature", 72, 6},
	{"pressure", 4.2, 0.8},
	{"flow", 120, 25},
}

// Config shapes the simulated source.
type Config struct {
	// TagCount is the number of tags in the simulated tag space.
	TagCount int

	// SampleInterval is the period between value updates while running.
	SampleInterval time.Duration

	// Seed makes the value stream deterministic when non-zero.
	Seed int64
}

// Source is a simulated data source. It exposes a fixed tag space whose
// values drift while the source is online, and persists the last observed
// values across restarts through a key-value store.
type Source struct {
	cfg    Config
	logger log.Logger
	store  kvstore.Store

	tags []feature.Tag

	mu     sync.RWMutex
	online bool
	values map[string]float64
	rng    *rand.Rand
}

// NewSource creates a simulated source with a generated tag space.
func NewSource(cfg Config, logger log.Logger, store kvstore.Store) *Source {
	if cfg.TagCount <= 0 {
		cfg.TagCount = 32
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = time.Second
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Source{
		cfg:    cfg,
		logger: logger,
		store:  store,
		values: make(map[string]float64, cfg.TagCount),
		rng:    rand.New(rand.NewSource(seed)),
	}
	s.tags = generateTags(cfg.TagCount)
	return s
}

func generateTags(count int) []feature.Tag {
	tags := make([]feature.Tag, 0, count)
	for i := 0; i < count; i++ {
		kind := tagKinds[i%len(tagKinds)]
		tags = append(tags, feature.Tag{
			Name:        fmt.Sprintf("unit-%02d/%s", i/len(tagKinds)+1, kind.name),
			Description: fmt.Sprintf("Simulated %s reading.", kind.name),
			Properties:  map[string]string{"kind": kind.name},
		})
	}
	return tags
}

// Connect brings the source online, restoring persisted values where
// available and seeding the rest.
func (s *Source) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.online {
		return nil
	}

	restored := 0
	for _, tag := range s.tags {
		if v, ok := s.readPersisted(ctx, tag.Name); ok {
			s.values[tag.Name] = v
			restored++
			continue
		}
		kind := kindOf(tag)
		s.values[tag.Name] = kind.base + (s.rng.Float64()-0.5)*kind.span
	}

	s.online = true
	s.logger.Info("simulated source online",
		log.Int("tags", len(s.tags)),
		log.Int("restored", restored))
	return nil
}

// Disconnect takes the source offline and persists the last values.
func (s *Source) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return nil
	}
	s.online = false

	for name, v := range s.values {
		raw := strconv.FormatFloat(v, 'g', -1, 64)
		if err := s.store.Write(ctx, valueKeyPrefix+name, []byte(raw)); err != nil {
			return fmt.Errorf("persist %s: %w", name, err)
		}
	}
	s.logger.Info("simulated source offline", log.Int("persisted", len(s.values)))
	return nil
}

func (s *Source) readPersisted(ctx context.Context, name string) (float64, bool) {
	raw, err := s.store.Read(ctx, valueKeyPrefix+name)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Run drifts the tag values until ctx is canceled. It is meant to be
// scheduled as the adapter's post-start hook.
func (s *Source) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step()
		}
	}
}

func (s *Source) step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return
	}
	for _, tag := range s.tags {
		kind := kindOf(tag)
		drift := (s.rng.Float64() - 0.5) * kind.span * 0.1
		s.values[tag.Name] += drift
	}
}

func kindOf(tag feature.Tag) struct {
	name string
	base float64
	span float64
} {
	for _, kind := range tagKinds {
		if kind.name == tag.Properties["kind"] {
			return kind
		}
	}
	return tagKinds[0]
}

// CheckHealth implements feature.HealthCheck.
func (s *Source) CheckHealth(ctx context.Context, call *invoke.Context) (feature.Health, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.online {
		return feature.Health{OK: false, Detail: "source offline"}, nil
	}
	return feature.Health{OK: true, Detail: fmt.Sprintf("%d tags online", len(s.tags))}, nil
}

// SearchTags implements feature.TagSearch. Matching is a case-insensitive
// substring test on the tag name; results are sorted and capped at the
// requested page size.
func (s *Source) SearchTags(ctx context.Context, call *invoke.Context, req feature.TagSearchRequest) ([]feature.Tag, error) {
	needle := strings.ToLower(req.Name)

	// The request may arrive unvalidated when the caller disabled request
	// validation on the call context.
	pageSize := req.PageSize
	if pageSize < 0 {
		pageSize = 0
	}

	matches := make([]feature.Tag, 0, pageSize)
	for _, tag := range s.tags {
		if needle != "" && !strings.Contains(strings.ToLower(tag.Name), needle) {
			continue
		}
		matches = append(matches, tag)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	if len(matches) > pageSize {
		matches = matches[:pageSize]
	}
	return matches, nil
}

// ReadSnapshot implements feature.SnapshotReader. Unknown tag names fail the
// whole read.
func (s *Source) ReadSnapshot(ctx context.Context, call *invoke.Context, req feature.SnapshotRequest) ([]feature.TagValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make([]feature.TagValue, 0, len(req.TagNames))
	for _, name := range req.TagNames {
		v, ok := s.values[name]
		if !ok {
			return nil, fmt.Errorf("unknown tag %q", name)
		}
		out = append(out, feature.TagValue{TagName: name, Value: v, Timestamp: now})
	}
	return out, nil
}
