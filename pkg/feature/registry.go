package feature

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/signalfield/adapterkit/pkg/log"
)

// Registration associates one feature identifier with its implementation
// and wrapper. A registration is owned by exactly one adapter instance.
type Registration struct {
	desc      Descriptor
	impl      any
	extension bool
	wrapper   *Wrapper
}

// Descriptor returns the registered feature's descriptor.
func (r *Registration) Descriptor() Descriptor { return r.desc }

// Impl returns the raw implementation. Callers should normally go through
// the wrapper instead.
func (r *Registration) Impl() any { return r.impl }

// Extension reports whether this is an extension feature.
func (r *Registration) Extension() bool { return r.extension }

// Wrapper returns the guarding wrapper for this registration.
func (r *Registration) Wrapper() *Wrapper { return r.wrapper }

// Registry maps feature identifiers to registrations for one adapter.
// Membership is fixed after adapter construction: registrations are added
// while the adapter has never been started and removed only on Close.
type Registry struct {
	adapter AdapterInfo
	logger  log.Logger

	mu   sync.RWMutex
	regs map[ID]*Registration
}

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	// Adapter supplies identity and lifecycle state to wrappers. Required.
	Adapter AdapterInfo

	// Logger receives registration diagnostics. Defaults to a no-op logger.
	Logger log.Logger
}

// NewRegistry creates an empty registry for one adapter.
func NewRegistry(opts RegistryOptions) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoop()
	}
	return &Registry{
		adapter: opts.Adapter,
		logger:  logger,
		regs:    make(map[ID]*Registration),
	}
}

// Register adds a feature implementation under id.
//
// Standard features must have a contract in the contract table and the
// implementation must satisfy it. Extension features must carry an
// identifier in the extension namespace; when the table declares a contract
// for the identifier it is enforced as well.
func (r *Registry) Register(id ID, impl any, extension bool) error {
	nid, err := ParseID(string(id))
	if err != nil {
		return err
	}
	if impl == nil {
		return fmt.Errorf("%w: %s: nil implementation", ErrInvalidFeature, nid)
	}

	contract, declared := ContractFor(nid)
	if extension {
		if !nid.IsExtension() {
			return fmt.Errorf("%w: %s: extension features must use the %q namespace",
				ErrInvalidFeature, nid, ExtensionNamespace)
		}
	} else if !declared {
		return fmt.Errorf("%w: %s: no contract declared", ErrInvalidFeature, nid)
	}
	if declared && !contract.Satisfies(impl) {
		return fmt.Errorf("%w: %s: implementation %T does not satisfy the contract",
			ErrInvalidFeature, nid, impl)
	}

	desc := Descriptor{ID: nid}
	if declared {
		desc = contract.Descriptor
		desc.ID = nid
	}
	desc = desc.withDefaults(impl)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.regs[nid]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateFeature, nid)
	}
	r.regs[nid] = &Registration{
		desc:      desc,
		impl:      impl,
		extension: extension,
		wrapper:   newWrapper(desc, r.adapter),
	}
	r.logger.Debug("feature registered",
		log.String("feature", string(nid)),
		log.Bool("extension", extension))
	return nil
}

// Get returns the implementation registered under id.
func (r *Registry) Get(id ID) (any, bool) {
	reg, ok := r.Registration(id)
	if !ok {
		return nil, false
	}
	return reg.impl, true
}

// Registration returns the full registration for id.
func (r *Registry) Registration(id ID) (*Registration, bool) {
	nid, err := ParseID(string(id))
	if err != nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.regs[nid]
	return reg, ok
}

// Contains reports whether id is registered.
func (r *Registry) Contains(id ID) bool {
	_, ok := r.Registration(id)
	return ok
}

// Standard returns the sorted identifiers of all standard features.
func (r *Registry) Standard() []ID {
	return r.list(false)
}

// Extensions returns the sorted identifiers of all extension features.
func (r *Registry) Extensions() []ID {
	return r.list(true)
}

func (r *Registry) list(extension bool) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.regs))
	for id, reg := range r.regs {
		if reg.extension == extension {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close disposes every registration, closing implementations that own
// resources, and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for id, reg := range r.regs {
		if closer, ok := reg.impl.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", id, err))
			}
		}
	}
	r.regs = make(map[ID]*Registration)
	return errors.Join(errs...)
}

// Lookup scans the registry for the first registration, in identifier
// order, whose implementation satisfies the interface T.
func Lookup[T any](r *Registry) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.regs))
	for id := range r.regs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if _, ok := r.regs[id].impl.(T); ok {
			return r.regs[id], true
		}
	}
	return nil, false
}
