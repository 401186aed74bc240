package assets

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// AssetKindDescriptor holds the type-erased operations of one asset kind.
// Descriptors are built with NewAssetKind or NewSerdeAssetKind and are
// immutable once registered.
type AssetKindDescriptor struct {
	TypeID core.TypeID
	// Name is informational only, two kinds may share a name.
	Name string
	// Extensions routes source keys to this kind in Registry.KindForKey.
	// Compound extensions such as ".blast.toml" are allowed.
	Extensions []string
	// Deserialize turns a source into the kind's intermediate data.
	Deserialize func(src *Source) (any, error)
	// Process turns intermediate data into the runtime asset value.
	Process func(data any) (any, error)

	newStorage func(d *AssetKindDescriptor, opts *storageOptions) storage
}

// NewAssetKind builds the descriptor for an asset kind whose importer yields D
// and whose stored runtime value is T.
func NewAssetKind[D, T any](id core.TypeID, name string, deserialize func(src *Source) (D, error), process func(data D) (T, error), extensions ...string) *AssetKindDescriptor {
	d := &AssetKindDescriptor{
		TypeID:     id,
		Name:       name,
		Extensions: normalizeExtensions(extensions),
		newStorage: func(d *AssetKindDescriptor, opts *storageOptions) storage {
			return newAssetStorage[T](d, opts)
		},
	}
	if deserialize != nil {
		d.Deserialize = func(src *Source) (any, error) {
			return deserialize(src)
		}
	}
	if process != nil {
		d.Process = func(data any) (any, error) {
			typed, ok := data.(D)
			if !ok {
				return nil, fmt.Errorf("intermediate data is %T, expected %T", data, *new(D))
			}
			return process(typed)
		}
	}
	return d
}

// NewSerdeAssetKind builds the descriptor of a kind decoded directly from TOML or HCL into T.
func NewSerdeAssetKind[T any](id core.TypeID, name string, extensions ...string) *AssetKindDescriptor {
	return NewAssetKind[T, T](id, name, SerdeImporter[T](), Passthrough[T], extensions...)
}

func normalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

func (d *AssetKindDescriptor) validate() error {
	switch {
	case d == nil:
		return fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	case d.TypeID.IsNil():
		return fmt.Errorf("%w: kind '%s' has a nil type id", ErrInvalidDescriptor, d.Name)
	case d.Deserialize == nil:
		return fmt.Errorf("%w: kind '%s' has no deserialize function", ErrInvalidDescriptor, d.Name)
	case d.Process == nil:
		return fmt.Errorf("%w: kind '%s' has no process function", ErrInvalidDescriptor, d.Name)
	case d.newStorage == nil:
		return fmt.Errorf("%w: kind '%s' was not built with NewAssetKind", ErrInvalidDescriptor, d.Name)
	}
	return nil
}

// Registry maps TypeIDs to asset kind descriptors. It is filled during
// initialization and sealed before the first load, after which it is
// read-only and lookups take no lock.
type Registry struct {
	// guards writers only
	mu     sync.Mutex
	sealed atomic.Bool

	kinds map[core.TypeID]*AssetKindDescriptor
	order []*AssetKindDescriptor
}

func NewRegistry() *Registry {
	return &Registry{
		kinds: make(map[core.TypeID]*AssetKindDescriptor),
	}
}

// Register adds a descriptor. Registering the very same descriptor twice is a
// no-op; any other descriptor with an already registered TypeID fails with
// ErrDuplicateTypeID.
func (r *Registry) Register(d *AssetKindDescriptor) error {
	if err := d.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		return fmt.Errorf("%w: cannot register '%s'", ErrRegistrySealed, d.Name)
	}
	if existing, ok := r.kinds[d.TypeID]; ok {
		if existing == d {
			return nil
		}
		return fmt.Errorf("%w: %s is already registered as '%s', cannot register '%s'", ErrDuplicateTypeID, d.TypeID, existing.Name, d.Name)
	}
	r.kinds[d.TypeID] = d
	r.order = append(r.order, d)
	core.LogDebug("registered asset kind '%s' (%s)", d.Name, d.TypeID)
	return nil
}

// MustRegister is Register for init-time registration; failures are fatal.
func (r *Registry) MustRegister(d *AssetKindDescriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor registered for id.
func (r *Registry) Lookup(id core.TypeID) (*AssetKindDescriptor, bool) {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	d, ok := r.kinds[id]
	return d, ok
}

// Kinds returns the registered descriptors in registration order.
func (r *Registry) Kinds() []*AssetKindDescriptor {
	if !r.sealed.Load() {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	out := make([]*AssetKindDescriptor, len(r.order))
	copy(out, r.order)
	return out
}

// KindForKey picks the kind whose longest registered extension suffixes key.
func (r *Registry) KindForKey(key string) (core.TypeID, error) {
	lower := strings.ToLower(key)
	best, bestLen, ambiguous := core.NilTypeID, 0, false
	for _, d := range r.Kinds() {
		for _, ext := range d.Extensions {
			if !strings.HasSuffix(lower, ext) {
				continue
			}
			switch {
			case len(ext) > bestLen:
				best, bestLen, ambiguous = d.TypeID, len(ext), false
			case len(ext) == bestLen && d.TypeID != best:
				ambiguous = true
			}
		}
	}
	if ambiguous {
		return core.NilTypeID, fmt.Errorf("%w: '%s'", ErrAmbiguousAssetKind, key)
	}
	if best.IsNil() {
		return core.NilTypeID, fmt.Errorf("%w: no kind registered for '%s'", ErrUnknownAssetKind, key)
	}
	return best, nil
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed.Store(true)
}

func (r *Registry) Sealed() bool {
	return r.sealed.Load()
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide registry filled by RegisterAssetKind.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// RegisterAssetKind registers d in the process-wide registry. It is meant to
// be called from init functions and panics on failure so that a duplicate
// TypeID aborts startup.
func RegisterAssetKind(d *AssetKindDescriptor) {
	defaultRegistry.MustRegister(d)
}
