package assets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

// JobDispatcher runs load jobs in the background. *systems.JobSystem implements it.
type JobDispatcher interface {
	AddWorkNonBlocking(job systems.Job) error
}

// Loader issues handles for load requests and schedules the read and import
// of their sources on the job dispatcher. It owns one AssetStorage per
// registered kind.
type Loader struct {
	registry *Registry
	resolver Resolver
	jobs     JobDispatcher
	events   *core.EventBus
	metrics  *core.AssetMetrics

	storages   map[core.TypeID]storage
	processors []Processor
}

type LoaderOption func(*Loader)

// WithEventBus fires asset events on bus from the processor ticks.
func WithEventBus(bus *core.EventBus) LoaderOption {
	return func(l *Loader) {
		l.events = bus
	}
}

// WithMetrics records pipeline counters into m.
func WithMetrics(m *core.AssetMetrics) LoaderOption {
	return func(l *Loader) {
		l.metrics = m
	}
}

// NewLoader seals registry and creates the storage and processor of every
// registered kind.
func NewLoader(registry *Registry, resolver Resolver, jobs JobDispatcher, opts ...LoaderOption) (*Loader, error) {
	if registry == nil {
		return nil, errors.New("asset loader requires a registry")
	}
	if resolver == nil {
		return nil, errors.New("asset loader requires a resolver")
	}
	if jobs == nil {
		return nil, errors.New("asset loader requires a job dispatcher")
	}

	l := &Loader{
		registry: registry,
		resolver: resolver,
		jobs:     jobs,
		storages: make(map[core.TypeID]storage),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.metrics == nil {
		l.metrics = &core.AssetMetrics{}
	}

	registry.Seal()
	so := &storageOptions{events: l.events, metrics: l.metrics}
	for _, d := range registry.Kinds() {
		st := d.newStorage(d, so)
		l.storages[d.TypeID] = st
		l.processors = append(l.processors, st.processor())
	}
	core.LogInfo("asset loader ready with %d asset kinds", len(l.processors))

	return l, nil
}

// LoadUntyped requests key as an asset of kind id and returns its handle
// without blocking. A key that is already pending or loaded shares the
// existing slot and does not read the source again.
func (l *Loader) LoadUntyped(key string, id core.TypeID) (UntypedHandle, error) {
	st, ok := l.storages[id]
	if !ok {
		return UntypedHandle{}, fmt.Errorf("%w: %s (requested for '%s')", ErrUnknownAssetKind, id, key)
	}
	l.metrics.Requested.Add(1)

	hid, seq, fresh := st.acquire(key)
	h := newHandle(st, hid)
	if !fresh {
		l.metrics.Deduplicated.Add(1)
		return h, nil
	}
	l.dispatch(st, key, hid, seq, false)
	return h, nil
}

// LoadByKey infers the asset kind from the key's registered extension.
func (l *Loader) LoadByKey(key string) (UntypedHandle, error) {
	id, err := l.registry.KindForKey(key)
	if err != nil {
		return UntypedHandle{}, err
	}
	return l.LoadUntyped(key, id)
}

// Load requests key as an asset of kind id stored as T.
func Load[T any](l *Loader, key string, id core.TypeID) (Handle[T], error) {
	if _, err := StorageOf[T](l, id); err != nil {
		return Handle[T]{}, err
	}
	h, err := l.LoadUntyped(key, id)
	if err != nil {
		return Handle[T]{}, err
	}
	return Handle[T]{h}, nil
}

// StorageOf returns the storage of kind id, which must hold values of type T.
func StorageOf[T any](l *Loader, id core.TypeID) (*AssetStorage[T], error) {
	st, ok := l.storages[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAssetKind, id)
	}
	typed, ok := st.(*AssetStorage[T])
	if !ok {
		return nil, fmt.Errorf("%w: kind '%s' does not store %T", ErrAssetTypeMismatch, st.descriptor().Name, *new(T))
	}
	return typed, nil
}

// Typed converts an untyped handle into a Handle[T] after checking the kind's Go type.
func Typed[T any](h UntypedHandle) (Handle[T], error) {
	if h.IsNil() {
		return Handle[T]{}, ErrInvalidHandle
	}
	if _, ok := h.ref.owner.(*AssetStorage[T]); !ok {
		return Handle[T]{}, fmt.Errorf("%w: kind '%s' does not store %T", ErrAssetTypeMismatch, h.ref.owner.descriptor().Name, *new(T))
	}
	return Handle[T]{h}, nil
}

// State returns the load status of any handle.
func (l *Loader) State(h UntypedHandle) LoadStatus {
	if h.IsNil() {
		return LoadStatusUnknown
	}
	return h.ref.owner.status(h.ref.id)
}

// Error returns the error recorded on any handle.
func (l *Loader) Error(h UntypedHandle) error {
	if h.IsNil() {
		return ErrInvalidHandle
	}
	return h.ref.owner.errorOf(h.ref.id)
}

// RefCount returns the number of live clones of h's slot.
func (l *Loader) RefCount(h UntypedHandle) int {
	if h.IsNil() {
		return 0
	}
	return h.ref.owner.refCount(h.ref.id)
}

// Progress summarises the load status of a group of handles.
type Progress struct {
	Total   int
	Pending int
	Loaded  int
	Failed  int
}

// Complete reports whether no handle of the group is still pending.
func (p Progress) Complete() bool {
	return p.Pending == 0
}

func (l *Loader) Progress(handles ...UntypedHandle) Progress {
	p := Progress{Total: len(handles)}
	for _, h := range handles {
		switch l.State(h) {
		case LoadStatusLoaded:
			p.Loaded++
		case LoadStatusPending:
			p.Pending++
		default:
			p.Failed++
		}
	}
	return p
}

// Reload schedules a fresh read of key for every kind holding it and returns
// how many slots were scheduled. Handles stay valid; the new value is
// committed by the next tick after the job finishes. When reloads of a slot
// overlap, only the most recently scheduled one is committed.
func (l *Loader) Reload(key string) int {
	n := 0
	for _, p := range l.processors {
		st := l.storages[p.TypeID()]
		hid, seq, ok := st.beginReload(key)
		if !ok {
			continue
		}
		l.dispatch(st, key, hid, seq, true)
		n++
	}
	return n
}

// Update runs every processor once, in registration order. The host calls it
// once per frame.
func (l *Loader) Update() {
	for _, p := range l.processors {
		p.Tick()
	}
}

// Processors returns the processor systems in tick order.
func (l *Loader) Processors() []Processor {
	out := make([]Processor, len(l.processors))
	copy(out, l.processors)
	return out
}

func (l *Loader) Registry() *Registry {
	return l.registry
}

func (l *Loader) Metrics() core.AssetMetricsSnapshot {
	return l.metrics.Snapshot()
}

func (l *Loader) dispatch(st storage, key string, hid HandleID, seq uint64, reload bool) {
	l.metrics.Jobs.Add(1)
	job := systems.Job{
		Name: fmt.Sprintf("load %s", key),
		Run: func(ctx context.Context) error {
			data, err := l.importSource(ctx, st.descriptor(), key)
			st.push(pendingResult{id: hid, key: key, data: data, err: err, reload: reload, seq: seq})
			return nil
		},
		OnFailure: func(err error) {
			st.push(pendingResult{id: hid, key: key, err: &ImportError{Key: key, Reason: err}, reload: reload, seq: seq})
		},
	}
	if err := l.jobs.AddWorkNonBlocking(job); err != nil {
		core.LogError("failed to schedule load of '%s': %s", key, err)
		st.push(pendingResult{id: hid, key: key, err: &ImportError{Key: key, Reason: err}, reload: reload, seq: seq})
	}
}

// importSource resolves key and runs the kind's deserializer on it.
func (l *Loader) importSource(ctx context.Context, d *AssetKindDescriptor, key string) (data any, err error) {
	if err := ctx.Err(); err != nil {
		return nil, &ImportError{Key: key, Reason: err}
	}

	rc, err := l.resolver.Resolve(key)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			return nil, err
		}
		return nil, &ImportError{Key: key, Reason: err}
	}
	defer rc.Close()

	src := &Source{Reader: rc, Key: key, Format: FormatFromKey(key)}
	if f, ok := rc.(*os.File); ok {
		src.Path = f.Name()
	}

	defer func() {
		if r := recover(); r != nil {
			data, err = nil, &ImportError{Key: key, Reason: fmt.Errorf("panic: %v", r)}
		}
	}()
	data, err = d.Deserialize(src)
	if err != nil {
		return nil, &ImportError{Key: key, Reason: err}
	}
	return data, nil
}
