package assets

import (
	"sync"
	"sync/atomic"

	"github.com/spaghettifunk/anima-assets/engine/containers"
	"github.com/spaghettifunk/anima-assets/engine/core"
)

// LoadStatus is the state of the asset referenced by a handle.
type LoadStatus int

const (
	// The handle does not reference a live slot (nil, foreign or stale).
	LoadStatusUnknown LoadStatus = iota
	// The source is still being read or waits for the next processor tick.
	LoadStatusPending
	LoadStatusLoaded
	// Terminal until the caller issues a fresh load.
	LoadStatusFailed
)

func (s LoadStatus) String() string {
	switch s {
	case LoadStatusPending:
		return "pending"
	case LoadStatusLoaded:
		return "loaded"
	case LoadStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// storage is the type-erased view of an AssetStorage used by the loader and handles.
type storage interface {
	descriptor() *AssetKindDescriptor
	acquire(key string) (HandleID, uint64, bool)
	beginReload(key string) (HandleID, uint64, bool)
	retain(id HandleID) bool
	release(id HandleID)
	push(r pendingResult)
	status(id HandleID) LoadStatus
	errorOf(id HandleID) error
	refCount(id HandleID) int
	processor() Processor
}

type storageOptions struct {
	events  *core.EventBus
	metrics *core.AssetMetrics
}

// pendingResult is the outcome of one load job, waiting for the processor tick.
type pendingResult struct {
	id     HandleID
	key    string
	data   any
	err    error
	reload bool
	// seq is the slot's load sequence the job was issued with.
	seq uint64
}

// slotState is published atomically; readers never see a partial commit.
type slotState[T any] struct {
	generation uint32
	status     LoadStatus
	value      T
	err        error
	version    uint32
}

type slot[T any] struct {
	refs  atomic.Int32
	state atomic.Pointer[slotState[T]]
	// seq counts the load jobs issued for the slot; written under
	// AssetStorage.mu, read by the processor.
	seq atomic.Uint64

	// guarded by AssetStorage.mu
	key        string
	generation uint32
	live       bool
}

// AssetStorage holds the committed assets of one kind. Get, Error and State
// are lock free and safe to call from any goroutine at any time; slot
// occupancy only changes inside the kind's processor tick.
type AssetStorage[T any] struct {
	desc    *AssetKindDescriptor
	events  *core.EventBus
	metrics *core.AssetMetrics

	// guards allocation, the key index and reclamation
	mu    sync.Mutex
	slots atomic.Pointer[[]*slot[T]]
	free  []uint32
	byKey map[string]uint32

	pending  *containers.Queue[pendingResult]
	released *containers.Queue[HandleID]

	proc *ProcessorSystem[T]
}

func newAssetStorage[T any](d *AssetKindDescriptor, opts *storageOptions) *AssetStorage[T] {
	s := &AssetStorage[T]{
		desc:     d,
		events:   opts.events,
		metrics:  opts.metrics,
		byKey:    make(map[string]uint32),
		pending:  containers.NewQueue[pendingResult](64),
		released: containers.NewQueue[HandleID](64),
	}
	if s.metrics == nil {
		s.metrics = &core.AssetMetrics{}
	}
	empty := make([]*slot[T], 0, 16)
	s.slots.Store(&empty)
	s.proc = &ProcessorSystem[T]{storage: s}
	return s
}

func (s *AssetStorage[T]) TypeID() core.TypeID {
	return s.desc.TypeID
}

func (s *AssetStorage[T]) Name() string {
	return s.desc.Name
}

// Get returns the committed value referenced by h. It reports false while
// the asset is pending, after it failed, and for stale or foreign handles.
func (s *AssetStorage[T]) Get(h Handle[T]) (T, bool) {
	var zero T
	st := s.current(h.UntypedHandle)
	if st == nil || st.status != LoadStatusLoaded {
		return zero, false
	}
	return st.value, true
}

// Error returns the load, import or process error recorded for h, if any.
func (s *AssetStorage[T]) Error(h Handle[T]) error {
	if st := s.current(h.UntypedHandle); st != nil {
		return st.err
	}
	return nil
}

func (s *AssetStorage[T]) State(h Handle[T]) LoadStatus {
	if st := s.current(h.UntypedHandle); st != nil {
		return st.status
	}
	return LoadStatusUnknown
}

// Version counts the commits of h's slot; it grows with every hot reload.
func (s *AssetStorage[T]) Version(h Handle[T]) uint32 {
	if st := s.current(h.UntypedHandle); st != nil {
		return st.version
	}
	return 0
}

// RefCount returns the number of live clones of h's slot.
func (s *AssetStorage[T]) RefCount(h Handle[T]) int {
	if !s.owns(h.UntypedHandle) {
		return 0
	}
	return s.refCount(h.ref.id)
}

// Len returns the number of occupied slots, including pending and failed ones.
func (s *AssetStorage[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, sl := range *s.slots.Load() {
		if sl.live {
			n++
		}
	}
	return n
}

// Processor returns the processor system that commits into this storage.
func (s *AssetStorage[T]) Processor() *ProcessorSystem[T] {
	return s.proc
}

func (s *AssetStorage[T]) owns(h UntypedHandle) bool {
	return h.ref != nil && h.ref.owner == storage(s)
}

func (s *AssetStorage[T]) slotAt(index uint32) *slot[T] {
	slots := *s.slots.Load()
	if int(index) >= len(slots) {
		return nil
	}
	return slots[index]
}

func (s *AssetStorage[T]) current(h UntypedHandle) *slotState[T] {
	if !s.owns(h) {
		return nil
	}
	return s.stateOf(h.ref.id)
}

func (s *AssetStorage[T]) stateOf(id HandleID) *slotState[T] {
	sl := s.slotAt(id.Index)
	if sl == nil {
		return nil
	}
	st := sl.state.Load()
	if st == nil || st.generation != id.Generation {
		return nil
	}
	return st
}

func (s *AssetStorage[T]) descriptor() *AssetKindDescriptor {
	return s.desc
}

func (s *AssetStorage[T]) processor() Processor {
	return s.proc
}

// acquire returns the slot for key, allocating one (fresh=true) when the key
// is not loaded yet or its previous load failed. A fresh slot comes with the
// sequence number its load job must carry.
func (s *AssetStorage[T]) acquire(key string) (HandleID, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index, ok := s.byKey[key]; ok {
		sl := s.slotAt(index)
		if st := sl.state.Load(); st != nil && st.status != LoadStatusFailed {
			sl.refs.Add(1)
			return HandleID{Index: index, Generation: sl.generation}, 0, false
		}
	}

	index := s.allocate()
	sl := s.slotAt(index)
	sl.key = key
	sl.live = true
	sl.refs.Store(1)
	sl.state.Store(&slotState[T]{generation: sl.generation, status: LoadStatusPending})
	s.byKey[key] = index
	return HandleID{Index: index, Generation: sl.generation}, sl.seq.Add(1), true
}

// allocate must be called with mu held.
func (s *AssetStorage[T]) allocate() uint32 {
	if n := len(s.free); n > 0 {
		index := s.free[n-1]
		s.free = s.free[:n-1]
		return index
	}
	// Appending past the length published to readers is safe: they never
	// index beyond the slice they loaded.
	slots := append(*s.slots.Load(), &slot[T]{})
	s.slots.Store(&slots)
	return uint32(len(slots) - 1)
}

// beginReload issues a new load sequence for the committed slot of key.
// Pending slots are skipped; their job has not read the source yet.
func (s *AssetStorage[T]) beginReload(key string) (HandleID, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	index, ok := s.byKey[key]
	if !ok {
		return HandleID{}, 0, false
	}
	sl := s.slotAt(index)
	id := HandleID{Index: index, Generation: sl.generation}
	st := s.stateOf(id)
	if st == nil || (st.status != LoadStatusLoaded && st.status != LoadStatusFailed) {
		return HandleID{}, 0, false
	}
	return id, sl.seq.Add(1), true
}

// retire frees the slot of id unless it is gone or referenced again. Must be
// called with mu held.
func (s *AssetStorage[T]) retire(id HandleID) (string, bool) {
	sl := s.slotAt(id.Index)
	if sl == nil || !sl.live || sl.generation != id.Generation || sl.refs.Load() > 0 {
		return "", false
	}
	key := sl.key
	if index, ok := s.byKey[key]; ok && index == id.Index {
		delete(s.byKey, key)
	}
	sl.live = false
	sl.key = ""
	sl.generation++
	sl.state.Store(&slotState[T]{generation: sl.generation, status: LoadStatusUnknown})
	s.free = append(s.free, id.Index)
	return key, true
}

func (s *AssetStorage[T]) retain(id HandleID) bool {
	sl := s.slotAt(id.Index)
	if sl == nil {
		return false
	}
	sl.refs.Add(1)
	return true
}

func (s *AssetStorage[T]) release(id HandleID) {
	sl := s.slotAt(id.Index)
	if sl == nil {
		return
	}
	switch n := sl.refs.Add(-1); {
	case n == 0:
		s.released.Enqueue(id)
	case n < 0:
		sl.refs.Add(1)
		core.LogError("asset '%s' slot %s released more often than acquired", s.desc.Name, id)
	}
}

func (s *AssetStorage[T]) push(r pendingResult) {
	s.pending.Enqueue(r)
}

func (s *AssetStorage[T]) status(id HandleID) LoadStatus {
	if st := s.stateOf(id); st != nil {
		return st.status
	}
	return LoadStatusUnknown
}

func (s *AssetStorage[T]) errorOf(id HandleID) error {
	if st := s.stateOf(id); st != nil {
		return st.err
	}
	return nil
}

func (s *AssetStorage[T]) refCount(id HandleID) int {
	if s.stateOf(id) == nil {
		return 0
	}
	return int(s.slotAt(id.Index).refs.Load())
}
