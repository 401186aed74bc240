package assets

import (
	"fmt"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Processor is the per-kind commit step driven once per frame by the host.
type Processor interface {
	TypeID() core.TypeID
	Name() string
	Tick()
}

// ProcessorSystem commits the pending results of one asset kind into its
// AssetStorage and reclaims unreferenced slots. Tick must only be called from
// one goroutine, the host's update loop.
type ProcessorSystem[T any] struct {
	storage *AssetStorage[T]
}

func (p *ProcessorSystem[T]) TypeID() core.TypeID {
	return p.storage.desc.TypeID
}

func (p *ProcessorSystem[T]) Name() string {
	return p.storage.desc.Name
}

// Tick drains the results queued since the previous tick, processes and
// commits the ones that are still referenced, then frees every slot whose
// last handle was released.
func (p *ProcessorSystem[T]) Tick() {
	for _, r := range p.storage.pending.Drain() {
		p.commit(r)
	}
	p.reclaim()
}

// liveSlot returns the slot r was issued for, unless it has been reclaimed since.
func (p *ProcessorSystem[T]) liveSlot(id HandleID) *slot[T] {
	s := p.storage
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slotAt(id.Index)
	if sl == nil || !sl.live || sl.generation != id.Generation {
		return nil
	}
	return sl
}

func (p *ProcessorSystem[T]) commit(r pendingResult) {
	s := p.storage
	sl := p.liveSlot(r.id)
	if sl == nil {
		s.metrics.Discarded.Add(1)
		core.LogDebug("discarding result for reclaimed asset '%s' (%s)", r.key, r.id)
		return
	}
	if sl.refs.Load() <= 0 && p.retire(r) {
		// Every handle was dropped before the job finished. The slot is
		// freed right away so a later load of the key starts a new job.
		s.metrics.Discarded.Add(1)
		core.LogDebug("discarding result for unreferenced asset '%s' (%s)", r.key, r.id)
		return
	}
	if r.seq != sl.seq.Load() {
		// A newer reload of the same slot is in flight.
		s.metrics.Discarded.Add(1)
		core.LogDebug("discarding superseded result for asset '%s' (%s)", r.key, r.id)
		return
	}
	prev := sl.state.Load()

	if r.err != nil {
		p.fail(sl, prev, r, r.err)
		return
	}
	value, err := p.process(r)
	if err != nil {
		p.fail(sl, prev, r, err)
		return
	}

	sl.state.Store(&slotState[T]{
		generation: r.id.Generation,
		status:     LoadStatusLoaded,
		value:      value,
		version:    prev.version + 1,
	})

	code := core.EVENT_CODE_ASSET_LOADED
	if r.reload && prev.status != LoadStatusPending {
		code = core.EVENT_CODE_ASSET_RELOADED
		s.metrics.Reloaded.Add(1)
		core.LogInfo("reloaded asset '%s' (%s)", r.key, s.desc.Name)
	} else {
		s.metrics.Committed.Add(1)
		core.LogDebug("loaded asset '%s' (%s)", r.key, s.desc.Name)
	}
	p.fire(code, r.key, r.id, nil)
}

func (p *ProcessorSystem[T]) process(r pendingResult) (value T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &ProcessError{Key: r.key, Reason: fmt.Errorf("panic: %v", rec)}
		}
	}()

	out, err := p.storage.desc.Process(r.data)
	if err != nil {
		return value, &ProcessError{Key: r.key, Reason: err}
	}
	if out == nil {
		return value, nil
	}
	typed, ok := out.(T)
	if !ok {
		return value, &ProcessError{Key: r.key, Reason: fmt.Errorf("%w: got %T, expected %T", ErrAssetTypeMismatch, out, value)}
	}
	return typed, nil
}

func (p *ProcessorSystem[T]) fail(sl *slot[T], prev *slotState[T], r pendingResult, err error) {
	s := p.storage
	s.metrics.Failed.Add(1)

	next := &slotState[T]{
		generation: r.id.Generation,
		status:     LoadStatusFailed,
		err:        err,
		version:    prev.version,
	}
	if r.reload && prev.status == LoadStatusLoaded {
		// A broken edit keeps serving the last good value.
		next.status = LoadStatusLoaded
		next.value = prev.value
		core.LogWarn("reload of '%s' failed, keeping previous version: %s", r.key, err)
	} else {
		core.LogWarn("failed to load asset '%s' (%s): %s", r.key, s.desc.Name, err)
	}
	sl.state.Store(next)
	p.fire(core.EVENT_CODE_ASSET_FAILED, r.key, r.id, err)
}

func (p *ProcessorSystem[T]) reclaim() {
	s := p.storage
	ids := s.released.Drain()
	if len(ids) == 0 {
		return
	}

	type freed struct {
		key string
		id  HandleID
	}
	var reclaimed []freed

	s.mu.Lock()
	for _, id := range ids {
		// Skips slots already freed, or revived by a load before this tick.
		if key, ok := s.retire(id); ok {
			reclaimed = append(reclaimed, freed{key: key, id: id})
		}
	}
	s.mu.Unlock()

	for _, f := range reclaimed {
		p.reclaimed(f.key, f.id)
	}
}

// retire frees the slot of an unreferenced result under the storage lock,
// unless a load revived it since the reference count was read.
func (p *ProcessorSystem[T]) retire(r pendingResult) bool {
	s := p.storage
	s.mu.Lock()
	_, ok := s.retire(r.id)
	s.mu.Unlock()

	if ok {
		p.reclaimed(r.key, r.id)
	}
	return ok
}

func (p *ProcessorSystem[T]) reclaimed(key string, id HandleID) {
	p.storage.metrics.Reclaimed.Add(1)
	core.LogDebug("reclaimed asset slot %s of '%s'", id, key)
	p.fire(core.EVENT_CODE_ASSET_RECLAIMED, key, id, nil)
}

func (p *ProcessorSystem[T]) fire(code core.EventCode, key string, id HandleID, err error) {
	p.storage.events.Fire(core.EventContext{
		Type:   code,
		Sender: p,
		Data: &core.AssetEvent{
			TypeID:     p.storage.desc.TypeID,
			Key:        key,
			Index:      id.Index,
			Generation: id.Generation,
			Err:        err,
		},
	})
}
