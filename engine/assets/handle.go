package assets

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// HandleID identifies a storage slot occupant. The generation changes every
// time the slot is reclaimed, so an id never aliases a later occupant.
type HandleID struct {
	Index      uint32
	Generation uint32
}

func (id HandleID) String() string {
	return fmt.Sprintf("%d@%d", id.Index, id.Generation)
}

type handleRef struct {
	id       HandleID
	owner    storage
	released atomic.Bool
}

// UntypedHandle is a reference counted reference to a slot of any asset kind.
// Every clone must be released exactly once; extra Release calls are ignored.
type UntypedHandle struct {
	ref *handleRef
}

func newHandle(owner storage, id HandleID) UntypedHandle {
	return UntypedHandle{ref: &handleRef{id: id, owner: owner}}
}

// IsNil reports whether h was never issued by a loader.
func (h UntypedHandle) IsNil() bool {
	return h.ref == nil
}

func (h UntypedHandle) ID() HandleID {
	if h.ref == nil {
		return HandleID{}
	}
	return h.ref.id
}

func (h UntypedHandle) TypeID() core.TypeID {
	if h.ref == nil {
		return core.NilTypeID
	}
	return h.ref.owner.descriptor().TypeID
}

// Released reports whether this clone was released.
func (h UntypedHandle) Released() bool {
	return h.ref == nil || h.ref.released.Load()
}

// Clone returns a new owner of the same slot. Cloning a released or nil
// handle returns a nil handle.
func (h UntypedHandle) Clone() UntypedHandle {
	if h.Released() {
		return UntypedHandle{}
	}
	if !h.ref.owner.retain(h.ref.id) {
		return UntypedHandle{}
	}
	return newHandle(h.ref.owner, h.ref.id)
}

// Release drops this clone's reference. Once every clone is released the
// slot is reclaimed by the next processor tick.
func (h UntypedHandle) Release() {
	if h.ref == nil || !h.ref.released.CompareAndSwap(false, true) {
		return
	}
	h.ref.owner.release(h.ref.id)
}

func (h UntypedHandle) String() string {
	if h.ref == nil {
		return "Handle(nil)"
	}
	return fmt.Sprintf("Handle(%s %s)", h.ref.owner.descriptor().Name, h.ref.id)
}

// Handle is an UntypedHandle whose slot is known to hold a T.
type Handle[T any] struct {
	UntypedHandle
}

func (h Handle[T]) Clone() Handle[T] {
	return Handle[T]{h.UntypedHandle.Clone()}
}

func (h Handle[T]) Untyped() UntypedHandle {
	return h.UntypedHandle
}
