// Package interp holds the interpolation registry: the set of objects whose
// display state is blended between two simulation snapshots.
//
// Objects are registered explicitly and receive a Handle; the same Handle must
// be passed to Remove before the object is discarded. The registry never keeps
// objects alive on its own behalf beyond that window.
package interp

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrUnknownHandle is returned when removing a handle that is not registered.
	ErrUnknownHandle = errors.New("interp: unknown handle")

	// ErrChannelMismatch is returned when an object reports a channel count
	// different from the one it was registered with.
	ErrChannelMismatch = errors.New("interp: channel count changed")

	// ErrRegistryNotEmpty is returned by CheckEmpty when members remain.
	ErrRegistryNotEmpty = errors.New("interp: registry not empty")
)

// Interpolatable is an object exposing a fixed-size vector of float channels.
//
// SaveChannels writes the simulation state; LoadChannels applies an
// interpolated vector as display state. Both receive slices of exactly
// Channels() elements.
type Interpolatable interface {
	Channels() int
	SaveChannels(out []float64)
	LoadChannels(in []float64)
}

// Handle identifies a registration. The zero Handle is never issued.
type Handle uint64

// Member is a registered object together with its registration data.
type Member struct {
	Handle   Handle
	Object   Interpolatable
	Channels int
}

// Registry tracks registered interpolatables. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	next    Handle
	order   []Handle
	members map[Handle]Member
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		members: make(map[Handle]Member),
	}
}

// Register adds obj and returns its handle. The channel count is recorded
// now and must stay constant until Remove.
func (r *Registry) Register(obj Interpolatable) Handle {
	if obj == nil {
		panic("interp: Register called with nil object")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	h := r.next
	r.members[h] = Member{Handle: h, Object: obj, Channels: obj.Channels()}
	r.order = append(r.order, h)
	return h
}

// Remove deregisters the object behind h.
func (r *Registry) Remove(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[h]; !ok {
		return fmt.Errorf("interp: remove %d: %w", h, ErrUnknownHandle)
	}
	delete(r.members, h)

	for i, id := range r.order {
		if id == h {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Has reports whether h is currently registered.
func (r *Registry) Has(h Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[h]
	return ok
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// Members returns the current members in registration order.
func (r *Registry) Members() []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Member, 0, len(r.order))
	for _, h := range r.order {
		out = append(out, r.members[h])
	}
	return out
}

// Save captures the channels of every member. The callback receives a freshly
// allocated slice per member which the caller may keep.
// Returns ErrChannelMismatch if a member's channel count has changed.
func (r *Registry) Save(fn func(m Member, values []float64)) error {
	for _, m := range r.Members() {
		if n := m.Object.Channels(); n != m.Channels {
			return fmt.Errorf("interp: handle %d reports %d channels, registered with %d: %w",
				m.Handle, n, m.Channels, ErrChannelMismatch)
		}
		values := make([]float64, m.Channels)
		m.Object.SaveChannels(values)
		fn(m, values)
	}
	return nil
}

// CheckEmpty returns ErrRegistryNotEmpty if any member is still registered.
// Used as a leak check once a loop has fully stopped.
func (r *Registry) CheckEmpty() error {
	if n := r.Len(); n > 0 {
		return fmt.Errorf("interp: %d member(s) never removed: %w", n, ErrRegistryNotEmpty)
	}
	return nil
}
