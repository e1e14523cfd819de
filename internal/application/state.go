package application

import (
	"sync"

	"whitelist-vpn-miniapp/internal/domain/model"
)

// StateContainer holds the single session-wide AppState. Readers always get a
// deep copy; writers replace the whole value.
type StateContainer struct {
	mu        sync.RWMutex
	state     model.AppState
	listeners map[int]func(model.AppState)
	nextID    int
}

func NewStateContainer(initial model.AppState) *StateContainer {
	return &StateContainer{
		state:     initial.Clone(),
		listeners: make(map[int]func(model.AppState)),
	}
}

func (c *StateContainer) Snapshot() model.AppState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Clone()
}

func (c *StateContainer) Replace(next model.AppState) {
	c.mu.Lock()
	c.state = next.Clone()
	snap, ls := c.state.Clone(), c.listenersLocked()
	c.mu.Unlock()
	notify(ls, snap)
}

// Update applies fn to a copy of the current state and stores the result.
// fn runs under the write lock and must not call back into the container.
func (c *StateContainer) Update(fn func(model.AppState) model.AppState) model.AppState {
	c.mu.Lock()
	c.state = fn(c.state.Clone()).Clone()
	snap, ls := c.state.Clone(), c.listenersLocked()
	c.mu.Unlock()
	notify(ls, snap)
	return snap
}

// Subscribe registers fn for every change. The returned func removes it.
func (c *StateContainer) Subscribe(fn func(model.AppState)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	}
}

func (c *StateContainer) listenersLocked() []func(model.AppState) {
	out := make([]func(model.AppState), 0, len(c.listeners))
	for _, fn := range c.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(ls []func(model.AppState), snap model.AppState) {
	for _, fn := range ls {
		fn(snap.Clone())
	}
}
