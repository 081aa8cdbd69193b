package backend

import (
	"fmt"
	"sync"
)

// Factory creates a Backend for a target model from a config map.
type Factory func(model Model, host string, config map[string]string) (Backend, error)

var strategies = struct {
	mu        sync.RWMutex
	factories map[Protocol]Factory
}{factories: make(map[Protocol]Factory)}

// Register adds a protocol strategy factory. Strategy packages call this
// from init(); importing them for side effects wires them up.
func Register(p Protocol, factory Factory) {
	strategies.mu.Lock()
	defer strategies.mu.Unlock()
	strategies.factories[p] = factory
}

// New instantiates the Backend for the model's protocol. The engine never
// branches on protocol identity; the choice is made here, once.
func New(model Model, host string, config map[string]string) (Backend, error) {
	p := model.Protocol()

	strategies.mu.RLock()
	factory, ok := strategies.factories[p]
	strategies.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no strategy registered for protocol %q", p)
	}

	return factory(model, host, config)
}

// Registered returns true if a factory exists for the protocol.
func Registered(p Protocol) bool {
	strategies.mu.RLock()
	defer strategies.mu.RUnlock()
	_, ok := strategies.factories[p]
	return ok
}
