package provider

import (
	"slices"
	"sync"
)

// Environment is the set of provider bindings currently injected into the
// runtime. Implementations must be safe for concurrent use and must reflect
// bindings appearing or disappearing between calls.
type Environment interface {
	Lookup(binding string) (Wallet, bool)
}

// EnvironmentFunc adapts a function to the Environment interface.
type EnvironmentFunc func(binding string) (Wallet, bool)

// Lookup calls f.
func (f EnvironmentFunc) Lookup(binding string) (Wallet, bool) {
	return f(binding)
}

// MapEnvironment is an in-memory Environment. Wallets are injected and
// removed at runtime, the way browser extensions register their globals.
type MapEnvironment struct {
	mu       sync.RWMutex
	bindings map[string]Wallet
}

// NewMapEnvironment creates an environment holding the given bindings.
func NewMapEnvironment(bindings map[string]Wallet) *MapEnvironment {
	e := &MapEnvironment{bindings: make(map[string]Wallet, len(bindings))}
	for name, w := range bindings {
		if w != nil {
			e.bindings[name] = w
		}
	}
	return e
}

// Lookup returns the wallet injected under binding.
func (e *MapEnvironment) Lookup(binding string) (Wallet, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	w, ok := e.bindings[binding]
	return w, ok
}

// Inject registers w under binding, replacing any previous wallet.
func (e *MapEnvironment) Inject(binding string, w Wallet) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if w == nil {
		delete(e.bindings, binding)
		return
	}
	e.bindings[binding] = w
}

// Remove unregisters binding.
func (e *MapEnvironment) Remove(binding string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.bindings, binding)
}

// Bindings returns the injected binding names, sorted.
func (e *MapEnvironment) Bindings() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.bindings))
	for name := range e.bindings {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Layered returns an Environment that consults envs in order and returns the
// first match.
func Layered(envs ...Environment) Environment {
	return EnvironmentFunc(func(binding string) (Wallet, bool) {
		for _, env := range envs {
			if env == nil {
				continue
			}
			if w, ok := env.Lookup(binding); ok && w != nil {
				return w, true
			}
		}
		return nil, false
	})
}
