package observability

import (
	"fmt"
	"log/slog"
	"sync"
)

// observers registry maps observer names to implementations, enabling
// configuration files to reference observers as strings resolved at runtime.
var (
	observers = map[string]Observer{
		"noop": NoOpObserver{},
		"slog": NewSlogObserver(slog.Default()),
	}
	mutex sync.RWMutex
)

// GetObserver retrieves a registered observer by name.
//
// Returns an error if the observer name is not registered.
func GetObserver(name string) (Observer, error) {
	mutex.RLock()
	defer mutex.RUnlock()

	obs, exists := observers[name]
	if !exists {
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
	return obs, nil
}

// RegisterObserver registers a custom observer implementation under the given
// name. Call before pipeline construction so configuration can reference it.
//
// Example:
//
//	observability.RegisterObserver("audit", auditObserver)
func RegisterObserver(name string, observer Observer) {
	mutex.Lock()
	defer mutex.Unlock()

	observers[name] = observer
}
