package tableproc

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor builds a processor for the given tesseract-style language list
type Constructor func(languages ...string) Processor

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register makes an optional backend available under name. Backends that need
// cgo register themselves from init in files behind a build tag.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Lookup builds the registered backend called name
func Lookup(name string, languages ...string) (Processor, error) {
	registryMu.RLock()
	ctor, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s processor not compiled in (build with -tags %s)", name, name)
	}
	return ctor(languages...), nil
}

// Registered lists the names of the compiled-in optional backends
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
