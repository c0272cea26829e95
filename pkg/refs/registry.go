package refs

import (
	"fmt"
	"sort"
	"sync"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
)

// BackendFactory constructs a backend rooted at a store directory.
type BackendFactory func(root string, opts BackendOptions) (Backend, error)

// BackendOptions carries the cross-cutting knobs every engine honors.
type BackendOptions struct {
	// Committer is the default reflog identity, "Name <email>"
	Committer string

	// LogAllRefUpdates enables reflog auto-creation for qualifying refs
	LogAllRefUpdates bool
}

// registry maps backend names to factories. Entries do not own each other;
// the registry owns them all.
var registry = struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}{
	factories: make(map[string]BackendFactory),
}

// RegisterBackend makes a storage engine selectable by name. Each
// compiled-in engine self-registers from an init function. Registering the
// same name twice is a programmer error.
func RegisterBackend(name string, factory BackendFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	if _, dup := registry.factories[name]; dup {
		panic(fmt.Sprintf("BUG: ref backend %q registered twice", name))
	}
	registry.factories[name] = factory
}

// OpenBackend constructs the named engine rooted at the given directory.
func OpenBackend(name, root string, opts BackendOptions) (Backend, error) {
	registry.mu.RLock()
	factory, ok := registry.factories[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, err.New(pkgName, err.CodeInvalidInput, "open_backend",
			fmt.Sprintf("unknown ref storage backend %q", name), nil)
	}
	return factory(root, opts)
}

// BackendNames lists the registered engines, sorted.
func BackendNames() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.factories))
	for name := range registry.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
