package scenario

import (
	"fmt"
	"sort"
	"sync"
)

// PhysicsEngine names a simulator backend
type PhysicsEngine string

// Physics engines provided by this module
const (
	// Box2D simulates models with the Box2D rigid-body engine
	Box2D PhysicsEngine = "box2d"

	// Analytic integrates the closed-form equations of motion of the
	// pendulum and cart-pole models
	Analytic PhysicsEngine = "analytic"
)

// OpenFunc opens a new, uninitialized Simulator
type OpenFunc func(opts Options) (Simulator, error)

var (
	enginesMu sync.RWMutex
	engines   = make(map[PhysicsEngine]OpenFunc)
)

// Register makes a physics engine available by name. If Register is
// called twice with the same name or if open is nil, it panics.
func Register(engine PhysicsEngine, open OpenFunc) {
	enginesMu.Lock()
	defer enginesMu.Unlock()

	if open == nil {
		panic("register: open function is nil")
	}
	if _, ok := engines[engine]; ok {
		panic(fmt.Sprintf("register: engine %v registered twice", engine))
	}
	engines[engine] = open
}

// Engines returns the sorted names of the registered physics engines
func Engines() []PhysicsEngine {
	enginesMu.RLock()
	defer enginesMu.RUnlock()

	names := make([]PhysicsEngine, 0, len(engines))
	for name := range engines {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Open opens a new Simulator with the named physics engine
func Open(engine PhysicsEngine, opts Options) (Simulator, error) {
	enginesMu.RLock()
	open, ok := engines[engine]
	enginesMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("open: %w %q (forgotten import?)",
			ErrUnknownEngine, engine)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return open(opts)
}
