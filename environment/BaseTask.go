package environment

import (
	"fmt"
	"time"

	"github.com/samuelfneumann/simgym/scenario"
	"golang.org/x/exp/rand"
)

// BaseTask implements the bookkeeping shared by all tasks: the world a
// task acts on, the name of its model, its agent rate, and its seeded
// random state. Concrete tasks embed a *BaseTask.
type BaseTask struct {
	agentRate float64
	modelName string
	world     scenario.World
	seed      uint64
	src       rand.Source
}

// NewBaseTask returns a new BaseTask with the given agent rate, seeded
// from the current time
func NewBaseTask(agentRate float64) *BaseTask {
	b := &BaseTask{agentRate: agentRate}
	b.SeedTask(uint64(time.Now().UnixNano()))
	return b
}

// SeedTask implements the Seeder interface
func (b *BaseTask) SeedTask(seed uint64) []uint64 {
	b.seed = seed
	b.src = rand.NewSource(seed)
	return []uint64{seed}
}

// Seed implements the Seeder interface
func (b *BaseTask) Seed() uint64 {
	return b.seed
}

// RandomState implements the Seeder interface
func (b *BaseTask) RandomState() rand.Source {
	return b.src
}

// SetRandomState implements the Seeder interface
func (b *BaseTask) SetRandomState(src rand.Source) {
	b.src = src
}

// World returns the world the task acts on
func (b *BaseTask) World() (scenario.World, error) {
	if b.world == nil {
		return nil, fmt.Errorf("world: %w: task has no world",
			ErrConfiguration)
	}
	return b.world, nil
}

// SetWorld sets the world the task acts on
func (b *BaseTask) SetWorld(w scenario.World) {
	b.world = w
}

// HasWorld returns whether a world has been set
func (b *BaseTask) HasWorld() bool {
	return b.world != nil
}

// ModelName returns the name of the model the task acts on
func (b *BaseTask) ModelName() string {
	return b.modelName
}

// SetModelName sets the name of the model the task acts on
func (b *BaseTask) SetModelName(name string) {
	b.modelName = name
}

// AgentRate returns the number of actions taken per simulated second
func (b *BaseTask) AgentRate() float64 {
	return b.agentRate
}

// Model returns the task's model. An error wrapping ErrConfiguration
// is returned if the task has no world or the world does not contain
// the model.
func (b *BaseTask) Model() (scenario.Model, error) {
	world, err := b.World()
	if err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}
	if !scenario.HasModel(world, b.modelName) {
		return nil, fmt.Errorf("model: %w: model %q not found in world %v",
			ErrConfiguration, b.modelName, world.ModelNames())
	}
	return world.Model(b.modelName)
}

// Joints returns the named joints of the task's model
func (b *BaseTask) Joints(names ...string) ([]scenario.Joint, error) {
	model, err := b.Model()
	if err != nil {
		return nil, fmt.Errorf("joints: %w", err)
	}

	joints := make([]scenario.Joint, len(names))
	for i, name := range names {
		joints[i], err = model.Joint(name)
		if err != nil {
			return nil, fmt.Errorf("joints: %w: %w", ErrConfiguration, err)
		}
	}
	return joints, nil
}
