// Package models provides the descriptions of the models simulated by
// the environments in this module and helpers to insert them into a
// world.
package models

import (
	_ "embed"
	"fmt"

	"github.com/samuelfneumann/simgym/scenario"
)

var (
	//go:embed pendulum.yaml
	pendulumYAML []byte

	//go:embed cartpole.yaml
	cartpoleYAML []byte
)

// Model kinds understood by the analytic physics engine
const (
	PendulumKind = "pendulum"
	CartPoleKind = "cartpole"
)

// Pendulum returns the description of a pole hinged at its base by the
// continuous revolute joint "pivot"
func Pendulum() scenario.ModelDescription {
	return mustParse(pendulumYAML)
}

// CartPole returns the description of a cart sliding along the
// prismatic joint "linear" carrying a pole hinged by the continuous
// revolute joint "pivot"
func CartPole() scenario.ModelDescription {
	return mustParse(cartpoleYAML)
}

func mustParse(data []byte) scenario.ModelDescription {
	desc, err := scenario.ParseDescription(data)
	if err != nil {
		panic(fmt.Sprintf("mustParse: embedded model is invalid: %v", err))
	}
	return desc
}

// Insert inserts desc into world at pose under a name that does not
// clash with any model already in the world, and returns that name. The
// description's name is used if it is free, otherwise a numeric suffix
// is appended.
func Insert(world scenario.World, desc scenario.ModelDescription,
	pose scenario.Pose) (string, error) {
	name := UniqueName(world, desc.Name)
	if err := world.InsertModel(desc, pose, name); err != nil {
		return "", fmt.Errorf("insert: could not insert model %q: %w", name,
			err)
	}
	return name, nil
}

// UniqueName returns prefix if no model in world is called prefix,
// otherwise it returns the first of prefix_1, prefix_2, ... that is free
func UniqueName(world scenario.World, prefix string) string {
	taken := make(map[string]bool)
	for _, name := range world.ModelNames() {
		taken[name] = true
	}
	if !taken[prefix] {
		return prefix
	}
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d", prefix, i)
		if !taken[name] {
			return name
		}
	}
}
