package envrandomizer

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/samuelfneumann/simgym/environment"
	"github.com/samuelfneumann/simgym/environment/classiccontrol/pendulum"
	"github.com/samuelfneumann/simgym/environment/envs"
	"github.com/samuelfneumann/simgym/environment/registration"
	"github.com/samuelfneumann/simgym/environment/runtimes"
	"github.com/samuelfneumann/simgym/models"
	"github.com/samuelfneumann/simgym/randomizers"
	"github.com/samuelfneumann/simgym/randomizers/physics"
	"github.com/samuelfneumann/simgym/scenario"
	"github.com/samuelfneumann/simgym/scenario/scenariotest"
	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var engine = scenariotest.NewEngine("envrandomizer-test")

// noop is a task randomizer that changes nothing
var noop = randomizers.TaskRandomizerFunc(func(environment.Task,
	scenario.Simulator) error {
	return nil
})

// newRandomizer returns a Randomizer of the pendulum whose physics
// expire every physicsRollouts rollouts
func newRandomizer(t *testing.T, task randomizers.TaskRandomizer,
	physicsRollouts int) *Randomizer {
	t.Helper()
	engine.Reset()

	gravity, err := physics.NewGravity(engine.Name(), -9.8, 0.2,
		physicsRollouts)
	require.NoError(t, err)

	r, err := New(FromID(envs.Pendulum), task, gravity,
		registration.WithMaxEpisodeSteps(100))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSessionKeptWhileNotExpired(t *testing.T) {
	r := newRandomizer(t, noop, 0)
	session := r.Session()

	for i := 0; i < 10; i++ {
		step, err := r.Reset()
		require.NoError(t, err)
		assert.True(t, step.First())
		assert.Same(t, session, r.Session())
	}
	assert.Equal(t, 1, engine.Opened())
	assert.Equal(t, 1, engine.Live())
}

func TestSessionRecreatedWhenExpired(t *testing.T) {
	r := newRandomizer(t, noop, 1)
	_, err := r.Seed(42)
	require.NoError(t, err)

	// The first rollout uses the session created with the Randomizer
	_, err = r.Reset()
	require.NoError(t, err)
	session := r.Session()

	for i := 0; i < 3; i++ {
		seed := session.Task().Seed()
		state := session.Task().RandomState()

		_, err = r.Reset()
		require.NoError(t, err)

		assert.NotSame(t, session, r.Session())
		assert.Equal(t, seed, r.Session().Task().Seed())
		assert.Same(t, state, r.Session().Task().RandomState())
		assert.Same(t, engine.Last(), r.Session().Simulator())
		session = r.Session()
	}

	assert.Equal(t, uint64(42), session.Task().Seed())
	assert.Equal(t, 4, engine.Opened())
	assert.Equal(t, 1, engine.Live())
}

func TestRecreationCadence(t *testing.T) {
	r := newRandomizer(t, noop, 3)

	for i := 0; i < 9; i++ {
		_, err := r.Reset()
		require.NoError(t, err)
	}

	// Sessions are recreated before the 4th and 7th rollouts
	assert.Equal(t, 3, engine.Opened())
	assert.Equal(t, 1, engine.Live())
}

func TestRandomizesLiveSession(t *testing.T) {
	var calls int
	var r *Randomizer
	hook := randomizers.TaskRandomizerFunc(func(task environment.Task,
		sim scenario.Simulator) error {
		calls++
		assert.Same(t, r.Session().Task(), task)
		assert.Same(t, r.Session().Simulator(), sim)
		return nil
	})

	r = newRandomizer(t, hook, 1)
	for i := 0; i < 3; i++ {
		_, err := r.Reset()
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestTaskRandomizationFailure(t *testing.T) {
	hookErr := errors.New("randomization failed")
	failing := randomizers.TaskRandomizerFunc(func(environment.Task,
		scenario.Simulator) error {
		return hookErr
	})
	r := newRandomizer(t, failing, 0)

	before := testutil.ToFloat64(resetFailures.WithLabelValues(envs.Pendulum))
	_, err := r.Reset()
	assert.ErrorIs(t, err, hookErr)
	assert.Equal(t, before+1,
		testutil.ToFloat64(resetFailures.WithLabelValues(envs.Pendulum)))
}

func TestPausedRunFailureAfterRecreation(t *testing.T) {
	// Fail the paused run that follows task randomization
	hook := randomizers.TaskRandomizerFunc(func(environment.Task,
		scenario.Simulator) error {
		engine.FailPausedRuns(1)
		return nil
	})
	r := newRandomizer(t, noop, 1)
	_, err := r.Reset()
	require.NoError(t, err)

	r.task = hook
	session := r.Session()
	step, err := r.Reset()
	assert.ErrorIs(t, err, environment.ErrSimulationStep)
	assert.ErrorIs(t, err, scenariotest.ErrInjected)
	assert.Nil(t, step.Observation)

	// The session was recreated before the failure
	assert.NotSame(t, session, r.Session())
	assert.Equal(t, 1, engine.Live())
}

func TestFactoryErrorLeavesNoSession(t *testing.T) {
	engine.Reset()
	factoryErr := errors.New("bad factory")
	gravity, err := physics.NewGravity(engine.Name(), -9.8, 0, 0)
	require.NoError(t, err)

	// The factory creates a session, then fails
	factory := func(opts ...registration.Option) (environment.Environment,
		error) {
		env, err := registration.Make(envs.Pendulum, opts...)
		if err != nil {
			return nil, err
		}
		env.Close()
		return nil, factoryErr
	}

	_, err = New(FromFactory(factory), noop, gravity)
	assert.ErrorIs(t, err, environment.ErrConfiguration)
	assert.ErrorIs(t, err, factoryErr)
	assert.Equal(t, 1, engine.Opened())
	assert.Equal(t, 0, engine.Live())

	// Misconfigured environment IDs fail the same way
	_, err = New(FromID(envs.Pendulum), noop, gravity,
		registration.WithPhysicsRate(1234))
	assert.ErrorIs(t, err, environment.ErrConfiguration)
	assert.Equal(t, 0, engine.Live())
}

func TestInvalidSources(t *testing.T) {
	for _, source := range []Source{
		{},
		FromFactory(nil),
		FromID("NoSuchEnvironment-v0"),
	} {
		_, err := New(source, noop, nil)
		assert.ErrorIs(t, err, environment.ErrConfiguration, source.String())
	}

	_, err := New(FromID(envs.Pendulum), nil, nil)
	assert.ErrorIs(t, err, environment.ErrConfiguration)
}

func TestEnvironmentWithoutSession(t *testing.T) {
	engine.Reset()
	factory := func(opts ...registration.Option) (environment.Environment,
		error) {
		env, err := registration.Make(envs.Pendulum, opts...)
		if err != nil {
			return nil, err
		}
		return struct{ environment.Environment }{env}, nil
	}

	_, err := New(FromFactory(factory), noop,
		physics.NewNone(engine.Name()))
	assert.ErrorIs(t, err, environment.ErrConfiguration)
	assert.Equal(t, 0, engine.Live())
}

func TestFailedRecreationBreaksRandomizer(t *testing.T) {
	r := newRandomizer(t, noop, 1)
	_, err := r.Reset()
	require.NoError(t, err)

	engine.FailOpens(1)
	_, err = r.Reset()
	assert.ErrorIs(t, err, environment.ErrConfiguration)
	assert.Nil(t, r.Session())
	assert.Equal(t, 0, engine.Live())

	_, err = r.Reset()
	assert.ErrorIs(t, err, environment.ErrClosed)
	_, _, err = r.Step(mat.NewVecDense(1, nil))
	assert.ErrorIs(t, err, environment.ErrClosed)
	_, err = r.Seed(1)
	assert.ErrorIs(t, err, environment.ErrClosed)
	assert.NoError(t, r.Close())
}

// liar is a task that reports a different seed from the one it was
// seeded with
type liar struct {
	environment.Task
}

func (l liar) Seed() uint64 {
	return l.Task.Seed() + 1
}

func TestSeedMismatchAfterRecreation(t *testing.T) {
	engine.Reset()
	hook := logtest.NewLocal(logger.Logger)
	defer hook.Reset()

	var created int
	factory := func(opts ...registration.Option) (environment.Environment,
		error) {
		created++
		lie := created > 1
		newTask := envs.Populated(models.Pendulum,
			func(rate float64, name string) environment.Task {
				var task environment.Task = pendulum.NewSwingUp(rate, name)
				if lie {
					task = liar{task}
				}
				return task
			})

		kwargs := registration.Kwargs{Config: runtimes.DefaultConfig()}
		for _, opt := range opts {
			opt(&kwargs)
		}
		return registration.Runtime(newTask)(kwargs)
	}

	gravity, err := physics.NewGravity(engine.Name(), -9.8, 0, 1)
	require.NoError(t, err)
	r, err := New(FromFactory(factory), noop, gravity)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Reset()
	require.NoError(t, err)

	_, err = r.Reset()
	assert.ErrorIs(t, err, environment.ErrContractViolation)
	assert.NotErrorIs(t, err, scenariotest.ErrInjected)
	assert.Nil(t, r.Session())
	assert.Equal(t, 0, engine.Live())

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel &&
			entry.Message == "could not close session" {
			warned = true
			assert.ErrorIs(t, entry.Data[log.ErrorKey].(error),
				scenariotest.ErrInjected)
		}
	}
	assert.True(t, warned, "failure to close the session was not logged")
}

func TestStepAndClose(t *testing.T) {
	r := newRandomizer(t, noop, 0)
	assert.Equal(t, 1, r.ActionSpec().Len())

	_, err := r.Reset()
	require.NoError(t, err)
	step, _, err := r.Step(mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.Equal(t, step, r.CurrentTimeStep())

	_, ok := environment.Unwrap(r).(*runtimes.Simulated)
	assert.True(t, ok)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 0, engine.Live())
	_, err = r.Reset()
	assert.ErrorIs(t, err, environment.ErrClosed)
}
