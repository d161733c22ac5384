package trackers

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/simgym/environment"
	ts "github.com/samuelfneumann/simgym/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// episode returns the timesteps of an episode with the given rewards
func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, 1, nil, 0)}
	for i, reward := range rewards {
		step := ts.New(ts.Mid, reward, 1, nil, i+1)
		if i == len(rewards)-1 {
			step.SetEnd(ts.TerminalStateReached)
		}
		steps = append(steps, step)
	}
	return steps
}

func TestReturn(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "return.bin")
	r := NewReturn(filename)

	for _, step := range episode(1, 2, 3) {
		r.Track(step)
	}
	for _, step := range episode(-1, -1) {
		r.Track(step)
	}
	// Unfinished episodes are not saved
	for _, step := range episode(5, 5)[:2] {
		r.Track(step)
	}
	assert.Equal(t, []float64{6, -2}, r.EpisodeReturns())

	require.NoError(t, r.Save())
	data, err := LoadData[float64](filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, -2}, data)
}

func TestReturnPanicsOnSkippedSteps(t *testing.T) {
	r := NewReturn("")
	steps := episode(1, 2, 3)
	r.Track(steps[0])
	assert.Panics(t, func() { r.Track(steps[2]) })
}

func TestEpisodeLength(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "length.bin")
	e := NewEpisodeLength(filename)

	for _, step := range append(episode(1, 1, 1), episode(1)...) {
		e.Track(step)
	}
	assert.Equal(t, []int{3, 1}, e.EpisodeLengths())

	require.NoError(t, e.Save())
	data, err := LoadData[int](filename)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1}, data)
}

func TestSaveToMissingDirectory(t *testing.T) {
	r := NewReturn(filepath.Join(t.TempDir(), "missing", "return.bin"))
	assert.Error(t, r.Save())

	_, err := LoadData[float64](filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

// stepper is an environment whose current timestep is fixed
type stepper struct {
	environment.Environment
	step ts.TimeStep
}

func (s stepper) CurrentTimeStep() ts.TimeStep {
	return s.step
}

func TestRegisterTracksRegisteredEnvironment(t *testing.T) {
	e := NewEpisodeLength("")
	last := ts.New(ts.Mid, 0, 1, nil, 7)
	last.SetEnd(ts.Timeout)
	tracker := Register(e, stepper{step: last})

	// The tracked step is ignored in favour of the registered
	// environment's step
	tracker.Track(ts.New(ts.First, 0, 1, nil, 0))
	assert.Equal(t, []int{7}, e.EpisodeLengths())
}

func TestProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewProgress(&out, 3)
	for _, step := range episode(1, 1, 1) {
		p.Track(step)
	}
	require.NoError(t, p.Save())
	assert.Contains(t, out.String(), "[100.00%]")
	assert.NotContains(t, out.String(), "[0.00%]")
}
