package trackers

import (
	"io"

	"github.com/samuelfneumann/simgym/timestep"
	"github.com/samuelfneumann/simgym/utils/progressbar"
)

// Progress displays the progress of an experiment through its steps.
// It saves no data.
type Progress struct {
	bar     *progressbar.ProgressBar
	percent int
}

// NewProgress returns a new Progress displaying a progress bar on w
// that is full after maxSteps steps
func NewProgress(w io.Writer, maxSteps int) *Progress {
	return &Progress{bar: progressbar.New(w, 40, maxSteps), percent: -1}
}

// Track advances the progress bar on every step that is not the first
// of an episode. The bar is redrawn each time a whole percent is
// reached.
func (p *Progress) Track(t timestep.TimeStep) {
	if t.First() {
		return
	}
	p.bar.Increment()
	if percent := int(p.bar.Percent()); percent > p.percent {
		p.percent = percent
		p.bar.Display()
	}
}

// Save ends the line of the progress bar
func (p *Progress) Save() error {
	p.bar.Close()
	return nil
}
