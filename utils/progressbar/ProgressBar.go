// Package progressbar implements functionality of printing a progress
// bar to a terminal
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// ProgressBar is a progress bar that must be manually managed. That is,
// Display must be called whenever an updated progress bar should be
// written. ProgressBar is not safe for concurrent use.
type ProgressBar struct {
	w               io.Writer
	width           int
	maxProgress     int
	currentProgress int
	startTime       time.Time
}

// New returns a new ProgressBar that is width characters wide and
// reaches 100% after max calls to Increment
func New(w io.Writer, width, max int) *ProgressBar {
	if max < 1 {
		max = 1
	}
	return &ProgressBar{
		w:           w,
		width:       width,
		maxProgress: max,
		startTime:   time.Now(),
	}
}

// Increment increments the progress counter, up to the maximum
func (p *ProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Percent returns the current progress as a percentage
func (p *ProgressBar) Percent() float64 {
	return float64(p.currentProgress) / float64(p.maxProgress) * 100
}

// String returns the progress bar without the elapsed time
func (p *ProgressBar) String() string {
	filled := p.currentProgress * p.width / p.maxProgress
	return fmt.Sprintf("|%v%v| [%.2f%%]", strings.Repeat("█", filled),
		strings.Repeat(" ", p.width-filled), p.Percent())
}

// Display overwrites the current terminal line with the progress bar
func (p *ProgressBar) Display() {
	fmt.Fprintf(p.w, "\r\033[K%v elapsed: %v", p,
		time.Since(p.startTime).Truncate(time.Second))
}

// Close ends the line of the progress bar
func (p *ProgressBar) Close() {
	fmt.Fprintln(p.w)
}
