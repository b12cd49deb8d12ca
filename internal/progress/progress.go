// Package progress renders batch progress on the terminal, standing in
// for the per-batch bars of the original tooling.
package progress

import (
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"

	"bdtdharvest/internal/ports"
)

// Bar is a ports.Observer backed by a go-pretty progress tracker. One
// Bar serves one batch; Begin may be called again after End for reuse.
type Bar struct {
	message string
	out     io.Writer

	pw      progress.Writer
	tracker *progress.Tracker
}

var _ ports.Observer = (*Bar)(nil)

// NewBar labels the tracker with the batch description shown to users.
func NewBar(message string) *Bar {
	return &Bar{message: message, out: os.Stdout}
}

// NewBarWithWriter directs rendering at an arbitrary sink (tests).
func NewBarWithWriter(message string, out io.Writer) *Bar {
	return &Bar{message: message, out: out}
}

func (b *Bar) Begin(total int) {
	pw := progress.NewWriter()
	pw.SetOutputWriter(b.out)
	pw.SetAutoStop(false)
	pw.SetTrackerLength(25)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Speed = true

	tracker := &progress.Tracker{Message: b.message, Total: int64(total)}
	pw.AppendTracker(tracker)
	go pw.Render()

	b.pw = pw
	b.tracker = tracker
}

func (b *Bar) Advance(completed, _ int) {
	if b.tracker != nil {
		b.tracker.SetValue(int64(completed))
	}
}

func (b *Bar) End() {
	if b.tracker != nil && !b.tracker.IsDone() {
		b.tracker.MarkAsDone()
	}
	if b.pw != nil {
		// give the renderer one last frame before stopping
		time.Sleep(150 * time.Millisecond)
		b.pw.Stop()
	}
	b.pw = nil
	b.tracker = nil
}
