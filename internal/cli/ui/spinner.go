package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

// Progress reports a single long-running step such as a send. When animated
// it draws a braille spinner; otherwise it prints the step once and appends
// the outcome, which keeps piped output readable.
type Progress struct {
	w       io.Writer
	animate bool

	spin    *spinner.Spinner
	label   string
	started time.Time
}

// NewProgress returns a Progress writing to w.
func NewProgress(w io.Writer, animate bool) *Progress {
	return &Progress{w: w, animate: animate}
}

// Start begins the step.
func (p *Progress) Start(label string) {
	p.label = label
	p.started = time.Now()
	if !p.animate {
		fmt.Fprintf(p.w, "  %s", label)
		return
	}
	p.spin = spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(p.w))
	p.spin.Prefix = "  "
	p.spin.Suffix = " " + label
	p.spin.Start()
}

// Done marks the step as successful.
func (p *Progress) Done() {
	p.finish(StyleSuccess.Render(SymbolCheck))
}

// Warn marks the step as successful with a caveat, such as a fallback.
func (p *Progress) Warn(note string) {
	p.finish(StyleWarning.Render(SymbolWarning) + " " + note)
}

// Fail marks the step as failed.
func (p *Progress) Fail() {
	p.finish(StyleError.Render(SymbolCross))
}

func (p *Progress) finish(mark string) {
	elapsed := ""
	if !p.started.IsZero() {
		elapsed = " " + StyleHint.Render(fmt.Sprintf("(%s)", time.Since(p.started).Round(time.Millisecond)))
	}
	if !p.animate {
		fmt.Fprintf(p.w, " %s%s\n", mark, elapsed)
		return
	}
	p.Stop()
	fmt.Fprintf(p.w, "\r  %s %s%s\n", p.label, mark, elapsed)
}

// Stop halts the animation without printing an outcome.
func (p *Progress) Stop() {
	if p.spin != nil {
		p.spin.Stop()
		p.spin = nil
	}
}
