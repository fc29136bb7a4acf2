package tui

import (
	"fmt"
	"io"
	"time"
)

// SimpleProgress prints styled, line-oriented progress for long-running
// commands. It is safe for non-interactive output since every update is
// a plain appended line.
type SimpleProgress struct {
	out     io.Writer
	started time.Time
}

// NewProgress creates a progress printer writing to out
func NewProgress(out io.Writer) *SimpleProgress {
	return &SimpleProgress{out: out, started: time.Now()}
}

// Start announces the overall operation
func (p *SimpleProgress) Start(msg string) {
	p.started = time.Now()
	fmt.Fprintln(p.out, titleStyle.Render(msg))
}

// Step announces the next unit of work
func (p *SimpleProgress) Step(name string) {
	fmt.Fprintf(p.out, "%s %s\n", stepStyle.Render("→"), name)
}

// Info prints a secondary detail line
func (p *SimpleProgress) Info(msg string) {
	fmt.Fprintf(p.out, "  %s\n", infoStyle.Render(msg))
}

// Success marks a completed step
func (p *SimpleProgress) Success(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", successStyle.Render("✓"), msg)
}

// Warning marks a recoverable problem
func (p *SimpleProgress) Warning(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", warningStyle.Render("!"), msg)
}

// Failed marks a failed step
func (p *SimpleProgress) Failed(msg string) {
	fmt.Fprintf(p.out, "%s %s\n", failStyle.Render("✗"), msg)
}

// Done prints the closing summary with the elapsed time
func (p *SimpleProgress) Done(msg string) {
	elapsed := time.Since(p.started).Round(time.Millisecond)
	fmt.Fprintf(p.out, "%s %s %s\n",
		successStyle.Render("✓"), msg, dimStyle.Render(fmt.Sprintf("(%s)", elapsed)))
}
