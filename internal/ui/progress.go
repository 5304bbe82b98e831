package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/chalkydri/chalkydri-cfg/internal/calibration"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Next to capture
	StepComplete                   // Captured
	StepFailed                     // Failed
)

// Step represents a single step in a multi-step operation
type Step struct {
	Number int
	Name   string
	Status StepStatus
}

// Progress renders a progress bar and step list.
type Progress struct {
	Label   string
	Steps   []Step
	Current int     // Completed steps
	Total   int     // Total steps
	Percent float64 // 0.0 - 1.0
	Width   int
	bar     progress.Model
}

// NewProgress creates a progress display with totalSteps pending steps
func NewProgress(label string, totalSteps int) *Progress {
	steps := make([]Step, totalSteps)
	for i := range steps {
		steps[i] = Step{Number: i + 1, Name: fmt.Sprintf("Capture %d", i+1)}
	}

	p := &Progress{
		Label: label,
		Steps: steps,
		Total: totalSteps,
	}
	return p.SetWidth(GetTerminalWidth())
}

// NewCalibrationProgress creates a progress display for a calibration status.
func NewCalibrationProgress(status calibration.Status) *Progress {
	label := "Calibration " + strings.ToLower(status.State.String())
	if status.Width > 0 && status.Height > 0 {
		label = fmt.Sprintf("%s (%dx%d)", label, status.Width, status.Height)
	}
	p := NewProgress(label, int(status.TotalSteps))
	p.SetStatus(status)
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// SetStatus marks the first CurrentStep steps complete. The step after them
// is running while calibration is in progress and failed if it failed.
func (p *Progress) SetStatus(status calibration.Status) {
	current := int(status.CurrentStep)
	if current > p.Total {
		current = p.Total
	}

	for i := range p.Steps {
		switch {
		case i < current:
			p.Steps[i].Status = StepComplete
		case i == current && status.State == calibration.InProgress:
			p.Steps[i].Status = StepRunning
		case i == current && status.State == calibration.Failed:
			p.Steps[i].Status = StepFailed
		default:
			p.Steps[i].Status = StepPending
		}
	}

	p.Current = current
	p.Percent = status.Progress()
}

// Render returns the styled progress display as a string
func (p *Progress) Render() string {
	var b strings.Builder

	if p.Label != "" {
		b.WriteString(ProgressLabelStyle.Render(p.Label))
		b.WriteString("\n\n")
	}

	b.WriteString(lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent), p.Percent*100, p.Current, p.Total)))

	if len(p.Steps) > 0 {
		b.WriteString("\n\n")
		lines := make([]string, 0, len(p.Steps))
		for _, step := range p.Steps {
			lines = append(lines, p.renderStepLine(step))
		}
		b.WriteString(strings.Join(lines, "\n"))
	}

	return b.String()
}

func (p *Progress) renderStepLine(step Step) string {
	var (
		marker string
		style  lipgloss.Style
	)
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	padding := 30 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}

	return fmt.Sprintf("  [%d/%d] %s%s%s",
		step.Number, p.Total, style.Render(step.Name), strings.Repeat(" ", padding), style.Render(marker))
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
