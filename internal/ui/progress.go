package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/desertthunder/dupx/internal/tasks"
)

const (
	barWidth     = 40
	redrawPeriod = 50 * time.Millisecond
)

// ProgressBar draws "[elapsed] N dups [bar] pos/total (eta)" on a single line.
type ProgressBar struct {
	w       io.Writer
	bar     progress.Model
	palette *Palette
	now     func() time.Time

	start    time.Time
	phase    tasks.Phase
	lastDraw time.Time
	drawn    bool
}

func NewProgressBar(w io.Writer, palette *Palette) *ProgressBar {
	if palette == nil {
		palette = Styles
	}
	return &ProgressBar{
		w:       w,
		bar:     progress.New(progress.WithSolidFill(palette.bar), progress.WithWidth(barWidth), progress.WithoutPercentage()),
		palette: palette,
		now:     time.Now,
		phase:   -1,
	}
}

// Run consumes updates until the channel closes or ctx is done.
func (p *ProgressBar) Run(ctx context.Context, updates <-chan tasks.ProgressUpdate) error {
	p.start = p.now()
	var last *tasks.ProgressUpdate

	for {
		select {
		case <-ctx.Done():
			p.finish(last)
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				p.finish(last)
				return nil
			}
			last = &u
			p.handle(u)
		}
	}
}

func (p *ProgressBar) handle(u tasks.ProgressUpdate) {
	if u.Phase != p.phase {
		if p.drawn {
			fmt.Fprintln(p.w)
			p.drawn = false
		}
		p.phase = u.Phase
		p.start = p.now()
	}

	switch u.Phase {
	case tasks.FetchPlaylist, tasks.SavePlan, tasks.Finished:
		if u.Total > 0 && u.Step >= u.Total {
			fmt.Fprintln(p.w, p.palette.Help(u.Message))
		}
		return
	}

	now := p.now()
	if u.Step < u.Total && p.drawn && now.Sub(p.lastDraw) < redrawPeriod {
		return
	}
	p.lastDraw = now
	p.drawn = true
	fmt.Fprint(p.w, "\r"+p.Line(u, now.Sub(p.start)))
}

func (p *ProgressBar) finish(last *tasks.ProgressUpdate) {
	if !p.drawn {
		return
	}
	if last != nil {
		fmt.Fprint(p.w, "\r"+p.Line(*last, p.now().Sub(p.start)))
	}
	fmt.Fprintln(p.w)
	p.drawn = false
}

// Line renders one status line for u after elapsed.
func (p *ProgressBar) Line(u tasks.ProgressUpdate, elapsed time.Duration) string {
	label := fmt.Sprintf("%d dups", u.Duplicates)
	if u.Phase != tasks.FetchItems {
		label = u.Message
	}
	return fmt.Sprintf("[%s] %s [%s] %d/%d (%s)",
		clock(elapsed), label, p.bar.ViewAs(u.Percent()), u.Step, u.Total, eta(u.Percent(), elapsed))
}

func clock(d time.Duration) string {
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// eta extrapolates the remaining time from the fraction done so far.
func eta(fraction float64, elapsed time.Duration) string {
	if fraction <= 0 {
		return "?"
	}
	remaining := elapsed.Seconds() * (1 - fraction) / fraction
	return fmt.Sprintf("%.1fs", remaining)
}
