package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	defaultBarWidth = 40
	minBarWidth     = 10
)

// renderBar draws "[#####-----]  5/10" in at most width columns.
func renderBar(done, total, width int) string {
	counter := fmt.Sprintf(" %d/%d", done, total)
	inner := max(minBarWidth, width-len(counter)-2)
	filled := 0
	if total > 0 {
		filled = min(inner, done*inner/total)
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", inner-filled) + "]" + counter
}

// barWidth sizes the bar to the terminal behind w, or a fixed width when w is
// not a terminal.
func barWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultBarWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultBarWidth
	}
	return min(width-1, 80)
}

type progressBar struct {
	out   io.Writer
	width int
	tty   bool
}

func newProgressBar(out io.Writer) *progressBar {
	f, ok := out.(*os.File)
	return &progressBar{
		out:   out,
		width: barWidth(out),
		tty:   ok && term.IsTerminal(int(f.Fd())),
	}
}

// Update redraws in place on a terminal and prints one line per update
// elsewhere.
func (p *progressBar) Update(done, total int) {
	line := renderBar(done, total, p.width)
	if p.tty {
		fmt.Fprint(p.out, "\r"+color.CyanString(line))
		return
	}
	fmt.Fprintln(p.out, line)
}

func (p *progressBar) Finish() {
	if p.tty {
		fmt.Fprintln(p.out)
	}
}
