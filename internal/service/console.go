package service

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
)

// Console prints the human readable status lines. Colors and the screen
// clear are only emitted when the writer is a terminal.
type Console struct {
	mx    sync.Mutex
	w     io.Writer
	tty   bool
	info  lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	err   lipgloss.Style
	muted lipgloss.Style
}

func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:     w,
		tty:   isTerminal(w),
		info:  r.NewStyle().Foreground(lipgloss.Color("6")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("3")),
		err:   r.NewStyle().Foreground(lipgloss.Color("1")),
		muted: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (c *Console) Info(format string, args ...any) {
	c.print(c.info, format, args...)
}

func (c *Console) OK(format string, args ...any) {
	c.print(c.ok, format, args...)
}

func (c *Console) Warn(format string, args ...any) {
	c.print(c.warn, format, args...)
}

func (c *Console) Error(format string, args ...any) {
	c.print(c.err, format, args...)
}

func (c *Console) Muted(format string, args ...any) {
	c.print(c.muted, format, args...)
}

// Println writes an empty line.
func (c *Console) Println() {
	c.mx.Lock()
	defer c.mx.Unlock()
	_, _ = io.WriteString(c.w, "\n")
}

// Clear erases the terminal and moves the cursor home.
func (c *Console) Clear() {
	if !c.tty {
		return
	}
	c.mx.Lock()
	defer c.mx.Unlock()
	_, _ = io.WriteString(c.w, ansi.EraseEntireScreen+ansi.CursorHomePosition)
}

func (c *Console) print(style lipgloss.Style, format string, args ...any) {
	line := style.Render(fmt.Sprintf(format, args...))
	c.mx.Lock()
	defer c.mx.Unlock()
	_, _ = fmt.Fprintln(c.w, line)
}
