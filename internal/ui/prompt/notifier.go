package prompt

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Console prints notifications with lipgloss styling. Errors go to errOut,
// everything else to out.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

func NewConsole(out, errOut io.Writer) *Console {
	return &Console{out: out, errOut: errOut}
}

func (c *Console) Notify(message string, isError bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if isError {
		fmt.Fprintln(c.errOut, errorStyle.Render("✗ "+message))
		return
	}
	fmt.Fprintln(c.out, successStyle.Render("✓ "+message))
}

// StatusBar prints a transient message. A terminal has no status bar to
// expire, so the duration is not used.
func (c *Console) StatusBar(message string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.errOut, statusStyle.Render(message))
}
