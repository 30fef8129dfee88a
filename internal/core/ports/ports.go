package ports

import (
	"context"
	"time"
)

// Position is a 0-based line and byte column inside a buffer.
type Position struct {
	Line      int
	Character int
}

// Range is a half-open span between two positions. Start == End is an insertion point.
type Range struct {
	Start Position
	End   Position
}

// Empty reports whether the range has zero width.
func (r Range) Empty() bool {
	return r.Start == r.End
}

// Edit replaces Range with NewText.
type Edit struct {
	Range   Range
	NewText string
}

// Buffer is one open PHP document.
type Buffer interface {
	Path() string
	Lines() []string
	LineCount() int
	WordRangeAt(pos Position) (Range, bool)
	TextIn(r Range) string
	// Apply performs all edits as one atomic change. Ranges refer to the
	// buffer state before any of them is applied.
	Apply(edits ...Edit) error
	Save(ctx context.Context) error
}

// Workspace finds and opens PHP files.
type Workspace interface {
	FindFiles(ctx context.Context, include, exclude string) ([]string, error)
	OpenBuffer(ctx context.Context, path string) (Buffer, error)
}

// Prompter asks the user to choose or type something. ok=false means the
// prompt was dismissed.
type Prompter interface {
	PickOne(ctx context.Context, options []string) (choice string, ok bool, err error)
	PromptText(ctx context.Context, placeholder string) (value string, ok bool, err error)
}

// Notifier surfaces command outcomes.
type Notifier interface {
	Notify(message string, isError bool)
	StatusBar(message string, duration time.Duration)
}
