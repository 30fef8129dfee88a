package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"

	"nsresolver/internal/core/ports"
	"nsresolver/internal/shared/util"
)

// wordSeparators mirrors the PHP word pattern of common editors: backslash
// and dollar stay inside words so qualified names select as one token.
const wordSeparators = "-`~!@#%^&*()=+[{]}|;:'\",.<>/?"

// Buffer is an in-memory PHP document. Lines are stored without their line
// terminators; the detected terminator is restored on Content and Save.
type Buffer struct {
	mu       sync.RWMutex
	path     string
	lines    []string
	eol      string
	perm     fs.FileMode
	readOnly bool
	dirty    bool
}

// NewBuffer builds a detached buffer, mostly useful for tests and stdin input.
func NewBuffer(path, content string) *Buffer {
	b := &Buffer{path: path, perm: 0o644}
	b.setContent(content)
	return b
}

func (b *Buffer) setContent(content string) {
	b.eol = "\n"
	if strings.Contains(content, "\r\n") {
		b.eol = "\r\n"
		content = strings.ReplaceAll(content, "\r\n", "\n")
	}
	b.lines = strings.Split(content, "\n")
}

func (b *Buffer) Path() string {
	return b.path
}

func (b *Buffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]string(nil), b.lines...)
}

func (b *Buffer) LineCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Content returns the full text with the original line terminator.
func (b *Buffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return strings.Join(b.lines, b.eol)
}

// Dirty reports whether edits were applied since the last save.
func (b *Buffer) Dirty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dirty
}

func isWordByte(c byte) bool {
	return !strings.ContainsRune(wordSeparators, rune(c)) && !unicode.IsSpace(rune(c))
}

// WordRangeAt returns the word touching pos, or false when pos sits between
// separators.
func (b *Buffer) WordRangeAt(pos ports.Position) (ports.Range, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if pos.Line < 0 || pos.Line >= len(b.lines) || pos.Character < 0 {
		return ports.Range{}, false
	}
	text := b.lines[pos.Line]
	col := min(pos.Character, len(text))

	start := col
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	end := col
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	if start == end {
		return ports.Range{}, false
	}
	return ports.Range{
		Start: ports.Position{Line: pos.Line, Character: start},
		End:   ports.Position{Line: pos.Line, Character: end},
	}, true
}

func (b *Buffer) TextIn(r ports.Range) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	content := strings.Join(b.lines, "\n")
	start, end := b.offset(r.Start), b.offset(r.End)
	if start > end {
		return ""
	}
	return content[start:end]
}

// offset converts a position into a byte offset of the "\n"-joined text,
// clamping past-the-end positions the way editors do.
func (b *Buffer) offset(pos ports.Position) int {
	if pos.Line >= len(b.lines) {
		total := 0
		for _, l := range b.lines {
			total += len(l) + 1
		}
		return total - 1
	}
	off := 0
	for i := 0; i < pos.Line; i++ {
		off += len(b.lines[i]) + 1
	}
	return off + min(max(pos.Character, 0), len(b.lines[pos.Line]))
}

type resolvedEdit struct {
	start, end int
	text       string
}

func (b *Buffer) Apply(edits ...ports.Edit) error {
	if len(edits) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	resolved := make([]resolvedEdit, 0, len(edits))
	for _, e := range edits {
		if e.Range.Start.Line < 0 || e.Range.End.Line < 0 {
			return fmt.Errorf("edit range %v out of bounds", e.Range)
		}
		if e.Range.Empty() && e.NewText == "" {
			continue
		}
		start, end := b.offset(e.Range.Start), b.offset(e.Range.End)
		if start > end {
			return fmt.Errorf("edit range %v is inverted", e.Range)
		}
		resolved = append(resolved, resolvedEdit{
			start: start,
			end:   end,
			text:  strings.ReplaceAll(e.NewText, "\r\n", "\n"),
		})
	}

	if len(resolved) == 0 {
		return nil
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].start < resolved[j].start
	})
	for i := 1; i < len(resolved); i++ {
		if resolved[i].start < resolved[i-1].end {
			return fmt.Errorf("overlapping edits at offset %d", resolved[i].start)
		}
	}

	content := strings.Join(b.lines, "\n")
	for i := len(resolved) - 1; i >= 0; i-- {
		e := resolved[i]
		content = content[:e.start] + e.text + content[e.end:]
	}
	b.lines = strings.Split(content, "\n")
	b.dirty = true
	return nil
}

// Save writes the buffer back to its path. Read-only and clean buffers are
// left alone.
func (b *Buffer) Save(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.readOnly || !b.dirty || b.path == "" {
		return nil
	}
	content := strings.Join(b.lines, b.eol)
	if err := util.WriteStringWithDirs(b.path, content, b.perm); err != nil {
		return fmt.Errorf("save %s: %w", b.path, err)
	}
	b.dirty = false
	slog.Debug("buffer saved", "path", b.path, "lines", len(b.lines))
	return nil
}
