package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"nsresolver/internal/core/ports"
	"nsresolver/internal/shared/util"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"
)

// Workspace is a project root on disk. Buffers opened through it are shared
// for the lifetime of one command so the active file and scanned candidates
// see the same edits.
type Workspace struct {
	root     string
	readOnly bool

	mu      sync.Mutex
	buffers map[string]*Buffer
}

type Option func(*Workspace)

// WithReadOnly makes every buffer skip writes on Save.
func WithReadOnly(readOnly bool) Option {
	return func(w *Workspace) {
		w.readOnly = readOnly
	}
}

func New(root string, opts ...Option) (*Workspace, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("workspace root must not be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root %q: %w", root, err)
	}
	w := &Workspace{
		root:    filepath.Clean(abs),
		buffers: make(map[string]*Buffer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

func (w *Workspace) Root() string {
	return w.root
}

// CompileExclude compiles an exclude pattern with "/" as separator. An empty
// pattern yields nil.
func CompileExclude(pattern string) (glob.Glob, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
	}
	return g, nil
}

// Excluded matches rel (slash separated, relative to the root) against g.
// Leading "**/" patterns also match top-level entries.
func Excluded(g glob.Glob, rel string) bool {
	if g == nil {
		return false
	}
	rel = util.NormalizePatternPath(rel)
	return g.Match(rel) || g.Match("/"+rel)
}

// FindFiles returns absolute paths under the root matching include and not
// matching exclude.
func (w *Workspace) FindFiles(ctx context.Context, include, exclude string) ([]string, error) {
	if !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("invalid include pattern %q", include)
	}
	excludeGlob, err := CompileExclude(exclude)
	if err != nil {
		return nil, err
	}

	var files []string
	err = doublestar.GlobWalk(os.DirFS(w.root), include, func(path string, d fs.DirEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if Excluded(excludeGlob, path) {
			return nil
		}
		files = append(files, filepath.Join(w.root, filepath.FromSlash(path)))
		return nil
	}, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", w.root, err)
	}

	slog.Debug("workspace search finished", "root", w.root, "include", include, "exclude", exclude, "files", len(files))
	return files, nil
}

// Load opens path, reusing an already opened buffer.
func (w *Workspace) Load(path string) (*Buffer, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(w.root, path)
	}
	abs = filepath.Clean(abs)

	w.mu.Lock()
	defer w.mu.Unlock()

	if b, ok := w.buffers[abs]; ok {
		return b, nil
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	b := NewBuffer(abs, string(data))
	b.perm = info.Mode().Perm()
	b.readOnly = w.readOnly
	w.buffers[abs] = b
	return b, nil
}

func (w *Workspace) OpenBuffer(ctx context.Context, path string) (ports.Buffer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return w.Load(path)
}

// Forget drops the cached buffer for path so the next open rereads the file.
func (w *Workspace) Forget(path string) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(w.root, path)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.buffers, filepath.Clean(abs))
}
