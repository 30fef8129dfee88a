package php

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

var namespaceDeclPattern = regexp.MustCompile(`^(?:<\?php\s+)?namespace\s+([^;]+);`)

// Opener loads the lines of one candidate file.
type Opener func(ctx context.Context, path string) ([]string, error)

// NamespaceScanner resolves a bare class name to the namespaces declaring it.
type NamespaceScanner struct {
	Open Opener
	// Deterministic orders candidates by file path instead of by the order
	// in which the concurrent opens complete.
	Deterministic bool
	// MaxOpen bounds concurrent opens; zero means unbounded.
	MaxOpen int
}

// FindNamespaces returns the candidate FQCNs for resolving among files. It
// never returns an empty slice: without any match the bare name is returned.
func (s *NamespaceScanner) FindNamespaces(ctx context.Context, resolving string, files []string) ([]string, error) {
	if s.Open == nil {
		return nil, fmt.Errorf("namespace scanner has no opener")
	}

	matching := MatchingFiles(resolving, files)
	if s.Deterministic {
		sort.Strings(matching)
	}

	docs, err := s.openAll(ctx, matching)
	if err != nil {
		return nil, err
	}
	return ParseNamespaces(docs, resolving), nil
}

func (s *NamespaceScanner) openAll(ctx context.Context, paths []string) ([][]string, error) {
	var (
		mu      sync.Mutex
		ordered = make([][]string, len(paths))
		arrival = make([][]string, 0, len(paths))
	)

	g, gctx := errgroup.WithContext(ctx)
	if s.MaxOpen > 0 {
		g.SetLimit(s.MaxOpen)
	}
	for i, path := range paths {
		g.Go(func() error {
			lines, err := s.Open(gctx, path)
			if err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}
			mu.Lock()
			ordered[i] = lines
			arrival = append(arrival, lines)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.Deterministic {
		return ordered, nil
	}
	return arrival, nil
}

// MatchingFiles keeps the paths whose base name, cut at the first dot,
// equals resolving exactly.
func MatchingFiles(resolving string, files []string) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		if baseName(f) == resolving {
			out = append(out, f)
		}
	}
	return out
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	name, _, _ := strings.Cut(path, ".")
	return name
}

// ParseNamespaces reads the first namespace declaration of every document and
// builds "<namespace>\<resolving>" candidates, deduplicated in first-seen order.
func ParseNamespaces(docs [][]string, resolving string) []string {
	seen := make(map[string]bool)
	var namespaces []string

	for _, lines := range docs {
		ns, ok := firstNamespace(lines)
		if !ok {
			continue
		}
		fqcn := ns + `\` + resolving
		if seen[fqcn] {
			continue
		}
		seen[fqcn] = true
		namespaces = append(namespaces, fqcn)
	}

	if len(namespaces) == 0 {
		namespaces = append(namespaces, resolving)
	}
	return namespaces
}

func firstNamespace(lines []string) (string, bool) {
	for _, text := range lines {
		if !isNamespaceLine(text) {
			continue
		}
		m := namespaceDeclPattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		ns := strings.TrimSpace(m[1])
		if ns == "" {
			continue
		}
		return ns, true
	}
	return "", false
}
