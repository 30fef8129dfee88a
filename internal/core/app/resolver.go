package app

import (
	"context"
	"fmt"
	"log/slog"
	"nsresolver/internal/core/config"
	"nsresolver/internal/core/errors"
	"nsresolver/internal/core/ports"
	"nsresolver/internal/engine/php"
	"nsresolver/internal/shared/observability"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	CommandImport = "import"
	CommandExpand = "expand"
	CommandSort   = "sort"
)

const (
	msgNoSelection  = "No class is selected."
	msgImported     = "Class imported."
	msgSorted       = "Imports sorted."
	msgAliasInUse   = "This alias is already in use."
	aliasPromptHint = "Enter an alias"
)

// Resolver runs the import, expand and sort commands against buffers handed
// in by the caller. Every command is independent; nothing is cached between
// invocations except the configuration.
type Resolver struct {
	workspace ports.Workspace
	prompter  ports.Prompter
	notifier  ports.Notifier

	mu  sync.RWMutex
	cfg *config.Config
}

func New(cfg *config.Config, ws ports.Workspace, prompter ports.Prompter, notifier ports.Notifier) (*Resolver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if ws == nil {
		return nil, fmt.Errorf("workspace is required")
	}
	if prompter == nil {
		return nil, fmt.Errorf("prompter is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	return &Resolver{
		workspace: ws,
		prompter:  prompter,
		notifier:  notifier,
		cfg:       cfg,
	}, nil
}

func (r *Resolver) Config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// SetConfig swaps the configuration used by subsequent commands.
func (r *Resolver) SetConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// run wraps one command with tracing and metrics and converts its error into
// a notification. Cancellation is silent and reported as success. The
// returned error has already been shown to the user.
func (r *Resolver) run(ctx context.Context, command string, buf ports.Buffer, fn func(context.Context) error) error {
	ctx, span := observability.Tracer.Start(ctx, "resolver."+command,
		trace.WithAttributes(attribute.String("path", buf.Path())))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	observability.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		observability.CommandsTotal.WithLabelValues(command, observability.OutcomeSuccess).Inc()
		return nil
	case errors.IsCancelled(err):
		observability.CommandsTotal.WithLabelValues(command, observability.OutcomeCancelled).Inc()
		slog.Debug("command cancelled", "command", command, "path", buf.Path())
		return nil
	default:
		observability.CommandsTotal.WithLabelValues(command, observability.OutcomeError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Debug("command failed", "command", command, "path", buf.Path(), "error", err)
		r.showMessage(errors.UserMessage(err), true)
		return err
	}
}

func (r *Resolver) showMessage(message string, isError bool) {
	cfg := r.Config()
	if cfg.Resolver.ShowMessageOnStatusBar {
		r.notifier.StatusBar(message, cfg.UI.StatusDuration)
		return
	}
	r.notifier.Notify(message, isError)
}

// Resolving returns the word under pos and its range.
func (r *Resolver) Resolving(buf ports.Buffer, pos ports.Position) (string, ports.Range, error) {
	rng, ok := buf.WordRangeAt(pos)
	if !ok {
		return "", ports.Range{}, errors.New(errors.CodeNoSelection, msgNoSelection)
	}
	return buf.TextIn(rng), rng, nil
}

// FindFiles lists the workspace PHP files eligible for namespace scanning.
func (r *Resolver) FindFiles(ctx context.Context) ([]string, error) {
	cfg := r.Config()
	files, err := r.workspace.FindFiles(ctx, cfg.Workspace.Include, cfg.Resolver.Exclude)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxOperation, "find_files")
	}
	return files, nil
}

// FindNamespaces returns the candidate FQCNs for a bare class name.
func (r *Resolver) FindNamespaces(ctx context.Context, resolving string, files []string) ([]string, error) {
	ctx, span := observability.Tracer.Start(ctx, "resolver.FindNamespaces",
		trace.WithAttributes(attribute.String("class", resolving), attribute.Int("files", len(files))))
	defer span.End()

	cfg := r.Config()
	scanner := &php.NamespaceScanner{
		Open:          r.openLines,
		Deterministic: cfg.Resolver.DeterministicCandidates,
		MaxOpen:       cfg.Resolver.MaxOpenFiles,
	}
	namespaces, err := scanner.FindNamespaces(ctx, resolving, files)
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxClass, resolving)
	}
	observability.CandidatesFound.Observe(float64(len(namespaces)))
	slog.Debug("namespaces resolved", "class", resolving, "candidates", len(namespaces))
	return namespaces, nil
}

func (r *Resolver) openLines(ctx context.Context, path string) ([]string, error) {
	buf, err := r.workspace.OpenBuffer(ctx, path)
	if err != nil {
		return nil, err
	}
	observability.FilesScanned.Inc()
	return buf.Lines(), nil
}

// PickClass returns the only candidate or asks the user to choose one.
func (r *Resolver) PickClass(ctx context.Context, namespaces []string) (string, error) {
	switch len(namespaces) {
	case 0:
		return "", errors.New(errors.CodeNotFound, "No class found.")
	case 1:
		return namespaces[0], nil
	}

	picked, ok, err := r.prompter.PickOne(ctx, namespaces)
	if err != nil {
		return "", err
	}
	if !ok || picked == "" {
		return "", errors.ErrCancelled
	}
	return picked, nil
}

// qualifiedName strips the leading separators of an already qualified token.
func qualifiedName(token string) string {
	return strings.TrimLeft(token, `\`)
}

// resolveFQCN turns the token into an FQCN, scanning the workspace unless
// the token is already qualified.
func (r *Resolver) resolveFQCN(ctx context.Context, token string) (string, error) {
	if php.IsQualified(token) {
		return qualifiedName(token), nil
	}
	files, err := r.FindFiles(ctx)
	if err != nil {
		return "", err
	}
	namespaces, err := r.FindNamespaces(ctx, token, files)
	if err != nil {
		return "", err
	}
	return r.PickClass(ctx, namespaces)
}
