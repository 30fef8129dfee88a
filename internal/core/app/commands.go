package app

import (
	"context"
	"log/slog"
	"nsresolver/internal/core/errors"
	"nsresolver/internal/core/ports"
	"nsresolver/internal/engine/php"
	"strings"
)

// ImportCommand resolves the word at pos and adds a use statement for it.
// A qualified word is shortened in place to the name the import binds.
func (r *Resolver) ImportCommand(ctx context.Context, buf ports.Buffer, pos ports.Position) error {
	return r.run(ctx, CommandImport, buf, func(ctx context.Context) error {
		token, rng, err := r.Resolving(buf, pos)
		if err != nil {
			return err
		}

		if php.IsQualified(token) {
			fqcn := qualifiedName(token)
			if php.ShortName(fqcn) == "" {
				return errors.New(errors.CodeNoSelection, msgNoSelection)
			}
			return r.ImportClass(ctx, buf, fqcn, &rng)
		}

		fqcn, err := r.resolveFQCN(ctx, token)
		if err != nil {
			return err
		}
		return r.ImportClass(ctx, buf, fqcn, nil)
	})
}

// ExpandCommand replaces the word at pos with its fully qualified name.
func (r *Resolver) ExpandCommand(ctx context.Context, buf ports.Buffer, pos ports.Position) error {
	return r.run(ctx, CommandExpand, buf, func(ctx context.Context) error {
		token, rng, err := r.Resolving(buf, pos)
		if err != nil {
			return err
		}
		fqcn, err := r.resolveFQCN(ctx, token)
		if err != nil {
			return err
		}
		if fqcn == "" {
			return errors.New(errors.CodeNoSelection, msgNoSelection)
		}
		return r.ExpandClass(buf, rng, fqcn, true)
	})
}

// SortCommand sorts the use statements of buf.
func (r *Resolver) SortCommand(ctx context.Context, buf ports.Buffer) error {
	return r.run(ctx, CommandSort, buf, func(ctx context.Context) error {
		if _, err := r.SortImports(ctx, buf); err != nil {
			return err
		}
		r.showMessage(msgSorted, false)
		return nil
	})
}

// ImportClass inserts a use statement for fqcn, negotiating an alias when
// its short name is already bound. When shorten is set, that range is
// rewritten to the bound name in the same edit. With auto sort the import is
// saved before the use block is sorted.
func (r *Resolver) ImportClass(ctx context.Context, buf ports.Buffer, fqcn string, shorten *ports.Range) error {
	statements, sites, err := php.ScanDeclarations(buf.Lines(), fqcn)
	if err != nil {
		return err
	}

	shortName := php.ShortName(fqcn)
	alias := ""
	if php.HasConflict(statements, shortName) {
		alias, err = r.negotiateAlias(ctx, statements)
		if err != nil {
			return errors.AddContext(err, errors.CtxClass, fqcn)
		}
	}

	ins := php.ComputeInsertion(sites)
	at := ports.Position{Line: ins.Line}
	edits := []ports.Edit{{
		Range:   ports.Range{Start: at, End: at},
		NewText: ins.Statement(fqcn, alias),
	}}
	if shorten != nil {
		bound := shortName
		if alias != "" {
			bound = alias
		}
		edits = append(edits, ports.Edit{Range: *shorten, NewText: bound})
	}
	if err := buf.Apply(edits...); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "Could not import class.")
	}
	slog.Debug("class imported", "class", fqcn, "alias", alias, "line", ins.Line, "path", buf.Path())

	if r.Config().Resolver.AutoSortEnabled() {
		if err := buf.Save(ctx); err != nil {
			return errors.AddContext(err, errors.CtxPath, buf.Path())
		}
		if _, err := r.SortImports(ctx, buf); err != nil && !errors.IsCode(err, errors.CodeNothingToSort) {
			return err
		}
	}

	r.showMessage(msgImported, false)
	return nil
}

// negotiateAlias prompts until the user enters a free alias or gives up.
func (r *Resolver) negotiateAlias(ctx context.Context, statements []php.UseStatement) (string, error) {
	for {
		alias, ok, err := r.prompter.PromptText(ctx, aliasPromptHint)
		if err != nil {
			return "", err
		}
		alias = strings.TrimSpace(alias)
		if !ok || alias == "" {
			return "", errors.ErrCancelled
		}
		conflict := checkAlias(statements, alias)
		if conflict == nil {
			return alias, nil
		}
		slog.Debug("alias rejected", "error", conflict)
		r.notifier.StatusBar(errors.UserMessage(conflict), r.Config().UI.StatusDuration)
	}
}

// checkAlias fails with CodeAliasConflict when alias is already bound by one
// of the statements.
func checkAlias(statements []php.UseStatement, alias string) error {
	if !php.HasConflict(statements, alias) {
		return nil
	}
	return errors.AddContext(errors.New(errors.CodeAliasConflict, msgAliasInUse), errors.CtxAlias, alias)
}

// ExpandClass replaces rng with fqcn, rooted with a leading separator when
// prependBackslash is set and the configuration allows it.
func (r *Resolver) ExpandClass(buf ports.Buffer, rng ports.Range, fqcn string, prependBackslash bool) error {
	text := fqcn
	if prependBackslash && r.Config().Resolver.LeadingSeparatorEnabled() {
		text = `\` + fqcn
	}
	if err := buf.Apply(ports.Edit{Range: rng, NewText: text}); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "Could not expand class.")
	}
	return nil
}

// SortImports rewrites the use statements of buf in sorted order, line slot
// by line slot. It reports whether any line changed.
func (r *Resolver) SortImports(ctx context.Context, buf ports.Buffer) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	statements, _, err := php.ScanDeclarations(buf.Lines(), "")
	if err != nil {
		return false, err
	}
	sorted, err := php.SortStatements(statements, r.Config().Resolver.SortAlphabetically)
	if err != nil {
		return false, err
	}

	var edits []ports.Edit
	for i, stmt := range statements {
		if sorted[i].Text == stmt.Text {
			continue
		}
		edits = append(edits, ports.Edit{
			Range: ports.Range{
				Start: ports.Position{Line: stmt.Line},
				End:   ports.Position{Line: stmt.Line, Character: len(stmt.Text)},
			},
			NewText: sorted[i].Text,
		})
	}
	if len(edits) == 0 {
		return false, nil
	}
	if err := buf.Apply(edits...); err != nil {
		return false, errors.Wrap(err, errors.CodeInternal, "Could not sort imports.")
	}
	return true, nil
}

// SortFile opens path and sorts its imports, saving when something changed.
// Files with fewer than two imports are left alone.
func (r *Resolver) SortFile(ctx context.Context, path string) (bool, error) {
	buf, err := r.workspace.OpenBuffer(ctx, path)
	if err != nil {
		return false, errors.AddContext(err, errors.CtxPath, path)
	}
	changed, err := r.SortImports(ctx, buf)
	if err != nil {
		if errors.IsCode(err, errors.CodeNothingToSort) {
			return false, nil
		}
		return false, errors.AddContext(err, errors.CtxPath, path)
	}
	if !changed {
		return false, nil
	}
	if err := buf.Save(ctx); err != nil {
		return false, errors.AddContext(err, errors.CtxPath, path)
	}
	return true, nil
}
