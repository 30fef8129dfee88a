package php

import (
	"nsresolver/internal/core/errors"
	"regexp"
	"sort"
	"strings"
)

var (
	importedNamePattern = regexp.MustCompile(`(\w+)?;`)
	wordPattern         = regexp.MustCompile(`\w+`)
)

// ImportedName returns the identifier a use statement binds: the alias when
// present, otherwise the last segment of the imported name.
func ImportedName(statement string) string {
	m := importedNamePattern.FindStringSubmatch(statement)
	if m == nil {
		return ""
	}
	return m[1]
}

// HasConflict reports whether name is already bound by one of statements.
func HasConflict(statements []UseStatement, name string) bool {
	if name == "" {
		return false
	}
	for _, stmt := range statements {
		if ImportedName(stmt.Text) == name {
			return true
		}
	}
	return false
}

// ShortName returns the last word of a (possibly qualified) class name.
func ShortName(fqcn string) string {
	words := wordPattern.FindAllString(fqcn, -1)
	if len(words) == 0 {
		return ""
	}
	return words[len(words)-1]
}

// IsQualified reports whether a token already carries a namespace separator.
func IsQualified(token string) bool {
	return strings.Contains(token, `\`)
}

// SortStatements returns a sorted copy of statements. Entry i of the result
// belongs on the line of statements[i]; the caller rewrites positionally.
func SortStatements(statements []UseStatement, alphabetical bool) ([]UseStatement, error) {
	if len(statements) <= 1 {
		return nil, errors.New(errors.CodeNothingToSort, "Nothing to sort.")
	}

	sorted := make([]UseStatement, len(statements))
	copy(sorted, statements)

	if alphabetical {
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Text) < strings.ToLower(sorted[j].Text)
		})
	} else {
		sort.SliceStable(sorted, func(i, j int) bool {
			return len(sorted[i].Text) < len(sorted[j].Text)
		})
	}

	for i := range sorted {
		sorted[i].Line = statements[i].Line
	}
	return sorted, nil
}
