package php

import "strings"

// Insertion describes where a new use statement goes and the blank lines
// surrounding it. Line is the 0-based line the text is inserted before.
type Insertion struct {
	Prepend string
	Append  string
	Line    int
}

// ComputeInsertion derives the insertion point for a new use statement.
// Later rules override earlier ones:
//   - after the open tag, separated by a blank line;
//   - with a namespace but no tag, still separated by a blank line;
//   - directly below the last use statement, no blank line before;
//   - otherwise directly below the namespace declaration;
//   - two trailing newlines when the type declaration follows within one line.
func ComputeInsertion(sites DeclarationSites) Insertion {
	ins := Insertion{Append: "\n", Line: sites.PHPTag}
	if sites.PHPTag != 0 {
		ins.Prepend = "\n"
	}

	if ins.Prepend == "" && sites.Namespace != nil {
		ins.Prepend = "\n"
	}

	if sites.UseBlock != nil {
		ins.Prepend = ""
		ins.Line = *sites.UseBlock
	} else if sites.Namespace != nil {
		ins.Line = *sites.Namespace
	}

	if sites.Class != nil && classAdjacent(sites) {
		ins.Append = "\n\n"
	}

	return ins
}

// classAdjacent compares the class line with every site; a missing site
// counts as line 0.
func classAdjacent(sites DeclarationSites) bool {
	class := *sites.Class
	return class-lineOrZero(sites.UseBlock) <= 1 ||
		class-lineOrZero(sites.Namespace) <= 1 ||
		class-sites.PHPTag <= 1
}

func lineOrZero(line *int) int {
	if line == nil {
		return 0
	}
	return *line
}

// Statement renders the text inserted at Line.
func (ins Insertion) Statement(fqcn, alias string) string {
	var b strings.Builder
	b.WriteString(ins.Prepend)
	b.WriteString(FormatUse(fqcn, alias))
	b.WriteString(ins.Append)
	return b.String()
}

// FormatUse renders "use <fqcn>;" or "use <fqcn> as <alias>;".
func FormatUse(fqcn, alias string) string {
	if alias == "" {
		return useStatementHead + fqcn + ";"
	}
	return useStatementHead + fqcn + " as " + alias + ";"
}
