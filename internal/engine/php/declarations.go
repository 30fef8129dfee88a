package php

import (
	"nsresolver/internal/core/errors"
	"regexp"
	"strings"
)

const (
	openTag          = "<?php"
	namespacePrefix  = "namespace "
	taggedNamespace  = "<?php namespace "
	useStatementHead = "use "
)

var typeDeclarationPattern = regexp.MustCompile(`(class|trait|interface)\s+\w+`)

// UseStatement is a top-level import line. Text always starts with "use ".
type UseStatement struct {
	Text string
	Line int // 0-based
}

// DeclarationSites holds the first line (1-based) of each preamble marker.
// PHPTag is 0 when no open tag was seen; the other fields are nil when absent.
// UseBlock tracks the last use statement, not the first.
type DeclarationSites struct {
	PHPTag    int
	Namespace *int
	UseBlock  *int
	Class     *int
}

func (s DeclarationSites) complete() bool {
	return s.PHPTag != 0 && s.Namespace != nil && s.UseBlock != nil && s.Class != nil
}

// ScanDeclarations walks lines top to bottom collecting use statements and
// declaration sites. When target is non-empty, an exact "use <target>;" line
// fails the scan with CodeAlreadyImported.
func ScanDeclarations(lines []string, target string) ([]UseStatement, DeclarationSites, error) {
	var (
		statements []UseStatement
		sites      DeclarationSites
	)
	duplicate := ""
	if target != "" {
		duplicate = useStatementHead + target + ";"
	}

	for i, text := range lines {
		if duplicate != "" && text == duplicate {
			err := errors.New(errors.CodeAlreadyImported, "Class already imported.")
			return nil, DeclarationSites{}, errors.AddContext(err, errors.CtxClass, target)
		}
		if sites.complete() {
			break
		}
		classifyLine(text, i, &sites, &statements)
	}

	return statements, sites, nil
}

func classifyLine(text string, index int, sites *DeclarationSites, statements *[]UseStatement) {
	line := index + 1
	switch {
	case strings.HasPrefix(text, openTag):
		if sites.PHPTag == 0 {
			sites.PHPTag = line
		}
	case isNamespaceLine(text):
		if sites.Namespace == nil {
			sites.Namespace = &line
		}
	case strings.HasPrefix(text, useStatementHead):
		*statements = append(*statements, UseStatement{Text: text, Line: index})
		sites.UseBlock = &line
	case typeDeclarationPattern.MatchString(text):
		if sites.Class == nil {
			sites.Class = &line
		}
	}
}

func isNamespaceLine(text string) bool {
	return strings.HasPrefix(text, namespacePrefix) || strings.HasPrefix(text, taggedNamespace)
}
