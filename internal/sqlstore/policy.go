// Package sqlstore provides a scoped SQLite-backed store: every query and
// execute call is authorized by a PrefixPolicy that restricts the caller to
// tables named after its own scope, so one caller can never read or write
// another caller's tables even when handed a raw SQL string.
package sqlstore

import (
	"fmt"
	"regexp"
	"strings"
)

// tableRefPattern finds identifiers following a keyword that names a table
// in standard DML/DDL: FROM, JOIN, INTO, UPDATE, and TABLE (covering
// CREATE/DROP/ALTER TABLE). This is a lightweight scan, not a SQL parser —
// no SQL-parsing library exists anywhere in the example corpus, so the
// policy is written against tokens rather than a parsed AST (see DESIGN.md).
var tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|INTO|UPDATE|TABLE)\s+("?[A-Za-z_][A-Za-z0-9_]*"?)`)

// PrefixPolicy authorizes a caller identified by Scope to touch only
// tables prefixed with "Scope_".
type PrefixPolicy struct {
	Scope string
}

// ScopeViolationError reports a query that referenced a table outside the
// caller's scope.
type ScopeViolationError struct {
	Table string
	Scope string
}

func (e *ScopeViolationError) Error() string {
	return fmt.Sprintf("ScopeViolation(%q,%q)", e.Table, e.Scope)
}

// Validate scans query for table references and rejects the first one
// that falls outside p.Scope.
func (p PrefixPolicy) Validate(query string) error {
	for _, m := range tableRefPattern.FindAllStringSubmatch(query, -1) {
		table := unquoteIdentifier(m[1])
		if !p.allows(table) {
			return &ScopeViolationError{Table: table, Scope: p.Scope}
		}
	}
	return nil
}

func (p PrefixPolicy) allows(table string) bool {
	return strings.HasPrefix(table, p.Scope+"_")
}

// unquoteIdentifier strips one layer of double-quoting from a SQL
// identifier, matching how callers may legally quote a table name that
// is otherwise indistinguishable from a reserved word.
func unquoteIdentifier(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}
