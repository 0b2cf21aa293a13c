// Package jql builds Jira Query Language expressions from structured
// predicates. Values are quoted and escaped when the query is serialized,
// so caller text can never close a string literal or add clauses.
package jql

import (
	"regexp"
	"strings"
)

// Operator is a JQL comparison operator.
type Operator string

const (
	OpEquals   Operator = "="
	OpContains Operator = "~"
)

const (
	fieldProject  = "project"
	fieldAssignee = "assignee"
	fieldSummary  = "summary"
)

// Predicate is a single "field op value" clause.
type Predicate struct {
	Field string
	Op    Operator
	Value Value
}

// Value is the right-hand side of a clause.
type Value struct {
	raw  string
	bare bool
}

// String returns a value rendered as a double-quoted JQL string.
func String(s string) Value { return Value{raw: s} }

// Key returns a value rendered bare when it is a plain identifier,
// quoted otherwise.
func Key(s string) Value {
	return Value{raw: s, bare: isBareIdentifier(s)}
}

// Project restricts results to one project.
func Project(key string) Predicate {
	return Predicate{Field: fieldProject, Op: OpEquals, Value: Key(key)}
}

// Assignee matches issues assigned to user (email or account id).
func Assignee(user string) Predicate {
	return Predicate{Field: fieldAssignee, Op: OpEquals, Value: String(user)}
}

// SummaryContains is Jira's fuzzy text match on the summary field.
func SummaryContains(text string) Predicate {
	return Predicate{Field: fieldSummary, Op: OpContains, Value: String(text)}
}

func (p Predicate) String() string {
	return p.Field + " " + string(p.Op) + " " + p.Value.String()
}

func (v Value) String() string {
	if v.bare {
		return v.raw
	}
	return quote(v.raw)
}

// Query is an ordered conjunction of predicates.
type Query struct {
	preds []Predicate
}

// And composes predicates in order.
func And(preds ...Predicate) Query {
	return Query{preds: append([]Predicate(nil), preds...)}
}

// Append returns q with p added at the end.
func (q Query) Append(p Predicate) Query {
	out := make([]Predicate, 0, len(q.preds)+1)
	out = append(out, q.preds...)
	return Query{preds: append(out, p)}
}

// Prepend returns q with p inserted at the front.
func (q Query) Prepend(p Predicate) Query {
	out := make([]Predicate, 0, len(q.preds)+1)
	out = append(out, p)
	return Query{preds: append(out, q.preds...)}
}

// Predicates returns a copy of the clauses in order.
func (q Query) Predicates() []Predicate {
	return append([]Predicate(nil), q.preds...)
}

// String serializes the query joining clauses with AND.
func (q Query) String() string {
	parts := make([]string, len(q.preds))
	for i, p := range q.preds {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

var identPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reserved words cannot appear unquoted as values.
var reserved = map[string]struct{}{
	"and": {}, "or": {}, "not": {}, "empty": {}, "null": {}, "order": {}, "by": {},
	"asc": {}, "desc": {}, "in": {}, "is": {}, "was": {}, "changed": {}, "after": {},
	"before": {}, "during": {}, "on": {}, "from": {}, "to": {}, "true": {}, "false": {},
	"select": {}, "where": {}, "limit": {}, "if": {}, "then": {}, "else": {},
}

func isBareIdentifier(s string) bool {
	if !identPattern.MatchString(s) {
		return false
	}
	_, isReserved := reserved[strings.ToLower(s)]
	return !isReserved
}

// quote wraps s in double quotes. Backslash and quote are escaped;
// control characters become a single space.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\' || r == '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
