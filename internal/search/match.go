// Package search implements the free-text matching used by the message store.
// A query matches a message when the query is a substring of the message's
// author or text, ignoring case. Case folding goes through
// golang.org/x/text/cases so that non-ASCII text compares correctly.
//
// A Matcher holds a cases.Caser, which keeps internal state; it is not safe
// for concurrent use. The store owns one per engine.
package search

import (
	"strings"

	"golang.org/x/text/cases"
)

// Matcher folds strings for case-insensitive comparison.
type Matcher struct {
	caser cases.Caser
}

// NewMatcher returns a Matcher using full Unicode case folding.
func NewMatcher() *Matcher {
	return &Matcher{caser: cases.Fold()}
}

// Fold returns the case-folded form of s.
func (m *Matcher) Fold(s string) string {
	return m.caser.String(s)
}

// Query is a folded search term ready to be matched repeatedly.
type Query struct {
	m      *Matcher
	folded string
}

// Compile folds q once so that matching many messages does not refold it.
func (m *Matcher) Compile(q string) Query {
	return Query{m: m, folded: m.Fold(q)}
}

// Match reports whether any of fields contains the query, ignoring case.
// The empty query matches everything.
func (q Query) Match(fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(q.m.Fold(f), q.folded) {
			return true
		}
	}
	return false
}
