package searchquery

import (
	"regexp"
	"strconv"
	"strings"
)

// Operator joins two adjacent terms.
type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// Query is a compiled search: Terms[0] op[0] Terms[1] op[1] ... folded left
// to right. len(Operators) == len(Terms)-1 for any non-empty query.
type Query struct {
	Terms     []string
	Operators []Operator
}

var (
	quotedRe   = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	plusRe     = regexp.MustCompile(`\s*\+\s*`)
	operatorRe = regexp.MustCompile(`(?i)\b(AND|OR)\b`)
)

const placeholderMark = "\x00"

// Parse compiles free text into a Query. A blank input returns an empty Query.
func Parse(input string) Query {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Query{}
	}

	var phrases []string
	text := quotedRe.ReplaceAllStringFunc(trimmed, func(m string) string {
		inner := m[1 : len(m)-1]
		phrases = append(phrases, strings.ToLower(inner))
		return placeholder(len(phrases) - 1)
	})

	text = plusRe.ReplaceAllString(text, " AND ")

	var q Query
	pos := 0
	for _, loc := range operatorRe.FindAllStringIndex(text, -1) {
		q.Terms = append(q.Terms, term(text[pos:loc[0]], phrases))
		q.Operators = append(q.Operators, Operator(strings.ToUpper(text[loc[0]:loc[1]])))
		pos = loc[1]
	}
	q.Terms = append(q.Terms, term(text[pos:], phrases))

	if len(q.Operators) == 0 && len(phrases) == 0 && strings.ContainsAny(trimmed, " \t\n") {
		return implicitOr(trimmed)
	}
	return q
}

func placeholder(i int) string {
	return placeholderMark + strconv.Itoa(i) + placeholderMark
}

func term(piece string, phrases []string) string {
	piece = strings.TrimSpace(piece)
	if idx := strings.Index(piece, placeholderMark); idx >= 0 {
		rest := piece[idx+1:]
		if end := strings.Index(rest, placeholderMark); end >= 0 {
			if i, err := strconv.Atoi(rest[:end]); err == nil && i < len(phrases) {
				return phrases[i]
			}
		}
	}
	return strings.ToLower(piece)
}

func implicitOr(input string) Query {
	var q Query
	for i, field := range strings.Fields(input) {
		if i > 0 {
			q.Operators = append(q.Operators, Or)
		}
		q.Terms = append(q.Terms, strings.ToLower(field))
	}
	return q
}

// Empty reports a query that filters nothing.
func (q Query) Empty() bool {
	return len(q.Terms) == 0
}

// Match folds the query over haystack using case-insensitive substring tests.
func (q Query) Match(haystack string) bool {
	if q.Empty() {
		return true
	}
	h := strings.ToLower(haystack)

	result := strings.Contains(h, q.Terms[0])
	for i, op := range q.Operators {
		next := strings.Contains(h, q.Terms[i+1])
		if op == And {
			result = result && next
		} else {
			result = result || next
		}
	}
	return result
}

// MatchAny joins fields with spaces and matches the result.
func (q Query) MatchAny(fields ...string) bool {
	return q.Match(strings.Join(fields, " "))
}
