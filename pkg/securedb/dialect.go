package securedb

import (
	"strconv"
	"strings"
)

// Dialect selects the placeholder syntax a securedb query is rendered with.
// The scope condition builder and every statement builder in this package
// take a Dialect explicitly rather than inspecting a *sql.DB, so the same
// builder code is exercised against both lib/pq (Postgres, "$N") and
// modernc.org/sqlite ("?") in tests without a live connection.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// placeholderSeq renders successive positional placeholders for one
// statement: "$1", "$2", ... for Postgres, a flat repeated "?" for SQLite.
type placeholderSeq struct {
	dialect Dialect
	n       int
}

func newPlaceholderSeq(dialect Dialect) *placeholderSeq {
	return &placeholderSeq{dialect: dialect}
}

// next returns the placeholder for the next positional argument.
func (p *placeholderSeq) next() string {
	p.n++
	if p.dialect == DialectPostgres {
		return "$" + strconv.Itoa(p.n)
	}
	return "?"
}

// rebind rewrites a caller-supplied SQL fragment written with dialect-
// agnostic "?" placeholders into seq's dialect, consuming one placeholder
// per "?" in order. Every statement builder in this package accepts
// caller-supplied fragments (Filter, SetExpr) in this "?" form specifically
// so a single shared sequence can number the whole statement without the
// caller needing to know how many placeholders the scope condition ahead of
// it already used.
func rebind(fragment string, seq *placeholderSeq) string {
	if !strings.ContainsRune(fragment, '?') {
		return fragment
	}
	var b strings.Builder
	for i := 0; i < len(fragment); i++ {
		if fragment[i] == '?' {
			b.WriteString(seq.next())
		} else {
			b.WriteByte(fragment[i])
		}
	}
	return b.String()
}
