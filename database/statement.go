/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"strconv"
	"strings"
	"unicode"
)

var rowReturningKeywords = map[string]struct{}{
	"SELECT":   {},
	"SHOW":     {},
	"DESCRIBE": {},
	"DESC":     {},
	"EXPLAIN":  {},
	"WITH":     {},
	"VALUES":   {},
	"TABLE":    {},
	"PRAGMA":   {},
	"CALL":     {},
	"CHECK":    {},
	"CHECKSUM": {},
	"ANALYZE":  {},
	"OPTIMIZE": {},
	"REPAIR":   {},
	"HELP":     {},
}

// Data-modifying statements that return rows when they carry a RETURNING
// clause.
var returningKeywords = map[string]struct{}{
	"INSERT":  {},
	"UPDATE":  {},
	"DELETE":  {},
	"REPLACE": {},
}

// IsQueryStatement reports whether statement produces a result set, judged
// by its first keyword after leading comments and parentheses, or by a
// RETURNING clause on a data-modifying statement.
func IsQueryStatement(statement string) bool {
	keyword := FirstKeyword(statement)
	if _, ok := rowReturningKeywords[keyword]; ok {
		return true
	}
	if _, ok := returningKeywords[keyword]; ok {
		return hasReturningClause(statement)
	}
	return false
}

func hasReturningClause(statement string) bool {
	words := strings.FieldsFunc(codeOnly(statement), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})
	for _, w := range words {
		if strings.EqualFold(w, "RETURNING") {
			return true
		}
	}
	return false
}

// RebindDollar rewrites "?" placeholders to PostgreSQL's "$1", "$2", ...
// Placeholders inside string literals, quoted identifiers and comments are
// left alone.
func RebindDollar(statement string) string {
	code := codeOnly(statement)
	var b strings.Builder
	b.Grow(len(statement) + 8)
	n := 0
	for i := 0; i < len(statement); i++ {
		if code[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(statement[i])
	}
	return b.String()
}

// codeOnly returns statement with the contents of string literals, quoted
// identifiers and comments blanked out. Offsets are preserved.
func codeOnly(statement string) string {
	b := []byte(statement)
	blank := func(from, to int) {
		for j := from; j < to && j < len(b); j++ {
			b[j] = ' '
		}
	}
	for i := 0; i < len(b); {
		switch c := statement[i]; {
		case c == '\'' || c == '"' || c == '`':
			j := i + 1
			for j < len(statement) {
				if statement[j] == c {
					if j+1 < len(statement) && statement[j+1] == c {
						j += 2
						continue
					}
					break
				}
				j++
			}
			blank(i, j+1)
			i = j + 1
		case c == '-' && strings.HasPrefix(statement[i:], "--"):
			j := strings.IndexByte(statement[i:], '\n')
			if j < 0 {
				j = len(statement) - i
			}
			blank(i, i+j)
			i += j
		case c == '/' && strings.HasPrefix(statement[i:], "/*"):
			j := strings.Index(statement[i+2:], "*/")
			if j < 0 {
				j = len(statement) - i - 2
			}
			blank(i, i+j+4)
			i += j + 4
		default:
			i++
		}
	}
	return string(b)
}

// FirstKeyword returns the upper-cased first word of statement, skipping
// whitespace, "--" and "#" line comments, "/* */" block comments and
// opening parentheses.
func FirstKeyword(statement string) string {
	s := statement
	for {
		s = strings.TrimLeftFunc(s, func(r rune) bool {
			return unicode.IsSpace(r) || r == '('
		})
		switch {
		case strings.HasPrefix(s, "--"), strings.HasPrefix(s, "#"):
			i := strings.IndexByte(s, '\n')
			if i < 0 {
				return ""
			}
			s = s[i+1:]
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = s[i+2:]
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return !unicode.IsLetter(r)
			})
			if end < 0 {
				end = len(s)
			}
			return strings.ToUpper(s[:end])
		}
	}
}
