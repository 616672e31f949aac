// Package sql pulls the SQL statement out of a raw completion, normalizes
// it, rewrites relative-date phrasing into explicit fiscal filters, and
// checks field references against the knowledge store.
package sql

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrNoSQL indicates the completion carried no recognizable SQL.
	ErrNoSQL = errors.New("no SQL statement found in completion")

	// ErrMultipleStatements indicates the completion contains multiple SQL
	// statements; only single statements are permitted.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")
)

var sqlFencePattern = regexp.MustCompile("(?is)```sql\\s*(.*?)```")

// ExtractFromCompletion pulls the SQL statement out of raw completion text.
// A fenced ```sql block wins; otherwise the statement is taken from the
// first line starting with SELECT or WITH through the end of the text.
func ExtractFromCompletion(completion string) (string, error) {
	if m := sqlFencePattern.FindStringSubmatch(completion); m != nil {
		sql := strings.TrimSpace(m[1])
		if sql == "" {
			return "", ErrNoSQL
		}
		return sql, nil
	}

	lines := strings.Split(completion, "\n")
	for i, line := range lines {
		upper := strings.ToUpper(strings.TrimSpace(line))
		if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
			return strings.TrimSpace(strings.Join(lines[i:], "\n")), nil
		}
	}

	return "", ErrNoSQL
}

// NormalizeStatement strips a trailing semicolon and rejects completions
// carrying more than one statement.
//
// The order is:
// 1. Strip trailing semicolon and whitespace (normalize)
// 2. Check for multiple statements (any remaining semicolons outside string literals)
func NormalizeStatement(sqlQuery string) (string, error) {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return "", ErrNoSQL
	}

	normalized := stripTrailingSemicolon(sqlQuery)

	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}

	return normalized, nil
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Handle both backslash escape (\') and SQL standard escape ('')
			if char == '\'' && prevChar != '\\' {
				// A doubled quote ('') exits here and immediately re-enters
				// on the next quote, which keeps us inside the string
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

// stripTrailingSemicolon removes a trailing semicolon and any whitespace
// around it.
func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}
