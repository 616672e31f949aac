package sql

import (
	"fmt"
	"regexp"
	"strings"
)

// RepairContext is the fiscal scope the question established. A zero field
// means that dimension was not pinned and its repair rule is skipped.
type RepairContext struct {
	FiscalYear  int
	FiscalMonth string
	FiscalWeek  string
}

// Empty reports whether no dimension is pinned at all.
func (rc RepairContext) Empty() bool {
	return rc.FiscalYear == 0 && rc.FiscalMonth == "" && rc.FiscalWeek == ""
}

// NoWhereClauseError indicates a condition had to be inserted but the
// statement has no WHERE clause to carry it.
type NoWhereClauseError struct {
	Condition string
}

func (e *NoWhereClauseError) Error() string {
	return fmt.Sprintf("cannot insert condition %q: statement has no WHERE clause", e.Condition)
}

var (
	// relativeYearCasePattern matches the CASE expression synthesizers
	// produce for "current fiscal year": fiscal year boundary at April.
	relativeYearCasePattern = regexp.MustCompile(
		`(?is)(\[?(?:自然年|财年)\]?)\s*=\s*\(?\s*CASE\s+WHEN\s+MONTH\s*\(\s*GETDATE\s*\(\s*\)\s*\)\s*>=\s*\d+\s+` +
			`THEN\s+YEAR\s*\(\s*GETDATE\s*\(\s*\)\s*\)\s+ELSE\s+YEAR\s*\(\s*GETDATE\s*\(\s*\)\s*\)\s*-\s*1\s+END\s*\)?`)

	// whereClausePattern captures the WHERE body up to the next clause
	// keyword, so conditions can be appended at its end.
	whereClausePattern = regexp.MustCompile(`(?is)\bWHERE\b(.*?)(?:\bORDER\s+BY\b|\bGROUP\s+BY\b|\bHAVING\b|$)`)

	fiscalYearPresent  = regexp.MustCompile(`(?i)\[?(?:自然年|财年)\]?\s*=`)
	fiscalMonthPresent = regexp.MustCompile(`(?i)\[?财月\]?\s*=`)
	fiscalWeekPresent  = regexp.MustCompile(`(?i)\[?财周\]?\s*=`)
)

// repairRule is one ordered rewrite applied to a synthesized statement.
type repairRule struct {
	name  string
	apply func(sqlText string, rc RepairContext) (string, bool, error)
}

var repairRules = []repairRule{
	{name: "rewrite-relative-fiscal-year", apply: rewriteRelativeFiscalYear},
	{name: "ensure-fiscal-month", apply: ensureFiscalMonth},
	{name: "ensure-fiscal-week", apply: ensureFiscalWeek},
}

// Repair applies the fiscal repair rules in order and returns the repaired
// statement plus the names of the rules that changed it. Rules whose
// context dimension is not pinned are skipped. The first rule error aborts
// the pass; the statement returned alongside the error is the result of
// the rules that already ran.
func Repair(sqlText string, rc RepairContext) (string, []string, error) {
	if rc.Empty() {
		return sqlText, nil, nil
	}

	var applied []string
	for _, rule := range repairRules {
		out, changed, err := rule.apply(sqlText, rc)
		if err != nil {
			return sqlText, applied, fmt.Errorf("%s: %w", rule.name, err)
		}
		if changed {
			applied = append(applied, rule.name)
		}
		sqlText = out
	}
	return sqlText, applied, nil
}

// rewriteRelativeFiscalYear replaces a relative-date CASE expression on the
// year field with the literal year the question established.
func rewriteRelativeFiscalYear(sqlText string, rc RepairContext) (string, bool, error) {
	if rc.FiscalYear == 0 {
		return sqlText, false, nil
	}
	if !relativeYearCasePattern.MatchString(sqlText) {
		return sqlText, false, nil
	}
	out := relativeYearCasePattern.ReplaceAllString(sqlText, fmt.Sprintf("${1} = %d", rc.FiscalYear))
	return out, true, nil
}

// ensureFiscalMonth inserts the fiscal month filter when the statement
// lacks one.
func ensureFiscalMonth(sqlText string, rc RepairContext) (string, bool, error) {
	if rc.FiscalMonth == "" || fiscalMonthPresent.MatchString(sqlText) {
		return sqlText, false, nil
	}
	return insertCondition(sqlText, fmt.Sprintf("财月 = '%s'", rc.FiscalMonth))
}

// ensureFiscalWeek inserts the fiscal week filter when the statement
// lacks one.
func ensureFiscalWeek(sqlText string, rc RepairContext) (string, bool, error) {
	if rc.FiscalWeek == "" || fiscalWeekPresent.MatchString(sqlText) {
		return sqlText, false, nil
	}
	return insertCondition(sqlText, fmt.Sprintf("财周 = '%s'", rc.FiscalWeek))
}

// insertCondition appends "AND <condition>" at the end of the WHERE body.
func insertCondition(sqlText, condition string) (string, bool, error) {
	loc := whereClausePattern.FindStringSubmatchIndex(sqlText)
	if loc == nil {
		return sqlText, false, &NoWhereClauseError{Condition: condition}
	}

	bodyStart, bodyEnd := loc[2], loc[3]
	body := sqlText[bodyStart:bodyEnd]
	trimmed := strings.TrimRight(body, " \t\n\r")
	insertAt := bodyStart + len(trimmed)

	return sqlText[:insertAt] + " AND " + condition + sqlText[insertAt:], true, nil
}

// HasFiscalYearFilter reports whether the statement already pins the year
// field, either literally or through a relative-date expression.
func HasFiscalYearFilter(sqlText string) bool {
	return fiscalYearPresent.MatchString(sqlText)
}
