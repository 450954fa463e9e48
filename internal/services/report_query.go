package services

import (
	"strings"

	"github.com/cleancity/cleancity-be/internal/models"
)

// buildReportQuery translates a ReportFilter into a WHERE clause and its
// arguments. It is a pure function: empty values and the literal "all" on
// category or status mean no filter, and search text is escaped before
// being used in a LIKE pattern so wildcards in user input match literally.
func buildReportQuery(f models.ReportFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if f.Category != "" && f.Category != "all" {
		clauses = append(clauses, "r.category = ?")
		args = append(args, f.Category)
	}

	if f.Status != "" && f.Status != "all" {
		clauses = append(clauses, "r.status = ?")
		args = append(args, f.Status)
	}

	if f.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
		clauses = append(clauses,
			`(LOWER(r.title) LIKE ? ESCAPE '\' OR LOWER(r.description) LIKE ? ESCAPE '\' OR LOWER(r.location) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// escapeLike escapes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
