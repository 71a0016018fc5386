package normalizer

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const tableSuffix = "Table"

// TableName builds the name of a derived table from the columns it is
// about: every part gets an upper-case first letter and the rest of the
// part is kept as written. TableName("student", "course") is
// "StudentCourseTable".
func TableName(parts ...string) string {
	// Casers carry state and must not be shared between goroutines.
	caser := cases.Title(language.Und, cases.NoLower)

	var b strings.Builder
	for _, part := range parts {
		b.WriteString(caser.String(part))
	}
	b.WriteString(tableSuffix)
	return b.String()
}
