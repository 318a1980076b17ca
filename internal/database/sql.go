package database

import "strings"

// BuildMultiRowInsert builds an INSERT statement for rows rows of columns with ? placeholders.
// Callers rebind the query for their driver.
func BuildMultiRowInsert(table string, columns []string, rows int) string {
	if rows < 1 {
		rows = 1
	}
	placeholders := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
	}
	return b.String()
}
