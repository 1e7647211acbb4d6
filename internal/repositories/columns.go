package repositories

import "strings"

// qualify prefixes every column in a comma-separated list with a table
// alias, for queries that join other tables.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
