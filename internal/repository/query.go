package repository

import (
	"fmt"
	"strings"
)

// whereBuilder accumulates SQL conditions with positional pgx arguments.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends a condition. Each "?" in cond is replaced by the next $N.
func (w *whereBuilder) add(cond string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

// next reserves a positional placeholder for arg.
func (w *whereBuilder) next(arg any) string {
	w.args = append(w.args, arg)
	return fmt.Sprintf("$%d", len(w.args))
}

func (w *whereBuilder) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// ContainsPattern builds a LIKE pattern matching s anywhere, with LIKE
// metacharacters escaped. Callers compare against LOWER(column).
func ContainsPattern(s string) string {
	return "%" + escapeLike(strings.ToLower(s)) + "%"
}

// PrefixPattern builds a LIKE pattern matching values that start with s.
func PrefixPattern(s string) string {
	return escapeLike(s) + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// OrderClause resolves a user-supplied ordering ("name", "-created_at")
// against an allow-list of sortable columns. Unknown or empty keys order by
// idColumn ascending; idColumn also breaks ties.
func OrderClause(orderBy string, allowed map[string]string, idColumn string) string {
	key := strings.TrimSpace(orderBy)
	desc := strings.HasPrefix(key, "-")
	key = strings.TrimPrefix(key, "-")

	column, ok := allowed[key]
	if !ok {
		return idColumn + " ASC"
	}
	if desc {
		return column + " DESC, " + idColumn + " DESC"
	}
	return column + " ASC, " + idColumn + " ASC"
}

// Sortable columns per entity, keyed by the filter field name.
var (
	CustomerOrdering = map[string]string{
		"id":         "id",
		"name":       "name",
		"email":      "email",
		"created_at": "created_at",
	}
	ProductOrdering = map[string]string{
		"id":         "id",
		"name":       "name",
		"price":      "price",
		"stock":      "stock",
		"created_at": "created_at",
	}
	OrderOrdering = map[string]string{
		"id":           "o.id",
		"total_amount": "o.total_amount",
		"order_date":   "o.order_date",
	}
)

// limitOffset renders LIMIT/OFFSET for a page; a zero limit means no limit.
func limitOffset(w *whereBuilder, limit, offset int) string {
	var b strings.Builder
	if limit > 0 {
		b.WriteString(" LIMIT " + w.next(limit))
	}
	if offset > 0 {
		b.WriteString(" OFFSET " + w.next(offset))
	}
	return b.String()
}
