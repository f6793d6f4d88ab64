package sqlite

import (
	"regexp"
	"strings"
)

// Only field names, never values, are rendered into predicate text, and
// only after validation against this pattern. Values are always bound.
var jsonPathPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// ValidJSONPath reports whether a caller supplied field name is safe to
// render as a JSON path.
func ValidJSONPath(path string) bool {
	return jsonPathPattern.MatchString(path)
}

// queryBuilder composes the FROM sources, the AND-joined WHERE predicate
// list and the bound arguments of a query.
type queryBuilder struct {
	from   []string
	wheres []string
	args   []any
}

func newQueryBuilder() *queryBuilder {
	return &queryBuilder{
		from: []string{"events"},
	}
}

// Where appends a predicate with its bound arguments.
func (b *queryBuilder) Where(predicate string, args ...any) {
	b.wheres = append(b.wheres, predicate)
	b.args = append(b.args, args...)
}

// WhereJSONEquals appends an exact match on a JSON path. The path is
// validated before being rendered; an invalid path is rejected.
func (b *queryBuilder) WhereJSONEquals(path string, value any) bool {
	if !ValidJSONPath(path) {
		return false
	}
	b.Where("json_extract(events.source, '$."+path+"') = ?", value)
	return true
}

// WhereJSONLike appends a substring match on a JSON path.
func (b *queryBuilder) WhereJSONLike(path string, value string) bool {
	if !ValidJSONPath(path) {
		return false
	}
	b.Where("json_extract(events.source, '$."+path+"') LIKE ?", "%"+value+"%")
	return true
}

// WhereSourceLike appends a substring match across the whole document.
func (b *queryBuilder) WhereSourceLike(value string) {
	b.Where("events.source LIKE ?", "%"+value+"%")
}

// From renders the FROM source list.
func (b *queryBuilder) From() string {
	return strings.Join(b.from, ", ")
}

// WherePredicate renders the AND-joined predicate list. With no
// predicates every row matches.
func (b *queryBuilder) WherePredicate() string {
	if len(b.wheres) == 0 {
		return "TRUE"
	}
	return strings.Join(b.wheres, " AND ")
}

// Args returns the bound arguments in predicate order.
func (b *queryBuilder) Args() []any {
	return b.args
}
