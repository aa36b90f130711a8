// Package listquery turns saved list state into a structured query
// description and keeps the requested page inside the result set.
package listquery

import "strings"

const (
	ExprEq = "eq"
	ExprIn = "in"

	SortAsc  = "ASC"
	SortDesc = "DESC"
)

type Predicate struct {
	Column string   `json:"column"`
	Expr   string   `json:"expr"`
	Values []string `json:"values"`
}

type Query struct {
	SearchTerm    string      `json:"searchTerm"`
	Predicates    []Predicate `json:"predicates"`
	SortColumn    string      `json:"sortColumn"`
	SortDirection string      `json:"sortDirection"`
	Offset        int         `json:"offset"`
	Limit         int         `json:"limit"`
}

type Input struct {
	Search        string
	Filters       map[string][]string
	Groups        []Group
	SortColumn    string
	SortDirection string
	Page          int
	Limit         int
	Forced        []Predicate
}

// Build merges forced predicates, one membership predicate per selected
// filter group, the search term and paging into a Query.
func Build(in Input) Query {
	predicates := make([]Predicate, 0, len(in.Forced)+len(in.Groups))
	predicates = append(predicates, in.Forced...)

	for _, g := range in.Groups {
		values := in.Filters[g.Prefix]
		if len(values) == 0 {
			continue
		}
		predicates = append(predicates, Predicate{
			Column: g.Column,
			Expr:   ExprIn,
			Values: append([]string(nil), values...),
		})
	}

	limit := in.Limit
	if limit < 1 {
		limit = 1
	}

	return Query{
		SearchTerm:    strings.TrimSpace(in.Search),
		Predicates:    predicates,
		SortColumn:    in.SortColumn,
		SortDirection: NormalizeDirection(in.SortDirection),
		Offset:        Offset(in.Page, limit),
		Limit:         limit,
	}
}

// Offset is 0 on the first page, otherwise (page-1)*limit, never negative.
func Offset(page, limit int) int {
	if page <= 1 {
		return 0
	}
	offset := (page - 1) * limit
	if offset < 0 {
		return 0
	}
	return offset
}

func NormalizeDirection(dir string) string {
	if strings.EqualFold(dir, SortAsc) {
		return SortAsc
	}
	return SortDesc
}
