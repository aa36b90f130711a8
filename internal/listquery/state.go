package listquery

// FilterState is the saved search, filter, sort and paging selection of one
// list for one user.
type FilterState struct {
	Search     string              `json:"search"`
	Filters    map[string][]string `json:"filters"`
	OrderBy    string              `json:"orderby"`
	OrderByDir string              `json:"orderbydir"`
	Page       int                 `json:"page"`
	Limit      int                 `json:"limit"`
}

// Input builds a query Input from the state.
func (s FilterState) Input(groups []Group, forced []Predicate) Input {
	return Input{
		Search:        s.Search,
		Filters:       s.Filters,
		Groups:        groups,
		SortColumn:    s.OrderBy,
		SortDirection: s.OrderByDir,
		Page:          s.Page,
		Limit:         s.Limit,
		Forced:        forced,
	}
}
