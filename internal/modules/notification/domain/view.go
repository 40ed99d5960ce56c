package domain

import "strings"

// DefaultPageSize is the number of notifications per page.
const DefaultPageSize = 10

// Filter is ALL, UNREAD or a notification type.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterUnread Filter = "unread"
)

// ParseFilter maps user input to a Filter. "all" and "unread" are matched
// case-insensitively; anything else is taken as a notification type verbatim.
func ParseFilter(s string) Filter {
	switch strings.ToLower(s) {
	case "", string(FilterAll):
		return FilterAll
	case string(FilterUnread):
		return FilterUnread
	default:
		return Filter(s)
	}
}

// QueryKind names the paged query a view resolves to.
type QueryKind int

const (
	QueryAll QueryKind = iota
	QueryUnread
	QueryByType
	QuerySearch
)

func (k QueryKind) String() string {
	switch k {
	case QueryUnread:
		return "unread"
	case QueryByType:
		return "by_type"
	case QuerySearch:
		return "search"
	default:
		return "all"
	}
}

// ViewState selects which notifications are visible. It is a value type:
// two states are == exactly when they would issue the same query.
type ViewState struct {
	Filter     Filter
	SearchTerm string
	Page       int
	PageSize   int
}

func NewViewState(pageSize int) ViewState {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ViewState{Filter: FilterAll, Page: 1, PageSize: pageSize}
}

// WithFilter returns a copy with the filter replaced and the page reset to 1.
func (v ViewState) WithFilter(f Filter) ViewState {
	if f == "" {
		f = FilterAll
	}
	v.Filter = f
	v.Page = 1
	return v
}

// WithSearchTerm returns a copy with the search term replaced and the page reset to 1.
func (v ViewState) WithSearchTerm(term string) ViewState {
	v.SearchTerm = term
	v.Page = 1
	return v
}

func (v ViewState) WithPage(page int) (ViewState, error) {
	if page < 1 {
		return v, ErrInvalidPage
	}
	v.Page = page
	return v, nil
}

// Query resolves the view to a query kind. An active search term overrides
// the filter entirely.
func (v ViewState) Query() QueryKind {
	switch {
	case v.SearchTerm != "":
		return QuerySearch
	case v.Filter == FilterAll || v.Filter == "":
		return QueryAll
	case v.Filter == FilterUnread:
		return QueryUnread
	default:
		return QueryByType
	}
}

// Admits reports whether n belongs to the result set this view queries,
// ignoring pagination. Precedence goes through Query so push membership
// and fetch selection never disagree.
func (v ViewState) Admits(n Notification) bool {
	switch v.Query() {
	case QuerySearch:
		return n.MatchesTerm(v.SearchTerm)
	case QueryAll:
		return true
	case QueryUnread:
		return n.IsUnread()
	default:
		return n.NotificationType == string(v.Filter)
	}
}
