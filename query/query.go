// Package query turns list view state into the canonical query string sent
// with every list fetch.
//
// The encoding is deterministic: page and limit come first, then search
// (when non-blank), then filters in the order they were first set. Filters
// whose value is nil, blank, or "all" mean "no constraint" and are left out.
//
//	s := query.State{Page: 1, Limit: 10}
//	s.Filters.Set("status", "active")
//	s.Filters.Set("agreement", true)
//	s.Encode() // "page=1&limit=10&status=active&agreement=true"
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DefaultLimit is used when a state carries no usable limit.
const DefaultLimit = 10

// AllValue is the filter value meaning "no constraint".
const AllValue = "all"

// StandardLimits are the page sizes offered by the console.
var StandardLimits = []int{10, 25, 50, 100}

// Filter is one named constraint.
type Filter struct {
	Name  string
	Value any
}

// Filters keeps filters in declaration order.
type Filters []Filter

// Set replaces the value of an existing filter or appends a new one.
// Supported values are string, bool, the integer types, fmt.Stringer,
// pointers to string or bool, and nil.
func (f *Filters) Set(name string, value any) {
	for i := range *f {
		if (*f)[i].Name == name {
			(*f)[i].Value = value
			return
		}
	}
	*f = append(*f, Filter{Name: name, Value: value})
}

// Get returns the value stored for name.
func (f Filters) Get(name string) (any, bool) {
	for _, flt := range f {
		if flt.Name == name {
			return flt.Value, true
		}
	}
	return nil, false
}

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	if f == nil {
		return nil
	}
	out := make(Filters, len(f))
	copy(out, f)
	return out
}

// State is the declarative input of a list fetch.
type State struct {
	Page    int
	Limit   int
	Search  string
	Filters Filters
}

// NewState returns page 1 with the given limit.
func NewState(limit int) State {
	return State{Page: 1, Limit: limit}
}

// Clone returns a copy that shares no filter storage with s.
func (s State) Clone() State {
	s.Filters = s.Filters.Clone()
	return s
}

// WithPage returns s on page.
func (s State) WithPage(page int) State {
	s = s.Clone()
	s.Page = page
	return s
}

// WithLimit returns s with a new limit, back on page 1.
func (s State) WithLimit(limit int) State {
	s = s.Clone()
	s.Limit = limit
	s.Page = 1
	return s
}

// WithSearch returns s with a new search term, back on page 1.
func (s State) WithSearch(term string) State {
	s = s.Clone()
	s.Search = term
	s.Page = 1
	return s
}

// WithFilter returns s with name set to value, back on page 1.
func (s State) WithFilter(name string, value any) State {
	s = s.Clone()
	s.Filters.Set(name, value)
	s.Page = 1
	return s
}

// Encode is shorthand for Build(s).
func (s State) Encode() string {
	return Build(s)
}

// Build renders s as a query string without the leading "?".
func Build(s State) string {
	page := s.Page
	if page < 1 {
		page = 1
	}
	limit := s.Limit
	if limit < 1 {
		limit = DefaultLimit
	}

	var b strings.Builder
	b.WriteString("page=")
	b.WriteString(strconv.Itoa(page))
	b.WriteString("&limit=")
	b.WriteString(strconv.Itoa(limit))

	if term := strings.TrimSpace(s.Search); term != "" {
		writePair(&b, "search", term)
	}

	for _, f := range s.Filters {
		if f.Name == "" {
			continue
		}
		if v, ok := FormatValue(f.Value); ok {
			writePair(&b, f.Name, v)
		}
	}
	return b.String()
}

// Values returns the same pairs as Build in url.Values form. Ordering is lost.
func Values(s State) url.Values {
	v, _ := url.ParseQuery(Build(s))
	return v
}

// FormatValue renders a filter value. It reports false when the value means
// "no constraint".
func FormatValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return formatString(val)
	case *string:
		if val == nil {
			return "", false
		}
		return formatString(*val)
	case bool:
		return strconv.FormatBool(val), true
	case *bool:
		if val == nil {
			return "", false
		}
		return strconv.FormatBool(*val), true
	case int:
		return strconv.Itoa(val), true
	case int8, int16, int32, int64:
		return fmt.Sprintf("%d", val), true
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val), true
	case fmt.Stringer:
		return formatString(val.String())
	default:
		return formatString(fmt.Sprint(val))
	}
}

func formatString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, AllValue) {
		return "", false
	}
	return s, true
}

func writePair(b *strings.Builder, key, value string) {
	b.WriteByte('&')
	b.WriteString(url.QueryEscape(key))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}
