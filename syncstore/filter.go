package syncstore

import (
	"maps"
	"net/url"
	"strings"
)

// Filter holds the active filter criteria (status, document_type, search,
// ordering, ...). Empty values are treated as unset.
type Filter map[string]string

// Active returns a copy of f without unset fields.
func (f Filter) Active() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		if strings.TrimSpace(v) != "" {
			out[k] = v
		}
	}
	return out
}

func (f Filter) Query() url.Values {
	q := make(url.Values, len(f))
	for k, v := range f.Active() {
		q.Set(k, v)
	}
	return q
}

func (f Filter) Equal(other Filter) bool {
	return maps.Equal(f.Active(), other.Active())
}

// Matcher reports whether item satisfies value for one filter field.
type Matcher[T any] func(item *T, value string) bool

// LocalField is a filter field that can be evaluated against cached items.
// Equality fields are also used to place newly created items in the view.
type LocalField[T any] struct {
	Match    Matcher[T]
	Equality bool
}

// Equals matches when get(item) is exactly value.
func Equals[T any](get func(*T) string) LocalField[T] {
	return LocalField[T]{
		Equality: true,
		Match: func(item *T, value string) bool {
			return get(item) == value
		},
	}
}

// Contains matches when any of the given text fields contains value,
// ignoring case.
func Contains[T any](gets ...func(*T) string) LocalField[T] {
	return LocalField[T]{
		Match: func(item *T, value string) bool {
			needle := strings.ToLower(value)
			for _, get := range gets {
				if strings.Contains(strings.ToLower(get(item)), needle) {
					return true
				}
			}
			return false
		},
	}
}

// FilterPolicy decides which filters are answered from the cache. A filter is
// local only when every set field appears in Local; anything else (ordering,
// pagination, cross-field queries) goes to the server.
type FilterPolicy[T any] struct {
	Local map[string]LocalField[T]
}

func (p FilterPolicy[T]) IsLocal(f Filter) bool {
	for k := range f.Active() {
		if _, ok := p.Local[k]; !ok {
			return false
		}
	}
	return true
}

// Match applies every set local field of f to item. Fields the policy does
// not know are ignored.
func (p FilterPolicy[T]) Match(item *T, f Filter) bool {
	return p.match(item, f, false)
}

// MatchEquality is Match restricted to equality fields.
func (p FilterPolicy[T]) MatchEquality(item *T, f Filter) bool {
	return p.match(item, f, true)
}

func (p FilterPolicy[T]) match(item *T, f Filter, equalityOnly bool) bool {
	for k, v := range f.Active() {
		field, ok := p.Local[k]
		if !ok || (equalityOnly && !field.Equality) {
			continue
		}
		if !field.Match(item, v) {
			return false
		}
	}
	return true
}
