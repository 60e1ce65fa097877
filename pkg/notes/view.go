package notes

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/jot/pkg/core"
)

// Filter selects which sorted notes are displayed.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterFavorites Filter = "favorites"
)

// ParseFilter validates a filter name. The empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterFavorites:
		return FilterFavorites, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want %q or %q)", s, FilterAll, FilterFavorites)
	}
}

// View is the derived, read-only projection of the note collection.
type View struct {
	Filtered       []core.Note `json:"filtered"`
	Sorted         []core.Note `json:"sorted"`
	Displayed      []core.Note `json:"displayed"`
	TotalChars     int         `json:"totalChars"`
	TotalFavorites int         `json:"totalFavorites"`
}

// Derive computes the view for (notes, query, filter). It never mutates notes.
//
//  1. filtered: notes whose text contains query, case-insensitively, in store order
//  2. sorted: favorites first, then ascending creation time
//  3. displayed: sorted, restricted to favorites under FilterFavorites
//
// Statistics are computed over filtered, not displayed.
func Derive(notes []core.Note, query string, filter Filter) View {
	needle := strings.ToLower(query)

	v := View{Filtered: make([]core.Note, 0, len(notes))}
	for _, n := range notes {
		if !n.Visible() {
			continue
		}
		if !strings.Contains(strings.ToLower(n.Text), needle) {
			continue
		}
		v.Filtered = append(v.Filtered, n)
		v.TotalChars += utf8.RuneCountInString(n.Text)
		if n.Favorite {
			v.TotalFavorites++
		}
	}

	v.Sorted = slices.Clone(v.Filtered)
	slices.SortStableFunc(v.Sorted, compareNotes)

	if filter == FilterFavorites {
		v.Displayed = make([]core.Note, 0, v.TotalFavorites)
		for _, n := range v.Sorted {
			if n.Favorite {
				v.Displayed = append(v.Displayed, n)
			}
		}
	} else {
		v.Displayed = v.Sorted
	}

	return v
}

func compareNotes(a, b core.Note) int {
	if a.Favorite != b.Favorite {
		if a.Favorite {
			return -1
		}
		return 1
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
