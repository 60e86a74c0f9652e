// Package view turns the book collection into the two rendered shelves.
package view

import (
	"strings"

	dom "bookshelf/internal/domain"
)

// Shelves is one full render: the filtered collection split by completion,
// each side in collection order.
type Shelves struct {
	Query      string     `json:"query" yaml:"query"`
	Incomplete []dom.Book `json:"incomplete" yaml:"incomplete"`
	Complete   []dom.Book `json:"complete" yaml:"complete"`
}

// Len is the number of books on both shelves.
func (s Shelves) Len() int { return len(s.Incomplete) + len(s.Complete) }

// Matches reports whether the title contains query, ignoring case. An empty query matches everything.
func Matches(b dom.Book, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(b.Title), strings.ToLower(query))
}

// Build filters books by query and partitions them. The input is not modified.
func Build(books []dom.Book, query string) Shelves {
	out := Shelves{
		Query:      query,
		Incomplete: make([]dom.Book, 0),
		Complete:   make([]dom.Book, 0),
	}
	for _, b := range books {
		if !Matches(b, query) {
			continue
		}
		if b.IsComplete {
			out.Complete = append(out.Complete, b)
		} else {
			out.Incomplete = append(out.Incomplete, b)
		}
	}
	return out
}
