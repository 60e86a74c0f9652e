package view

import (
	"testing"

	dom "bookshelf/internal/domain"
	"bookshelf/internal/notify"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var books = []dom.Book{
	{ID: 1, Title: "Dune", Author: "Herbert", Year: 1965},
	{ID: 2, Title: "Dune Messiah", Author: "Herbert", Year: 1969, IsComplete: true},
	{ID: 3, Title: "Neuromancer", Author: "Gibson", Year: 1984},
	{ID: 4, Title: "Children of Dune", Author: "Herbert", Year: 1976, IsComplete: true},
	{ID: 5, Title: "Hyperion", Author: "Simmons", Year: 1989, IsComplete: true},
}

type staticSource []dom.Book

func (s *staticSource) List() []dom.Book { return append([]dom.Book(nil), (*s)...) }

func ids(list []dom.Book) []int64 {
	out := make([]int64, 0, len(list))
	for _, b := range list {
		out = append(out, b.ID)
	}
	return out
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		incomplete []int64
		complete   []int64
	}{
		{name: "empty query keeps everything", query: "", incomplete: []int64{1, 3}, complete: []int64{2, 4, 5}},
		{name: "lowercase matches title case", query: "dune", incomplete: []int64{1}, complete: []int64{2, 4}},
		{name: "uppercase query", query: "DUNE M", incomplete: []int64{}, complete: []int64{2}},
		{name: "author is not searched", query: "herbert", incomplete: []int64{}, complete: []int64{}},
		{name: "no match", query: "zzz", incomplete: []int64{}, complete: []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(books, tt.query)
			if diff := cmp.Diff(tt.incomplete, ids(got.Incomplete)); diff != "" {
				t.Errorf("incomplete mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.complete, ids(got.Complete)); diff != "" {
				t.Errorf("complete mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.query, got.Query)
		})
	}
}

func TestBuildPartitionsAreDisjointAndCoverCollection(t *testing.T) {
	s := Build(books, "")
	seen := map[int64]string{}
	for _, b := range s.Incomplete {
		assert.False(t, b.IsComplete)
		seen[b.ID] = dom.ShelfIncomplete
	}
	for _, b := range s.Complete {
		assert.True(t, b.IsComplete)
		_, dup := seen[b.ID]
		assert.False(t, dup, "book %d on both shelves", b.ID)
		seen[b.ID] = dom.ShelfComplete
	}
	assert.Len(t, seen, len(books))
	assert.Equal(t, len(books), s.Len())
}

func TestBuildEmptyCollectionHasNonNilShelves(t *testing.T) {
	s := Build(nil, "x")
	assert.NotNil(t, s.Incomplete)
	assert.NotNil(t, s.Complete)
	assert.Zero(t, s.Len())
}

func TestRendererRebuildsOnSignal(t *testing.T) {
	src := staticSource(append([]dom.Book(nil), books[:2]...))
	var renders []Shelves
	r := NewRenderer(&src, SinkFunc(func(s Shelves) { renders = append(renders, s) }))

	sig := notify.New("render-book", 0)
	require.NoError(t, r.Attach(sig))

	sig.Publish()
	require.Len(t, renders, 1)
	assert.Equal(t, []int64{1}, ids(renders[0].Incomplete))
	assert.Equal(t, []int64{2}, ids(renders[0].Complete))

	// the next render reflects the new state only
	src = append(src, books[2])
	sig.Publish()
	require.Len(t, renders, 2)
	assert.Equal(t, []int64{1, 3}, ids(renders[1].Incomplete))

	r.Detach()
	sig.Publish()
	assert.Len(t, renders, 2)
	assert.Zero(t, sig.Len())
}

func TestRendererSetQueryRendersImmediately(t *testing.T) {
	src := staticSource(books)
	var last Shelves
	r := NewRenderer(&src, SinkFunc(func(s Shelves) { last = s }))

	r.SetQuery("neuro")
	assert.Equal(t, "neuro", r.Query())
	assert.Equal(t, []int64{3}, ids(last.Incomplete))
	assert.Empty(t, last.Complete)
}

func TestRendererReattachKeepsOneSubscription(t *testing.T) {
	src := staticSource(books)
	n := 0
	r := NewRenderer(&src, SinkFunc(func(Shelves) { n++ }))
	sig := notify.New("render-book", 0)

	require.NoError(t, r.Attach(sig))
	require.NoError(t, r.Attach(sig))
	assert.Equal(t, 1, sig.Len())

	sig.Publish()
	assert.Equal(t, 1, n)
}

func TestRendererReattachOnFullSignal(t *testing.T) {
	src := staticSource(books)
	n := 0
	r := NewRenderer(&src, SinkFunc(func(Shelves) { n++ }))
	sig := notify.New("render-book", 1)

	require.NoError(t, r.Attach(sig))
	require.NoError(t, r.Attach(sig), "moving onto the same full signal frees its own slot")
	assert.Equal(t, 1, sig.Len())

	sig.Publish()
	assert.Equal(t, 1, n)
}

func TestRendererFailedAttachKeepsPreviousSignal(t *testing.T) {
	src := staticSource(books)
	n := 0
	r := NewRenderer(&src, SinkFunc(func(Shelves) { n++ }))
	home := notify.New("render-book", 1)
	full := notify.New("other", 1)
	_, err := full.Subscribe(func() {})
	require.NoError(t, err)

	require.NoError(t, r.Attach(home))
	err = r.Attach(full)
	assert.ErrorIs(t, err, notify.ErrTooManySubscribers)
	assert.Equal(t, 1, home.Len())
	assert.Equal(t, 1, full.Len())

	home.Publish()
	assert.Equal(t, 1, n)
}
