package domain

// Book is a single shelf entry. ID is assigned once on creation and never changes.
// The JSON names are the persisted storage format.
type Book struct {
	ID         int64  `json:"id" yaml:"id"`
	Title      string `json:"title" yaml:"title"`
	Author     string `json:"author" yaml:"author"`
	Year       int    `json:"year" yaml:"year"`
	IsComplete bool   `json:"isComplete" yaml:"isComplete"`
}

// Shelf names the list a book is rendered on.
func (b Book) Shelf() string {
	if b.IsComplete {
		return ShelfComplete
	}
	return ShelfIncomplete
}

const (
	ShelfIncomplete = "incomplete"
	ShelfComplete   = "complete"
)
