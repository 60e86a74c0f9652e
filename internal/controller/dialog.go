package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	dom "bookshelf/internal/domain"
	"bookshelf/internal/service"
	"bookshelf/internal/utils"
)

const (
	KindDelete = "delete"
	KindEdit   = "edit"
)

// Dialog is a pending confirmation as shown to the user: the current prompt
// of a delete confirmation or of the edit wizard.
type Dialog struct {
	Token  string `json:"token"`
	Kind   string `json:"kind"`
	BookID int64  `json:"bookId"`
	Step   int    `json:"step"`
	Steps  int    `json:"steps"`
	Prompt Prompt `json:"prompt"`
}

// Answer resolves the current prompt of a Dialog.
type Answer struct {
	Accept bool   `json:"accept"`
	Value  string `json:"value"`
}

// flow is the state machine behind a Dialog. accept consumes the answer to
// the current prompt and reports whether the flow is finished; cancel ends it
// without touching the collection.
type flow interface {
	kind() string
	book() dom.Book
	step() (cur, total int)
	prompt() Prompt
	accept(ctx context.Context, value string) (done bool, err error)
	cancel()
}

type deleteFlow struct {
	c      *Controller
	target dom.Book
}

func (f *deleteFlow) kind() string { return KindDelete }
func (f *deleteFlow) book() dom.Book { return f.target }
func (f *deleteFlow) step() (int, int) { return 1, 1 }
func (f *deleteFlow) cancel() {}

func (f *deleteFlow) prompt() Prompt {
	return Prompt{
		Title:        "Delete book",
		Message:      fmt.Sprintf("Are you sure you want to delete %q?", f.target.Title),
		ConfirmLabel: "Yes, delete",
		CancelLabel:  "Cancel",
		Icon:         "!",
	}
}

func (f *deleteFlow) accept(ctx context.Context, _ string) (bool, error) {
	if err := f.c.books.Remove(ctx, f.target.ID); err != nil {
		return true, f.c.fail(err)
	}
	f.c.notify(fmt.Sprintf("%q removed", f.target.Title), SeveritySuccess)
	return true, nil
}

type editField int

const (
	editTitle editField = iota
	editAuthor
	editYear
	editSteps
)

// editFlow asks for title, then author, then year. An empty or cancelled
// step abandons the whole edit; the collection changes only after the year
// step, with a single Update.
type editFlow struct {
	c      *Controller
	target dom.Book
	cur    editField
	values [editSteps]string
}

func (f *editFlow) kind() string { return KindEdit }
func (f *editFlow) book() dom.Book { return f.target }
func (f *editFlow) step() (int, int) { return int(f.cur) + 1, int(editSteps) }

func (f *editFlow) prompt() Prompt {
	p := Prompt{
		Title:        "Edit book",
		ConfirmLabel: "Next",
		CancelLabel:  "Cancel",
		Icon:         "✎",
	}
	switch f.cur {
	case editTitle:
		p.Message = "Edit title:"
		p.Input = &TextInput{Placeholder: "Title", Value: f.target.Title}
	case editAuthor:
		p.Message = "Edit author:"
		p.Input = &TextInput{Placeholder: "Author", Value: f.target.Author}
	default:
		p.Message = "Edit year:"
		p.Input = &TextInput{Placeholder: "Year", Value: strconv.Itoa(f.target.Year)}
		p.ConfirmLabel = "Save"
	}
	return p
}

func (f *editFlow) accept(ctx context.Context, value string) (bool, error) {
	if strings.TrimSpace(value) == "" {
		f.cancel()
		return true, nil
	}
	f.values[f.cur] = value
	if f.cur < editYear {
		f.cur++
		return false, nil
	}
	if _, err := utils.ParseYear(value); err != nil {
		return true, f.c.fail(fmt.Errorf("%w: %v", service.ErrInvalidYear, err))
	}
	b, err := f.c.books.Update(ctx, f.target.ID, f.values[editTitle], f.values[editAuthor], f.values[editYear])
	if err != nil {
		return true, f.c.fail(err)
	}
	f.c.notify(fmt.Sprintf("%q updated", b.Title), SeveritySuccess)
	return true, nil
}

func (f *editFlow) cancel() {
	f.c.notify("Edit cancelled, nothing was changed", SeverityInfo)
}

// ErrDialogNotFound is returned for unknown, finished or expired dialog tokens.
var ErrDialogNotFound = errors.New("dialog not found")
