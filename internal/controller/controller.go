// Package controller turns user intents into Record Store calls and drives
// the notice and confirmation collaborators around them.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	dom "bookshelf/internal/domain"
	"bookshelf/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Books is the Record Store as seen by the controller.
type Books interface {
	FindByID(id int64) (dom.Book, bool)
	Add(ctx context.Context, title, author, year string, isComplete bool) (dom.Book, error)
	ToggleComplete(ctx context.Context, id int64) (dom.Book, error)
	Remove(ctx context.Context, id int64) error
	Update(ctx context.Context, id int64, title, author, year string) (dom.Book, error)
}

// Searcher receives the search text.
type Searcher interface {
	SetQuery(q string)
}

// AddInput is the add form.
type AddInput struct {
	Title      string
	Author     string
	Year       string
	IsComplete bool
}

// EditInput changes only the non-nil fields.
type EditInput struct {
	Title  *string
	Author *string
	Year   *string
}

type Option func(*Controller)

// WithDialogTTL sets how long an unanswered dialog stays open.
func WithDialogTTL(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithNoticeDuration sets how long notices stay up.
func WithNoticeDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.noticeFor = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

type pendingDialog struct {
	flow    flow
	expires time.Time
}

type Controller struct {
	books     Books
	search    Searcher
	notices   Notifier
	log       *zap.Logger
	ttl       time.Duration
	noticeFor time.Duration
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingDialog
}

// New wires a controller. search and notices may be nil.
func New(books Books, search Searcher, notices Notifier, log *zap.Logger, opts ...Option) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		books:     books,
		search:    search,
		notices:   notices,
		log:       log,
		ttl:       10 * time.Minute,
		noticeFor: DefaultNoticeDuration,
		now:       time.Now,
		pending:   make(map[string]*pendingDialog),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitAdd adds one book.
func (c *Controller) SubmitAdd(ctx context.Context, in AddInput) (dom.Book, error) {
	b, err := c.books.Add(ctx, in.Title, in.Author, in.Year, in.IsComplete)
	if err != nil {
		return dom.Book{}, c.fail(err)
	}
	c.notify(fmt.Sprintf("%q added to %s", b.Title, ShelfLabel(b)), SeveritySuccess)
	return b, nil
}

// Toggle moves a book to the other shelf.
func (c *Controller) Toggle(ctx context.Context, id int64) (dom.Book, error) {
	b, err := c.books.ToggleComplete(ctx, id)
	if err != nil {
		return dom.Book{}, c.fail(err)
	}
	c.notify(fmt.Sprintf("%q moved to %s", b.Title, ShelfLabel(b)), SeveritySuccess)
	return b, nil
}

// Edit applies a one-shot edit without the wizard.
func (c *Controller) Edit(ctx context.Context, id int64, in EditInput) (dom.Book, error) {
	cur, ok := c.books.FindByID(id)
	if !ok {
		return dom.Book{}, c.fail(service.ErrNotFound)
	}
	title, author, year := cur.Title, cur.Author, fmt.Sprint(cur.Year)
	if in.Title != nil {
		title = *in.Title
	}
	if in.Author != nil {
		author = *in.Author
	}
	if in.Year != nil {
		year = *in.Year
	}
	b, err := c.books.Update(ctx, id, title, author, year)
	if err != nil {
		return dom.Book{}, c.fail(err)
	}
	c.notify(fmt.Sprintf("%q updated", b.Title), SeveritySuccess)
	return b, nil
}

// Search changes the filter and re-renders.
func (c *Controller) Search(q string) {
	if c.search != nil {
		c.search.SetQuery(q)
	}
}

// RequestDelete opens a delete confirmation for id.
func (c *Controller) RequestDelete(id int64) (Dialog, error) {
	b, ok := c.books.FindByID(id)
	if !ok {
		return Dialog{}, service.ErrNotFound
	}
	return c.open(&deleteFlow{c: c, target: b}), nil
}

// RequestEdit opens the title, author, year wizard for id.
func (c *Controller) RequestEdit(id int64) (Dialog, error) {
	b, ok := c.books.FindByID(id)
	if !ok {
		return Dialog{}, service.ErrNotFound
	}
	return c.open(&editFlow{c: c, target: b}), nil
}

// Pending returns the current state of an open dialog.
func (c *Controller) Pending(token string) (Dialog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	p, ok := c.pending[token]
	if !ok {
		return Dialog{}, false
	}
	return dialogOf(token, p.flow), true
}

// Respond answers the current prompt of a dialog. It returns the next prompt,
// or done=true once the dialog has finished, cancelled or failed.
func (c *Controller) Respond(ctx context.Context, token string, ans Answer) (next Dialog, done bool, err error) {
	p, ok := c.take(token)
	if !ok {
		return Dialog{}, false, ErrDialogNotFound
	}
	if !ans.Accept {
		p.flow.cancel()
		return Dialog{}, true, nil
	}
	finished, err := p.flow.accept(ctx, ans.Value)
	if finished {
		return Dialog{}, true, err
	}

	c.mu.Lock()
	p.expires = c.now().Add(c.ttl)
	c.pending[token] = p
	c.mu.Unlock()
	return dialogOf(token, p.flow), false, nil
}

// Cancel closes a dialog as if the user pressed cancel.
func (c *Controller) Cancel(token string) error {
	_, _, err := c.Respond(context.Background(), token, Answer{Accept: false})
	return err
}

// Run drives a dialog to its end through cf, one prompt at a time.
func (c *Controller) Run(ctx context.Context, d Dialog, cf Confirmer) error {
	for {
		value, accepted, err := cf.Confirm(ctx, d.Prompt)
		if err != nil {
			c.discard(d.Token)
			return err
		}
		next, done, err := c.Respond(ctx, d.Token, Answer{Accept: accepted, Value: value})
		if done || err != nil {
			return err
		}
		d = next
	}
}

func (c *Controller) open(f flow) Dialog {
	token := uuid.NewString()
	c.mu.Lock()
	c.pruneLocked()
	c.pending[token] = &pendingDialog{flow: f, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	c.log.Debug("dialog opened", zap.String("kind", f.kind()), zap.Int64("id", f.book().ID))
	return dialogOf(token, f)
}

func (c *Controller) take(token string) (*pendingDialog, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked()
	p, ok := c.pending[token]
	if ok {
		delete(c.pending, token)
	}
	return p, ok
}

func (c *Controller) discard(token string) {
	c.mu.Lock()
	delete(c.pending, token)
	c.mu.Unlock()
}

func (c *Controller) pruneLocked() {
	now := c.now()
	for token, p := range c.pending {
		if !now.Before(p.expires) {
			delete(c.pending, token)
		}
	}
}

func dialogOf(token string, f flow) Dialog {
	cur, total := f.step()
	return Dialog{
		Token:  token,
		Kind:   f.kind(),
		BookID: f.book().ID,
		Step:   cur,
		Steps:  total,
		Prompt: f.prompt(),
	}
}

func (c *Controller) notify(msg string, sev Severity) {
	c.log.Info("notice", zap.String("severity", string(sev)), zap.String("message", msg))
	if c.notices != nil {
		c.notices.Notify(msg, sev, c.noticeFor)
	}
}

// fail reports err to the user where that makes sense and marks it as reported.
// Missing ids stay silent: they never come from what the user typed.
func (c *Controller) fail(err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return err
	case errors.Is(err, service.ErrInvalidYear):
		c.notify("Year must be a number", SeverityError)
	case errors.Is(err, service.ErrInvalidInput):
		c.notify("Title and author are required", SeverityError)
	default:
		c.log.Error("book operation failed", zap.Error(err))
		c.notify("Something went wrong, please try again", SeverityError)
	}
	return &reportedError{err: err}
}

type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already shown to the user as a notice.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// ShelfLabel is the user-facing name of the shelf b sits on.
func ShelfLabel(b dom.Book) string {
	if b.IsComplete {
		return "Finished reading"
	}
	return "Not finished reading"
}
