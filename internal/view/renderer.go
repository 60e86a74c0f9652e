package view

import (
	"sync"

	dom "bookshelf/internal/domain"
	"bookshelf/internal/notify"
)

// Source yields a snapshot of the collection in order.
type Source interface {
	List() []dom.Book
}

// Sink receives every render. Each call replaces whatever the previous one showed.
type Sink interface {
	Replace(Shelves)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Shelves)

func (f SinkFunc) Replace(s Shelves) { f(s) }

// Renderer rebuilds the shelves from Source on every signal and pushes them to Sink.
type Renderer struct {
	src  Source
	sink Sink

	mu    sync.Mutex
	query string

	// attachMu guards the subscription; Render never takes it.
	attachMu sync.Mutex
	sig      *notify.Signal
	cancel   func()
}

func NewRenderer(src Source, sink Sink) *Renderer {
	return &Renderer{src: src, sink: sink}
}

// Attach subscribes the renderer to sig. Attaching again moves the
// subscription; the old one is released first so a full signal can take the
// renderer back. On failure the renderer stays on its previous signal.
func (r *Renderer) Attach(sig *notify.Signal) error {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()

	prevSig := r.sig
	if r.cancel != nil {
		r.cancel()
	}
	r.sig, r.cancel = nil, nil

	cancel, err := sig.Subscribe(r.Render)
	if err != nil {
		if prevSig != nil {
			if c, rerr := prevSig.Subscribe(r.Render); rerr == nil {
				r.sig, r.cancel = prevSig, c
			}
		}
		return err
	}
	r.sig, r.cancel = sig, cancel
	return nil
}

// Detach drops the signal subscription.
func (r *Renderer) Detach() {
	r.attachMu.Lock()
	defer r.attachMu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.sig, r.cancel = nil, nil
}

func (r *Renderer) Query() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}

// SetQuery changes the title filter and renders immediately.
func (r *Renderer) SetQuery(q string) {
	r.mu.Lock()
	r.query = q
	r.mu.Unlock()
	r.Render()
}

// Render builds a fresh Shelves from the current state and hands it to the sink.
func (r *Renderer) Render() {
	r.mu.Lock()
	q := r.query
	r.mu.Unlock()
	r.sink.Replace(Build(r.src.List(), q))
}
