// Package form stages create and edit operations before they are sent to a
// store.
package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/marshallshelly/stockdash/pkg/apperr"
)

// SuccessDuration is how long a success message stays visible.
const SuccessDuration = 2000 * time.Millisecond

// ErrNotOpen is returned by Save when neither create nor edit was started.
var ErrNotOpen = errors.New("editor is not open")

// Mode is what the editor is staging.
type Mode int

const (
	ModeClosed Mode = iota
	ModeCreate
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeCreate:
		return "create"
	case ModeEdit:
		return "edit"
	default:
		return "closed"
	}
}

// Hooks connect an Editor to its entity and store.
type Hooks[E, B any] struct {
	// Defaults returns the buffer for a new entity.
	Defaults func() B
	// FromEntity copies the editable fields of e into a buffer.
	FromEntity func(e E) B
	// Key returns the external key passed to Update.
	Key func(e E) string
	// Prepare normalizes the buffer before saving. Errors abort the save.
	Prepare func(mode Mode, b *B) error
	Create  func(ctx context.Context, b B) error
	Update  func(ctx context.Context, key string, b B) error

	CreatedMessage string
	UpdatedMessage string
	// Fallback is shown for failures that carry no message.
	Fallback string
}

// Option configures an Editor.
type Option func(*options)

type options struct {
	after func(d time.Duration, fn func())
}

// WithAfterFunc replaces time.AfterFunc for scheduling the success message
// expiry.
func WithAfterFunc(after func(d time.Duration, fn func())) Option {
	return func(o *options) { o.after = after }
}

// Editor is a transient create/edit buffer.
type Editor[E, B any] struct {
	hooks Hooks[E, B]
	after func(d time.Duration, fn func())

	mu        sync.Mutex
	mode      Mode
	key       string
	buf       B
	errMsg    string
	success   string
	gen       int
	listeners map[int]func()
	nextID    int
}

// NewEditor creates a closed editor.
func NewEditor[E, B any](hooks Hooks[E, B], opts ...Option) *Editor[E, B] {
	o := options{after: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }}
	for _, opt := range opts {
		opt(&o)
	}
	return &Editor[E, B]{hooks: hooks, after: o.after, listeners: make(map[int]func())}
}

// StartCreate opens the editor on a fresh buffer.
func (e *Editor[E, B]) StartCreate() {
	e.mu.Lock()
	e.mode = ModeCreate
	e.key = ""
	e.buf = e.defaults()
	e.clearMessages()
	e.mu.Unlock()
	e.notify()
}

// StartEdit opens the editor on a copy of entity.
func (e *Editor[E, B]) StartEdit(entity E) {
	e.mu.Lock()
	e.mode = ModeEdit
	if e.hooks.Key != nil {
		e.key = e.hooks.Key(entity)
	}
	if e.hooks.FromEntity != nil {
		e.buf = e.hooks.FromEntity(entity)
	} else {
		e.buf = e.defaults()
	}
	e.clearMessages()
	e.mu.Unlock()
	e.notify()
}

// Cancel closes the editor and discards the buffer.
func (e *Editor[E, B]) Cancel() {
	e.mu.Lock()
	e.close()
	e.clearMessages()
	e.mu.Unlock()
	e.notify()
}

// Update edits the buffer in place.
func (e *Editor[E, B]) Update(fn func(b *B)) {
	e.mu.Lock()
	fn(&e.buf)
	e.mu.Unlock()
	e.notify()
}

// Save sends the buffer to the store. On success the editor closes and a
// success message is shown for SuccessDuration. On failure the editor stays
// open with the error message, except when the change was kept locally.
func (e *Editor[E, B]) Save(ctx context.Context) error {
	e.mu.Lock()
	mode, key, buf := e.mode, e.key, e.buf
	e.errMsg = ""
	e.success = ""
	e.gen++
	e.mu.Unlock()

	var err error
	switch {
	case mode == ModeClosed:
		err = ErrNotOpen
	case e.hooks.Prepare != nil:
		err = e.hooks.Prepare(mode, &buf)
	}
	if err == nil {
		switch {
		case mode == ModeCreate && e.hooks.Create != nil:
			err = e.hooks.Create(ctx, buf)
		case mode == ModeEdit && e.hooks.Update != nil:
			err = e.hooks.Update(ctx, key, buf)
		default:
			err = ErrNotOpen
		}
	}

	var local *apperr.LocalFallbackError
	gen := -1
	e.mu.Lock()
	switch {
	case err == nil:
		e.close()
		e.success = e.hooks.CreatedMessage
		if mode == ModeEdit {
			e.success = e.hooks.UpdatedMessage
		}
		gen = e.gen
	case errors.As(err, &local):
		e.close()
		e.errMsg = apperr.Message(err, e.hooks.Fallback)
	default:
		e.buf = buf
		e.errMsg = apperr.Message(err, e.hooks.Fallback)
	}
	e.mu.Unlock()

	if gen >= 0 {
		e.after(SuccessDuration, func() { e.expire(gen) })
	}
	e.notify()
	return err
}

// Buffer returns a copy of the staged values.
func (e *Editor[E, B]) Buffer() B {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buf
}

// Mode returns what the editor is staging.
func (e *Editor[E, B]) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Key returns the key of the entity being edited.
func (e *Editor[E, B]) Key() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.key
}

// Err returns the message of the last failed save.
func (e *Editor[E, B]) Err() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errMsg
}

// Success returns the current success message, if it has not expired.
func (e *Editor[E, B]) Success() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.success
}

// Subscribe registers fn to run after every change and returns a func that
// unregisters it.
func (e *Editor[E, B]) Subscribe(fn func()) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *Editor[E, B]) expire(gen int) {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return
	}
	e.success = ""
	e.mu.Unlock()
	e.notify()
}

func (e *Editor[E, B]) defaults() B {
	if e.hooks.Defaults != nil {
		return e.hooks.Defaults()
	}
	var zero B
	return zero
}

// close and clearMessages expect e.mu to be held.
func (e *Editor[E, B]) close() {
	var zero B
	e.mode = ModeClosed
	e.key = ""
	e.buf = zero
}

func (e *Editor[E, B]) clearMessages() {
	e.errMsg = ""
	e.success = ""
	e.gen++
}

func (e *Editor[E, B]) notify() {
	e.mu.Lock()
	fns := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
