// Package store mirrors server collections on the client. Every store follows
// the same contract: a failed load empties the snapshot, and a successful
// mutation is always followed by a full reload.
package store

import (
	"context"
	"sync"

	"github.com/marshallshelly/stockdash/pkg/apperr"
	"github.com/marshallshelly/stockdash/pkg/config"
	"github.com/marshallshelly/stockdash/pkg/model"
	"github.com/sirupsen/logrus"
)

// Fetcher reads a collection from the backend.
type Fetcher[T, Q any] func(ctx context.Context, q Q) ([]T, error)

// Gate authorizes mutations.
type Gate interface {
	RequireAdmin() error
}

// Reloader is a store that can be refreshed with its last query.
type Reloader interface {
	Reload(ctx context.Context) error
	Loaded() bool
}

// RemoteStore holds the last successfully loaded snapshot of a collection.
type RemoteStore[T, Q any] struct {
	name     string
	fallback string
	fetch    Fetcher[T, Q]
	log      logrus.FieldLogger

	mu        sync.RWMutex
	items     []T
	loading   bool
	loaded    bool
	errMsg    string
	lastQuery Q
	listeners map[int]func()
	nextID    int
}

// NewRemoteStore creates an empty store. fallback is the message shown when a
// failure carries no message of its own.
func NewRemoteStore[T, Q any](name, fallback string, fetch Fetcher[T, Q], log logrus.FieldLogger) *RemoteStore[T, Q] {
	return &RemoteStore[T, Q]{
		name:      name,
		fallback:  fallback,
		fetch:     fetch,
		log:       log,
		listeners: make(map[int]func()),
	}
}

// Load replaces the snapshot with the collection matching q. On failure the
// snapshot is emptied and the error recorded.
func (s *RemoteStore[T, Q]) Load(ctx context.Context, q Q) error {
	s.mu.Lock()
	s.loading = true
	s.lastQuery = q
	s.mu.Unlock()
	s.notify()

	items, err := s.fetch(ctx, q)

	s.mu.Lock()
	s.loading = false
	s.loaded = true
	if err != nil {
		s.items = nil
		s.errMsg = apperr.Message(err, s.fallback)
	} else {
		s.items = items
		s.errMsg = ""
	}
	s.mu.Unlock()

	if err != nil {
		config.LogError(s.log, "store", "Load", s.name, nil, err)
	}
	s.notify()
	return err
}

// Reload repeats the last Load.
func (s *RemoteStore[T, Q]) Reload(ctx context.Context) error {
	s.mu.RLock()
	q := s.lastQuery
	s.mu.RUnlock()
	return s.Load(ctx, q)
}

// Mutate runs op and reloads on success. The snapshot is never patched in
// place. A failed reload after a successful op is reported through Err only.
func (s *RemoteStore[T, Q]) Mutate(ctx context.Context, op func(ctx context.Context) error) error {
	if err := op(ctx); err != nil {
		s.log.WithField("store", s.name).WithError(err).Debug("mutation failed")
		return err
	}
	_ = s.Reload(ctx)
	return nil
}

// Snapshot returns a copy of the current items.
func (s *RemoteStore[T, Q]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items.
func (s *RemoteStore[T, Q]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Loading reports whether a Load is in flight.
func (s *RemoteStore[T, Q]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Loaded reports whether a Load has completed at least once.
func (s *RemoteStore[T, Q]) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Err returns the message of the last failed Load, or "".
func (s *RemoteStore[T, Q]) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Query returns the query of the last Load.
func (s *RemoteStore[T, Q]) Query() Q {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastQuery
}

// Subscribe registers fn to run after every state change and returns a func
// that unregisters it. An unsubscribed fn is never called again.
func (s *RemoteStore[T, Q]) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *RemoteStore[T, Q]) replace(items []T) {
	s.mu.Lock()
	s.items = items
	s.errMsg = ""
	s.mu.Unlock()
	s.notify()
}

func (s *RemoteStore[T, Q]) notify() {
	s.mu.RLock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}

// NoQuery is the query type of collections without filters.
type NoQuery struct{}

// LowStockAPI is the backend surface of LowStockStore.
type LowStockAPI interface {
	LowStockProducts(ctx context.Context) ([]model.Product, error)
}

// LowStockStore holds the server's low-stock list.
type LowStockStore struct {
	*RemoteStore[model.Product, NoQuery]
}

// NewLowStockStore creates a LowStockStore.
func NewLowStockStore(api LowStockAPI, log logrus.FieldLogger) *LowStockStore {
	fetch := func(ctx context.Context, _ NoQuery) ([]model.Product, error) {
		return api.LowStockProducts(ctx)
	}
	return &LowStockStore{NewRemoteStore[model.Product, NoQuery]("low-stock", "Failed to load low stock products", fetch, log)}
}
