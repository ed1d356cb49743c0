// Package listquery drives the filter/sort/paginate cycle of list views.
//
// Every change to the query moves the machine to Loading and issues a fetch.
// The fetch result moves it to Loaded, or to Failed with the previous items
// discarded. Fetches run in their own goroutines, so a burst of changes can
// have several requests in flight. By default responses are applied in the
// order they arrive and the last one to resolve wins, even when it answers an
// older query. WithSequencing drops superseded responses and cancels their
// requests instead. A latest request that fails, cancellation included,
// always ends in Failed.
package listquery

import (
	"context"
	"sync"

	"github.com/binhbb2204/bookhub/pkg/logger"
	"github.com/binhbb2204/bookhub/pkg/models"
)

type State int

const (
	Idle State = iota
	Loading
	Loaded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return "unknown"
	}
}

type Page[T any] struct {
	Items      []T
	Pagination models.PaginationMeta
}

// Fetcher loads one page for a query.
type Fetcher[T any] func(ctx context.Context, q Query) (Page[T], error)

type Snapshot[T any] struct {
	State      State
	Query      Query
	Items      []T
	Pagination models.PaginationMeta
	Err        error
}

type Machine[T any] struct {
	fetch     Fetcher[T]
	sequenced bool
	observer  func(Snapshot[T])
	log       *logger.Logger

	mu         sync.Mutex
	query      Query
	state      State
	items      []T
	pagination models.PaginationMeta
	err        error
	seq        uint64
	cancel     context.CancelFunc

	wg sync.WaitGroup
}

type Option[T any] func(*Machine[T])

// WithSequencing applies only the response to the most recent request.
func WithSequencing[T any]() Option[T] {
	return func(m *Machine[T]) { m.sequenced = true }
}

func WithQuery[T any](q Query) Option[T] {
	return func(m *Machine[T]) { m.query = q }
}

// WithObserver is called, outside the lock, after every state change.
func WithObserver[T any](fn func(Snapshot[T])) Option[T] {
	return func(m *Machine[T]) { m.observer = fn }
}

func WithLogger[T any](l *logger.Logger) Option[T] {
	return func(m *Machine[T]) { m.log = l }
}

func New[T any](fetch Fetcher[T], opts ...Option[T]) *Machine[T] {
	m := &Machine[T]{
		fetch: fetch,
		query: DefaultQuery(),
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine[T]) Snapshot() Snapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(m.items))
	copy(items, m.items)
	return Snapshot[T]{
		State:      m.state,
		Query:      m.query,
		Items:      items,
		Pagination: m.pagination,
		Err:        m.err,
	}
}

func (m *Machine[T]) Query() Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// Wait blocks until every fetch issued so far has resolved.
func (m *Machine[T]) Wait() {
	m.wg.Wait()
}

func (m *Machine[T]) Refresh(ctx context.Context) {
	m.update(ctx, func(q *Query) {})
}

// Apply replaces the whole query.
func (m *Machine[T]) Apply(ctx context.Context, q Query) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	m.update(ctx, func(cur *Query) { *cur = q })
}

func (m *Machine[T]) SetSearch(ctx context.Context, term string) {
	m.update(ctx, func(q *Query) { q.SearchTerm = term; q.Page = 1 })
}

func (m *Machine[T]) SetGenre(ctx context.Context, genre string) {
	m.update(ctx, func(q *Query) { q.GenreFilter = genre; q.Page = 1 })
}

func (m *Machine[T]) SetMinRating(ctx context.Context, rating int) {
	m.update(ctx, func(q *Query) { q.MinRating = rating; q.Page = 1 })
}

func (m *Machine[T]) SetSort(ctx context.Context, field, direction string) {
	m.update(ctx, func(q *Query) { q.SortField = field; q.SortDirection = direction; q.Page = 1 })
}

func (m *Machine[T]) SetPage(ctx context.Context, page int) {
	if page < 1 {
		page = 1
	}
	m.update(ctx, func(q *Query) { q.Page = page })
}

func (m *Machine[T]) SetPageSize(ctx context.Context, size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	m.update(ctx, func(q *Query) { q.PageSize = size; q.Page = 1 })
}

// NextPage is a no-op when the loaded page reports no next page.
func (m *Machine[T]) NextPage(ctx context.Context) bool {
	m.mu.Lock()
	hasNext := m.pagination.HasNext
	page := m.query.Page
	m.mu.Unlock()
	if !hasNext {
		return false
	}
	m.SetPage(ctx, page+1)
	return true
}

func (m *Machine[T]) PrevPage(ctx context.Context) bool {
	m.mu.Lock()
	page := m.query.Page
	m.mu.Unlock()
	if page <= 1 {
		return false
	}
	m.SetPage(ctx, page-1)
	return true
}

// ClearFilters restores the default query, keeping the page size.
func (m *Machine[T]) ClearFilters(ctx context.Context) {
	m.update(ctx, func(q *Query) {
		size := q.PageSize
		*q = DefaultQuery()
		q.PageSize = size
	})
}

// Patch rewrites the loaded items in place without fetching, for mirroring a
// local edit into the visible page.
func (m *Machine[T]) Patch(fn func(items []T) []T) {
	m.mu.Lock()
	m.items = fn(m.items)
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

func (m *Machine[T]) update(ctx context.Context, mutate func(*Query)) {
	m.mu.Lock()
	mutate(&m.query)
	m.seq++
	token := m.seq
	q := m.query

	fetchCtx := ctx
	cancel := context.CancelFunc(func() {})
	if m.sequenced {
		if m.cancel != nil {
			m.cancel()
		}
		fetchCtx, cancel = context.WithCancel(ctx)
		m.cancel = cancel
	}
	m.state = Loading
	m.err = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		page, err := m.fetch(fetchCtx, q)
		m.resolve(token, q, page, err)
		cancel()
	}()
}

func (m *Machine[T]) resolve(token uint64, q Query, page Page[T], err error) {
	m.mu.Lock()
	if m.sequenced && token != m.seq {
		m.mu.Unlock()
		m.log.Debug("stale_list_response_dropped", "token", token)
		return
	}
	if err != nil {
		m.state = Failed
		m.err = err
		m.items = nil
		m.pagination = models.PaginationMeta{}
		m.log.Warn("list_fetch_failed", "page", q.Page, "error", err.Error())
	} else {
		m.state = Loaded
		m.err = nil
		m.items = page.Items
		m.pagination = page.Pagination
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

func (m *Machine[T]) notify(s Snapshot[T]) {
	if m.observer != nil {
		m.observer(s)
	}
}
