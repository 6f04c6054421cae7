package listview

import (
	"context"
	"errors"
	"sync"

	"github.com/Sternrassler/ghlist/pkg/pagination"
	"github.com/Sternrassler/ghlist/pkg/snapshot"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option customizes a List.
type Option[T any] func(*listOptions[T])

type listOptions[T any] struct {
	persist func(context.Context, []T) error
	logger  *zerolog.Logger
}

// WithPersist registers a callback receiving every successfully loaded page 1,
// typically snapshot.Persister so the next session can paint it.
func WithPersist[T any](fn func(context.Context, []T) error) Option[T] {
	return func(o *listOptions[T]) {
		o.persist = fn
	}
}

// WithLogger overrides the list's base logger.
func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(o *listOptions[T]) {
		o.logger = &logger
	}
}

// List binds a paging controller and an optional cache snapshot into an
// observable State. Loads run in the background on the list's own context.
type List[R, T any] struct {
	ctrl    *pagination.Controller[R, T]
	cache   *snapshot.Reconciler[T]
	persist func(context.Context, []T) error
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    State[T]
	inFlight bool
	closed   bool
	subs     []chan State[T]
}

// New creates a list session. cache may be nil for sessions without prior data.
func New[R, T any](parent context.Context, fetcher pagination.Fetcher[R], transform pagination.Transformer[R, T], cfg pagination.Config, cache *snapshot.Reconciler[T], opts ...Option[T]) (*List[R, T], error) {
	var o listOptions[T]
	for _, opt := range opts {
		opt(&o)
	}

	base := log.Logger
	if o.logger != nil {
		base = *o.logger
	}

	records, hasCache := cache.Current()
	ctx, cancel := context.WithCancel(parent)

	l := &List[R, T]{
		cache:   cache,
		persist: o.persist,
		ctx:     ctx,
		cancel:  cancel,
		state:   InitialState(records, hasCache),
	}

	ctrl, err := pagination.NewController(fetcher, transform, cfg,
		pagination.WithLogger(base),
		pagination.WithFirstPageHook(l.dropCache),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	l.ctrl = ctrl
	l.logger = base.With().
		Str("component", "listview").
		Str("feed", cfg.Feed).
		Str("session", ctrl.SessionID()).
		Logger()

	return l, nil
}

// State returns the current state.
func (l *List[R, T]) State() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// CurrentError returns the message of the last failed load, or "".
func (l *List[R, T]) CurrentError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.LastError
}

// FirstPageArrived is closed when the session's first non-empty page 1 loads.
func (l *List[R, T]) FirstPageArrived() <-chan struct{} {
	return l.ctrl.FirstPageArrived()
}

// Updates returns a channel receiving the latest state after every change.
// Slow readers only miss intermediate states. The channel is closed by Close.
func (l *List[R, T]) Updates() <-chan State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()

	ch := make(chan State[T], 1)
	if l.closed {
		ch <- l.state
		close(ch)
		return ch
	}
	ch <- l.state
	l.subs = append(l.subs, ch)
	return ch
}

// RequestNextPage starts loading the next page. It is a no-op, returning
// false, when a load is in flight, the cursor is terminal, or the list is closed.
func (l *List[R, T]) RequestNextPage() bool {
	return l.start(false)
}

// Refresh starts reloading page 1 regardless of the cursor. It is a no-op,
// returning false, only when a load is in flight or the list is closed.
func (l *List[R, T]) Refresh() bool {
	return l.start(true)
}

// Wait blocks until the load in flight, if any, has been applied.
func (l *List[R, T]) Wait() {
	l.wg.Wait()
}

// Close discards the session. Results of a load in flight are ignored.
func (l *List[R, T]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.state = Reduce(l.state, SessionClosed{})
	l.publishLocked()
	for _, ch := range l.subs {
		close(ch)
	}
	l.subs = nil
	l.mu.Unlock()

	l.ctrl.Close()
	l.cancel()
	l.logger.Debug().Msg("List closed")
}

func (l *List[R, T]) start(refresh bool) bool {
	l.mu.Lock()
	if l.closed || l.inFlight {
		l.mu.Unlock()
		return false
	}
	page := 1
	if !refresh {
		if l.state.Cursor.Exhausted() {
			l.mu.Unlock()
			return false
		}
		page = l.state.Cursor.Next
	}
	l.inFlight = true
	l.wg.Add(1)
	l.applyLocked(LoadStarted{Page: page})
	l.mu.Unlock()

	go func() {
		defer l.wg.Done()

		var (
			result pagination.Page[T]
			err    error
		)
		if refresh {
			result, err = l.ctrl.Refresh(l.ctx)
		} else {
			result, err = l.ctrl.Next(l.ctx)
		}
		l.finish(page, result, err)
	}()

	return true
}

// finish applies a load outcome and persists page 1.
func (l *List[R, T]) finish(page int, result pagination.Page[T], err error) {
	l.mu.Lock()
	l.inFlight = false
	if l.closed {
		l.mu.Unlock()
		return
	}

	if err != nil {
		var fe *pagination.FetchError
		switch {
		case errors.As(err, &fe):
			l.applyLocked(LoadFailed{Page: page, Err: fe})
		default:
			// ErrBusy/ErrExhausted/ErrClosed: the controller refused; resync from it.
			snap := l.ctrl.Snapshot()
			l.state.Status = snap.Status
			l.state.Cursor = snap.Cursor
			l.state.Refreshing = false
			l.publishLocked()
			l.logger.Debug().Err(err).Int("page", page).Msg("Load refused by controller")
		}
		l.mu.Unlock()
		return
	}

	l.state = Reduce(l.state, PageLoaded[T]{Page: result.Index, Items: result.Items, Cursor: result.Cursor})
	if result.FirstArrival {
		l.state = Reduce(l.state, CacheCleared{})
	}
	l.publishLocked()
	l.mu.Unlock()

	if result.Index == 1 && l.persist != nil && len(result.Items) > 0 {
		if err := l.persist(l.ctx, result.Items); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to persist first page snapshot")
		}
	}
}

// dropCache runs from the controller's first-page-arrival signal. The state
// side of the drop is applied by finish together with the page itself.
func (l *List[R, T]) dropCache() {
	l.cache.Clear()
}

func (l *List[R, T]) applyLocked(a Action) {
	l.state = Reduce(l.state, a)
	l.publishLocked()
}

// publishLocked delivers the current state to every subscriber, replacing
// any state a subscriber has not read yet.
func (l *List[R, T]) publishLocked() {
	for _, ch := range l.subs {
		select {
		case ch <- l.state:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- l.state:
		default:
		}
	}
}
