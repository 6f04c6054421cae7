package pagination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds controller configuration.
type Config struct {
	// Feed labels logs and metrics (e.g. "notifications").
	Feed string

	// PageSize is the per-page item count sent to the fetcher.
	PageSize int
}

// DefaultConfig returns a configuration for the given feed label.
func DefaultConfig(feed string) Config {
	return Config{
		Feed:     feed,
		PageSize: DefaultPageSize,
	}
}

// Option customizes a Controller.
type Option func(*options)

type options struct {
	hooks  []func()
	logger *zerolog.Logger
}

// WithFirstPageHook registers fn to run once when the first non-empty page 1 arrives.
// Hooks run synchronously on the loading goroutine, outside the controller lock.
func WithFirstPageHook(fn func()) Option {
	return func(o *options) {
		if fn != nil {
			o.hooks = append(o.hooks, fn)
		}
	}
}

// WithLogger overrides the controller's base logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// Snapshot is a consistent read of the controller state.
type Snapshot[T any] struct {
	Status Status
	// Page is the page in flight while loading, otherwise the last attempted page.
	Page   int
	Cursor Cursor
	Items  []T
	Err    *FetchError
}

// Controller drives one forward-only paging session.
//
// At most one fetch is in flight at a time: Next and Refresh return ErrBusy
// instead of queueing. Page results are therefore applied in request order.
type Controller[R, T any] struct {
	fetcher   Fetcher[R]
	transform Transformer[R, T]
	config    Config
	logger    zerolog.Logger
	hooks     []func()
	sessionID string

	mu        sync.Mutex
	status    Status
	page      int
	cursor    Cursor
	items     []T
	lastErr   *FetchError
	closed    bool
	firstPage chan struct{}
}

// NewController creates a paging session over fetcher.
func NewController[R, T any](fetcher Fetcher[R], transform Transformer[R, T], cfg Config, opts ...Option) (*Controller[R, T], error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if transform == nil {
		return nil, fmt.Errorf("transformer is required")
	}
	if cfg.Feed == "" {
		return nil, fmt.Errorf("feed label is required")
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	base := log.Logger
	if o.logger != nil {
		base = *o.logger
	}
	sessionID := uuid.NewString()

	return &Controller[R, T]{
		fetcher:   fetcher,
		transform: transform,
		config:    cfg,
		logger: base.With().
			Str("component", "pagination").
			Str("feed", cfg.Feed).
			Str("session", sessionID).
			Logger(),
		hooks:     o.hooks,
		sessionID: sessionID,
		status:    StatusIdle,
		cursor:    initialCursor(),
		firstPage: make(chan struct{}),
	}, nil
}

// Feed returns the feed label.
func (c *Controller[R, T]) Feed() string {
	return c.config.Feed
}

// SessionID returns the unique ID of this paging session.
func (c *Controller[R, T]) SessionID() string {
	return c.sessionID
}

// Next loads the page after the last successful one.
// Returns ErrExhausted without fetching once the cursor is terminal.
func (c *Controller[R, T]) Next(ctx context.Context) (Page[T], error) {
	c.mu.Lock()
	if err := c.checkIdleLocked(); err != nil {
		c.mu.Unlock()
		return Page[T]{}, err
	}
	if c.cursor.Exhausted() {
		c.mu.Unlock()
		RejectedLoads.WithLabelValues(c.config.Feed, "exhausted").Inc()
		return Page[T]{}, ErrExhausted
	}
	page := c.cursor.Next
	c.beginLocked(page)
	c.mu.Unlock()

	return c.load(ctx, page)
}

// Refresh reloads page 1 regardless of the cursor. On success the cursor
// restarts from page 2 and accumulated items are replaced.
func (c *Controller[R, T]) Refresh(ctx context.Context) (Page[T], error) {
	c.mu.Lock()
	if err := c.checkIdleLocked(); err != nil {
		c.mu.Unlock()
		return Page[T]{}, err
	}
	c.beginLocked(1)
	c.mu.Unlock()

	return c.load(ctx, 1)
}

// checkIdleLocked rejects loads on closed or busy sessions.
func (c *Controller[R, T]) checkIdleLocked() error {
	if c.closed {
		RejectedLoads.WithLabelValues(c.config.Feed, "closed").Inc()
		return ErrClosed
	}
	if c.status == StatusLoading {
		RejectedLoads.WithLabelValues(c.config.Feed, "busy").Inc()
		c.logger.Debug().Int("page", c.page).Msg("Load rejected, page already in flight")
		return ErrBusy
	}
	return nil
}

func (c *Controller[R, T]) beginLocked(page int) {
	c.status = StatusLoading
	c.page = page
}

// load performs the fetch outside the lock and applies the outcome.
func (c *Controller[R, T]) load(ctx context.Context, page int) (Page[T], error) {
	start := time.Now()
	req := Request{Page: page, PerPage: c.config.PageSize}

	c.logger.Debug().Int("page", page).Int("per_page", req.PerPage).Msg("Loading page")

	result, err := c.fetcher.FetchPage(ctx, req)
	PageLoadDuration.WithLabelValues(c.config.Feed).Observe(time.Since(start).Seconds())
	if err != nil {
		return Page[T]{}, c.fail(page, AsFetchError(err))
	}

	records, skipped := TransformPage(result.Items, c.transform, c.logger)
	if skipped > 0 {
		MappingSkipped.WithLabelValues(c.config.Feed).Add(float64(skipped))
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		PageLoads.WithLabelValues(c.config.Feed, "discarded").Inc()
		c.logger.Debug().Int("page", page).Msg("Discarding page for closed session")
		return Page[T]{}, ErrClosed
	}

	c.cursor.LastRequested = page
	c.cursor.Next = nextAfter(page, result.TotalPages, len(result.Items))
	if page == 1 {
		c.items = records
	} else {
		c.items = append(c.items, records...)
	}

	fired := false
	if page == 1 && len(records) > 0 && !c.cursor.FirstPageArrived {
		c.cursor.FirstPageArrived = true
		close(c.firstPage)
		fired = true
	}

	c.status = StatusLoaded
	c.lastErr = nil
	out := Page[T]{
		Index:        page,
		Items:        records,
		Cursor:       c.cursor,
		FirstArrival: fired,
	}
	c.mu.Unlock()

	PageLoads.WithLabelValues(c.config.Feed, "loaded").Inc()
	c.logger.Debug().
		Int("page", page).
		Int("next_page", out.Cursor.Next).
		Int("total_pages", result.TotalPages).
		Int("items", len(records)).
		Int("skipped", skipped).
		Dur("duration", time.Since(start)).
		Msg("Page loaded")

	if fired {
		FirstPageArrivals.WithLabelValues(c.config.Feed).Inc()
		for _, hook := range c.hooks {
			hook()
		}
	}

	return out, nil
}

// fail records a failed attempt. The cursor's next page is left untouched so
// the same page can be requested again.
func (c *Controller[R, T]) fail(page int, fe *FetchError) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		PageLoads.WithLabelValues(c.config.Feed, "discarded").Inc()
		return ErrClosed
	}
	c.cursor.LastRequested = page
	c.status = StatusFailed
	c.lastErr = fe
	c.mu.Unlock()

	PageLoads.WithLabelValues(c.config.Feed, string(fe.Kind)).Inc()
	c.logger.Warn().
		Err(fe).
		Int("page", page).
		Str("error_kind", string(fe.Kind)).
		Int("status", fe.StatusCode).
		Msg("Page load failed")

	return fe
}

// Cursor returns the current cursor.
func (c *Controller[R, T]) Cursor() Cursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Status returns the current state and the page it refers to.
func (c *Controller[R, T]) Status() (Status, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status, c.page
}

// Items returns a copy of the accumulated records.
func (c *Controller[R, T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// LastError returns the error of the last failed load, or nil after a success.
func (c *Controller[R, T]) LastError() *FetchError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Snapshot returns status, cursor, items and error read under one lock.
func (c *Controller[R, T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot[T]{
		Status: c.status,
		Page:   c.page,
		Cursor: c.cursor,
		Items:  append([]T(nil), c.items...),
		Err:    c.lastErr,
	}
}

// FirstPageArrived is closed when the first non-empty page 1 loads.
func (c *Controller[R, T]) FirstPageArrived() <-chan struct{} {
	return c.firstPage
}

// Close discards the session. A fetch still in flight completes, but its
// result is dropped. Close is idempotent.
func (c *Controller[R, T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.logger.Debug().Msg("Paging session closed")
}
