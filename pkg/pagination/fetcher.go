package pagination

import (
	"context"

	"github.com/rs/zerolog"
)

// Fetcher loads one page of raw items.
// Session parameters (query, sort, owner/repo) are bound by the implementation.
type Fetcher[R any] interface {
	FetchPage(ctx context.Context, req Request) (Result[R], error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[R any] func(ctx context.Context, req Request) (Result[R], error)

// FetchPage implements Fetcher.
func (f FetcherFunc[R]) FetchPage(ctx context.Context, req Request) (Result[R], error) {
	return f(ctx, req)
}

// Transformer maps a raw item to a presentation record.
// An error drops the item; it never fails the page.
type Transformer[R, T any] func(R) (T, error)

// Identity is a Transformer for sessions whose raw items are already records.
func Identity[T any](item T) (T, error) {
	return item, nil
}

// TransformPage applies transform to every item, preserving order and
// dropping items that fail to map. It returns the number of dropped items.
func TransformPage[R, T any](items []R, transform Transformer[R, T], logger zerolog.Logger) ([]T, int) {
	out := make([]T, 0, len(items))
	skipped := 0
	for i, item := range items {
		rec, err := transform(item)
		if err != nil {
			skipped++
			logger.Debug().
				Err(err).
				Int("index", i).
				Msg("Item mapping skipped")
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}
