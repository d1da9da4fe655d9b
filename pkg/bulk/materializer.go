package bulk

import (
	"context"
	"encoding/json"
	"iter"

	"github.com/jcabi/jcabi-github-sub002/pkg/pagination"
)

// Readable is the capability the materializer intercepts: reading a resource's own JSON.
type Readable interface {
	JSON(ctx context.Context) (json.RawMessage, error)
}

// Captured is JSON taken from a listing page. Reading it never touches the network.
type Captured json.RawMessage

// JSON returns a copy of the captured value; callers may modify it freely.
func (c Captured) JSON(ctx context.Context) (json.RawMessage, error) {
	CapturedReads.Inc()
	if c == nil {
		return nil, nil
	}
	return append(json.RawMessage(nil), c...), nil
}

// Pair is a mapped listing item together with the element it was built from.
type Pair[T any] struct {
	Item   T
	Source json.RawMessage
}

// Pairs lifts a mapper so that each mapped item keeps its source element.
func Pairs[T any](mapper pagination.Mapper[T]) pagination.Mapper[Pair[T]] {
	return func(element json.RawMessage) (Pair[T], error) {
		item, err := mapper(element)
		if err != nil {
			return Pair[T]{}, err
		}
		return Pair[T]{Item: item, Source: element}, nil
	}
}

// Wrapper builds a substitute for origin whose JSON method is served by captured.
// Every other capability of origin must be delegated unchanged.
type Wrapper[T any] func(origin T, captured Captured) T

// Item is a generic materialized value for callers without a domain wrapper.
// It answers JSON from the listing and exposes the original through Origin.
type Item[T any] struct {
	Origin   T
	captured Captured
}

// NewItem creates an Item.
func NewItem[T any](origin T, captured Captured) *Item[T] {
	return &Item[T]{Origin: origin, captured: captured}
}

// JSON returns the captured listing JSON.
func (i *Item[T]) JSON(ctx context.Context) (json.RawMessage, error) {
	return i.captured.JSON(ctx)
}

// Sequence yields materialized items. It fetches nothing itself: pages are
// pulled by the underlying pair iterator, and each item is wrapped when it is
// consumed.
type Sequence[T any] struct {
	pairs pagination.Iterator[Pair[T]]
	wrap  Wrapper[T]
}

// New wraps an iterator of pairs.
func New[T any](pairs pagination.Iterator[Pair[T]], wrap Wrapper[T]) *Sequence[T] {
	return &Sequence[T]{
		pairs: pairs,
		wrap:  wrap,
	}
}

// Listing builds a materialized Sequence over a paginated listing.
func Listing[T any](doer pagination.Doer, start pagination.Request, mapper pagination.Mapper[T], wrap Wrapper[T]) *Sequence[T] {
	return New[T](pagination.New(doer, start, Pairs(mapper)), wrap)
}

// HasNext reports whether another item is available.
func (s *Sequence[T]) HasNext(ctx context.Context) (bool, error) {
	return s.pairs.HasNext(ctx)
}

// Next returns the next item with its JSON read short-circuited.
func (s *Sequence[T]) Next(ctx context.Context) (T, error) {
	pair, err := s.pairs.Next(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	MaterializedItems.Inc()
	return s.wrap(pair.Item, Captured(pair.Source)), nil
}

// Items materializes pairs into generic Items, for callers without a domain wrapper.
func Items[T any](pairs pagination.Iterator[Pair[T]]) *Sequence[*Item[T]] {
	return New[*Item[T]](itemPairs[T]{pairs: pairs}, func(origin *Item[T], captured Captured) *Item[T] {
		return NewItem(origin.Origin, captured)
	})
}

// ListingItems builds a Sequence of generic Items over a paginated listing.
func ListingItems[T any](doer pagination.Doer, start pagination.Request, mapper pagination.Mapper[T]) *Sequence[*Item[T]] {
	return Items[T](pagination.New(doer, start, Pairs(mapper)))
}

// itemPairs lifts each pair's item into an Item so Sequence can wrap it.
type itemPairs[T any] struct {
	pairs pagination.Iterator[Pair[T]]
}

func (p itemPairs[T]) HasNext(ctx context.Context) (bool, error) {
	return p.pairs.HasNext(ctx)
}

func (p itemPairs[T]) Next(ctx context.Context) (Pair[*Item[T]], error) {
	pair, err := p.pairs.Next(ctx)
	if err != nil {
		return Pair[*Item[T]]{}, err
	}
	return Pair[*Item[T]]{Item: &Item[T]{Origin: pair.Item}, Source: pair.Source}, nil
}

// All returns a range-over-func view of the sequence.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return pagination.All[T](ctx, s)
}

// Collect drains the sequence.
func (s *Sequence[T]) Collect(ctx context.Context) ([]T, error) {
	return pagination.Collect[T](ctx, s)
}
