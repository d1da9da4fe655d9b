package pagination

import (
	"context"
	"encoding/json"
	"iter"
	"sync"
)

// Mapper converts one listing element into a caller's domain value.
// It is invoked exactly once per element, when that element is consumed.
type Mapper[T any] func(element json.RawMessage) (T, error)

// Decode returns a Mapper that JSON-decodes each element into T.
func Decode[T any]() Mapper[T] {
	return func(element json.RawMessage) (T, error) {
		var v T
		err := json.Unmarshal(element, &v)
		return v, err
	}
}

// Raw returns a Mapper that yields elements unchanged.
func Raw() Mapper[json.RawMessage] {
	return func(element json.RawMessage) (json.RawMessage, error) {
		return element, nil
	}
}

// Iterator is the HasNext/Next protocol shared by every lazy sequence in this module.
type Iterator[T any] interface {
	// HasNext reports whether Next will return an element. It may block on a page fetch.
	HasNext(ctx context.Context) (bool, error)

	// Next returns the next element, or ErrEmptySequence when none remains.
	Next(ctx context.Context) (T, error)
}

// Sequence is a one-pass lazy sequence of mapped listing elements.
// HasNext and Next are serialized by a mutex, so a Sequence may be shared
// between goroutines; each element is still delivered to exactly one caller.
type Sequence[T any] struct {
	mu     sync.Mutex
	cursor *Cursor
	mapper Mapper[T]
	err    error
}

// New creates a Sequence over the listing that starts at start.
// Nothing is fetched until the first HasNext or Next.
func New[T any](doer Doer, start Request, mapper Mapper[T]) *Sequence[T] {
	return &Sequence[T]{
		cursor: NewCursor(doer, start),
		mapper: mapper,
	}
}

// HasNext reports whether another element is available.
func (s *Sequence[T]) HasNext(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return false, s.err
	}
	return s.cursor.HasMore(ctx)
}

// Next returns the next element, applying the mapper to it.
// A mapper failure terminates the sequence with a *MalformedPageError.
func (s *Sequence[T]) Next(ctx context.Context) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if s.err != nil {
		return zero, s.err
	}

	element, err := s.cursor.Next(ctx)
	if err != nil {
		return zero, err
	}

	item, err := s.mapper(element)
	if err != nil {
		s.err = &MalformedPageError{URL: s.cursor.source, Reason: "map element", Err: err}
		return zero, s.err
	}

	SequenceElements.Inc()
	return item, nil
}

// State returns the lifecycle state of the underlying cursor.
func (s *Sequence[T]) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return StateFailed
	}
	return s.cursor.State()
}

// Pages returns the number of pages fetched so far.
func (s *Sequence[T]) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor.Pages()
}

// All returns a range-over-func view of the sequence.
func (s *Sequence[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return All[T](ctx, s)
}

// Collect drains the sequence.
func (s *Sequence[T]) Collect(ctx context.Context) ([]T, error) {
	return Collect[T](ctx, s)
}

// All adapts any Iterator to iter.Seq2. Iteration stops after the first error,
// which is yielded with the zero value.
func All[T any](ctx context.Context, it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for {
			more, err := it.HasNext(ctx)
			if err != nil {
				yield(zero, err)
				return
			}
			if !more {
				return
			}

			item, err := it.Next(ctx)
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

// Collect drains an Iterator. On failure it returns the elements consumed
// before the error together with the error.
func Collect[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	var all []T
	for item, err := range All(ctx, it) {
		if err != nil {
			return all, err
		}
		all = append(all, item)
	}
	return all, nil
}

// Listing is the recipe for a paginated listing: where it starts and how its
// elements map to domain values. Each Iterate call walks it from the first page.
type Listing[T any] struct {
	doer   Doer
	start  Request
	mapper Mapper[T]
}

// NewListing creates a Listing.
func NewListing[T any](doer Doer, start Request, mapper Mapper[T]) Listing[T] {
	return Listing[T]{
		doer:   doer,
		start:  start,
		mapper: mapper,
	}
}

// Iterate returns a fresh Sequence positioned before the first page.
func (l Listing[T]) Iterate() *Sequence[T] {
	return New(l.doer, l.start, l.mapper)
}

// Start returns the request for the first page.
func (l Listing[T]) Start() Request {
	return l.start
}
