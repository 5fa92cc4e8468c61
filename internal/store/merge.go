package store

import "context"

// Stream is a pull-based sequence. Cursor satisfies Stream[uint64].
type Stream[T any] interface {
	Next(ctx context.Context) (T, bool, error)
}

// Merge lazily combines two streams that are each already ordered by less
// into one ordered stream. It peeks one element per side and emits the
// smaller, so the inputs may be unbounded.
func Merge[T any](a, b Stream[T], less func(T, T) bool) Stream[T] {
	return &mergeStream[T]{a: peeking[T]{src: a}, b: peeking[T]{src: b}, less: less}
}

type peeking[T any] struct {
	src    Stream[T]
	val    T
	have   bool
	primed bool
}

func (p *peeking[T]) peek(ctx context.Context) (T, bool, error) {
	if !p.primed {
		v, ok, err := p.src.Next(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		p.val, p.have, p.primed = v, ok, true
	}
	return p.val, p.have, nil
}

func (p *peeking[T]) pop() T {
	p.primed = false
	return p.val
}

type mergeStream[T any] struct {
	a, b peeking[T]
	less func(T, T) bool
}

func (m *mergeStream[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	av, aok, err := m.a.peek(ctx)
	if err != nil {
		return zero, false, err
	}
	bv, bok, err := m.b.peek(ctx)
	if err != nil {
		return zero, false, err
	}
	switch {
	case !aok && !bok:
		return zero, false, nil
	case aok && !bok:
		return m.a.pop(), true, nil
	case !aok && bok:
		return m.b.pop(), true, nil
	case m.less(av, bv):
		return m.a.pop(), true, nil
	default:
		return m.b.pop(), true, nil
	}
}
