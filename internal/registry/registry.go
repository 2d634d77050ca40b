// Package registry holds named values in a concurrent map with an optional
// fallback for names that were never registered.
package registry

import "github.com/alphadose/haxmap"

// Registry maps names to values.
type Registry[T any] interface {
	Add(name string, value T)
	// Lookup returns the value registered under name, or the fallback when
	// there is none. ok is false only when neither exists.
	Lookup(name string) (value T, ok bool)
}

type registry[T any] struct {
	values   *haxmap.Map[string, T]
	fallback string
}

// New creates an empty registry without a fallback.
func New[T any]() Registry[T] {
	return &registry[T]{
		values: haxmap.New[string, T](),
	}
}

// WithFallback creates an empty registry that resolves unknown names to the
// value registered under fallback.
func WithFallback[T any](fallback string) Registry[T] {
	return &registry[T]{
		values:   haxmap.New[string, T](),
		fallback: fallback,
	}
}

func (r *registry[T]) Add(name string, value T) {
	r.values.Set(name, value)
}

func (r *registry[T]) Lookup(name string) (T, bool) {
	if v, ok := r.values.Get(name); ok {
		return v, true
	}
	if r.fallback != "" {
		return r.values.Get(r.fallback)
	}
	var zero T
	return zero, false
}
