package domain

import "fmt"

// OptState describes whether a record attribute was produced and resolved.
type OptState uint8

const (
	// Absent means no extraction strategy produced the attribute.
	Absent OptState = iota
	// Null means a strategy produced the attribute but could not resolve a value.
	Null
	// Present means the attribute carries a value.
	Present
)

func (s OptState) String() string {
	switch s {
	case Null:
		return "null"
	case Present:
		return "present"
	default:
		return "absent"
	}
}

// Opt is an optional record attribute.
type Opt[T any] struct {
	value T
	state OptState
}

// Some returns a present attribute.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, state: Present}
}

// None returns an attribute that was produced without a value.
func None[T any]() Opt[T] {
	return Opt[T]{state: Null}
}

// FromPtr returns Some(*v), or None when v is nil.
func FromPtr[T any](v *T) Opt[T] {
	if v == nil {
		return None[T]()
	}
	return Some(*v)
}

func (o Opt[T]) Get() (T, bool) {
	return o.value, o.state == Present
}

// OrZero returns the value or the zero value of T.
func (o Opt[T]) OrZero() T {
	return o.value
}

func (o Opt[T]) State() OptState { return o.state }

func (o Opt[T]) IsPresent() bool { return o.state == Present }

// Missing reports whether the attribute is absent or null.
func (o Opt[T]) Missing() bool { return o.state != Present }

// Interface returns the value as any, nil unless present.
func (o Opt[T]) Interface() any {
	if o.state != Present {
		return nil
	}
	return o.value
}

func (o Opt[T]) String() string {
	if o.state != Present {
		return o.state.String()
	}
	return fmt.Sprint(o.value)
}

// optional is satisfied by every Opt instantiation.
type optional interface {
	State() OptState
	Interface() any
}
