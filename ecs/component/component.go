package component

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	ErrEntityNotAlive       = errors.New("ecs: entity not alive")
	ErrNilComponent         = errors.New("ecs: component is nil")
	ErrInvalidComponentKind = errors.New("ecs: invalid component kind")
)

type ComponentKind[T any] struct {
	id ComponentID
}

func NewComponentKind[T any]() ComponentKind[T] {
	return ComponentKind[T]{id: ComponentID(nextComponentID.Add(1))}
}

func (k ComponentKind[T]) ID() ComponentID {
	return k.id
}

func (k ComponentKind[T]) Valid() bool {
	return k.id != 0
}

// Kind returns k, so kinds and handles can be passed interchangeably.
func (k ComponentKind[T]) Kind() ComponentKind[T] {
	return k
}

type ComponentHandle[T any] struct {
	kind ComponentKind[T]
}

func NewComponent[T any]() ComponentHandle[T] {
	return ComponentHandle[T]{kind: NewComponentKind[T]()}
}

func (h ComponentHandle[T]) Kind() ComponentKind[T] {
	return h.kind
}

func (h ComponentHandle[T]) ID() ComponentID {
	return h.kind.id
}

// Kinded is implemented by ComponentKind and ComponentHandle.
type Kinded[T any] interface {
	Kind() ComponentKind[T]
}

// Identified is any kind or handle, regardless of its component type.
type Identified interface {
	ID() ComponentID
}

type ComponentID uint32

var nextComponentID atomic.Uint32
