package ecs

import "github.com/milk9111/charcontrol/ecs/component"

func typedStore[T any](w *World, kind component.ComponentKind[T], create bool) (*sparseSet[T], bool) {
	if s, ok := w.stores[kind.ID()]; ok {
		typed, ok := s.(*sparseSet[T])
		return typed, ok
	}
	if !create {
		return nil, false
	}
	s := newSparseSet[T]()
	w.stores[kind.ID()] = s
	return s, true
}

// Add attaches value to e, replacing any component of the same kind.
func Add[T any](w *World, e Entity, kind component.Kinded[T], value *T) error {
	k := kind.Kind()
	if !k.Valid() {
		return component.ErrInvalidComponentKind
	}
	if value == nil {
		return component.ErrNilComponent
	}
	if !IsAlive(w, e) {
		return component.ErrEntityNotAlive
	}
	s, ok := typedStore(w, k, true)
	if !ok {
		return component.ErrInvalidComponentKind
	}
	s.set(e.id(), value)
	return nil
}

// Remove detaches the component of kind from e. It reports whether there was
// one.
func Remove[T any](w *World, e Entity, kind component.Kinded[T]) bool {
	if !IsAlive(w, e) {
		return false
	}
	s, ok := typedStore(w, kind.Kind(), false)
	if !ok {
		return false
	}
	return s.remove(e.id())
}

func Has[T any](w *World, e Entity, kind component.Kinded[T]) bool {
	_, ok := Get(w, e, kind)
	return ok
}

// Get returns the stored component pointer. Mutations through it are visible
// to every later reader.
func Get[T any](w *World, e Entity, kind component.Kinded[T]) (*T, bool) {
	if !IsAlive(w, e) {
		return nil, false
	}
	s, ok := typedStore(w, kind.Kind(), false)
	if !ok {
		return nil, false
	}
	return s.get(e.id())
}

// First returns the lowest live entity carrying kind.
func First[T any](w *World, kind component.Kinded[T]) (Entity, bool) {
	s, ok := typedStore(w, kind.Kind(), false)
	if !ok || s.len() == 0 {
		return 0, false
	}
	ents := w.sorted(s.ids())
	if len(ents) == 0 {
		return 0, false
	}
	return ents[0], true
}

// ForEach visits every entity carrying kind in ascending entity order.
func ForEach[T any](w *World, kind component.Kinded[T], fn func(Entity, *T)) {
	s, ok := typedStore(w, kind.Kind(), false)
	if !ok {
		return
	}
	for _, e := range w.sorted(s.ids()) {
		if v, ok := s.get(e.id()); ok {
			fn(e, v)
		}
	}
}

func ForEach2[A, B any](w *World, ka component.Kinded[A], kb component.Kinded[B], fn func(Entity, *A, *B)) {
	ForEach(w, ka, func(e Entity, a *A) {
		if b, ok := Get(w, e, kb); ok {
			fn(e, a, b)
		}
	})
}

func ForEach3[A, B, C any](w *World, ka component.Kinded[A], kb component.Kinded[B], kc component.Kinded[C], fn func(Entity, *A, *B, *C)) {
	ForEach2(w, ka, kb, func(e Entity, a *A, b *B) {
		if c, ok := Get(w, e, kc); ok {
			fn(e, a, b, c)
		}
	})
}

func ForEach4[A, B, C, D any](w *World, ka component.Kinded[A], kb component.Kinded[B], kc component.Kinded[C], kd component.Kinded[D], fn func(Entity, *A, *B, *C, *D)) {
	ForEach3(w, ka, kb, kc, func(e Entity, a *A, b *B, c *C) {
		if d, ok := Get(w, e, kd); ok {
			fn(e, a, b, c, d)
		}
	})
}
