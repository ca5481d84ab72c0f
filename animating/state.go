// Package animating turns a per-tick stream of state values into discrete
// transition events, so animations and sounds restart only when the kind of
// state actually changes.
package animating

// DirectiveKind tells the caller what to do with the state it just fed in.
type DirectiveKind uint8

const (
	// Maintain means the state kind did not change. The payload may have.
	Maintain DirectiveKind = iota
	// Alter means the state kind changed, or this is the first state seen.
	Alter
)

func (k DirectiveKind) String() string {
	switch k {
	case Maintain:
		return "maintain"
	case Alter:
		return "alter"
	default:
		return "unknown"
	}
}

// Directive is the result of one advance. Old is only meaningful when HasOld
// is true, which happens on every Alter except the first.
type Directive[S any] struct {
	Kind   DirectiveKind
	State  S
	Old    S
	HasOld bool
}

// Altered is shorthand for Kind == Alter.
func (d Directive[S]) Altered() bool {
	return d.Kind == Alter
}

// State tracks the last state value seen. Create one with New or
// NewComparable; a zero State is unset and treats S itself as the
// discriminant, which panics unless S and D are the same type.
type State[S any, D comparable] struct {
	discriminant func(S) D

	set     bool
	key     D
	current S
}

// New returns an unset tracker that compares states by discriminant.
func New[S any, D comparable](discriminant func(S) D) *State[S, D] {
	return &State[S, D]{discriminant: discriminant}
}

// NewComparable returns an unset tracker whose discriminant is the whole value.
func NewComparable[S comparable]() *State[S, S] {
	return New(func(s S) S { return s })
}

// ByDiscriminant advances the tracker with s. Only the discriminant decides
// between Maintain and Alter; the stored payload is always replaced by s.
func (st *State[S, D]) ByDiscriminant(s S) Directive[S] {
	key := st.discriminantOf(s)
	if st.set && st.key == key {
		st.current = s
		return Directive[S]{Kind: Maintain, State: s}
	}
	return st.alter(s, key)
}

// ByValue advances the tracker with s, comparing whole values with equal
// instead of discriminants.
func (st *State[S, D]) ByValue(s S, equal func(a, b S) bool) Directive[S] {
	if st.set && equal(st.current, s) {
		st.current = s
		st.key = st.discriminantOf(s)
		return Directive[S]{Kind: Maintain, State: s}
	}
	return st.alter(s, st.discriminantOf(s))
}

// Current returns the last state fed in, if any.
func (st *State[S, D]) Current() (S, bool) {
	return st.current, st.set
}

// Reset makes the next advance report Alter with no old state.
func (st *State[S, D]) Reset() {
	var zeroS S
	var zeroD D
	st.set = false
	st.key = zeroD
	st.current = zeroS
}

func (st *State[S, D]) alter(s S, key D) Directive[S] {
	d := Directive[S]{Kind: Alter, State: s, Old: st.current, HasOld: st.set}
	st.set = true
	st.key = key
	st.current = s
	return d
}

func (st *State[S, D]) discriminantOf(s S) D {
	if st.discriminant != nil {
		return st.discriminant(s)
	}
	return any(s).(D)
}
