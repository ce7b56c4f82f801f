// Package wrapping implements the compact bit-packed encoding of GraphQL
// type wrapping (list and non-null modifiers) used throughout the
// supergraph schema and operation models.
package wrapping

import "strings"

// Wrapping encodes a chain of GraphQL list/non-null modifiers around some
// named type in 16 bits:
//
//	bit 15       inner type is required (NonNull)
//	bits 11-14   number of list levels (0-11)
//	bits 0-10    per-level non-null flag, innermost level first
//
// A zero Wrapping describes a bare nullable named type, e.g. `String`.
type Wrapping uint16

const (
	innerRequiredFlag Wrapping = 1 << 15
	listLengthMask    Wrapping = 0b0111_1000_0000_0000
	listLengthShift            = 11
	listBitsMask      Wrapping = 0b0000_0111_1111_1111
	maxListWrappings           = 11
)

// ListWrapping describes one level of list wrapping.
type ListWrapping int

const (
	List ListWrapping = iota
	ListNonNull
)

func (w Wrapping) listLength() int {
	return int((w & listLengthMask) >> listLengthShift)
}

func (w Wrapping) setListLength(n int) Wrapping {
	if n > maxListWrappings {
		panic("wrapping: list wrapper overflow")
	}
	keepBits := w & ((1 << uint(n)) - 1)
	return (w & innerRequiredFlag) | (Wrapping(n) << listLengthShift) | keepBits
}

// InnerIsRequired reports whether the innermost named type is non-null.
func (w Wrapping) InnerIsRequired() bool {
	return w&innerRequiredFlag != 0
}

// ListWrappings returns the list levels from innermost to outermost.
func (w Wrapping) ListWrappings() []ListWrapping {
	n := w.listLength()
	out := make([]ListWrapping, n)
	for i := 0; i < n; i++ {
		if w&(1<<uint(i)) == 0 {
			out[i] = List
		} else {
			out[i] = ListNonNull
		}
	}
	return out
}

// List pushes a nullable list level onto the outside of w.
func (w Wrapping) List() Wrapping {
	n := w.listLength()
	w = w.setListLength(n + 1)
	return w &^ (1 << uint(n))
}

// ListNonNull pushes a non-null list level onto the outside of w.
func (w Wrapping) ListNonNull() Wrapping {
	n := w.listLength()
	w = w.setListLength(n + 1)
	return w | (1 << uint(n))
}

// NonNull marks the current outermost level (or the inner named type, if no
// list levels exist yet) as non-null.
func (w Wrapping) NonNull() Wrapping {
	n := w.listLength()
	if n == 0 {
		return w | innerRequiredFlag
	}
	return w | (1 << uint(n-1))
}

// IsList reports whether w wraps at least one list level.
func (w Wrapping) IsList() bool {
	return w.listLength() > 0
}

// IsNonNull reports whether the outermost level of w is non-null.
func (w Wrapping) IsNonNull() bool {
	n := w.listLength()
	if n == 0 {
		return w.InnerIsRequired()
	}
	return w&(1<<uint(n-1)) != 0
}

// IsNullable is the negation of IsNonNull.
func (w Wrapping) IsNullable() bool {
	return !w.IsNonNull()
}

// WithoutNonNull strips a required modifier from the outermost level,
// turning `T!` into `T` or `[T]!` into `[T]`.
func (w Wrapping) WithoutNonNull() Wrapping {
	if w.IsNullable() {
		return w
	}
	n := w.listLength()
	if n == 0 {
		return w &^ innerRequiredFlag
	}
	return w &^ (1 << uint(n-1))
}

// WithoutList pops the outermost list level, reporting whether one existed.
func (w Wrapping) WithoutList() (Wrapping, bool) {
	n := w.listLength()
	if n == 0 {
		return w, false
	}
	w = w &^ (1 << uint(n-1))
	return w.setListLength(n - 1), true
}

// IsEqualOrMoreLenientThan reports whether a position wrapped with w could
// accept a value wrapped with other, i.e. w is at least as nullable at every
// level as other. Used when checking that a field's type in one subgraph is
// compatible with its type in another.
func (w Wrapping) IsEqualOrMoreLenientThan(other Wrapping) bool {
	if w.InnerIsRequired() && !other.InnerIsRequired() {
		return false
	}
	if w.listLength() != other.listLength() {
		return false
	}
	ws, os := w.ListWrappings(), other.ListWrappings()
	for i := range ws {
		if ws[i] == ListNonNull && os[i] == List {
			return false
		}
	}
	return true
}

// TypeString renders w around name as GraphQL type syntax, e.g.
// TypeString("String", w) -> "[String!]!".
func (w Wrapping) TypeString(name string) string {
	var b strings.Builder
	n := w.listLength()
	for i := 0; i < n; i++ {
		b.WriteByte('[')
	}
	b.WriteString(name)
	if w.InnerIsRequired() {
		b.WriteByte('!')
	}
	for _, lw := range w.ListWrappings() {
		b.WriteByte(']')
		if lw == ListNonNull {
			b.WriteByte('!')
		}
	}
	return b.String()
}
