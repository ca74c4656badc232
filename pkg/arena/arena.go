// Package arena implements IndexList[T] (§4.1): the generic index-stable
// registry underlying every symbol-kind table in TransformerContext
// (aliases, constants, functions, intrinsics, modules, named external
// blocks, structs, types, variables). Grounded on the teacher's
// SymbolTable (internal/semantic/symbol_table.go) for the "once
// allocated, always stable" discipline, generalized from a single
// name-keyed map to an index-keyed one with preregistration, since the
// resolver here addresses symbols by table index rather than by name
// once past the identifier-resolution step (§3, "Symbol references in
// the AST are carried as indices into C1 tables, not names").
package arena

import (
	"fmt"

	"github.com/shaderlang/slc/pkg/token"
)

// Error is returned by IndexList operations that violate the index
// discipline described in §4.1.
type Error struct {
	Kind     string
	Index    int
	Location token.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: index %d at %s", e.Kind, e.Index, e.Location)
}

const (
	KindAlreadyUsedIndexPreregister = "AlreadyUsedIndexPreregister"
	KindInvalidIndex                = "InvalidIndex"
)

// IndexList is a generic index-stable registry of T. Once an index is
// allocated it is never reused or deallocated for the lifetime of a
// compilation (§3 IndexList invariants).
type IndexList[T any] struct {
	data          map[int]T
	occupied      bitset
	preregistered bitset
}

// New creates an empty IndexList.
func New[T any]() *IndexList[T] {
	return &IndexList[T]{data: make(map[int]T)}
}

// Preregister marks idx as reserved ahead of Register, so that
// re-running the resolver over an already-resolved tree can reuse the
// indices baked into it without colliding (§3, §8 invariant 2).
func (l *IndexList[T]) Preregister(idx int, loc token.Position) error {
	if l.occupied.Contains(idx) && !l.preregistered.Contains(idx) {
		return &Error{Kind: KindAlreadyUsedIndexPreregister, Index: idx, Location: loc}
	}
	l.preregistered.Set(idx)
	l.occupied.Set(idx)
	return nil
}

// Register inserts data at idx if given, else at the lowest free index.
// If idx is supplied it must be free or merely preregistered.
func (l *IndexList[T]) Register(data T, idx int, hasIdx bool, loc token.Position) (int, error) {
	if hasIdx {
		if l.occupied.Contains(idx) && !l.preregistered.Contains(idx) {
			return 0, &Error{Kind: KindAlreadyUsedIndexPreregister, Index: idx, Location: loc}
		}
		l.data[idx] = data
		l.occupied.Set(idx)
		l.preregistered.Clear(idx)
		return idx, nil
	}
	idx = l.occupied.NextFree()
	l.data[idx] = data
	l.occupied.Set(idx)
	return idx, nil
}

// RegisterNewIndex reserves the lowest free index without storing data
// yet, optionally marking it preregistered rather than fully occupied.
func (l *IndexList[T]) RegisterNewIndex(preregister bool) int {
	idx := l.occupied.NextFree()
	l.occupied.Set(idx)
	if preregister {
		l.preregistered.Set(idx)
	}
	return idx
}

// Retrieve returns a pointer to the stored value at idx, or an error if
// idx is unknown (never registered, or only preregistered and never filled).
func (l *IndexList[T]) Retrieve(idx int, loc token.Position) (*T, error) {
	v, ok := l.data[idx]
	if !ok {
		return nil, &Error{Kind: KindInvalidIndex, Index: idx, Location: loc}
	}
	return &v, nil
}

// TryRetrieve returns (value, true) if idx is filled, (zero, false) if
// idx is merely preregistered, and an error if idx is entirely unknown.
func (l *IndexList[T]) TryRetrieve(idx int, loc token.Position) (T, bool, error) {
	v, ok := l.data[idx]
	if ok {
		return v, true, nil
	}
	var zero T
	if l.preregistered.Contains(idx) {
		return zero, false, nil
	}
	return zero, false, &Error{Kind: KindInvalidIndex, Index: idx, Location: loc}
}

// Update overwrites the value stored at an already-occupied idx. Used by
// passes (e.g. ConstantPropagation folding a constant's placeholder
// value, DependencyChecker marking usage) that mutate table entries
// in place after initial registration.
func (l *IndexList[T]) Update(idx int, data T) {
	l.data[idx] = data
	l.occupied.Set(idx)
	l.preregistered.Clear(idx)
}

// Len returns the number of filled entries (not counting bare
// preregistrations that were never filled).
func (l *IndexList[T]) Len() int {
	return len(l.data)
}

// Range calls fn for every filled entry, in ascending index order. The
// callback must not mutate l.
func (l *IndexList[T]) Range(fn func(idx int, data T) bool) {
	indices := make([]int, 0, len(l.data))
	for idx := range l.data {
		indices = append(indices, idx)
	}
	// Insertion sort: table sizes are small (hundreds of symbols at most)
	// and this keeps Range allocation-free beyond the index slice itself.
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j-1] > indices[j]; j-- {
			indices[j-1], indices[j] = indices[j], indices[j-1]
		}
	}
	for _, idx := range indices {
		if !fn(idx, l.data[idx]) {
			return
		}
	}
}
