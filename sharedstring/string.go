// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sharedstring

import (
	"strings"
	"unsafe"
)

// String is a value handle holding one counted reference to a canonical
// record, or the shared empty record. The zero value is a usable empty
// handle. Use Clone to duplicate a handle and Release to drop it; plain Go
// assignment is an uncounted borrow.
type String[E Element] struct {
	rec *record[E]
}

// Empty returns an empty handle. It takes no lock and allocates nothing.
func Empty[E Element]() String[E] {
	return String[E]{rec: poolOf[E]().empty}
}

// Make interns content and returns a handle owning one reference to its
// canonical record. Equal contents made through any constructor share one
// record.
func Make[E Element](content []E) String[E] {
	if len(content) == 0 {
		return Empty[E]()
	}
	return String[E]{rec: poolOf[E]().acquire(content)}
}

// MakeRaw interns content up to, and excluding, the first zero element,
// mirroring construction from terminated raw buffers.
func MakeRaw[E Element](content []E) String[E] {
	return Make(truncate(content))
}

// FromString interns the bytes of s.
func FromString(s string) String[byte] {
	if len(s) == 0 {
		return Empty[byte]()
	}
	// read-only view over the string's bytes; acquire copies on a miss
	return String[byte]{rec: poolOf[byte]().acquire(unsafe.Slice(unsafe.StringData(s), len(s)))}
}

func truncate[E Element](content []E) []E {
	for i, e := range content {
		if e == 0 {
			return content[:i]
		}
	}
	return content
}

// isBound reports whether the handle owns a counted reference.
func (s String[E]) isBound() bool {
	return s.rec != nil && s.rec.n != 0
}

// record normalizes the zero-value handle onto the shared empty record.
func (s String[E]) record() *record[E] {
	if s.rec == nil {
		return poolOf[E]().empty
	}
	return s.rec
}

// Clone returns a handle owning one additional reference to the same
// record. It bypasses the pool lookup entirely: a single atomic increment,
// no lock.
func (s String[E]) Clone() String[E] {
	if !s.isBound() {
		return Empty[E]()
	}
	s.rec.retain()
	return String[E]{rec: s.rec}
}

// Move transfers the receiver's reference to the returned handle and
// resets the receiver to empty. The reference count is not touched.
func (s *String[E]) Move() String[E] {
	moved := String[E]{rec: s.record()}
	s.rec = poolOf[E]().empty
	return moved
}

// Release drops the handle's reference and resets it to empty. Dropping
// the last reference for a content removes that content from the pool.
// Releasing an empty handle is a no-op, so Release is idempotent.
func (s *String[E]) Release() {
	if s.isBound() {
		poolOf[E]().release(s.rec)
	}
	s.rec = poolOf[E]().empty
}

// Set rebinds the handle to content, releasing its current reference
// first.
func (s *String[E]) Set(content []E) {
	s.Release()
	*s = Make(content)
}

// SetRaw rebinds the handle to content up to the first zero element.
func (s *String[E]) SetRaw(content []E) {
	s.Release()
	*s = MakeRaw(content)
}

// CopyFrom rebinds the handle to other's record, acquiring a reference of
// its own. A no-op when both handles already share a record.
func (s *String[E]) CopyFrom(other String[E]) {
	if s.rec == other.rec {
		return
	}
	s.Release()
	*s = other.Clone()
}

// MoveFrom steals other's reference, releasing the receiver's current one,
// and leaves other empty. No reference count changes hands. A no-op when
// both handles already share a record.
func (s *String[E]) MoveFrom(other *String[E]) {
	if s.rec == other.rec {
		return
	}
	s.Release()
	s.rec = other.record()
	other.rec = poolOf[E]().empty
}

// RawView returns a borrowed view of the content. The backing array keeps
// a zero terminator immediately past the view, reachable through the slice
// capacity. The view stays valid while any handle shares the record; it
// must never be mutated.
func (s String[E]) RawView() []E {
	return s.record().view()
}

// Materialize returns an owned copy of the content, decoupled from the
// pool.
func (s String[E]) Materialize() []E {
	v := s.record().view()
	out := make([]E, len(v))
	copy(out, v)
	return out
}

// String returns the content in conventional string form: byte-width
// elements are taken as raw bytes, wider elements as runes.
func (s String[E]) String() string {
	v := s.record().view()
	if len(v) == 0 {
		return ""
	}
	if unsafe.Sizeof(v[0]) == 1 {
		return strings.Clone(contentKey(v))
	}
	rs := make([]rune, len(v))
	for i, e := range v {
		rs[i] = rune(e)
	}
	return string(rs)
}

// Len returns the content length, terminator excluded.
func (s String[E]) Len() int {
	if s.rec == nil {
		return 0
	}
	return s.rec.n
}

func (s String[E]) IsEmpty() bool {
	return s.Len() == 0
}

// Equal reports content equality. Canonicalization makes this a record
// identity check: equal contents always share one record.
func (s String[E]) Equal(other String[E]) bool {
	return s.record() == other.record()
}

// Compare orders handles by element-wise content comparison, returning
// -1, 0 or 1.
func (s String[E]) Compare(other String[E]) int {
	a, b := s.record().view(), other.record().view()
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}
