// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sharedstring

import (
	"sync/atomic"
	"unsafe"
)

// Element constrains the character widths a pool can be instantiated over.
// Each element type gets its own process-wide pool.
type Element interface {
	~byte | ~rune
}

// record is the canonical allocation for one distinct content value: the
// immutable payload plus its live-reference count. The payload holds the
// content followed by a single zero terminator and is never mutated after
// construction.
type record[E Element] struct {
	refs    atomic.Int32
	n       int
	payload []E
	key     string
}

func newRecord[E Element](content []E) *record[E] {
	r := &record[E]{
		n:       len(content),
		payload: make([]E, len(content)+1),
	}
	copy(r.payload, content)
	// the map key is a view over the record's own payload, no separate
	// copy of the content is stored
	r.key = contentKey(r.payload[:r.n])
	r.refs.Store(1)
	return r
}

// view returns the payload without the terminator. The terminator stays
// reachable through the slice capacity.
func (r *record[E]) view() []E {
	return r.payload[:r.n]
}

func (r *record[E]) retain() {
	r.refs.Add(1)
}

// release decrements the reference count and returns the remaining count,
// so the caller can test for zero without a second atomic read.
func (r *record[E]) release() int32 {
	return r.refs.Add(-1)
}

// contentKey returns a string over the raw bytes of content without
// copying. The result aliases the slice memory: it is only valid for map
// lookups against content the caller keeps alive, or as the stored key of
// a record whose payload it views.
func contentKey[E Element](content []E) string {
	if len(content) == 0 {
		return ""
	}
	size := len(content) * int(unsafe.Sizeof(content[0]))
	return unsafe.String((*byte)(unsafe.Pointer(unsafe.SliceData(content))), size)
}
