// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sharedstring

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func sameBacking[E Element](a, b String[E]) bool {
	return unsafe.SliceData(a.RawView()) == unsafe.SliceData(b.RawView())
}

func TestInterningSharesOneRecord(t *testing.T) {
	a := FromString("intern-hello")
	b := FromString("intern-hello")
	defer a.Release()
	defer b.Release()

	assert.True(t, sameBacking(a, b), "equal contents share one backing allocation")
	assert.Same(t, a.rec, b.rec)
	assert.Equal(t, int32(2), a.rec.refs.Load())
}

func TestInterningAcrossConstructors(t *testing.T) {
	a := FromString("ctor-foo")
	b := Make([]byte("ctor-foo"))
	c := MakeRaw([]byte("ctor-foo\x00trailing"))
	defer a.Release()
	defer b.Release()
	defer c.Release()

	assert.True(t, sameBacking(a, b))
	assert.True(t, sameBacking(a, c))
	assert.Equal(t, int32(3), a.rec.refs.Load())
}

type quietByte byte

func TestEmptyHandlesNeverTouchThePool(t *testing.T) {
	p := poolOf[quietByte]()
	locksBefore := p.lockCount.Count()

	e := Empty[quietByte]()
	var z String[quietByte]
	clone := e.Clone()
	moved := e.Move()
	e.Release()
	clone.Release()
	moved.Release()

	assert.True(t, e.Equal(z), "all empty handles are equal")
	assert.True(t, e.IsEmpty())
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, "", z.String())
	assert.Equal(t, locksBefore, p.lockCount.Count(), "empty handles take no lock")
	assert.Empty(t, p.records, "the empty record is never a pool key")
}

func TestEmptyRawViewIsTerminated(t *testing.T) {
	e := Empty[byte]()
	v := e.RawView()
	assert.Equal(t, 0, len(v))
	assert.GreaterOrEqual(t, cap(v), 1)
	assert.Equal(t, byte(0), v[:1][0])
}

func TestMoveSemantics(t *testing.T) {
	a := FromString("move-x")
	rec := a.rec

	b := a.Move()
	defer b.Release()

	assert.True(t, a.IsEmpty(), "moved-from handle is empty")
	assert.Equal(t, "", a.String())
	assert.Equal(t, "move-x", b.String())
	assert.Same(t, rec, b.rec, "move transfers the record")
	assert.Equal(t, int32(1), rec.refs.Load(), "move never touches the refcount")
}

func TestCopyFrom(t *testing.T) {
	a := FromString("copy-src")
	defer a.Release()

	var b String[byte]
	b.CopyFrom(a)
	assert.True(t, sameBacking(a, b))
	assert.Equal(t, int32(2), a.rec.refs.Load())

	t.Run("same record is a no-op", func(t *testing.T) {
		b.CopyFrom(a)
		assert.Equal(t, int32(2), a.rec.refs.Load())
	})

	t.Run("rebinding releases the previous record", func(t *testing.T) {
		c := FromString("copy-other")
		defer c.Release()
		b.CopyFrom(c)
		assert.Equal(t, int32(1), a.rec.refs.Load())
		assert.Equal(t, int32(2), c.rec.refs.Load())
		b.Release()
	})
}

func TestMoveFrom(t *testing.T) {
	a := FromString("movefrom-x")
	rec := a.rec

	var b String[byte]
	b.MoveFrom(&a)
	defer b.Release()

	assert.True(t, a.IsEmpty())
	assert.Same(t, rec, b.rec)
	assert.Equal(t, int32(1), rec.refs.Load())

	// both handles already share a record: nothing moves
	c := b.Clone()
	c.MoveFrom(&b)
	assert.Equal(t, "movefrom-x", b.String())
	assert.Equal(t, int32(2), rec.refs.Load())
	c.Release()
}

type setByte byte

func TestSetReleasesPreviousReference(t *testing.T) {
	s := Make([]setByte("set-first"))
	assert.Equal(t, 1, PoolSize[setByte]())

	s.Set([]setByte("set-second"))
	assert.Equal(t, "set-second", s.String())
	assert.Equal(t, 1, PoolSize[setByte](), "the sole reference to the old content is gone")

	s.SetRaw([]setByte{'a', 'b', 0, 'c'})
	assert.Equal(t, "ab", s.String())

	s.Set(nil)
	assert.True(t, s.IsEmpty())
	assert.Equal(t, 0, PoolSize[setByte]())
}

func TestMakeRawStopsAtTerminator(t *testing.T) {
	a := MakeRaw([]byte{'a', 'b', 0, 'c'})
	b := Make([]byte("ab"))
	defer a.Release()
	defer b.Release()

	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Equal(b))

	c := MakeRaw([]byte("no-terminator"))
	defer c.Release()
	assert.Equal(t, "no-terminator", c.String())
}

func TestMaterializeIsIndependent(t *testing.T) {
	a := FromString("materialize-me")
	m := a.Materialize()
	a.Release()

	assert.Equal(t, "materialize-me", string(m))

	m[0] = 'X'
	b := FromString("materialize-me")
	defer b.Release()
	assert.Equal(t, "materialize-me", b.String(), "mutating a materialized copy cannot reach the pool")
}

func TestRawViewSurvivesSiblingRelease(t *testing.T) {
	a := FromString("survive-me")
	b := a.Clone()

	a.Release()
	assert.Equal(t, "survive-me", string(b.RawView()))
	b.Release()
}

func TestWideStrings(t *testing.T) {
	a := Make([]rune("héllo, wörld"))
	b := Make([]rune("héllo, wörld"))
	defer a.Release()
	defer b.Release()

	assert.True(t, sameBacking(a, b))
	assert.Equal(t, "héllo, wörld", a.String())
	assert.Equal(t, len([]rune("héllo, wörld")), a.Len())
}

type refByte byte

func TestRefcountAccounting(t *testing.T) {
	handles := make([]String[refByte], 0, 5)
	handles = append(handles, Make([]refByte("counted")))
	for i := 0; i < 4; i++ {
		handles = append(handles, handles[0].Clone())
	}
	rec := handles[0].rec
	assert.Equal(t, int32(5), rec.refs.Load())

	for i := len(handles) - 1; i > 0; i-- {
		handles[i].Release()
		assert.Equal(t, int32(i), rec.refs.Load())
	}
	assert.Equal(t, 1, PoolSize[refByte]())

	handles[0].Release()
	assert.Equal(t, 0, PoolSize[refByte](), "last release removes the content")
}

type churnByte byte

func TestChurnLeavesPoolUnchanged(t *testing.T) {
	anchor := Make([]churnByte("churn-anchor"))
	defer anchor.Release()
	before := PoolSize[churnByte]()

	for round := 0; round < 50; round++ {
		handles := make([]String[churnByte], 20)
		for i := range handles {
			handles[i] = Make([]churnByte("churn-content"))
		}
		for i := range handles {
			handles[i].Release()
		}
	}

	assert.Equal(t, before, PoolSize[churnByte]())
}

func TestReacquireAfterLastReleaseAllocates(t *testing.T) {
	a := FromString("hello-again")
	b := FromString("hello-again")

	a.Release()
	assert.Equal(t, "hello-again", b.String(), "content outlives any one handle")
	b.Release()

	p := poolOf[byte]()
	missesBefore := p.misses.Count()
	c := FromString("hello-again")
	defer c.Release()
	assert.Equal(t, missesBefore+1, p.misses.Count(), "pool had emptied, construction allocates again")
}

func TestEqualAndCompare(t *testing.T) {
	a := FromString("apple")
	b := FromString("apple")
	c := FromString("banana")
	e := Empty[byte]()
	defer a.Release()
	defer b.Release()
	defer c.Release()

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(e))

	assert.Equal(t, 0, a.Compare(b))
	assert.Equal(t, -1, a.Compare(c))
	assert.Equal(t, 1, c.Compare(a))
	assert.Equal(t, -1, e.Compare(a))
	assert.Equal(t, 1, a.Compare(e))

	prefix := FromString("app")
	defer prefix.Release()
	assert.Equal(t, -1, prefix.Compare(a), "prefix orders before its extension")
}
