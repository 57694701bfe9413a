// Copyright 2021 VMware, Inc. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package sharedstring

import (
	"reflect"
	"sync"

	"github.com/rcrowley/go-metrics"
	"github.com/wavefronthq/go-metrics-wavefront/reporting"
)

var (
	// pools maps an element type to its process-wide pool. Pools are
	// created lazily on first use and live for the process lifetime.
	pools   sync.Map // reflect.Type -> *pool[E]
	poolsMu sync.Mutex
)

func poolOf[E Element]() *pool[E] {
	t := reflect.TypeOf((*E)(nil)).Elem()
	if v, ok := pools.Load(t); ok {
		return v.(*pool[E])
	}
	poolsMu.Lock()
	defer poolsMu.Unlock()
	if v, ok := pools.Load(t); ok {
		return v.(*pool[E])
	}
	p := newPool[E](t.String())
	pools.Store(t, p)
	return p
}

// pool is the single point of truth mapping content to canonical records
// for one element type. The map is mutated only under mtx; reference
// counts are mutated only atomically, never under mtx.
type pool[E Element] struct {
	mtx     sync.Mutex
	records map[string]*record[E]

	// empty is the shared record all zero-length handles bind to. It is
	// never inserted into records and never reference counted.
	empty *record[E]

	hits      metrics.Counter
	misses    metrics.Counter
	erased    metrics.Counter
	lockCount metrics.Counter
}

func newPool[E Element](element string) *pool[E] {
	p := &pool[E]{
		records: make(map[string]*record[E]),
		empty:   &record[E]{payload: make([]E, 1)},
	}
	tags := map[string]string{"element": element}
	p.hits = metrics.GetOrRegisterCounter(reporting.EncodeKey("sharedstring.pool.hits", tags), metrics.DefaultRegistry)
	p.misses = metrics.GetOrRegisterCounter(reporting.EncodeKey("sharedstring.pool.misses", tags), metrics.DefaultRegistry)
	p.erased = metrics.GetOrRegisterCounter(reporting.EncodeKey("sharedstring.pool.erased", tags), metrics.DefaultRegistry)
	p.lockCount = metrics.GetOrRegisterCounter(reporting.EncodeKey("sharedstring.pool.lock.acquisitions", tags), metrics.DefaultRegistry)
	metrics.NewRegisteredFunctionalGauge(reporting.EncodeKey("sharedstring.pool.size", tags), metrics.DefaultRegistry, func() int64 {
		return int64(p.size())
	})
	return p
}

func (p *pool[E]) lock() {
	p.lockCount.Inc(1)
	p.mtx.Lock()
}

// acquire returns the canonical record for content with one additional
// reference, creating the record on first use. Concurrent acquires for the
// same content serialize on the pool lock, so at most one of them
// allocates. Zero-length content never reaches acquire; handles resolve it
// to the empty record directly.
func (p *pool[E]) acquire(content []E) *record[E] {
	p.lock()
	defer p.mtx.Unlock()

	if r, ok := p.records[contentKey(content)]; ok {
		// The count may be transiently zero when the last owner is
		// mid-release. Retaining under the lock resurrects the record;
		// the releaser re-checks before erasing.
		r.retain()
		p.hits.Inc(1)
		return r
	}

	r := newRecord(content)
	p.records[r.key] = r
	p.misses.Inc(1)
	return r
}

// release drops one reference to r. The decrement happens outside the
// lock, so releasing content that other handles still share never
// contends; the lock is paid only when the last reference goes away.
func (p *pool[E]) release(r *record[E]) {
	if r.release() != 0 {
		return
	}
	p.eraseIfDead(r)
}

// eraseIfDead removes r from the table if it is still the canonical record
// for its content and still unreferenced. Between a zero-reaching
// decrement and this erase, a concurrent acquire may have resurrected the
// record, or erased and replaced the entry with a fresh record under the
// same key; both cases must leave the table untouched.
func (p *pool[E]) eraseIfDead(r *record[E]) {
	p.lock()
	defer p.mtx.Unlock()

	if cur, ok := p.records[r.key]; ok && cur == r && r.refs.Load() == 0 {
		delete(p.records, r.key)
		p.erased.Inc(1)
	}
}

// size returns the distinct-content count.
func (p *pool[E]) size() int {
	p.lock()
	defer p.mtx.Unlock()
	return len(p.records)
}

// PoolSize returns the number of distinct contents currently interned in
// the pool for element type E.
func PoolSize[E Element]() int {
	return poolOf[E]().size()
}
