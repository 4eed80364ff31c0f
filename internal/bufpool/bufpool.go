// Package bufpool provides a bounded pool of reusable byte buffers for
// transfer scratch space. Response bodies and conversion scratch buffers are
// acquired per request and must be released exactly once at teardown.
package bufpool

import (
	"context"
	"sync/atomic"

	"github.com/jackc/puddle/v2"
)

// Pool hands out reusable byte buffers up to a fixed maximum count.
// Acquire blocks when the pool is exhausted, bounding the memory held by a
// batch of in-flight transfers.
type Pool struct {
	pool      *puddle.Pool[*buffer]
	created   atomic.Int64
	destroyed atomic.Int64
}

type buffer struct {
	data []byte
}

// New creates a pool of at most maxSize buffers, each starting at
// initialCap bytes. Buffers grow on demand and keep their capacity when
// released.
func New(maxSize int32, initialCap int) (*Pool, error) {
	p := &Pool{}

	pool, err := puddle.NewPool(&puddle.Config[*buffer]{
		Constructor: func(ctx context.Context) (*buffer, error) {
			p.created.Add(1)
			return &buffer{data: make([]byte, 0, initialCap)}, nil
		},
		Destructor: func(b *buffer) {
			p.destroyed.Add(1)
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

// Lease is a buffer checked out of the pool. Release returns it for reuse
// and is safe to call more than once; only the first call has an effect.
type Lease struct {
	res      *puddle.Resource[*buffer]
	released atomic.Bool
}

func (l *Lease) Bytes() []byte {
	return l.res.Value().data
}

// SetBytes stores the working slice back into the lease so the capacity
// survives release.
func (l *Lease) SetBytes(b []byte) {
	l.res.Value().data = b
}

func (l *Lease) Release() {
	if l.released.Swap(true) {
		return
	}
	l.res.Value().data = l.res.Value().data[:0]
	l.res.Release()
}

func (p *Pool) Acquire(ctx context.Context) (*Lease, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Lease{res: res}, nil
}

func (p *Pool) Close() {
	p.pool.Close()
}

// Created and Destroyed report lifetime buffer counts, mirroring pool
// statistics used in tests.
func (p *Pool) Created() int64   { return p.created.Load() }
func (p *Pool) Destroyed() int64 { return p.destroyed.Load() }
