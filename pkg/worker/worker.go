// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"github.com/rwproxy/rwproxy/lib/util/errors"
	"github.com/rwproxy/rwproxy/pkg/util/rand2"
	"go.uber.org/atomic"
)

// Worker is the execution context a session is bound to. Each worker owns
// its own random engine so that draws never contend across workers.
type Worker struct {
	id  int
	rnd *rand2.Rand
}

func newWorker(id int) (*Worker, error) {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return nil, errors.WithStack(err)
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]))
	return &Worker{
		id:  id,
		rnd: rand2.New(rand.NewSource(seed)),
	}, nil
}

func (w *Worker) ID() int {
	return w.id
}

// Random returns the worker-local random engine.
func (w *Worker) Random() *rand2.Rand {
	return w.rnd
}

// Pool holds a fixed set of workers created at startup.
type Pool struct {
	workers []*Worker
	next    atomic.Uint64
}

func NewPool(n int) (*Pool, error) {
	if n <= 0 {
		return nil, errors.Errorf("worker pool size must be positive, got %d", n)
	}
	workers := make([]*Worker, 0, n)
	for i := 0; i < n; i++ {
		w, err := newWorker(i)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return &Pool{workers: workers}, nil
}

// Next assigns a worker round-robin. Sessions keep the returned worker for
// their whole lifetime.
func (p *Pool) Next() *Worker {
	idx := p.next.Inc() - 1
	return p.workers[idx%uint64(len(p.workers))]
}

func (p *Pool) Size() int {
	return len(p.workers)
}
