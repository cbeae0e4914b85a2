// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package rand2

import (
	"math/rand"
	"sync"
)

// Rand is a goroutine-safe wrapper around math/rand.Rand.
type Rand struct {
	sync.Mutex
	stdRand *rand.Rand
}

func New(src rand.Source) *Rand {
	return &Rand{
		stdRand: rand.New(src),
	}
}

func (r *Rand) Int63() int64 {
	r.Lock()
	ret := r.stdRand.Int63()
	r.Unlock()
	return ret
}

func (r *Rand) Uint64() uint64 {
	r.Lock()
	ret := r.stdRand.Uint64()
	r.Unlock()
	return ret
}

func (r *Rand) Intn(n int) int {
	r.Lock()
	ret := r.stdRand.Intn(n)
	r.Unlock()
	return ret
}

func (r *Rand) Float64() float64 {
	r.Lock()
	ret := r.stdRand.Float64()
	r.Unlock()
	return ret
}

// ZeroToOneExclusive returns a uniform value in [0, 1).
func (r *Rand) ZeroToOneExclusive() float64 {
	return r.Float64()
}
