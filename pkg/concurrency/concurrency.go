package concurrency

import (
	"sync"
)

const (
	// DefaultMax default max
	DefaultMax = 256
)

// GoLimit go limit
type GoLimit struct {
	ch chan struct{}
}

// NewGoLimit new go limit, max <= 0 uses DefaultMax
func NewGoLimit(max int) *GoLimit {
	if max <= 0 {
		max = DefaultMax
	}

	return &GoLimit{
		ch: make(chan struct{}, max),
	}
}

// Add blocks until a slot is free
func (g *GoLimit) Add() {
	g.ch <- struct{}{}
}

// Done releases a slot
func (g *GoLimit) Done() {
	<-g.ch
}

// Await runs fn(0..n-1) with at most limit of them at once and returns
// when all are done
func Await(limit *GoLimit, n int, fn func(i int)) {
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		limit.Add()
		go func(i int) {
			defer wg.Done()
			defer limit.Done()
			fn(i)
		}(i)
	}

	wg.Wait()
}
