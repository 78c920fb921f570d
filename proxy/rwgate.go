package proxy

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Gate is the readers/writers discipline guarding the shared Cache: the
// classic readers-preferred formulation, built from a reader
// count protected by a mutex and a single exclusive-access semaphore. The
// first reader to arrive acquires the semaphore on behalf of all readers;
// the last reader to leave releases it. A writer always acquires the
// semaphore directly. This is deliberately NOT a fair lock: a steady
// stream of readers can starve a writer indefinitely, matching the
// reference proxy's behaviour exactly rather than hardening it.
//
// Of the two POSIX semaphores ("mutex" and "wrt") the reference uses,
// golang.org/x/sync/semaphore.Weighted stands in for "wrt"; a plain
// sync.Mutex covers the reader-count critical section that the reference
// protects with "mutex", since Go has no cheaper binary semaphore.
type Gate struct {
	countMu   sync.Mutex
	readCount int
	resource  *semaphore.Weighted
}

// NewGate returns a ready-to-use Gate.
func NewGate() *Gate {
	return &Gate{resource: semaphore.NewWeighted(1)}
}

// RLock acquires a shared-read ticket, blocking only behind a writer that
// already holds the gate (or is first in line on an empty gate). countMu is
// held across the first reader's Acquire so later readers block on countMu,
// rather than on the semaphore, until exclusion against any writer is
// actually established.
func (g *Gate) RLock(ctx context.Context) error {
	g.countMu.Lock()
	defer g.countMu.Unlock()

	g.readCount++
	if g.readCount > 1 {
		return nil
	}
	if err := g.resource.Acquire(ctx, 1); err != nil {
		g.readCount--
		return err
	}
	return nil
}

// RUnlock releases a shared-read ticket previously obtained from RLock.
func (g *Gate) RUnlock() {
	g.countMu.Lock()
	g.readCount--
	last := g.readCount == 0
	g.countMu.Unlock()

	if last {
		g.resource.Release(1)
	}
}

// Lock acquires the exclusive-write ticket, excluding all readers and any
// other writer.
func (g *Gate) Lock(ctx context.Context) error {
	return g.resource.Acquire(ctx, 1)
}

// Unlock releases the exclusive-write ticket.
func (g *Gate) Unlock() {
	g.resource.Release(1)
}
