package proxy

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateAllowsConcurrentReaders(t *testing.T) {
	g := NewGate()
	ctx := context.Background()

	var inFlight int32
	var maxSeen int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.RLock(ctx))
			defer g.RUnlock()
			n := atomic.AddInt32(&inFlight, 1)
			for {
				cur := atomic.LoadInt32(&maxSeen)
				if n <= cur || atomic.CompareAndSwapInt32(&maxSeen, cur, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
		}()
	}
	wg.Wait()
	assert.Greater(t, int(atomic.LoadInt32(&maxSeen)), 1, "multiple readers should have overlapped")
}

func TestGateExcludesWriterFromReaders(t *testing.T) {
	g := NewGate()
	ctx := context.Background()

	require.NoError(t, g.RLock(ctx))

	acquired := make(chan struct{})
	go func() {
		require.NoError(t, g.Lock(ctx))
		close(acquired)
		g.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired the gate while a reader still held it")
	case <-time.After(20 * time.Millisecond):
	}

	g.RUnlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("writer never acquired the gate after the reader released it")
	}
}

func TestGateSecondReaderWaitsBehindFirstReaderDuringWriterExclusion(t *testing.T) {
	g := NewGate()
	ctx := context.Background()

	require.NoError(t, g.Lock(ctx))

	var firstEntered, secondEntered atomic.Bool
	readerDone := make(chan struct{}, 2)

	go func() {
		require.NoError(t, g.RLock(ctx))
		firstEntered.Store(true)
		readerDone <- struct{}{}
	}()
	time.Sleep(20 * time.Millisecond)

	go func() {
		require.NoError(t, g.RLock(ctx))
		secondEntered.Store(true)
		readerDone <- struct{}{}
	}()
	time.Sleep(20 * time.Millisecond)

	assert.False(t, firstEntered.Load(), "first reader should still be blocked behind the writer")
	assert.False(t, secondEntered.Load(), "second reader must not enter before exclusion against the writer is established")

	g.Unlock()

	for i := 0; i < 2; i++ {
		select {
		case <-readerDone:
		case <-time.After(time.Second):
			t.Fatal("reader never acquired the gate after the writer released it")
		}
	}
	g.RUnlock()
	g.RUnlock()
}
