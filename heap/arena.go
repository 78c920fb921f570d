package heap

import "github.com/pkg/errors"

// Arena is the heap-extend primitive the allocator consumes: a growable,
// byte-addressable region standing in for a raw sbrk(2)-style heap break.
// It plays the same role for Heap that lldb.Filer plays for lldb.Allocator
// — an abstraction over the backing storage, swappable without touching
// the allocation logic above it.
type Arena interface {
	// ExtendHeap grows the arena by n bytes (n must be > 0) and returns
	// the byte offset at which the newly available space begins. It
	// returns an error if the arena has no room left to grow, modelling
	// sbrk(2) failure.
	ExtendHeap(n int) (int, error)

	// HeapLo returns the offset of the first byte ever made available by
	// the arena (0, unless the arena reserves a private header region).
	HeapLo() int

	// HeapHi returns the offset of the last valid byte currently in the
	// arena, or HeapLo()-1 if the arena is empty.
	HeapHi() int

	// Bytes returns the full backing slice. The slice is invalidated by
	// any subsequent call to ExtendHeap; callers must re-fetch it.
	Bytes() []byte
}

// memArena is an in-process Arena backed by a single growable []byte,
// analogous to lldb's MemFiler but addressed by a flat byte slice instead
// of fixed-size pages, since the allocator never needs random-access
// growth cheaper than an append.
type memArena struct {
	buf     []byte
	maxSize int // 0 means unbounded
}

// NewArena returns an Arena with an initial size of zero bytes. If
// maxSize is > 0, ExtendHeap fails once the arena would grow past it —
// used to exercise the allocator's out-of-memory path deterministically
// in tests, since a real process heap has no such hard ceiling in
// practice.
func NewArena(maxSize int) Arena {
	return &memArena{maxSize: maxSize}
}

func (a *memArena) ExtendHeap(n int) (int, error) {
	if n <= 0 {
		return 0, &InvalidArgError{Op: "ExtendHeap", Arg: n}
	}
	old := len(a.buf)
	if a.maxSize > 0 && old+n > a.maxSize {
		return 0, errors.Errorf("arena exhausted: %d + %d > max %d", old, n, a.maxSize)
	}
	a.buf = append(a.buf, make([]byte, n)...)
	return old, nil
}

func (a *memArena) HeapLo() int { return 0 }

func (a *memArena) HeapHi() int { return len(a.buf) - 1 }

func (a *memArena) Bytes() []byte { return a.buf }
