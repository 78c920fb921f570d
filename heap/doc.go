// Package heap implements a segregated-fit dynamic memory allocator on top
// of a growable byte arena, playing the role of the standard dynamic memory
// interface (Allocate, Release, Reallocate, ZeroAllocate) for callers that
// supply their own backing storage.
//
// A Heap owns exactly one Arena. Blocks are never addressed by raw Go
// pointers; instead every allocation is identified by a Ptr, a byte offset
// into the arena. This keeps the heap image position-independent: a Ptr is
// meaningful only in combination with the Heap that produced it, the same
// way a handle into an lldb.Filer is meaningful only in combination with
// that Filer.
//
// The allocator is single-threaded; callers that share a Heap across
// goroutines must serialize access themselves.
package heap
