package heap

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustHeap(t *testing.T) *Heap {
	t.Helper()
	h, err := NewHeap()
	if err != nil {
		t.Fatalf("NewHeap: %v", err)
	}
	return h
}

func mustVerify(t *testing.T, h *Heap) {
	t.Helper()
	h.Verbose = true
	if err := h.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestScenarioAllocFree(t *testing.T) {
	h := mustHeap(t)
	p, err := h.Allocate(24)
	if err != nil || p == 0 {
		t.Fatalf("Allocate(24) = %v, %v", p, err)
	}
	mustVerify(t, h)

	if err := h.Release(p); err != nil {
		t.Fatalf("Release: %v", err)
	}
	mustVerify(t, h)

	st := h.Stats()
	if st.AllocBlocks != 0 || st.FreeBlocks != 0 {
		t.Fatalf("expected a single free block (the wilderness), got alloc=%d free=%d", st.AllocBlocks, st.FreeBlocks)
	}
	if st.FreeBytes != st.TotalBytes {
		t.Fatalf("expected the whole heap free, got %d of %d bytes", st.FreeBytes, st.TotalBytes)
	}
}

func TestScenarioTwoAllocTwoFree(t *testing.T) {
	h := mustHeap(t)
	before := h.Stats().TotalBytes

	a, _ := h.Allocate(24)
	b, _ := h.Allocate(24)
	if err := h.Release(a); err != nil {
		t.Fatal(err)
	}
	if err := h.Release(b); err != nil {
		t.Fatal(err)
	}
	mustVerify(t, h)

	st := h.Stats()
	if st.AllocBlocks != 0 || st.FreeBlocks != 0 {
		t.Fatalf("expected full coalescing back to the wilderness, got alloc=%d free=%d", st.AllocBlocks, st.FreeBlocks)
	}
	if st.TotalBytes != before {
		t.Fatalf("total heap size changed: before=%d after=%d", before, st.TotalBytes)
	}
}

func TestScenarioReuseAfterFree(t *testing.T) {
	h := mustHeap(t)
	a, _ := h.Allocate(24)
	b, _ := h.Allocate(24)
	if err := h.Release(a); err != nil {
		t.Fatal(err)
	}
	c, err := h.Allocate(24)
	if err != nil {
		t.Fatal(err)
	}
	if c != a {
		t.Fatalf("expected reused block c == a, got c=%d a=%d", c, a)
	}
	mustVerify(t, h)
	_ = b
}

func TestScenarioBestFitReuse(t *testing.T) {
	h := mustHeap(t)
	a, _ := h.Allocate(3000)
	b, _ := h.Allocate(3000)
	c, _ := h.Allocate(3000)
	if err := h.Release(b); err != nil {
		t.Fatal(err)
	}
	d, err := h.Allocate(3000)
	if err != nil {
		t.Fatal(err)
	}
	if d != b {
		t.Fatalf("expected d == b, got d=%d b=%d", d, b)
	}
	mustVerify(t, h)
	_, _ = a, c
}

func TestAlignment(t *testing.T) {
	h := mustHeap(t)
	for _, n := range []int{1, 2, 7, 8, 9, 24, 100, 4096} {
		p, err := h.Allocate(n)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", n, err)
		}
		if int(p)%8 != 0 {
			t.Fatalf("Allocate(%d) returned unaligned Ptr %d", n, p)
		}
	}
}

func TestSizeHonesty(t *testing.T) {
	h := mustHeap(t)
	for _, n := range []int{1, 8, 24, 999, 5000} {
		p, err := h.Allocate(n)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", n, err)
		}
		if got := h.PayloadSize(p); got < n {
			t.Fatalf("Allocate(%d) usable size = %d, want >= %d", n, got, n)
		}
		b := h.Bytes(p)
		for i := 0; i < n; i++ {
			b[i] = byte(i)
		}
		b = h.Bytes(p)
		for i := 0; i < n; i++ {
			if b[i] != byte(i) {
				t.Fatalf("payload byte %d corrupted: got %d want %d", i, b[i], byte(i))
			}
		}
	}
}

func TestReallocCopy(t *testing.T) {
	h := mustHeap(t)
	p, err := h.Allocate(16)
	if err != nil {
		t.Fatal(err)
	}
	b := h.Bytes(p)
	for i := range b {
		b[i] = byte(0xAA + i)
	}
	want := append([]byte(nil), b...)

	q, err := h.Reallocate(p, 4096)
	if err != nil {
		t.Fatal(err)
	}
	got := h.Bytes(q)[:len(want)]
	if !bytes.Equal(got, want) {
		t.Fatalf("Reallocate did not preserve the original bytes: got %v want %v", got, want)
	}
	mustVerify(t, h)
}

func TestReallocateNilAndZero(t *testing.T) {
	h := mustHeap(t)
	p, err := h.Reallocate(0, 32)
	if err != nil || p == 0 {
		t.Fatalf("Reallocate(0, 32) = %v, %v", p, err)
	}

	q, err := h.Reallocate(p, 0)
	if err != nil || q != 0 {
		t.Fatalf("Reallocate(p, 0) = %v, %v", q, err)
	}
	mustVerify(t, h)
}

func TestStatsAfterFreshHeapHasNoOccupancy(t *testing.T) {
	h := mustHeap(t)
	want := Stats{TotalBytes: h.Stats().TotalBytes, FreeBytes: h.Stats().TotalBytes}
	got := h.Stats()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestZeroAllocate(t *testing.T) {
	h := mustHeap(t)
	p, err := h.ZeroAllocate(10, 8)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range h.Bytes(p) {
		if c != 0 {
			t.Fatalf("ZeroAllocate did not zero the payload")
		}
	}
}

func TestAllocateZeroReturnsNil(t *testing.T) {
	h := mustHeap(t)
	p, err := h.Allocate(0)
	if err != nil || p != 0 {
		t.Fatalf("Allocate(0) = %v, %v, want 0, nil", p, err)
	}
}

func TestReleaseNilIsNoop(t *testing.T) {
	h := mustHeap(t)
	if err := h.Release(0); err != nil {
		t.Fatalf("Release(0) = %v, want nil", err)
	}
}

func TestReleaseInvalidPtr(t *testing.T) {
	h := mustHeap(t)
	if err := h.Release(Ptr(999999)); err == nil {
		t.Fatalf("Release of an out-of-range Ptr should fail")
	}
}

func TestDoubleFreeDetected(t *testing.T) {
	h := mustHeap(t)
	p, _ := h.Allocate(24)
	if err := h.Release(p); err != nil {
		t.Fatal(err)
	}
	if err := h.Release(p); err == nil {
		t.Fatalf("double Release should return an error")
	}
}

func TestNonOverlap(t *testing.T) {
	h := mustHeap(t)
	var ptrs []Ptr
	sizes := []int{16, 32, 64, 128, 256, 24, 9000}
	for _, n := range sizes {
		p, err := h.Allocate(n)
		if err != nil {
			t.Fatal(err)
		}
		ptrs = append(ptrs, p)
	}
	for i, p := range ptrs {
		start := int(p)
		end := start + h.PayloadSize(p)
		for j, q := range ptrs {
			if i == j {
				continue
			}
			qs := int(q)
			qe := qs + h.PayloadSize(q)
			if start < qe && qs < end {
				t.Fatalf("allocations %d and %d overlap: [%d,%d) vs [%d,%d)", i, j, start, end, qs, qe)
			}
		}
	}
}

func TestOutOfMemoryIsNotPanic(t *testing.T) {
	// maxSize must be large enough for NewHeapWithArena's own init (the
	// alignment pad, bin directory, and initial wilderness chunk) to
	// succeed, but far too small for the oversized request below.
	h, err := NewHeapWithArena(NewArena(4 * CHUNKSIZE))
	if err != nil {
		t.Fatalf("NewHeapWithArena: %v", err)
	}
	p, err := h.Allocate(1 << 20)
	if err == nil {
		t.Fatalf("expected an out-of-memory error, got Ptr %v", p)
	}
	if p != 0 {
		t.Fatalf("failed Allocate must return the zero Ptr, got %v", p)
	}
}

func TestManyAllocFreeStaysConsistent(t *testing.T) {
	h := mustHeap(t)
	var live []Ptr
	sizes := []int{8, 16, 17, 31, 100, 250, 4000, 9000}
	for round := 0; round < 50; round++ {
		n := sizes[round%len(sizes)]
		p, err := h.Allocate(n)
		if err != nil {
			t.Fatalf("round %d: Allocate(%d): %v", round, n, err)
		}
		live = append(live, p)
		if round%3 == 0 && len(live) > 0 {
			victim := live[0]
			live = live[1:]
			if err := h.Release(victim); err != nil {
				t.Fatalf("round %d: Release: %v", round, err)
			}
		}
		mustVerify(t, h)
	}
	for _, p := range live {
		if err := h.Release(p); err != nil {
			t.Fatal(err)
		}
	}
	mustVerify(t, h)
	st := h.Stats()
	if st.AllocBlocks != 0 {
		t.Fatalf("expected all blocks released, got %d still allocated", st.AllocBlocks)
	}
}
